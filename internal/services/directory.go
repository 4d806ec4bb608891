package services

import (
	"context"

	"github.com/onemama/telehealth-ussd/internal/models"
)

// ContentDirectory supplies the data shown in the appointments and health
// tips submenus. The platform's appointment and content services implement
// it; StaticDirectory is used until they are wired in.
type ContentDirectory interface {
	Appointments(ctx context.Context, phoneNumber string) ([]models.Appointment, error)
	HealthTopics(ctx context.Context) ([]models.HealthTopic, error)
}

// StaticDirectory serves fixed placeholder content
type StaticDirectory struct {
	appointments []models.Appointment
	topics       []models.HealthTopic
}

// NewStaticDirectory creates a directory with the default placeholder content
func NewStaticDirectory() *StaticDirectory {
	return &StaticDirectory{
		appointments: []models.Appointment{
			{
				ID:             "APT00001",
				DoctorName:     "Dr. Smith",
				Specialization: "General Medicine",
				Summary:        "Dr. Smith - Jan 15, 2:00 PM",
				Detail:         "Dr. Smith - General Medicine\n\nDate: January 15, 2024\nTime: 2:00 PM - 2:30 PM\nType: Video Consultation\nStatus: Confirmed\n\nTo reschedule, call:\n" + hotline,
				Status:         models.AppointmentStatusConfirmed,
			},
			{
				ID:             "APT00002",
				DoctorName:     "Dr. Johnson",
				Specialization: "Gynecology",
				Summary:        "Dr. Johnson - Jan 20, 10:00 AM",
				Detail:         "Dr. Johnson - Gynecology\nJan 20, 10:00 AM\nVideo Call\nConfirmed",
				Status:         models.AppointmentStatusConfirmed,
			},
		},
		topics: []models.HealthTopic{
			{
				Title: "Maternal Health",
				Body:  "Maternal Health Tips\n\n• Take prenatal vitamins daily\n• Attend all prenatal checkups\n• Eat nutritious foods\n• Stay hydrated\n• Get adequate rest\n• Avoid alcohol & smoking\n\nFor more info, call:\n" + hotline,
			},
			{
				Title: "Nutrition",
				Body:  "Nutrition Guidelines\n\n• Eat 5 servings of fruits/vegetables daily\n• Choose whole grains\n• Include lean proteins\n• Limit processed foods\n• Drink 8 glasses of water\n• Take iron supplements if needed",
			},
			{Title: "Mental Wellness"},
			{Title: "Preventive Care"},
			{Title: "Emergency Signs"},
		},
	}
}

// NewStaticDirectoryWith creates a directory serving the given content
func NewStaticDirectoryWith(appointments []models.Appointment, topics []models.HealthTopic) *StaticDirectory {
	return &StaticDirectory{
		appointments: appointments,
		topics:       topics,
	}
}

func (d *StaticDirectory) Appointments(_ context.Context, _ string) ([]models.Appointment, error) {
	return d.appointments, nil
}

func (d *StaticDirectory) HealthTopics(_ context.Context) ([]models.HealthTopic, error) {
	return d.topics, nil
}
