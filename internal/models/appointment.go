package models

// Appointment is a patient's consultation as shown on a handset
type Appointment struct {
	ID             string `json:"id"`
	DoctorName     string `json:"doctor_name"`
	Specialization string `json:"specialization"`
	Summary        string `json:"summary"` // one line for the list screen
	Detail         string `json:"detail"`  // full text for the detail screen
	Status         string `json:"status"`
}

// AppointmentStatusConfirmed marks a booked consultation
const AppointmentStatusConfirmed = "confirmed"

// HealthTopic is one entry of the health tips submenu
type HealthTopic struct {
	Title string `json:"title"`
	Body  string `json:"body"` // empty until content is published
}

// HasContent reports whether the topic has published content
func (t HealthTopic) HasContent() bool {
	return t.Body != ""
}
