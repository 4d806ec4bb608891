package services

import (
	"fmt"
	"strings"

	"github.com/onemama/telehealth-ussd/internal/models"
)

const (
	hotline = "+232 44 444 419"

	invalidOption = "Invalid option. Please try again."
	backToMain    = "0. Back to Main Menu"

	mainMenuOptions = "1. Book Appointment\n2. Health Tips\n3. Emergency Contact\n4. Check Appointments\n5. Register New User\n\n0. Exit"

	mainMenuScreen = "Welcome to TeleHealth Platform\n\n" + mainMenuOptions

	specializationScreen = "Book Appointment\n\nSelect Doctor Specialization:\n\n1. General Medicine\n2. Gynecology\n3. Obstetrics\n4. Pediatrics\n5. Family Medicine\n\n" + backToMain

	emergencyScreen = "Emergency Contacts\n\n24/7 Emergency Hotline:\n" + hotline + "\n\nLocal Emergency:\n911\n\nWomen's Health Crisis:\n+1-800-WOMEN"

	registrationScreen = "New User Registration\n\nTo complete registration, please:\n1. Visit our website\n2. Call " + hotline + "\n3. Visit nearest clinic\n\nRegistration requires:\n- Full Name\n- Phone Number\n- Location\n- Emergency Contact"

	goodbyeScreen = "Thank you for using TeleHealth USSD. Goodbye!"

	comingSoonScreen = "Content coming soon. Call " + hotline + " for more info."

	bookingScreen = "Booking appointment...\nPlease call " + hotline + "\nto complete booking."

	errorScreen = "An error occurred. Please try again.\n\n1. Retry\n0. Exit"

	invalidRequestScreen = "Invalid request. Missing sessionId or phoneNumber."
)

func invalidMainMenuScreen() string {
	return invalidOption + "\n\n" + mainMenuOptions
}

func healthTopicOptions(topics []models.HealthTopic) string {
	lines := make([]string, 0, len(topics))
	for i, topic := range topics {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, topic.Title))
	}
	return strings.Join(lines, "\n") + "\n\n" + backToMain
}

func healthTipsScreen(topics []models.HealthTopic) string {
	return "Daily Health Tips\n\n" + healthTopicOptions(topics)
}

func invalidHealthTipsScreen(topics []models.HealthTopic) string {
	return invalidOption + "\n\n" + healthTopicOptions(topics)
}

// detailsPrompt reads "Press 1 or 2 for details" for two appointments
func detailsPrompt(count int) string {
	switch count {
	case 0:
		return backToMain
	case 1:
		return "Press 1 for details\n" + backToMain
	case 2:
		return "Press 1 or 2 for details\n" + backToMain
	default:
		return fmt.Sprintf("Press 1-%d for details\n%s", count, backToMain)
	}
}

func appointmentsScreen(appointments []models.Appointment) string {
	if len(appointments) == 0 {
		return "Your Appointments\n\nNo upcoming appointments\n\n" + detailsPrompt(0)
	}

	var b strings.Builder
	b.WriteString("Your Appointments\n\nUpcoming:\n")
	for i, appt := range appointments {
		fmt.Fprintf(&b, "%d. %s\n", i+1, appt.Summary)
	}
	b.WriteString("\nNo other appointments\n\n")
	b.WriteString(detailsPrompt(len(appointments)))
	return b.String()
}

func invalidAppointmentsScreen(count int) string {
	return invalidOption + "\n\n" + detailsPrompt(count)
}
