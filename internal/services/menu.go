package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/onemama/telehealth-ussd/internal/models"
	"github.com/onemama/telehealth-ussd/internal/utils"
)

// Outcome is the result of applying one turn of input to a session
type Outcome struct {
	Session  models.USSDSession
	Reply    Reply
	Terminal bool
	// FollowUp asks for the reply text to also be sent by SMS
	FollowUp bool
}

// menuState is a position in the menu tree
type menuState struct {
	step    int
	context models.ServiceContext
}

// menuHandler computes the next outcome for input at a given menu
type menuHandler func(ctx context.Context, e *MenuEngine, s models.USSDSession, input string) (Outcome, error)

// mainOption is one row of the main menu transition table
type mainOption struct {
	next     models.ServiceContext // ContextNone for terminal rows
	screen   func(e *MenuEngine, ctx context.Context, s models.USSDSession) (string, error)
	followUp bool
}

var (
	mainMenuState          = menuState{step: models.StepMainMenu}
	bookingState           = menuState{step: models.StepSubMenu, context: models.ContextAppointment}
	healthTipsState        = menuState{step: models.StepSubMenu, context: models.ContextHealthTips}
	checkAppointmentsState = menuState{step: models.StepSubMenu, context: models.ContextCheckAppointments}
)

// menus maps every reachable (step, context) to its handler. Any state not
// listed falls back to the main menu.
var menus = map[menuState]menuHandler{
	mainMenuState:          handleMainMenu,
	bookingState:           handleBooking,
	healthTipsState:        handleHealthTips,
	checkAppointmentsState: handleCheckAppointments,
}

var mainMenuOptionTable = map[string]mainOption{
	"1": {next: models.ContextAppointment, screen: staticScreen(specializationScreen)},
	"2": {next: models.ContextHealthTips, screen: (*MenuEngine).healthTipsMenu},
	"3": {screen: staticScreen(emergencyScreen), followUp: true},
	"4": {next: models.ContextCheckAppointments, screen: (*MenuEngine).appointmentsMenu},
	"5": {screen: staticScreen(registrationScreen), followUp: true},
	"0": {screen: staticScreen(goodbyeScreen)},
}

func staticScreen(text string) func(*MenuEngine, context.Context, models.USSDSession) (string, error) {
	return func(*MenuEngine, context.Context, models.USSDSession) (string, error) {
		return text, nil
	}
}

// MenuEngine maps (session state, input) to the next state and screen.
// It never reads the clock and never touches storage.
type MenuEngine struct {
	directory ContentDirectory
}

// NewMenuEngine creates a menu engine reading submenu content from directory
func NewMenuEngine(directory ContentDirectory) *MenuEngine {
	if directory == nil {
		directory = NewStaticDirectory()
	}
	return &MenuEngine{directory: directory}
}

// Transition applies text, the full *-joined input of the dialog, to session.
// The session passed in is a value; the caller persists Outcome.Session.
func (e *MenuEngine) Transition(ctx context.Context, session models.USSDSession, text string) (Outcome, error) {
	session.History = append([]string(nil), session.History...)

	var (
		out Outcome
		err error
	)
	if text == "" {
		out = toMainMenu(session, mainMenuScreen)
	} else {
		handler, ok := menus[menuState{step: session.Step, context: session.ServiceContext}]
		if !ok {
			handler = resetToMainMenu
		}
		out, err = handler(ctx, e, session, utils.LastInput(text))
		if err != nil {
			return Outcome{}, err
		}
	}

	out.Session.AppendHistory(text)
	return out, nil
}

func toMainMenu(s models.USSDSession, screen string) Outcome {
	s.Step = models.StepMainMenu
	s.ServiceContext = models.ContextNone
	return Outcome{Session: s, Reply: Con(screen)}
}

func enterSubMenu(s models.USSDSession, next models.ServiceContext, screen string) Outcome {
	s.Step = models.StepSubMenu
	s.ServiceContext = next
	return Outcome{Session: s, Reply: Con(screen)}
}

func stay(s models.USSDSession, screen string) Outcome {
	return Outcome{Session: s, Reply: Con(screen)}
}

func finish(s models.USSDSession, screen string) Outcome {
	return Outcome{Session: s, Reply: End(screen), Terminal: true}
}

func resetToMainMenu(_ context.Context, _ *MenuEngine, s models.USSDSession, _ string) (Outcome, error) {
	return toMainMenu(s, mainMenuScreen), nil
}

func handleMainMenu(ctx context.Context, e *MenuEngine, s models.USSDSession, input string) (Outcome, error) {
	option, ok := mainMenuOptionTable[input]
	if !ok {
		return stay(s, invalidMainMenuScreen()), nil
	}

	screen, err := option.screen(e, ctx, s)
	if err != nil {
		return Outcome{}, err
	}

	if option.next == models.ContextNone {
		out := finish(s, screen)
		out.FollowUp = option.followUp
		return out, nil
	}
	return enterSubMenu(s, option.next, screen), nil
}

func handleBooking(_ context.Context, _ *MenuEngine, s models.USSDSession, input string) (Outcome, error) {
	if input == "0" {
		return toMainMenu(s, mainMenuScreen), nil
	}
	return finish(s, bookingScreen), nil
}

func handleHealthTips(ctx context.Context, e *MenuEngine, s models.USSDSession, input string) (Outcome, error) {
	if input == "0" {
		return toMainMenu(s, mainMenuScreen), nil
	}

	topics, err := e.directory.HealthTopics(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to load health topics: %w", err)
	}

	n, ok := menuIndex(input, len(topics))
	if !ok {
		return stay(s, invalidHealthTipsScreen(topics)), nil
	}
	if topic := topics[n]; topic.HasContent() {
		return finish(s, topic.Body), nil
	}
	return finish(s, comingSoonScreen), nil
}

func handleCheckAppointments(ctx context.Context, e *MenuEngine, s models.USSDSession, input string) (Outcome, error) {
	if input == "0" {
		return toMainMenu(s, mainMenuScreen), nil
	}

	appointments, err := e.directory.Appointments(ctx, s.PhoneNumber)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to load appointments: %w", err)
	}

	n, ok := menuIndex(input, len(appointments))
	if !ok {
		return stay(s, invalidAppointmentsScreen(len(appointments))), nil
	}
	return finish(s, appointments[n].Detail), nil
}

func (e *MenuEngine) healthTipsMenu(ctx context.Context, _ models.USSDSession) (string, error) {
	topics, err := e.directory.HealthTopics(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load health topics: %w", err)
	}
	return healthTipsScreen(topics), nil
}

func (e *MenuEngine) appointmentsMenu(ctx context.Context, s models.USSDSession) (string, error) {
	appointments, err := e.directory.Appointments(ctx, s.PhoneNumber)
	if err != nil {
		return "", fmt.Errorf("failed to load appointments: %w", err)
	}
	return appointmentsScreen(appointments), nil
}

// menuIndex converts a 1-based menu choice into a slice index. Only plain
// digits count, so "+1" or "01" are rejected like any other invalid option.
func menuIndex(input string, count int) (int, bool) {
	if input == "" || input[0] < '1' || input[0] > '9' {
		return 0, false
	}
	n, err := strconv.Atoi(input)
	if err != nil || n > count {
		return 0, false
	}
	return n - 1, true
}
