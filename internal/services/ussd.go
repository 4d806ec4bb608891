package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/onemama/telehealth-ussd/internal/models"
	"github.com/onemama/telehealth-ussd/internal/storage"
	"github.com/onemama/telehealth-ussd/internal/utils"
)

var (
	// ErrInvalidRequest is returned when sessionId or phoneNumber is missing
	ErrInvalidRequest = errors.New("missing sessionId or phoneNumber")
	// ErrTransitionFailed wraps any fault while computing or storing a turn
	ErrTransitionFailed = errors.New("ussd transition failed")
)

// Notifier sends a text message to a handset
type Notifier interface {
	SendSMS(to, body string) error
}

// USSDService runs one request through the session store and menu engine
type USSDService struct {
	store    storage.SessionStore
	engine   *MenuEngine
	notifier Notifier
	now      func() time.Time
}

// USSDOption configures a USSDService
type USSDOption func(*USSDService)

// WithNotifier enables SMS follow-ups for screens that ask for one
func WithNotifier(n Notifier) USSDOption {
	return func(s *USSDService) {
		s.notifier = n
	}
}

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) USSDOption {
	return func(s *USSDService) {
		s.now = now
	}
}

// NewUSSDService creates a new USSD service
func NewUSSDService(store storage.SessionStore, engine *MenuEngine, opts ...USSDOption) *USSDService {
	s := &USSDService{
		store:  store,
		engine: engine,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Process handles one turn of a dialog and always returns a displayable reply.
// The error is ErrInvalidRequest or wraps ErrTransitionFailed; the reply is
// still the screen to send back in both cases.
func (s *USSDService) Process(ctx context.Context, req models.USSDRequest) (Reply, error) {
	phone := utils.NormalizePhone(req.PhoneNumber)
	if req.SessionID == "" || phone == "" {
		return InvalidRequestReply(), ErrInvalidRequest
	}

	session, created, err := s.store.GetOrCreate(req.SessionID, phone, s.now())
	if err != nil {
		return Con(errorScreen), fmt.Errorf("%w: %v", ErrTransitionFailed, err)
	}
	if created {
		session.ServiceCode = req.ServiceCode
		log.Info().
			Str("session_id", session.SessionID).
			Str("dialog_id", session.DialogID).
			Str("service_code", req.ServiceCode).
			Msg("New USSD session created")
	}

	out, err := s.transition(ctx, *session, req.Text)
	if err != nil {
		return Con(errorScreen), fmt.Errorf("%w: %v", ErrTransitionFailed, err)
	}

	if out.Terminal {
		if _, err := s.store.Delete(session.SessionID); err != nil {
			return Con(errorScreen), fmt.Errorf("%w: %v", ErrTransitionFailed, err)
		}
		log.Info().
			Str("session_id", session.SessionID).
			Int("turns", len(out.Session.History)).
			Msg("USSD session ended")
		if out.FollowUp {
			s.sendFollowUp(phone, out.Reply.Text)
		}
		return out.Reply, nil
	}

	if err := s.store.Save(&out.Session); err != nil {
		return Con(errorScreen), fmt.Errorf("%w: %v", ErrTransitionFailed, err)
	}

	log.Debug().
		Str("session_id", session.SessionID).
		Int("step", out.Session.Step).
		Str("context", string(out.Session.ServiceContext)).
		Msg("USSD session advanced")

	return out.Reply, nil
}

// transition runs the menu engine, turning a panic into an error so a bad
// turn never leaves a half-written session behind
func (s *USSDService) transition(ctx context.Context, session models.USSDSession, text string) (out Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in menu engine: %v", r)
		}
	}()
	return s.engine.Transition(ctx, session, text)
}

func (s *USSDService) sendFollowUp(phone, body string) {
	if s.notifier == nil {
		return
	}
	go func() {
		if err := s.notifier.SendSMS(phone, body); err != nil {
			log.Warn().Err(err).Str("phone", phone).Msg("Failed to send SMS follow-up")
			return
		}
		log.Info().Str("phone", phone).Msg("SMS follow-up sent")
	}()
}

// ActiveSessions returns the number of live sessions, or -1 if the store fails
func (s *USSDService) ActiveSessions() int {
	sessions, err := s.store.ListAll()
	if err != nil {
		return -1
	}
	return len(sessions)
}
