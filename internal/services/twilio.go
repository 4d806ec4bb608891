package services

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioConfig holds the credentials for the SMS follow-up sender
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string // sender number, e.g. "+15005550006"
}

// Configured reports whether all credentials are present
func (c TwilioConfig) Configured() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.From != ""
}

var (
	// ErrFollowUpDisabled means SMS follow-ups are switched off in configuration
	ErrFollowUpDisabled = errors.New("sms follow-ups disabled")
	// ErrTwilioNotConfigured means one or more Twilio credentials are missing
	ErrTwilioNotConfigured = errors.New("twilio credentials not found")
)

// messageCreator is the part of the Twilio API client used to send messages
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

type TwilioService struct {
	api  messageCreator
	from string
}

// NewTwilioService creates a new Twilio service instance
func NewTwilioService(cfg TwilioConfig) (*TwilioService, error) {
	if !cfg.Configured() {
		return nil, ErrTwilioNotConfigured
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})

	return &TwilioService{
		api:  client.Api,
		from: cfg.From,
	}, nil
}

// NewFollowUpNotifier returns the sender for SMS follow-ups. The error says
// why follow-ups are off: ErrFollowUpDisabled or ErrTwilioNotConfigured.
func NewFollowUpNotifier(enabled bool, cfg TwilioConfig) (*TwilioService, error) {
	if !enabled {
		return nil, ErrFollowUpDisabled
	}
	return NewTwilioService(cfg)
}

// SendSMS sends a plain text message via Twilio
func (t *TwilioService) SendSMS(to string, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(to)
	params.SetBody(body)

	resp, err := t.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}

	if resp.ErrorCode != nil && *resp.ErrorCode != 0 {
		msg := ""
		if resp.ErrorMessage != nil {
			msg = *resp.ErrorMessage
		}
		return fmt.Errorf("twilio error %d: %s", *resp.ErrorCode, msg)
	}

	if resp.Sid != nil {
		log.Debug().Str("sid", *resp.Sid).Msg("SMS sent")
	}
	return nil
}
