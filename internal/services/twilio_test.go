package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

type fakeMessageAPI struct {
	params *twilioApi.CreateMessageParams
	resp   *twilioApi.ApiV2010Message
	err    error
}

func (f *fakeMessageAPI) CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	f.params = params
	return f.resp, f.err
}

func TestTwilioConfig_Configured(t *testing.T) {
	assert.True(t, TwilioConfig{AccountSID: "AC1", AuthToken: "tok", From: "+1500"}.Configured())
	assert.False(t, TwilioConfig{AccountSID: "AC1", AuthToken: "tok"}.Configured())

	_, err := NewTwilioService(TwilioConfig{})
	assert.ErrorIs(t, err, ErrTwilioNotConfigured)
}

func TestNewFollowUpNotifier(t *testing.T) {
	full := TwilioConfig{AccountSID: "AC1", AuthToken: "tok", From: "+1500"}

	tests := []struct {
		name    string
		enabled bool
		cfg     TwilioConfig
		wantErr error
	}{
		{name: "disabled with credentials", enabled: false, cfg: full, wantErr: ErrFollowUpDisabled},
		{name: "disabled without credentials", enabled: false, cfg: TwilioConfig{}, wantErr: ErrFollowUpDisabled},
		{name: "enabled without credentials", enabled: true, cfg: TwilioConfig{AccountSID: "AC1"}, wantErr: ErrTwilioNotConfigured},
		{name: "enabled", enabled: true, cfg: full},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier, err := NewFollowUpNotifier(tt.enabled, tt.cfg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, notifier)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, notifier)
		})
	}
}

func TestTwilioService_SendSMS(t *testing.T) {
	sid := "SM123"
	api := &fakeMessageAPI{resp: &twilioApi.ApiV2010Message{Sid: &sid}}
	svc := &TwilioService{api: api, from: "+15005550006"}

	require.NoError(t, svc.SendSMS("+23276000001", "Emergency Contacts"))
	require.NotNil(t, api.params)
	assert.Equal(t, "+23276000001", *api.params.To)
	assert.Equal(t, "+15005550006", *api.params.From)
	assert.Equal(t, "Emergency Contacts", *api.params.Body)
}

func TestTwilioService_SendSMS_Errors(t *testing.T) {
	code := 21211
	msg := "Invalid 'To' Phone Number"

	tests := []struct {
		name string
		api  *fakeMessageAPI
		want string
	}{
		{name: "transport error", api: &fakeMessageAPI{err: errors.New("timeout")}, want: "failed to send SMS: timeout"},
		{name: "api error code", api: &fakeMessageAPI{resp: &twilioApi.ApiV2010Message{ErrorCode: &code, ErrorMessage: &msg}}, want: "twilio error 21211: Invalid 'To' Phone Number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &TwilioService{api: tt.api, from: "+15005550006"}
			assert.EqualError(t, svc.SendSMS("+1", "hi"), tt.want)
		})
	}
}
