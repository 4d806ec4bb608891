package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// ServiceContext identifies which submenu family a dialog is in
type ServiceContext string

const (
	ContextNone              ServiceContext = ""
	ContextAppointment       ServiceContext = "appointment"
	ContextHealthTips        ServiceContext = "health_tips"
	ContextCheckAppointments ServiceContext = "check_appointments"
)

// Menu steps
const (
	StepNew      = 0
	StepMainMenu = 1
	StepSubMenu  = 2
)

// USSDSession is the state of one USSD dialog
type USSDSession struct {
	SessionID      string         `json:"session_id"`
	DialogID       string         `json:"dialog_id"`
	Step           int            `json:"step"`
	ServiceContext ServiceContext `json:"service_context,omitempty"`
	History        []string       `json:"history"`
	PhoneNumber    string         `json:"phone_number"`
	ServiceCode    string         `json:"service_code,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	LastActivityAt time.Time      `json:"last_activity_at"`
}

// Clone returns a deep copy so callers never share the History backing array
func (s *USSDSession) Clone() *USSDSession {
	if s == nil {
		return nil
	}
	c := *s
	c.History = append([]string(nil), s.History...)
	return &c
}

// AppendHistory records text unless it was already seen in this dialog
func (s *USSDSession) AppendHistory(text string) {
	for _, h := range s.History {
		if h == text {
			return
		}
	}
	s.History = append(s.History, text)
}

// Touch moves LastActivityAt forward, never backward
func (s *USSDSession) Touch(now time.Time) {
	if now.After(s.LastActivityAt) {
		s.LastActivityAt = now
	}
}

// IdleFor reports how long the session has been untouched at now
func (s *USSDSession) IdleFor(now time.Time) time.Duration {
	return now.Sub(s.LastActivityAt)
}

// USSDSessionRecord is the database row backing a USSDSession
type USSDSessionRecord struct {
	gorm.Model
	SessionID      string    `json:"session_id" gorm:"uniqueIndex;size:128"`
	DialogID       string    `json:"dialog_id" gorm:"size:36"`
	Step           int       `json:"step"`
	ServiceContext string    `json:"service_context" gorm:"size:32"`
	History        string    `json:"history"` // JSON array of raw inputs
	PhoneNumber    string    `json:"phone_number" gorm:"index"`
	ServiceCode    string    `json:"service_code"`
	StartedAt      time.Time `json:"started_at"`
	LastActivityAt time.Time `json:"last_activity_at" gorm:"index"`
}

// TableName keeps the table name stable across struct renames
func (USSDSessionRecord) TableName() string {
	return "ussd_sessions"
}

// ToRecord converts a session into its database row
func (s *USSDSession) ToRecord() (*USSDSessionRecord, error) {
	history := s.History
	if history == nil {
		history = []string{}
	}
	data, err := json.Marshal(history)
	if err != nil {
		return nil, err
	}
	return &USSDSessionRecord{
		SessionID:      s.SessionID,
		DialogID:       s.DialogID,
		Step:           s.Step,
		ServiceContext: string(s.ServiceContext),
		History:        string(data),
		PhoneNumber:    s.PhoneNumber,
		ServiceCode:    s.ServiceCode,
		StartedAt:      s.CreatedAt,
		LastActivityAt: s.LastActivityAt,
	}, nil
}

// ToSession converts a database row back into a session
func (r *USSDSessionRecord) ToSession() (*USSDSession, error) {
	history := []string{}
	if r.History != "" {
		if err := json.Unmarshal([]byte(r.History), &history); err != nil {
			return nil, err
		}
	}
	return &USSDSession{
		SessionID:      r.SessionID,
		DialogID:       r.DialogID,
		Step:           r.Step,
		ServiceContext: ServiceContext(r.ServiceContext),
		History:        history,
		PhoneNumber:    r.PhoneNumber,
		ServiceCode:    r.ServiceCode,
		CreatedAt:      r.StartedAt,
		LastActivityAt: r.LastActivityAt,
	}, nil
}
