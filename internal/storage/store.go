package storage

import (
	"errors"
	"time"

	"github.com/onemama/telehealth-ussd/internal/models"
)

// ErrSessionNotFound is returned when a session id has no live session
var ErrSessionNotFound = errors.New("session not found")

// SessionStore defines the interface for USSD session storage.
//
// Implementations hand out copies: mutating a returned session has no effect
// until it is passed to Save. Each method is atomic with respect to the others.
type SessionStore interface {
	// GetOrCreate returns the live session for sessionID, refreshing its
	// activity time, or starts a fresh dialog when none exists or the old one
	// has been idle longer than the store timeout. The bool is true when a
	// new dialog was created.
	GetOrCreate(sessionID, phoneNumber string, now time.Time) (*models.USSDSession, bool, error)

	// Save overwrites the stored state. Last write wins.
	Save(session *models.USSDSession) error

	// Delete removes a session and reports whether one was stored.
	// Deleting an unknown id is not an error.
	Delete(sessionID string) (bool, error)

	// SweepExpired removes every session idle longer than timeout at now and
	// returns how many were removed.
	SweepExpired(now time.Time, timeout time.Duration) (int, error)

	// ListAll and Get are read-only and never refresh activity time.
	ListAll() ([]*models.USSDSession, error)
	Get(sessionID string) (*models.USSDSession, error)

	// Timeout is the idle duration after which a session is considered expired.
	Timeout() time.Duration
}
