package storage

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/onemama/telehealth-ussd/internal/models"
)

// MemoryStore holds all sessions in process memory
type MemoryStore struct {
	sessions map[string]*models.USSDSession
	mu       sync.RWMutex
	timeout  time.Duration
}

// NewMemoryStore creates a new in-memory session store
func NewMemoryStore(timeout time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*models.USSDSession),
		timeout:  timeout,
	}
}

// Timeout returns the idle timeout used by GetOrCreate
func (m *MemoryStore) Timeout() time.Duration {
	return m.timeout
}

func (m *MemoryStore) GetOrCreate(sessionID, phoneNumber string, now time.Time) (*models.USSDSession, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.sessions[sessionID]; ok && existing.IdleFor(now) <= m.timeout {
		existing.Touch(now)
		return existing.Clone(), false, nil
	}

	session := newSession(sessionID, phoneNumber, now)
	m.sessions[sessionID] = session
	return session.Clone(), true, nil
}

func (m *MemoryStore) Save(session *models.USSDSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := session.Clone()
	if existing, ok := m.sessions[session.SessionID]; ok {
		stored.Touch(existing.LastActivityAt)
	}
	m.sessions[session.SessionID] = stored
	return nil
}

func (m *MemoryStore) Delete(sessionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	return ok, nil
}

func (m *MemoryStore) SweepExpired(now time.Time, timeout time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	expired := []string{}
	for id, session := range m.sessions {
		if session.IdleFor(now) > timeout {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		delete(m.sessions, id)
	}
	return len(expired), nil
}

func (m *MemoryStore) ListAll() ([]*models.USSDSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sessions := make([]*models.USSDSession, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session.Clone())
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].SessionID < sessions[j].SessionID
	})
	return sessions, nil
}

func (m *MemoryStore) Get(sessionID string) (*models.USSDSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[sessionID]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return session.Clone(), nil
}

// newSession starts a fresh dialog at step 0
func newSession(sessionID, phoneNumber string, now time.Time) *models.USSDSession {
	return &models.USSDSession{
		SessionID:      sessionID,
		DialogID:       uuid.NewString(),
		Step:           models.StepNew,
		ServiceContext: models.ContextNone,
		History:        []string{},
		PhoneNumber:    phoneNumber,
		CreatedAt:      now,
		LastActivityAt: now,
	}
}
