package jobs

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/onemama/telehealth-ussd/internal/storage"
)

// SessionSweeper periodically evicts USSD sessions that have gone idle
type SessionSweeper struct {
	store    storage.SessionStore
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time

	mu      sync.Mutex
	stop    chan struct{}
	done    chan struct{}
	running bool
}

// NewSessionSweeper creates a sweeper that runs every interval and evicts
// sessions idle longer than the store's own timeout
func NewSessionSweeper(store storage.SessionStore, interval time.Duration) *SessionSweeper {
	return &SessionSweeper{
		store:    store,
		interval: interval,
		timeout:  store.Timeout(),
		now:      time.Now,
	}
}

// Start begins sweeping in the background
func (s *SessionSweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		log.Warn().Msg("Session sweeper already running")
		return
	}

	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(s.stop, s.done)

	log.Info().
		Dur("interval", s.interval).
		Dur("timeout", s.timeout).
		Msg("Session sweeper started")
}

// Stop halts the sweeper and waits for the current pass to finish
func (s *SessionSweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	done := s.done
	s.mu.Unlock()

	<-done
	log.Info().Msg("Session sweeper stopped")
}

func (s *SessionSweeper) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.SweepOnce()
		}
	}
}

// SweepOnce runs a single eviction pass and returns the number of sessions removed
func (s *SessionSweeper) SweepOnce() int {
	removed, err := s.store.SweepExpired(s.now(), s.timeout)
	if err != nil {
		log.Error().Err(err).Msg("Failed to sweep expired sessions")
		return 0
	}
	if removed > 0 {
		log.Info().Int("removed", removed).Msg("Expired USSD sessions swept")
	}
	return removed
}
