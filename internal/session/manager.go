package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/idozri/vidto-listen/internal/logging"
)

// Manager tracks live sessions and expires idle ones.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	config   func(id string) Config
	log      *logging.Logger
}

// NewManager returns a manager whose sessions are built from config and
// expire after ttl without activity.
func NewManager(ttl time.Duration, config func(id string) Config, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		config:   config,
		log:      logger.Named("sessions"),
	}
}

// Create starts a new idle session.
func (m *Manager) Create() *Session {
	id := uuid.New().String()
	s := New(id, m.config(id))

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	m.log.Debugw("session created", "session", id)
	return s
}

// Get returns a live session and records activity on it. A session idle
// for longer than the TTL is expired here even if no sweep has run yet.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNoSession
	}
	if time.Since(s.LastSeen()) > m.ttl {
		m.expire(id, s)
		return nil, ErrNoSession
	}
	s.Touch()
	return s, nil
}

func (m *Manager) expire(id string, s *Session) {
	m.mu.Lock()
	if m.sessions[id] != s {
		m.mu.Unlock()
		return
	}
	delete(m.sessions, id)
	m.mu.Unlock()

	s.Close()
	m.log.Infow("session expired", "session", id)
}

// Remove closes and forgets a session.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.Close()
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep closes sessions idle since before now minus the TTL and returns
// how many were removed.
func (m *Manager) Sweep(now time.Time) int {
	var expired []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if now.Sub(s.LastSeen()) > m.ttl {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.Close()
		m.log.Infow("session expired", "session", s.ID())
	}
	return len(expired)
}

// Run sweeps on every interval until ctx is done, then closes every
// remaining session.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.closeAll()
			return
		case now := <-ticker.C:
			m.Sweep(now)
		}
	}
}

func (m *Manager) closeAll() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range all {
		s.Close()
	}
}
