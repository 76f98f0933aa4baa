package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cinematch/cinematch/internal/metrics"
)

var ErrNotFound = errors.New("session not found")

// Manager owns the live sessions keyed by UUID. Sessions live in memory only.
type Manager struct {
	backend     Backend
	idleTimeout time.Duration
	logger      zerolog.Logger
	now         func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Coordinator
}

// NewManager creates a session manager. Sessions idle for longer than
// idleTimeout without a subscriber are removed by EvictIdle.
func NewManager(backend Backend, idleTimeout time.Duration, logger zerolog.Logger) *Manager {
	return &Manager{
		backend:     backend,
		idleTimeout: idleTimeout,
		logger:      logger,
		now:         time.Now,
		sessions:    make(map[string]*Coordinator),
	}
}

// Create starts a new session.
func (m *Manager) Create() *Coordinator {
	c := NewCoordinator(uuid.NewString(), m.backend, m.logger)

	m.mu.Lock()
	m.sessions[c.ID()] = c
	count := len(m.sessions)
	m.mu.Unlock()

	metrics.ActiveSessions.Set(float64(count))
	m.logger.Debug().Str("component", "session").Str("session", c.ID()).Msg("Session created")
	return c
}

// Get returns the session with id.
func (m *Manager) Get(id string) (*Coordinator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

// Delete closes and removes the session with id.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	c, ok := m.sessions[id]
	delete(m.sessions, id)
	count := len(m.sessions)
	m.mu.Unlock()

	if !ok {
		return ErrNotFound
	}

	metrics.ActiveSessions.Set(float64(count))
	c.Close()
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// EvictIdle removes sessions with no subscriber whose last activity is older
// than the idle timeout. It returns the number removed.
func (m *Manager) EvictIdle() int {
	if m.idleTimeout <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.idleTimeout)

	var evicted []*Coordinator
	m.mu.Lock()
	for id, c := range m.sessions {
		if c.Subscribed() || c.LastActive().After(cutoff) {
			continue
		}
		evicted = append(evicted, c)
		delete(m.sessions, id)
	}
	count := len(m.sessions)
	m.mu.Unlock()

	metrics.ActiveSessions.Set(float64(count))
	for _, c := range evicted {
		c.Close()
	}

	if len(evicted) > 0 {
		m.logger.Info().Str("component", "session").Int("evicted", len(evicted)).Int("remaining", count).Msg("Evicted idle sessions")
	}
	return len(evicted)
}

// Close closes every session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Coordinator)
	m.mu.Unlock()

	metrics.ActiveSessions.Set(0)
	for _, c := range sessions {
		c.Close()
	}
}
