package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wricardo/trailgame/game/engine"
	"github.com/wricardo/trailgame/game/scheduler"
	"github.com/wricardo/trailgame/game/service"
)

var (
	ErrSessionNotFound      = service.ErrSessionNotFound
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
)

// maxIDAttempts bounds the search for a free generated ID.
const maxIDAttempts = 32

// Option configures a Manager.
type Option func(*Manager)

// WithEventSink publishes every session's events to sink.
func WithEventSink(sink service.EventSink) Option {
	return func(m *Manager) { m.sink = sink }
}

// WithExecutorFactory replaces the per-session scheduler loop, e.g. with a
// manual clock in tests.
func WithExecutorFactory(factory func(id string) scheduler.Executor) Option {
	return func(m *Manager) { m.newExecutor = factory }
}

// WithRandFactory supplies the random source of each new session.
func WithRandFactory(factory func(id string) engine.RandSource) Option {
	return func(m *Manager) { m.newRand = factory }
}

// WithLogger sets the parent log entry for sessions.
func WithLogger(entry *logrus.Entry) Option {
	return func(m *Manager) { m.log = entry }
}

// Manager handles game session lifecycle
type Manager struct {
	sessions map[string]*service.Session
	mu       sync.RWMutex

	sink        service.EventSink
	newExecutor func(id string) scheduler.Executor
	newRand     func(id string) engine.RandSource
	log         *logrus.Entry
}

// NewManager creates a new session manager
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[string]*service.Session),
		newExecutor: func(id string) scheduler.Executor {
			return scheduler.NewLoop(id)
		},
		log: logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create creates a new session with the given ID and configuration. An empty
// ID is replaced by a generated one. The session's game is not started.
func (m *Manager) Create(id string, config *engine.GameConfig) (*service.Session, error) {
	if strings.ContainsAny(id, " /?#") {
		return nil, ErrInvalidSessionID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		id = m.generateUniqueID()
		if id == "" {
			return nil, ErrInvalidSessionID
		}
	} else if m.sessionExists(id) {
		// Check if session already exists (case-insensitive)
		return nil, ErrSessionAlreadyExists
	}

	if err := engine.ValidateGameConfig(config); err != nil {
		return nil, err
	}

	opts := service.SessionOptions{
		Executor: m.newExecutor(id),
		Sink:     m.sink,
		Logger:   m.log,
	}
	if m.newRand != nil {
		opts.Rand = m.newRand(id)
	}

	session, err := service.NewSession(id, config, opts)
	if err != nil {
		opts.Executor.Stop()
		return nil, err
	}

	m.sessions[strings.ToLower(id)] = session
	m.log.WithFields(logrus.Fields{
		"session": id,
		"config":  config.Name,
	}).Info("Session created")

	return session, nil
}

// Get retrieves a session by ID (case-insensitive)
func (m *Manager) Get(id string) (*service.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// List returns all active sessions
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}

	return result
}

// Delete removes a session and stops its scheduler. Pending callbacks of
// the session never fire.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	lowerID := strings.ToLower(id)
	session, exists := m.sessions[lowerID]
	if exists {
		delete(m.sessions, lowerID)
	}
	m.mu.Unlock()

	if !exists {
		return ErrSessionNotFound
	}

	session.Executor.Stop()
	m.log.WithField("session", session.ID).Info("Session deleted")
	return nil
}

// UpdateLastAccessed updates the last accessed time for a session
func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		return ErrSessionNotFound
	}

	session.Touch(time.Now())
	return nil
}

// CleanupExpiredSessions removes sessions that haven't been accessed in the given duration
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	m.mu.Lock()
	cutoff := time.Now().Add(-maxAge)
	var expired []*service.Session

	for id, session := range m.sessions {
		if session.LastAccessed().Before(cutoff) {
			delete(m.sessions, id)
			expired = append(expired, session)
		}
	}
	m.mu.Unlock()

	for _, session := range expired {
		session.Executor.Stop()
	}
	if len(expired) > 0 {
		m.log.WithField("removed", len(expired)).Info("Expired sessions cleaned up")
	}

	return len(expired)
}

// StopAll deletes every session; used on shutdown.
func (m *Manager) StopAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*service.Session)
	m.mu.Unlock()

	for _, session := range sessions {
		session.Executor.Stop()
	}
}

// Count returns the number of active sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// generateUniqueID returns a free 4-character ID, or "" if none was found.
// The caller holds the write lock.
func (m *Manager) generateUniqueID() string {
	for i := 0; i < maxIDAttempts; i++ {
		id := generateSessionID()
		if !m.sessionExists(id) {
			return id
		}
	}
	return ""
}

// generateSessionID generates a random 4-character session ID
func generateSessionID() string {
	// Generate 2 random bytes (4 hex characters)
	bytes := make([]byte, 2)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// sessionExists checks if a session exists (case-insensitive)
func (m *Manager) sessionExists(id string) bool {
	_, exists := m.sessions[strings.ToLower(id)]
	return exists
}
