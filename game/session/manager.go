package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/hexstones/game/engine"
	"github.com/wricardo/hexstones/game/service"
)

var (
	ErrSessionNotFound      = service.ErrSessionNotFound
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
	ErrChainPending         = errors.New("session has a pending chain reaction")
	ErrCorruptSession       = errors.New("corrupt session data")
)

// Manager handles game session lifecycle
type Manager struct {
	sessions    map[string]*service.Session
	persistence SessionPersistence
	logger      *slog.Logger
	mu          sync.RWMutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithPersistence stores sessions through p.
func WithPersistence(p SessionPersistence) Option {
	return func(m *Manager) { m.persistence = p }
}

// WithLogger sets the manager logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a new session manager
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[string]*service.Session),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewManagerWithPersistence creates a new session manager with persistence
func NewManagerWithPersistence(persistence SessionPersistence) *Manager {
	return NewManager(WithPersistence(persistence))
}

// Create creates a new session with the given ID and configuration
func (m *Manager) Create(id, configID string, config *engine.GameConfig) (*service.Session, error) {
	if id == "" {
		id = m.generateSessionID()
	} else if !validSessionID(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sessionExists(id) {
		return nil, ErrSessionAlreadyExists
	}

	eng, err := engine.NewEngine(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	eng.DrainDirty()

	session := &service.Session{
		ID:             id,
		ConfigID:       configID,
		Engine:         eng,
		Config:         config,
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}

	m.sessions[strings.ToLower(id)] = session

	// Persistence failures never fail creation
	m.persist(session, "create")

	return session, nil
}

// Get retrieves a session by ID (case-insensitive)
func (m *Manager) Get(id string) (*service.Session, error) {
	m.mu.RLock()
	session, exists := m.lookup(id)
	m.mu.RUnlock()

	if exists {
		return session, nil
	}

	// Try loading from persistence if not in memory
	if m.persistence != nil && m.persistence.Exists(id) {
		session, err := m.persistence.Load(id)
		if err != nil {
			return nil, fmt.Errorf("failed to load persisted session: %w", err)
		}

		m.mu.Lock()
		m.sessions[strings.ToLower(id)] = session
		m.mu.Unlock()

		return session, nil
	}

	return nil, ErrSessionNotFound
}

// GetOrCreate gets an existing session or creates a new one
func (m *Manager) GetOrCreate(id, configID string, config *engine.GameConfig) (*service.Session, error) {
	session, err := m.Get(id)
	if err == nil {
		return session, nil
	}

	if errors.Is(err, ErrSessionNotFound) {
		return m.Create(id, configID, config)
	}

	return nil, err
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

// Delete removes a session from memory and storage
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	inMemory := m.removeLocked(id)

	if m.persistence != nil && m.persistence.Exists(id) {
		if err := m.persistence.Delete(id); err != nil {
			return fmt.Errorf("failed to delete persisted session: %w", err)
		}
		return nil
	}

	if !inMemory {
		return ErrSessionNotFound
	}

	return nil
}

// DeleteFromMemory removes a session from memory only (not from persistence)
func (m *Manager) DeleteFromMemory(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.removeLocked(id) {
		return ErrSessionNotFound
	}
	return nil
}

func (m *Manager) removeLocked(id string) bool {
	for _, key := range []string{strings.ToLower(id), id} {
		if _, exists := m.sessions[key]; exists {
			delete(m.sessions, key)
			return true
		}
	}
	return false
}

// UpdateLastAccessed updates the last accessed time for a session
func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.lookup(id)
	if !exists {
		return ErrSessionNotFound
	}

	session.LastAccessedAt = time.Now()
	return nil
}

// Save saves a specific session to persistence. A session with a pending
// chain reaction is skipped; it is saved once the chain resolves.
func (m *Manager) Save(id string) error {
	if m.persistence == nil {
		return nil
	}

	m.mu.RLock()
	session, exists := m.lookup(id)
	m.mu.RUnlock()
	if !exists {
		return ErrSessionNotFound
	}

	err := m.persistence.Save(session)
	if errors.Is(err, ErrChainPending) {
		m.logger.Debug("save deferred until chain resolves", "session", id)
		return nil
	}
	return err
}

func (m *Manager) persist(session *service.Session, reason string) {
	if m.persistence == nil {
		return
	}
	if err := m.persistence.Save(session); err != nil && !errors.Is(err, ErrChainPending) {
		m.logger.Warn("failed to persist session", "session", session.ID, "reason", reason, "error", err)
	}
}

// CleanupExpiredSessions removes sessions that haven't been accessed in the given duration
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for id, session := range m.sessions {
		if session.LastAccessedAt.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}

	if removed > 0 {
		m.logger.Info("expired sessions removed", "count", removed)
	}
	return removed
}

// Count returns the number of active sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// generateSessionID generates a random 4-character session ID
func (m *Manager) generateSessionID() string {
	bytes := make([]byte, 2)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// validSessionID accepts IDs that are safe as file names and URL segments.
func validSessionID(id string) bool {
	if len(id) > 64 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

func (m *Manager) lookup(id string) (*service.Session, bool) {
	if session, exists := m.sessions[strings.ToLower(id)]; exists {
		return session, true
	}
	session, exists := m.sessions[id]
	return session, exists
}

func (m *Manager) sessionExists(id string) bool {
	_, exists := m.lookup(id)
	return exists
}

// LoadPersistedSessions loads all persisted sessions into memory
func (m *Manager) LoadPersistedSessions() error {
	if m.persistence == nil {
		return nil
	}

	sessionIDs, err := m.persistence.ListAll()
	if err != nil {
		return fmt.Errorf("failed to list persisted sessions: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	loadedCount := 0
	for _, id := range sessionIDs {
		if _, exists := m.sessions[strings.ToLower(id)]; exists {
			continue
		}

		session, err := m.persistence.Load(id)
		if err != nil {
			m.logger.Warn("failed to load persisted session", "session", id, "error", err)
			continue
		}

		m.sessions[strings.ToLower(id)] = session
		loadedCount++
	}

	if loadedCount > 0 {
		m.logger.Info("loaded persisted sessions", "count", loadedCount)
	}

	return nil
}

// SaveAllSessions saves all in-memory sessions to persistence. Sessions with a
// pending chain reaction are skipped; GameService.Shutdown resolves those
// under the service lock before saving. It reads every engine, so it must not
// run concurrently with game actions.
func (m *Manager) SaveAllSessions() error {
	if m.persistence == nil {
		return nil
	}

	m.mu.RLock()
	sessions := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}
	m.mu.RUnlock()

	errorCount := 0
	for _, session := range sessions {
		err := m.persistence.Save(session)
		if errors.Is(err, ErrChainPending) {
			m.logger.Debug("save deferred until chain resolves", "session", session.ID)
			continue
		}
		if err != nil {
			m.logger.Warn("failed to save session", "session", session.ID, "error", err)
			errorCount++
		}
	}

	if errorCount > 0 {
		return fmt.Errorf("failed to save %d sessions", errorCount)
	}

	return nil
}
