package session

import (
	"fmt"
	"time"

	"github.com/wricardo/hexstones/game/engine"
	"github.com/wricardo/hexstones/game/service"
)

// SessionPersistence defines the interface for persisting sessions
type SessionPersistence interface {
	// Save persists a session to storage
	Save(session *service.Session) error

	// Load retrieves a session from storage by ID
	Load(id string) (*service.Session, error)

	// Delete removes a session from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool
}

// PersistedSessionData represents the JSON structure for persisted sessions
type PersistedSessionData struct {
	ID             string            `json:"id"`
	ConfigID       string            `json:"config_id"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	GameState      *engine.GameState `json:"game_state"`
}

// restoreSession rebuilds a live session from stored data. The level config
// is reloaded by ID so that later edits to the level file apply.
func restoreSession(configs service.ConfigManager, id, configID string, created, accessed time.Time, state *engine.GameState) (*service.Session, error) {
	if state == nil {
		return nil, ErrCorruptSession
	}
	if configID == "" {
		configID = configs.DefaultID()
	}
	gameConfig, err := configs.LoadConfig(configID)
	if err != nil {
		return nil, fmt.Errorf("failed to load config '%s': %w", configID, err)
	}

	gameEngine, err := engine.NewEngine(gameConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create game engine: %w", err)
	}
	if err := gameEngine.SetState(state); err != nil {
		return nil, fmt.Errorf("failed to set game state: %w", err)
	}
	gameEngine.DrainDirty()

	return &service.Session{
		ID:             id,
		ConfigID:       configID,
		Engine:         gameEngine,
		Config:         gameConfig,
		CreatedAt:      created,
		LastAccessedAt: accessed,
	}, nil
}
