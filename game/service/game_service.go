package service

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/hexstones/game/engine"
	"github.com/wricardo/hexstones/game/hexmath"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrConfigNotFound  = errors.New("configuration not found")
	ErrHexNotFound     = errors.New("hex not found")
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Player actions. Rule violations are reported as an unsuccessful
	// result, not an error.
	PlaceStone(ctx context.Context, sessionID string, c hexmath.Coord, stone engine.StoneType) (*ActionResult, error)
	BreakStone(ctx context.Context, sessionID string, c hexmath.Coord) (*ActionResult, error)
	Move(ctx context.Context, sessionID string, c hexmath.Coord) (*ActionResult, error)
	Sacrifice(ctx context.Context, sessionID string, c hexmath.Coord, a, b engine.StoneType) (*ActionResult, error)
	EndTurn(ctx context.Context, sessionID string) (*ActionResult, error)
	Reset(ctx context.Context, sessionID string) (*engine.GameState, error)
	RevealAll(ctx context.Context, sessionID string) (*ActionResult, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetMovableHexes(ctx context.Context, sessionID string) ([]engine.MovableHex, error)
	GetHexInfo(ctx context.Context, sessionID string, c hexmath.Coord) (*engine.HexInfo, error)
	GetWaterConnections(ctx context.Context, sessionID string) ([]engine.WaterConnection, error)
	GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error

	// Shutdown resolves pending chain reactions and saves every session.
	Shutdown(ctx context.Context) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, configID string, config *engine.GameConfig) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id, configID string, config *engine.GameConfig) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// ConfigManager handles level configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	DefaultID() string
	SaveConfig(name string, config *engine.GameConfig) error
}

// Notifier receives every state change of every session. Implementations
// must not call back into the service.
type Notifier interface {
	Notify(update *StateUpdate)
}

// ChainScheduler runs fn once after delay. The returned function cancels a
// run that has not started.
type ChainScheduler interface {
	Schedule(delay time.Duration, fn func()) (cancel func())
}

// Session represents an active game session
type Session struct {
	ID             string
	ConfigID       string
	Engine         *engine.GameEngine
	Config         *engine.GameConfig
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
