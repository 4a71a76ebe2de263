package session

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/wricardo/hexstones/game/service"
)

// SQLitePersistence implements SessionPersistence with one row per session.
type SQLitePersistence struct {
	db            *sqlx.DB
	configManager service.ConfigManager
}

type sessionRow struct {
	ID             string `db:"id"`
	ConfigID       string `db:"config_id"`
	CreatedAt      int64  `db:"created_at"`
	LastAccessedAt int64  `db:"last_accessed_at"`
	GameState      string `db:"game_state"`
}

// NewSQLitePersistence opens or creates the database at path.
func NewSQLitePersistence(path string, configManager service.ConfigManager) (*SQLitePersistence, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	p := &SQLitePersistence{db: db, configManager: configManager}
	if err := p.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return p, nil
}

// Close closes the database connection.
func (p *SQLitePersistence) Close() error {
	return p.db.Close()
}

func (p *SQLitePersistence) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		config_id TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		last_accessed_at INTEGER NOT NULL,
		game_state TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_accessed ON sessions(last_accessed_at);
	`
	_, err := p.db.Exec(schema)
	return err
}

// Save upserts a session row.
func (p *SQLitePersistence) Save(session *service.Session) error {
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}
	if session.Engine.PendingChain() != nil {
		return ErrChainPending
	}

	state, err := json.Marshal(session.Engine.GetState())
	if err != nil {
		return fmt.Errorf("failed to marshal game state: %w", err)
	}

	row := sessionRow{
		ID:             session.ID,
		ConfigID:       session.ConfigID,
		CreatedAt:      session.CreatedAt.UnixNano(),
		LastAccessedAt: session.LastAccessedAt.UnixNano(),
		GameState:      string(state),
	}
	_, err = p.db.NamedExec(`INSERT INTO sessions
		(id, config_id, created_at, last_accessed_at, game_state)
		VALUES (:id, :config_id, :created_at, :last_accessed_at, :game_state)
		ON CONFLICT(id) DO UPDATE SET
			config_id = excluded.config_id,
			last_accessed_at = excluded.last_accessed_at,
			game_state = excluded.game_state`, row)
	if err != nil {
		return fmt.Errorf("save session %s: %w", session.ID, err)
	}
	return nil
}

// Load reads a session row and rebuilds its engine.
func (p *SQLitePersistence) Load(id string) (*service.Session, error) {
	var row sessionRow
	err := p.db.Get(&row, `SELECT id, config_id, created_at, last_accessed_at, game_state
		FROM sessions WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}

	data := PersistedSessionData{}
	if err := json.Unmarshal([]byte(row.GameState), &data.GameState); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSession, err)
	}

	return restoreSession(p.configManager, row.ID, row.ConfigID,
		time.Unix(0, row.CreatedAt), time.Unix(0, row.LastAccessedAt), data.GameState)
}

// Delete removes a session row.
func (p *SQLitePersistence) Delete(id string) error {
	res, err := p.db.Exec("DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ListAll returns all stored session IDs.
func (p *SQLitePersistence) ListAll() ([]string, error) {
	var ids []string
	if err := p.db.Select(&ids, "SELECT id FROM sessions ORDER BY id"); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return ids, nil
}

// Exists checks if a session row exists.
func (p *SQLitePersistence) Exists(id string) bool {
	var n int
	if err := p.db.Get(&n, "SELECT COUNT(*) FROM sessions WHERE id = ?", id); err != nil {
		return false
	}
	return n > 0
}
