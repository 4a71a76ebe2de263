package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/wricardo/hexstones/game/engine"
	"github.com/wricardo/hexstones/game/hexmath"
)

// gameServiceImpl implements the GameService interface. Every engine is only
// touched while mu is held, including deferred chain resolution. State handed
// to callers and the notifier is a snapshot taken under mu.
type gameServiceImpl struct {
	sessions  SessionManager
	configs   ConfigManager
	notifier  Notifier
	scheduler ChainScheduler
	logger    *slog.Logger
	now       func() time.Time

	mu     sync.RWMutex
	timers map[string]pendingTimer
}

type pendingTimer struct {
	chainID string
	cancel  func()
}

// Option configures the game service.
type Option func(*gameServiceImpl)

// WithNotifier sends state updates to n.
func WithNotifier(n Notifier) Option {
	return func(s *gameServiceImpl) { s.notifier = n }
}

// WithScheduler replaces the timer used for delayed chain reactions.
func WithScheduler(cs ChainScheduler) Option {
	return func(s *gameServiceImpl) { s.scheduler = cs }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *gameServiceImpl) { s.logger = l }
}

// WithClock sets the clock used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *gameServiceImpl) { s.now = now }
}

// AfterFuncScheduler schedules chain resolution with time.AfterFunc.
type AfterFuncScheduler struct{}

// Schedule implements ChainScheduler.
func (AfterFuncScheduler) Schedule(delay time.Duration, fn func()) func() {
	t := time.AfterFunc(delay, fn)
	return func() { t.Stop() }
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions:  sessions,
		configs:   configs,
		scheduler: AfterFuncScheduler{},
		logger:    slog.Default(),
		now:       time.Now,
		timers:    make(map[string]pendingTimer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *gameServiceImpl) getSession(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrSessionNotFound, err)
	}
	return sess, nil
}

func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     sess.ConfigID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.Snapshot(),
		GameConfig:     sess.Config,
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.GameConfig
	configID := configName
	if configName != "" {
		var err error
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			if errors.Is(err, ErrConfigNotFound) {
				return nil, s.configNotFound(configName)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
		configID = s.configs.DefaultID()
	}

	// Let session manager generate a proper 4-character ID
	session, err := s.sessions.Create("", configID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	s.logger.Info("session created", "session", session.ID, "config", configID)

	return s.sessionInfo(session), nil
}

func (s *gameServiceImpl) configNotFound(name string) error {
	available, err := s.configs.ListConfigs()
	if err == nil && len(available) > 0 {
		var ids []string
		for _, cfg := range available {
			ids = append(ids, cfg.ConfigID)
		}
		return fmt.Errorf("%w: config '%s' not found. Available configs: %v", ErrConfigNotFound, name, ids)
	}
	return fmt.Errorf("%w: config '%s' not found. Use /api/configs to list available configurations", ErrConfigNotFound, name)
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	// Touching the session writes its access time, so this takes the write lock.
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return s.sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelTimer(sessionID)
	if err := s.sessions.Delete(sessionID); err != nil {
		return err
	}
	s.logger.Info("session deleted", "session", sessionID)
	return nil
}

// act runs one engine action for a session and turns its outcome into a
// result. A rule error becomes an unsuccessful result.
func (s *gameServiceImpl) act(sessionID, action string, fn func(e *engine.GameEngine, r *ActionResult) error) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	s.sessions.UpdateLastAccessed(sessionID)

	result := &ActionResult{Success: true}
	if err := fn(sess.Engine, result); err != nil {
		result.Success = false
		result.ReasonCode = ReasonCode(err)
		s.logger.Debug("action refused", "session", sess.ID, "action", action, "reason", result.ReasonCode)
	}

	s.finish(sess, result)
	return result, nil
}

// finish drains engine events, schedules a pending chain reaction, persists
// and notifies. Callers hold mu.
func (s *gameServiceImpl) finish(sess *Session, result *ActionResult) {
	eng := sess.Engine
	state := eng.Snapshot()

	result.GameState = state
	result.Message = state.Message
	result.Events = s.convertEvents(eng.DrainEvents())
	result.Dirty = eng.DrainDirty()
	result.AP = eng.TotalAvailableAP()
	result.MovableHexes = eng.MovableHexes()
	if result.MovableHexes == nil {
		result.MovableHexes = []engine.MovableHex{}
	}
	result.TurnPressure = engine.AnalyzeTurnPressure(state)
	if m, d, ok := engine.FindNearestShrine(state, true); ok {
		result.NearestShrine = &ShrineHint{Center: m.Center, Type: m.Type, Distance: d}
	}

	updateType := UpdateState
	if chain := eng.PendingChain(); chain != nil {
		result.PendingChain = chain.Clone()
		if s.scheduleChain(sess.ID, chain) {
			updateType = UpdateChainStarted
		}
	} else {
		s.cancelTimer(sess.ID)
		// Pending chains are never persisted; the save follows resolution.
		if err := s.sessions.Save(sess.ID); err != nil {
			s.logger.Warn("failed to persist session", "session", sess.ID, "error", err)
		}
	}

	s.notify(&StateUpdate{
		Type:      updateType,
		SessionID: sess.ID,
		GameState: state,
		Events:    result.Events,
		Dirty:     result.Dirty,
		Chain:     result.PendingChain,
	})
}

// scheduleChain arranges for chain to resolve once its delay has passed. It
// returns false when the chain is already scheduled.
func (s *gameServiceImpl) scheduleChain(sessionID string, chain *engine.ChainReaction) bool {
	if t, ok := s.timers[sessionID]; ok {
		if t.chainID == chain.ID {
			return false
		}
		t.cancel()
	}

	delay := max(chain.ReadyAt.Sub(chain.StartedAt), 0)
	chainID := chain.ID
	cancel := s.scheduler.Schedule(delay, func() {
		s.resolveChain(sessionID, chainID)
	})
	s.timers[sessionID] = pendingTimer{chainID: chainID, cancel: cancel}
	s.logger.Debug("chain reaction scheduled", "session", sessionID, "chain", chainID, "delay", delay)
	return true
}

func (s *gameServiceImpl) cancelTimer(sessionID string) {
	if t, ok := s.timers[sessionID]; ok {
		t.cancel()
		delete(s.timers, sessionID)
	}
}

// resolveChain runs from the scheduler once a chain's delay has passed.
func (s *gameServiceImpl) resolveChain(sessionID, chainID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[sessionID]; ok && t.chainID == chainID {
		delete(s.timers, sessionID)
	}

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return
	}
	eng := sess.Engine
	chain := eng.PendingChain()
	if chain == nil || chain.ID != chainID {
		return
	}

	result, _ := eng.FlushChain()
	s.logger.Info("chain reaction resolved", "session", sessionID, "chain", chainID,
		"destroyed", len(result.Destroyed), "consumed", len(result.Consumed))

	if err := s.sessions.Save(sessionID); err != nil {
		s.logger.Warn("failed to persist session", "session", sessionID, "error", err)
	}
	s.notify(&StateUpdate{
		Type:        UpdateChainResolved,
		SessionID:   sessionID,
		GameState:   eng.Snapshot(),
		Events:      s.convertEvents(eng.DrainEvents()),
		Dirty:       eng.DrainDirty(),
		ChainResult: result,
	})
}

// Shutdown stops every chain timer, resolves pending chains and saves all
// sessions. Chains started after Shutdown no longer resolve on their own.
func (s *gameServiceImpl) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.timers {
		s.cancelTimer(id)
	}

	sessions := s.sessions.List()
	for _, sess := range sessions {
		if err := ctx.Err(); err != nil {
			return err
		}
		if result, ok := sess.Engine.FlushChain(); ok {
			s.logger.Info("flushed pending chain reaction", "session", sess.ID, "chain", result.ID)
			sess.Engine.DrainEvents()
			sess.Engine.DrainDirty()
		}
	}

	if bulk, ok := s.sessions.(interface{ SaveAllSessions() error }); ok {
		return bulk.SaveAllSessions()
	}
	var errs []error
	for _, sess := range sessions {
		if err := s.sessions.Save(sess.ID); err != nil {
			errs = append(errs, fmt.Errorf("save session %s: %w", sess.ID, err))
		}
	}
	return errors.Join(errs...)
}

func (s *gameServiceImpl) notify(update *StateUpdate) {
	if s.notifier != nil {
		s.notifier.Notify(update)
	}
}

func (s *gameServiceImpl) convertEvents(events []engine.Event) []GameEvent {
	out := make([]GameEvent, 0, len(events))
	now := s.now()
	for _, ev := range events {
		out = append(out, GameEvent{
			Type:      string(ev.Type),
			Message:   ev.Message,
			Timestamp: now,
			Coord:     ev.Coord,
			Stone:     ev.Stone,
			ChainID:   ev.ChainID,
		})
	}
	return out
}

// PlaceStone places a stone from the player's inventory
func (s *gameServiceImpl) PlaceStone(ctx context.Context, sessionID string, c hexmath.Coord, stone engine.StoneType) (*ActionResult, error) {
	return s.act(sessionID, "place", func(e *engine.GameEngine, r *ActionResult) error {
		out, err := e.PlaceFromInventory(c, stone)
		r.Action = out
		return err
	})
}

// BreakStone breaks an adjacent stone for AP
func (s *gameServiceImpl) BreakStone(ctx context.Context, sessionID string, c hexmath.Coord) (*ActionResult, error) {
	return s.act(sessionID, "break", func(e *engine.GameEngine, r *ActionResult) error {
		out, err := e.BreakAdjacentStone(c)
		r.Action = out
		return err
	})
}

// Move moves the player to an adjacent hex
func (s *gameServiceImpl) Move(ctx context.Context, sessionID string, c hexmath.Coord) (*ActionResult, error) {
	return s.act(sessionID, "move", func(e *engine.GameEngine, r *ActionResult) error {
		out, err := e.MovePlayer(c)
		r.Move = out
		return err
	})
}

// Sacrifice moves onto fire by giving up two stones
func (s *gameServiceImpl) Sacrifice(ctx context.Context, sessionID string, c hexmath.Coord, a, b engine.StoneType) (*ActionResult, error) {
	return s.act(sessionID, "sacrifice", func(e *engine.GameEngine, r *ActionResult) error {
		out, err := e.SacrificeMove(c, a, b)
		r.Move = out
		return err
	})
}

// EndTurn ends the current turn
func (s *gameServiceImpl) EndTurn(ctx context.Context, sessionID string) (*ActionResult, error) {
	return s.act(sessionID, "end_turn", func(e *engine.GameEngine, r *ActionResult) error {
		out, err := e.EndTurn()
		r.Turn = out
		return err
	})
}

// RevealAll reveals the whole board and every mega-tile
func (s *gameServiceImpl) RevealAll(ctx context.Context, sessionID string) (*ActionResult, error) {
	return s.act(sessionID, "reveal", func(e *engine.GameEngine, r *ActionResult) error {
		e.RevealAll()
		return nil
	})
}

// Reset resets a game session to initial state
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	s.sessions.UpdateLastAccessed(sessionID)
	s.cancelTimer(sessionID)
	sess.Engine.Reset()
	sess.Engine.DrainDirty()
	state := sess.Engine.Snapshot()

	if err := s.sessions.Save(sessionID); err != nil {
		s.logger.Warn("failed to persist session after reset", "session", sessionID, "error", err)
	}
	s.notify(&StateUpdate{
		Type:      UpdateState,
		SessionID: sess.ID,
		GameState: state,
		Events: []GameEvent{{
			Type:      "reset",
			Message:   "Game reset to initial state",
			Timestamp: s.now(),
			Coord:     state.Grid.Player(),
		}},
	})
	return state, nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess.Engine.Snapshot(), nil
}

// GetMovableHexes lists the neighbors the player can enter now
func (s *gameServiceImpl) GetMovableHexes(ctx context.Context, sessionID string) ([]engine.MovableHex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	moves := sess.Engine.MovableHexes()
	if moves == nil {
		moves = []engine.MovableHex{}
	}
	return moves, nil
}

// GetHexInfo describes one hex including mimicry and cost
func (s *gameServiceImpl) GetHexInfo(ctx context.Context, sessionID string, c hexmath.Coord) (*engine.HexInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	info, ok := sess.Engine.HexInfo(c)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHexNotFound, c)
	}
	return info, nil
}

// GetWaterConnections lists linked water pairs
func (s *gameServiceImpl) GetWaterConnections(ctx context.Context, sessionID string) ([]engine.WaterConnection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	conns := sess.Engine.WaterConnections()
	if conns == nil {
		conns = []engine.WaterConnection{}
	}
	return conns, nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	history := sess.Engine.GetMoveHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > engine.MaxHistoryPage {
		opts.Limit = engine.MaxHistoryPage
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := min(start+opts.Limit, total)

	var moves []engine.HistoryEntry
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = slices.Clone(history[start:end])
	}

	if moves == nil {
		moves = []engine.HistoryEntry{}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListConfigs returns available level configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific level configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a level configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// ReasonCode maps an engine rule error to a stable code.
func ReasonCode(err error) string {
	codes := []struct {
		err  error
		code string
	}{
		{engine.ErrGameOver, "game_over"},
		{engine.ErrInvalidTarget, "invalid_target"},
		{engine.ErrNotAdjacent, "not_adjacent"},
		{engine.ErrOccupied, "occupied"},
		{engine.ErrEmptyHex, "empty_hex"},
		{engine.ErrImpassable, "impassable"},
		{engine.ErrInsufficientAP, "insufficient_ap"},
		{engine.ErrNoStone, "no_stone"},
		{engine.ErrNeedMoreStones, "need_more_stones"},
		{engine.ErrFireRequiresSacrifice, "fire_requires_sacrifice"},
		{engine.ErrNotFire, "not_fire"},
		{engine.ErrUnknownStone, "unknown_stone"},
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "error"
}
