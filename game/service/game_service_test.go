package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/wricardo/hexstones/game/engine"
	"github.com/wricardo/hexstones/game/hexmath"
	"github.com/wricardo/hexstones/game/service"
)

// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	sessions map[string]*service.Session
	saves    int
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{
		sessions: make(map[string]*service.Session),
	}
}

func (m *MockSessionManager) Create(id, configID string, config *engine.GameConfig) (*service.Session, error) {
	// Generate ID if empty (mimics real session manager behavior)
	if id == "" {
		id = fmt.Sprintf("test_%d", len(m.sessions)+1)
	}
	if _, exists := m.sessions[id]; exists {
		return nil, errors.New("session already exists")
	}

	eng, err := engine.NewEngine(config)
	if err != nil {
		return nil, err
	}

	session := &service.Session{
		ID:             id,
		ConfigID:       configID,
		Engine:         eng,
		Config:         config,
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}
	m.sessions[id] = session
	return session, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	session, exists := m.sessions[id]
	if !exists {
		return nil, service.ErrSessionNotFound
	}
	return session, nil
}

func (m *MockSessionManager) GetOrCreate(id, configID string, config *engine.GameConfig) (*service.Session, error) {
	if session, exists := m.sessions[id]; exists {
		return session, nil
	}
	return m.Create(id, configID, config)
}

func (m *MockSessionManager) List() []*service.Session {
	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	if _, exists := m.sessions[id]; !exists {
		return service.ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	if session, exists := m.sessions[id]; exists {
		session.LastAccessedAt = time.Now()
		return nil
	}
	return service.ErrSessionNotFound
}

func (m *MockSessionManager) Save(id string) error {
	if _, exists := m.sessions[id]; !exists {
		return service.ErrSessionNotFound
	}
	m.saves++
	return nil
}

// MockConfigManager implements service.ConfigManager for testing
type MockConfigManager struct {
	configs map[string]*engine.GameConfig
}

func testConfig() *engine.GameConfig {
	config := &engine.GameConfig{
		Name:          "test",
		Description:   "Test configuration",
		Level:         1,
		GridRadius:    6,
		RevealRadius:  7,
		APPerTurn:     5,
		TurnLimit:     10,
		ChainDelayMS:  800,
		StoneCapacity: 5,
		StartingStones: map[engine.StoneType]int{
			engine.Earth: 2,
			engine.Water: 2,
			engine.Fire:  2,
			engine.Wind:  1,
			engine.Void:  1,
		},
	}
	config.Messages.Welcome = "Welcome to test!"
	return config
}

func NewMockConfigManager() *MockConfigManager {
	config := testConfig()
	return &MockConfigManager{
		configs: map[string]*engine.GameConfig{
			"test":    config,
			"classic": config,
		},
	}
}

func (m *MockConfigManager) LoadConfig(name string) (*engine.GameConfig, error) {
	config, exists := m.configs[name]
	if !exists {
		return nil, service.ErrConfigNotFound
	}
	return config, nil
}

func (m *MockConfigManager) ListConfigs() ([]*service.ConfigInfo, error) {
	result := make([]*service.ConfigInfo, 0, len(m.configs))
	for name, config := range m.configs {
		result = append(result, &service.ConfigInfo{
			Filename:    name + ".json",
			ConfigID:    name,
			Name:        config.Name,
			Description: config.Description,
			GridRadius:  config.GridRadius,
		})
	}
	return result, nil
}

func (m *MockConfigManager) GetDefault() *engine.GameConfig {
	return m.configs["classic"]
}

func (m *MockConfigManager) DefaultID() string {
	return "classic"
}

func (m *MockConfigManager) SaveConfig(name string, config *engine.GameConfig) error {
	m.configs[name] = config
	return nil
}

// fakeScheduler captures scheduled chain resolutions so tests can fire them.
type fakeScheduler struct {
	delays    []time.Duration
	fns       []func()
	cancelled int
}

func (f *fakeScheduler) Schedule(delay time.Duration, fn func()) func() {
	f.delays = append(f.delays, delay)
	f.fns = append(f.fns, fn)
	return func() { f.cancelled++ }
}

type recordingNotifier struct {
	updates []*service.StateUpdate
}

func (r *recordingNotifier) Notify(update *service.StateUpdate) {
	r.updates = append(r.updates, update)
}

func (r *recordingNotifier) last() *service.StateUpdate {
	if len(r.updates) == 0 {
		return nil
	}
	return r.updates[len(r.updates)-1]
}

type fixture struct {
	svc       service.GameService
	sessions  *MockSessionManager
	scheduler *fakeScheduler
	notifier  *recordingNotifier
	id        string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		sessions:  NewMockSessionManager(),
		scheduler: &fakeScheduler{},
		notifier:  &recordingNotifier{},
	}
	f.svc = service.NewGameService(f.sessions, NewMockConfigManager(),
		service.WithScheduler(f.scheduler),
		service.WithNotifier(f.notifier),
	)
	info, err := f.svc.CreateSession(context.Background(), "test")
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	f.id = info.ID
	return f
}

func at(q, r int) hexmath.Coord {
	return hexmath.Coord{Q: q, R: r}
}

func TestGameService_CreateSession(t *testing.T) {
	ctx := context.Background()
	svc := service.NewGameService(NewMockSessionManager(), NewMockConfigManager())

	tests := []struct {
		name       string
		configName string
		wantConfig string
		wantErr    error
	}{
		{"create with default config", "", "classic", nil},
		{"create with specific config", "test", "test", nil},
		{"create with invalid config", "nonexistent", "", service.ErrConfigNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := svc.CreateSession(ctx, tt.configName)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CreateSession() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if session == nil || session.GameState == nil {
				t.Fatal("CreateSession() returned no session")
			}
			if session.ConfigName != tt.wantConfig {
				t.Errorf("Expected config %q, got %q", tt.wantConfig, session.ConfigName)
			}
		})
	}
}

func TestGameService_Move(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res, err := f.svc.Move(ctx, f.id, at(1, 0))
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if !res.Success || res.Move == nil || res.Move.Cost != 1 {
		t.Errorf("Expected a successful 1 AP move, got %+v", res)
	}
	if res.AP.RegularAP != 4 {
		t.Errorf("Expected 4 AP left, got %+v", res.AP)
	}
	if res.TurnPressure == "" || len(res.MovableHexes) == 0 {
		t.Error("Expected decision aids on the result")
	}
	if len(res.Dirty) == 0 {
		t.Error("Expected dirty hexes after a move")
	}
	if f.sessions.saves == 0 {
		t.Error("Expected the session to be saved")
	}
	if u := f.notifier.last(); u == nil || u.Type != service.UpdateState || u.SessionID != f.id {
		t.Errorf("Unexpected notification %+v", u)
	}

	res, err = f.svc.Move(ctx, f.id, at(5, 0))
	if err != nil {
		t.Fatalf("Rule violations are not errors: %v", err)
	}
	if res.Success || res.ReasonCode != "not_adjacent" || res.Message != "Cannot move there." {
		t.Errorf("Unexpected failure result %+v", res)
	}

	if _, err := f.svc.Move(ctx, "nonexistent", at(1, 0)); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestGameService_PlaceAndBreak(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res, err := f.svc.PlaceStone(ctx, f.id, at(-1, 0), engine.Earth)
	if err != nil || !res.Success {
		t.Fatalf("PlaceStone failed: %v %+v", err, res)
	}
	if res.Action == nil || res.Action.Stone != engine.Earth {
		t.Errorf("Unexpected action outcome %+v", res.Action)
	}
	if len(res.Events) == 0 || res.Events[0].Type != "stone_placed" {
		t.Errorf("Expected a stone_placed event, got %+v", res.Events)
	}

	res, _ = f.svc.PlaceStone(ctx, f.id, at(-1, 0), engine.Earth)
	if res.Success || res.ReasonCode != "occupied" {
		t.Errorf("Expected occupied, got %+v", res)
	}

	res, err = f.svc.BreakStone(ctx, f.id, at(-1, 0))
	if err != nil || !res.Success {
		t.Fatalf("BreakStone failed: %v %+v", err, res)
	}
	if res.Action.APCost != 5 {
		t.Errorf("Expected break cost 5, got %d", res.Action.APCost)
	}
	if res.GameState.Grid.Stone(at(-1, 0)) != engine.None {
		t.Error("Expected the hex to be empty")
	}

	res, _ = f.svc.BreakStone(ctx, f.id, at(-1, 0))
	if res.ReasonCode != "empty_hex" {
		t.Errorf("Expected empty_hex, got %q", res.ReasonCode)
	}
}

func TestGameService_ChainReaction(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.svc.PlaceStone(ctx, f.id, at(1, 0), engine.Water)
	f.svc.PlaceStone(ctx, f.id, at(1, -1), engine.Water)
	savesBefore := f.sessions.saves

	res, err := f.svc.PlaceStone(ctx, f.id, at(0, 1), engine.Fire)
	if err != nil || !res.Success {
		t.Fatalf("PlaceStone failed: %v %+v", err, res)
	}
	if res.PendingChain == nil || len(res.PendingChain.Water) != 2 {
		t.Fatalf("Expected a pending chain over 2 water stones, got %+v", res.PendingChain)
	}
	if len(f.scheduler.fns) != 1 || f.scheduler.delays[0] != 800*time.Millisecond {
		t.Fatalf("Expected one resolution scheduled after 800ms, got %v", f.scheduler.delays)
	}
	if f.sessions.saves != savesBefore {
		t.Error("A session with a pending chain must not be saved")
	}
	if u := f.notifier.last(); u.Type != service.UpdateChainStarted || u.Chain == nil {
		t.Errorf("Expected a chain_started notification, got %+v", u)
	}

	// An unrelated action does not reschedule the same chain.
	f.svc.Move(ctx, f.id, at(-1, 0))
	if len(f.scheduler.fns) != 1 {
		t.Errorf("Expected the chain to be scheduled once, got %d", len(f.scheduler.fns))
	}

	f.scheduler.fns[0]()

	u := f.notifier.last()
	if u.Type != service.UpdateChainResolved || u.ChainResult == nil {
		t.Fatalf("Expected a chain_resolved notification, got %+v", u)
	}
	if len(u.ChainResult.Consumed) != 2 {
		t.Errorf("Expected 2 consumed water stones, got %+v", u.ChainResult)
	}
	state, _ := f.svc.GetGameState(ctx, f.id)
	if state.PendingChain != nil {
		t.Error("Expected no pending chain after resolution")
	}
	if state.Grid.Stone(at(1, 0)) != engine.None || state.Grid.Stone(at(0, 1)) != engine.Fire {
		t.Error("Expected water consumed and fire kept")
	}
	if f.sessions.saves == savesBefore {
		t.Error("Expected a save after resolution")
	}

	// Firing a stale timer does nothing.
	n := len(f.notifier.updates)
	f.scheduler.fns[0]()
	if len(f.notifier.updates) != n {
		t.Error("A stale timer must not notify")
	}
}

func TestGameService_ResetCancelsChain(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.svc.PlaceStone(ctx, f.id, at(1, 0), engine.Water)
	f.svc.PlaceStone(ctx, f.id, at(0, 1), engine.Fire)
	if len(f.scheduler.fns) != 1 {
		t.Fatal("Expected a scheduled chain")
	}

	state, err := f.svc.Reset(ctx, f.id)
	if err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if f.scheduler.cancelled != 1 {
		t.Errorf("Expected the timer to be cancelled, got %d", f.scheduler.cancelled)
	}
	if state.PendingChain != nil || state.Grid.Stone(at(1, 0)) != engine.None {
		t.Error("Expected a fresh board")
	}
	if state.Grid.Player() != at(0, 0) {
		t.Error("Expected the player back at the origin")
	}

	f.scheduler.fns[0]()
	if u := f.notifier.last(); u.Type == service.UpdateChainResolved {
		t.Error("A cancelled chain must not resolve")
	}
}

func TestGameService_SacrificeAndEndTurn(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.svc.PlaceStone(ctx, f.id, at(1, 0), engine.Fire)

	res, _ := f.svc.Move(ctx, f.id, at(1, 0))
	if res.Success || res.ReasonCode != "fire_requires_sacrifice" {
		t.Errorf("Expected fire_requires_sacrifice, got %+v", res)
	}

	res, err := f.svc.Sacrifice(ctx, f.id, at(1, 0), engine.Earth, engine.Water)
	if err != nil || !res.Success {
		t.Fatalf("Sacrifice failed: %v %+v", err, res)
	}
	if res.GameState.Grid.Player() != at(1, 0) {
		t.Errorf("Expected player on the fire hex, got %v", res.GameState.Grid.Player())
	}

	res, err = f.svc.EndTurn(ctx, f.id)
	if err != nil || !res.Success || res.Turn == nil || res.Turn.Turn != 1 {
		t.Fatalf("EndTurn failed: %v %+v", err, res)
	}
	if res.AP.RegularAP != 5 {
		t.Errorf("Expected AP restored, got %+v", res.AP)
	}
}

func TestGameService_Queries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	moves, err := f.svc.GetMovableHexes(ctx, f.id)
	if err != nil || len(moves) != 6 {
		t.Errorf("Expected 6 movable hexes on an empty board, got %d (%v)", len(moves), err)
	}

	info, err := f.svc.GetHexInfo(ctx, f.id, at(0, 0))
	if err != nil || info.IntrinsicCost != 1 {
		t.Errorf("Unexpected hex info %+v (%v)", info, err)
	}
	if _, err := f.svc.GetHexInfo(ctx, f.id, at(50, 50)); !errors.Is(err, service.ErrHexNotFound) {
		t.Errorf("Expected ErrHexNotFound, got %v", err)
	}

	conns, err := f.svc.GetWaterConnections(ctx, f.id)
	if err != nil || conns == nil || len(conns) != 0 {
		t.Errorf("Expected an empty connection list, got %v (%v)", conns, err)
	}
	f.svc.PlaceStone(ctx, f.id, at(1, 0), engine.Water)
	f.svc.PlaceStone(ctx, f.id, at(1, -1), engine.Water)
	conns, _ = f.svc.GetWaterConnections(ctx, f.id)
	if len(conns) != 1 {
		t.Errorf("Expected one water connection, got %v", conns)
	}

	res, err := f.svc.RevealAll(ctx, f.id)
	if err != nil || !res.Success {
		t.Fatalf("RevealAll failed: %v", err)
	}
}

func TestGameService_GetMoveHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.svc.Move(ctx, f.id, at(1, 0))
	f.svc.Move(ctx, f.id, at(0, 0))
	f.svc.Move(ctx, f.id, at(5, 5))
	f.svc.EndTurn(ctx, f.id)

	tests := []struct {
		name       string
		sessionID  string
		opts       service.HistoryOptions
		wantErr    bool
		wantMoves  int
		wantFirst  string
		wantNext   bool
		wantPages  int
	}{
		{"default options", f.id, service.HistoryOptions{}, false, 4, "end_turn", false, 1},
		{"ascending page", f.id, service.HistoryOptions{Page: 1, Limit: 3, Order: "asc"}, false, 3, "move", true, 2},
		{"second page", f.id, service.HistoryOptions{Page: 2, Limit: 3, Order: "asc"}, false, 1, "end_turn", false, 2},
		{"invalid session", "nonexistent", service.HistoryOptions{}, true, 0, "", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := f.svc.GetMoveHistory(ctx, tt.sessionID, tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("GetMoveHistory() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(result.Moves) != tt.wantMoves {
				t.Fatalf("Expected %d moves, got %d", tt.wantMoves, len(result.Moves))
			}
			if result.Moves[0].Action != tt.wantFirst {
				t.Errorf("Expected first action %q, got %q", tt.wantFirst, result.Moves[0].Action)
			}
			if result.HasNext != tt.wantNext || result.TotalPages != tt.wantPages || result.TotalMoves != 4 {
				t.Errorf("Unexpected pagination %+v", result)
			}
		})
	}
}

func TestGameService_Sessions(t *testing.T) {
	ctx := context.Background()
	svc := service.NewGameService(NewMockSessionManager(), NewMockConfigManager())

	var ids []string
	for i := 0; i < 3; i++ {
		info, err := svc.CreateSession(ctx, "test")
		if err != nil {
			t.Fatalf("Failed to create session %d: %v", i, err)
		}
		ids = append(ids, info.ID)
	}

	list, err := svc.ListSessions(ctx)
	if err != nil || len(list) != 3 {
		t.Fatalf("ListSessions() returned %d sessions (%v), want 3", len(list), err)
	}

	if err := svc.DeleteSession(ctx, ids[0]); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if _, err := svc.GetSession(ctx, ids[0]); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound after delete, got %v", err)
	}
	if info, err := svc.GetSession(ctx, ids[1]); err != nil || info.ConfigName != "test" {
		t.Errorf("Unexpected session %+v (%v)", info, err)
	}
}

func TestReasonCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w: Hex is impassable.", engine.ErrImpassable), "impassable"},
		{fmt.Errorf("%w: Not enough AP", engine.ErrInsufficientAP), "insufficient_ap"},
		{engine.ErrNeedMoreStones, "need_more_stones"},
		{errors.New("boom"), "error"},
	}
	for _, tt := range tests {
		if got := service.ReasonCode(tt.err); got != tt.want {
			t.Errorf("ReasonCode(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
