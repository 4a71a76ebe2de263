package service_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/wricardo/hexstones/game/engine"
	"github.com/wricardo/hexstones/game/service"
	"github.com/wricardo/hexstones/game/session"
)

// encodingNotifier JSON-encodes every update on its own goroutine, the way
// the websocket hub does.
type encodingNotifier struct {
	updates chan *service.StateUpdate
	done    chan struct{}
	encoded int
}

func newEncodingNotifier() *encodingNotifier {
	n := &encodingNotifier{
		updates: make(chan *service.StateUpdate, 64),
		done:    make(chan struct{}),
	}
	go func() {
		defer close(n.done)
		for u := range n.updates {
			if _, err := json.Marshal(u); err == nil {
				n.encoded++
			}
		}
	}()
	return n
}

func (n *encodingNotifier) Notify(update *service.StateUpdate) {
	select {
	case n.updates <- update:
	default:
	}
}

func (n *encodingNotifier) close() int {
	close(n.updates)
	<-n.done
	return n.encoded
}

func TestGameService_ConcurrentActionsAndReads(t *testing.T) {
	ctx := context.Background()
	configs := NewMockConfigManager()
	cfg := testConfig()
	cfg.ChainDelayMS = 1
	cfg.TurnLimit = 0
	configs.SaveConfig("fast", cfg)

	notifier := newEncodingNotifier()
	svc := service.NewGameService(session.NewManager(), configs, service.WithNotifier(notifier))
	info, err := svc.CreateSession(ctx, "fast")
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	id := info.ID

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			svc.PlaceStone(ctx, id, at(1, 0), engine.Water)
			svc.PlaceStone(ctx, id, at(0, 1), engine.Fire)
			svc.BreakStone(ctx, id, at(0, 1))
			svc.BreakStone(ctx, id, at(1, 0))
			svc.EndTurn(ctx, id)
			if i%10 == 9 {
				svc.Reset(ctx, id)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			st, err := svc.GetGameState(ctx, id)
			if err != nil {
				t.Errorf("GetGameState() error = %v", err)
				return
			}
			if _, err := json.Marshal(st); err != nil {
				t.Errorf("Failed to encode state: %v", err)
				return
			}
			sess, _ := svc.GetSession(ctx, id)
			json.Marshal(sess)
			list, _ := svc.ListSessions(ctx)
			json.Marshal(list)
			history, _ := svc.GetMoveHistory(ctx, id, service.HistoryOptions{Limit: 50, Order: "asc"})
			json.Marshal(history)
		}
	}()
	wg.Wait()

	if err := svc.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
	if notifier.close() == 0 {
		t.Error("Expected the notifier to encode updates")
	}
}

func TestGameService_StateIsSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.svc.PlaceStone(ctx, f.id, at(1, 0), engine.Earth)
	if err != nil || !first.Success {
		t.Fatalf("PlaceStone failed: %v %+v", err, first)
	}
	before, _ := f.svc.GetGameState(ctx, f.id)
	earthBefore := before.Inventory.Count(engine.Earth)
	historyBefore := len(before.MoveHistory)

	f.svc.PlaceStone(ctx, f.id, at(0, 1), engine.Earth)

	for name, st := range map[string]*engine.GameState{"result": first.GameState, "state": before} {
		if st.Grid.Stone(at(0, 1)) != engine.None {
			t.Errorf("%s: later placement leaked into an earlier snapshot", name)
		}
		if st.Inventory.Count(engine.Earth) != earthBefore {
			t.Errorf("%s: inventory changed from %d to %d", name, earthBefore, st.Inventory.Count(engine.Earth))
		}
	}
	if len(before.MoveHistory) != historyBefore {
		t.Error("History of an earlier snapshot changed")
	}
	if u := f.notifier.last(); u.GameState.Grid.Stone(at(0, 1)) != engine.Earth {
		t.Error("Expected the latest notification to carry the latest board")
	}

	// Mutating a snapshot never reaches the engine.
	before.Grid.SetStone(at(-1, 0), engine.Fire)
	now, _ := f.svc.GetGameState(ctx, f.id)
	if now.Grid.Stone(at(-1, 0)) != engine.None {
		t.Error("Writes to a snapshot reached the live board")
	}
}

func TestGameService_ShutdownFlushesChains(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.svc.PlaceStone(ctx, f.id, at(1, 0), engine.Water)
	f.svc.PlaceStone(ctx, f.id, at(0, 1), engine.Fire)
	if len(f.scheduler.fns) != 1 {
		t.Fatal("Expected a scheduled chain")
	}
	savesBefore := f.sessions.saves

	if err := f.svc.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if f.scheduler.cancelled != 1 {
		t.Errorf("Expected the chain timer to be cancelled, got %d", f.scheduler.cancelled)
	}
	if f.sessions.saves <= savesBefore {
		t.Error("Expected the session to be saved")
	}
	state, _ := f.svc.GetGameState(ctx, f.id)
	if state.PendingChain != nil || state.Grid.Stone(at(1, 0)) != engine.None {
		t.Error("Expected the pending chain to be resolved")
	}

	n := len(f.notifier.updates)
	f.scheduler.fns[0]()
	if len(f.notifier.updates) != n {
		t.Error("A timer cancelled by Shutdown must not resolve again")
	}
}

func TestGameService_ShutdownPersistsResolvedChain(t *testing.T) {
	ctx := context.Background()
	configs := NewMockConfigManager()
	store, err := session.NewFilePersistence(t.TempDir(), configs)
	if err != nil {
		t.Fatalf("Failed to create persistence: %v", err)
	}
	svc := service.NewGameService(session.NewManager(session.WithPersistence(store)), configs,
		service.WithScheduler(&fakeScheduler{}))

	info, err := svc.CreateSession(ctx, "test")
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	svc.PlaceStone(ctx, info.ID, at(1, 0), engine.Water)
	svc.PlaceStone(ctx, info.ID, at(0, 1), engine.Fire)

	if err := svc.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	loaded, err := store.Load(info.ID)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	grid := loaded.Engine.GetState().Grid
	if grid.Stone(at(1, 0)) != engine.None || grid.Stone(at(0, 1)) != engine.Fire {
		t.Error("Expected the stored board to include the resolved chain")
	}
	if loaded.Engine.PendingChain() != nil {
		t.Error("Expected no pending chain in storage")
	}
}
