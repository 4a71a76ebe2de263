package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wricardo/hexstones/game/engine"
	"github.com/wricardo/hexstones/game/hexmath"
	"github.com/wricardo/hexstones/game/service"
)

func newTestSession(t *testing.T, id string) *service.Session {
	t.Helper()
	config := createTestConfig()
	eng, err := engine.NewEngine(config)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	return &service.Session{
		ID:             id,
		ConfigID:       "test",
		Engine:         eng,
		Config:         config,
		CreatedAt:      time.Now().Add(-time.Minute).Round(time.Millisecond),
		LastAccessedAt: time.Now().Round(time.Millisecond),
	}
}

// testPersistence exercises any SessionPersistence implementation.
func testPersistence(t *testing.T, p SessionPersistence) {
	session := newTestSession(t, "test1")

	t.Run("Save and Load Session", func(t *testing.T) {
		if err := p.Save(session); err != nil {
			t.Fatalf("Failed to save session: %v", err)
		}
		if !p.Exists("test1") {
			t.Error("Session should exist after save")
		}

		loaded, err := p.Load("test1")
		if err != nil {
			t.Fatalf("Failed to load session: %v", err)
		}
		if loaded.ID != "test1" || loaded.ConfigID != "test" {
			t.Errorf("Unexpected identity %q/%q", loaded.ID, loaded.ConfigID)
		}
		if !loaded.CreatedAt.Equal(session.CreatedAt) {
			t.Errorf("CreatedAt mismatch: %v vs %v", loaded.CreatedAt, session.CreatedAt)
		}
		if loaded.Config == nil || loaded.Config.Name != "Test Config" {
			t.Error("Expected the config to be reloaded by ID")
		}
	})

	t.Run("Save State Changes", func(t *testing.T) {
		eng := session.Engine
		if _, err := eng.PlaceFromInventory(hexmath.Coord{Q: -1, R: 0}, engine.Earth); err != nil {
			t.Fatalf("PlaceFromInventory failed: %v", err)
		}
		if _, err := eng.MovePlayer(hexmath.Coord{Q: 1, R: 0}); err != nil {
			t.Fatalf("MovePlayer failed: %v", err)
		}
		if err := p.Save(session); err != nil {
			t.Fatalf("Failed to save session: %v", err)
		}

		loaded, err := p.Load("test1")
		if err != nil {
			t.Fatalf("Failed to load session: %v", err)
		}
		state := loaded.Engine.GetState()
		if state.Grid.Player() != (hexmath.Coord{Q: 1, R: 0}) {
			t.Errorf("Expected player at (1,0), got %v", state.Grid.Player())
		}
		if state.Grid.Stone(hexmath.Coord{Q: -1, R: 0}) != engine.Earth {
			t.Error("Expected the earth stone to survive a round trip")
		}
		if state.Inventory.Count(engine.Earth) != 1 {
			t.Errorf("Expected 1 earth stone left, got %d", state.Inventory.Count(engine.Earth))
		}
		if state.AP.RegularAP != 4 {
			t.Errorf("Expected 4 AP, got %d", state.AP.RegularAP)
		}
		if len(loaded.Engine.GetMoveHistory()) != 2 {
			t.Errorf("Expected 2 history entries, got %d", len(loaded.Engine.GetMoveHistory()))
		}
	})

	t.Run("Pending Chain Is Not Saved", func(t *testing.T) {
		pending := newTestSession(t, "pending")
		eng := pending.Engine
		eng.PlaceStone(hexmath.Coord{Q: 2, R: 0}, engine.Water)
		eng.PlaceStone(hexmath.Coord{Q: 3, R: 0}, engine.Fire)
		if eng.PendingChain() == nil {
			t.Fatal("Expected a pending chain")
		}
		if err := p.Save(pending); !errors.Is(err, ErrChainPending) {
			t.Errorf("Expected ErrChainPending, got %v", err)
		}
		if p.Exists("pending") {
			t.Error("A session with a pending chain must not be stored")
		}
	})

	t.Run("List All Sessions", func(t *testing.T) {
		for _, id := range []string{"test2", "test3"} {
			if err := p.Save(newTestSession(t, id)); err != nil {
				t.Fatalf("Failed to save %s: %v", id, err)
			}
		}
		ids, err := p.ListAll()
		if err != nil {
			t.Fatalf("ListAll() error = %v", err)
		}
		found := map[string]bool{}
		for _, id := range ids {
			found[id] = true
		}
		for _, id := range []string{"test1", "test2", "test3"} {
			if !found[id] {
				t.Errorf("Expected %s in %v", id, ids)
			}
		}
	})

	t.Run("Delete Session", func(t *testing.T) {
		if err := p.Delete("test2"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if p.Exists("test2") {
			t.Error("Session should not exist after delete")
		}
		if err := p.Delete("test2"); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("Expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("Error Cases", func(t *testing.T) {
		if _, err := p.Load("missing"); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("Expected ErrSessionNotFound, got %v", err)
		}
		if err := p.Save(nil); err == nil {
			t.Error("Expected error saving nil session")
		}
	})
}

func TestFilePersistence(t *testing.T) {
	p, err := NewFilePersistence(t.TempDir(), stubConfigs{})
	if err != nil {
		t.Fatalf("Failed to create file persistence: %v", err)
	}
	testPersistence(t, p)
}

func TestFilePersistenceFileStructure(t *testing.T) {
	dir := t.TempDir()
	p, err := NewFilePersistence(dir, stubConfigs{})
	if err != nil {
		t.Fatalf("Failed to create file persistence: %v", err)
	}
	if err := p.Save(newTestSession(t, "layout")); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "layout.json"))
	if err != nil {
		t.Fatalf("Expected layout.json: %v", err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("Session file is not JSON: %v", err)
	}
	for _, key := range []string{"id", "config_id", "created_at", "last_accessed_at", "game_state"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("Session file missing %q", key)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "layout.json.tmp")); !os.IsNotExist(err) {
		t.Error("Temp file should not be left behind")
	}

	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Load("broken"); !errors.Is(err, ErrCorruptSession) {
		t.Errorf("Expected ErrCorruptSession, got %v", err)
	}
}
