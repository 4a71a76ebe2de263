package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/hexstones/game/engine"
	"github.com/wricardo/hexstones/game/hexmath"
	"github.com/wricardo/hexstones/game/service"
)

func createTestConfig() *engine.GameConfig {
	config := &engine.GameConfig{
		Name:          "Test Config",
		Description:   "Test configuration",
		Level:         1,
		GridRadius:    5,
		RevealRadius:  6,
		APPerTurn:     5,
		TurnLimit:     10,
		ChainDelayMS:  800,
		StoneCapacity: 5,
		StartingStones: map[engine.StoneType]int{
			engine.Earth: 2,
			engine.Water: 2,
			engine.Fire:  2,
		},
	}
	config.Messages.Welcome = "Welcome!"
	return config
}

// stubConfigs serves createTestConfig under the "test" ID.
type stubConfigs struct{}

func (stubConfigs) LoadConfig(name string) (*engine.GameConfig, error) {
	if name != "test" {
		return nil, service.ErrConfigNotFound
	}
	return createTestConfig(), nil
}

func (stubConfigs) ListConfigs() ([]*service.ConfigInfo, error) {
	return []*service.ConfigInfo{{Filename: "test.json", ConfigID: "test", Name: "Test Config"}}, nil
}

func (stubConfigs) GetDefault() *engine.GameConfig { return createTestConfig() }

func (stubConfigs) DefaultID() string { return "test" }

func (stubConfigs) SaveConfig(string, *engine.GameConfig) error { return nil }

func TestManager_Create(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	t.Run("create with custom ID", func(t *testing.T) {
		session, err := manager.Create("test-session", "test", config)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if session.ID != "test-session" || session.ConfigID != "test" {
			t.Errorf("Unexpected session %q/%q", session.ID, session.ConfigID)
		}
		if session.Engine == nil {
			t.Error("Expected engine to be initialized")
		}
	})

	t.Run("create with auto-generated ID", func(t *testing.T) {
		session, err := manager.Create("", "test", config)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if len(session.ID) != 4 {
			t.Errorf("Expected 4-character session ID, got '%s'", session.ID)
		}
	})

	t.Run("duplicate session ID", func(t *testing.T) {
		_, err := manager.Create("test-session", "test", config)
		if !errors.Is(err, ErrSessionAlreadyExists) {
			t.Errorf("Expected ErrSessionAlreadyExists, got %v", err)
		}
	})

	t.Run("case-insensitive duplicate check", func(t *testing.T) {
		_, err := manager.Create("TEST-SESSION", "test", config)
		if !errors.Is(err, ErrSessionAlreadyExists) {
			t.Errorf("Expected ErrSessionAlreadyExists for case variant, got %v", err)
		}
	})

	t.Run("invalid session ID", func(t *testing.T) {
		_, err := manager.Create("../escape", "test", config)
		if !errors.Is(err, ErrInvalidSessionID) {
			t.Errorf("Expected ErrInvalidSessionID, got %v", err)
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		bad := createTestConfig()
		bad.GridRadius = 1
		if _, err := manager.Create("bad-config", "test", bad); err == nil {
			t.Error("Expected error for invalid config")
		}
	})
}

func TestManager_Get(t *testing.T) {
	manager := NewManager()
	created, err := manager.Create("MySession", "test", createTestConfig())
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	tests := []struct {
		name    string
		id      string
		wantErr error
	}{
		{"get existing session", "MySession", nil},
		{"case-insensitive get", "mysession", nil},
		{"get non-existent session", "nope", ErrSessionNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := manager.Get(tt.id)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Get(%q) error = %v, want %v", tt.id, err, tt.wantErr)
			}
			if tt.wantErr == nil && session != created {
				t.Error("Expected the created session")
			}
		})
	}

	// The service matches on its own sentinel.
	if _, err := manager.Get("nope"); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("Expected service.ErrSessionNotFound, got %v", err)
	}
}

func TestManager_GetOrCreate(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	first, err := manager.GetOrCreate("abcd", "test", config)
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	second, err := manager.GetOrCreate("ABCD", "test", config)
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if first != second {
		t.Error("Expected the existing session to be returned")
	}
	if manager.Count() != 1 {
		t.Errorf("Expected 1 session, got %d", manager.Count())
	}
}

func TestManager_Delete(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()
	manager.Create("one", "test", config)
	manager.Create("Two", "test", config)

	tests := []struct {
		name    string
		id      string
		wantErr error
	}{
		{"delete existing session", "one", nil},
		{"case-insensitive delete", "TWO", nil},
		{"delete non-existent session", "one", ErrSessionNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := manager.Delete(tt.id); !errors.Is(err, tt.wantErr) {
				t.Errorf("Delete(%q) error = %v, want %v", tt.id, err, tt.wantErr)
			}
		})
	}

	if manager.Count() != 0 {
		t.Errorf("Expected no sessions left, got %d", manager.Count())
	}
}

func TestManager_List(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	if len(manager.List()) != 0 {
		t.Error("Expected empty list")
	}

	ids := map[string]bool{}
	for i := 0; i < 3; i++ {
		session, err := manager.Create(fmt.Sprintf("s%d", i), "test", config)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		ids[session.ID] = true
	}

	sessions := manager.List()
	if len(sessions) != 3 {
		t.Fatalf("Expected 3 sessions, got %d", len(sessions))
	}
	for _, s := range sessions {
		if !ids[s.ID] {
			t.Errorf("Unexpected session %s in list", s.ID)
		}
	}
}

func TestManager_CleanupExpired(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	old, _ := manager.Create("old", "test", config)
	manager.Create("fresh", "test", config)
	old.LastAccessedAt = time.Now().Add(-2 * time.Hour)

	if removed := manager.CleanupExpiredSessions(time.Hour); removed != 1 {
		t.Errorf("Expected 1 session removed, got %d", removed)
	}
	if _, err := manager.Get("old"); !errors.Is(err, ErrSessionNotFound) {
		t.Error("Expected the old session to be gone")
	}
	if _, err := manager.Get("fresh"); err != nil {
		t.Errorf("Expected the fresh session to remain: %v", err)
	}
}

func TestManager_UpdateLastAccessed(t *testing.T) {
	manager := NewManager()
	session, _ := manager.Create("touch", "test", createTestConfig())
	before := session.LastAccessedAt
	time.Sleep(5 * time.Millisecond)

	if err := manager.UpdateLastAccessed("TOUCH"); err != nil {
		t.Fatalf("UpdateLastAccessed() error = %v", err)
	}
	if !session.LastAccessedAt.After(before) {
		t.Error("Expected last accessed time to advance")
	}
	if err := manager.UpdateLastAccessed("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("c%02d", i)
			if _, err := manager.Create(id, "test", config); err != nil {
				errs <- err
				return
			}
			if _, err := manager.Get(id); err != nil {
				errs <- err
			}
			manager.UpdateLastAccessed(id)
			manager.List()
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Concurrent operation failed: %v", err)
	}
	if manager.Count() != 20 {
		t.Errorf("Expected 20 sessions, got %d", manager.Count())
	}
}

func TestManager_SessionIsolation(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	a, _ := manager.Create("a", "test", config)
	b, _ := manager.Create("b", "test", config)

	if _, err := a.Engine.MovePlayer(hexmath.Coord{Q: 1, R: 0}); err != nil {
		t.Fatalf("MovePlayer failed: %v", err)
	}

	if a.Engine.GetPlayerPosition() == b.Engine.GetPlayerPosition() {
		t.Error("Sessions should not share state")
	}
	if b.Engine.GetPlayerPosition() != (hexmath.Coord{}) {
		t.Error("Session b should be untouched")
	}
}

func TestManager_SessionIDGeneration(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		session, err := manager.Create("", "test", config)
		if err != nil {
			// Rare 16-bit collision
			if errors.Is(err, ErrSessionAlreadyExists) {
				continue
			}
			t.Fatalf("Failed to create session: %v", err)
		}
		if len(session.ID) != 4 || strings.Trim(session.ID, "0123456789abcdef") != "" {
			t.Errorf("Expected 4 hex characters, got %q", session.ID)
		}
		if seen[session.ID] {
			t.Errorf("Duplicate session ID %s", session.ID)
		}
		seen[session.ID] = true
	}
}
