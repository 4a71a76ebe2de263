package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// GameConfig represents a level configuration loaded from JSON
type GameConfig struct {
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Level          int               `json:"level"`
	GridRadius     int               `json:"grid_radius"`
	RevealRadius   int               `json:"reveal_radius"`
	APPerTurn      int               `json:"ap_per_turn"`
	TurnLimit      int               `json:"turn_limit"`
	ChainDelayMS   int               `json:"chain_delay_ms"`
	StoneCapacity  int               `json:"stone_capacity"`
	StartingStones map[StoneType]int `json:"starting_stones,omitempty"`
	ShrinesPerType int               `json:"shrines_per_type"`
	Scatter        *ScatterConfig    `json:"scatter,omitempty"`
	Messages       struct {
		Welcome   string `json:"welcome"`
		TurnEnded string `json:"turn_ended"`
		GameOver  string `json:"game_over"`
	} `json:"messages"`
}

// ValidateGameConfig validates a game configuration for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}
	if config.Level < 1 {
		return fmt.Errorf("config validation: level must be at least 1, got %d", config.Level)
	}

	if config.GridRadius < MinGridRadius || config.GridRadius > MaxGridRadius {
		return fmt.Errorf("config validation: grid_radius must be between %d and %d, got %d", MinGridRadius, MaxGridRadius, config.GridRadius)
	}
	if config.RevealRadius < 1 {
		return fmt.Errorf("config validation: reveal_radius must be at least 1, got %d", config.RevealRadius)
	}

	if config.APPerTurn < MinAPPerTurn || config.APPerTurn > MaxAPPerTurn {
		return fmt.Errorf("config validation: ap_per_turn must be between %d and %d, got %d", MinAPPerTurn, MaxAPPerTurn, config.APPerTurn)
	}
	if config.TurnLimit < 0 {
		return fmt.Errorf("config validation: turn_limit cannot be negative, got %d", config.TurnLimit)
	}
	if config.ChainDelayMS < 0 || config.ChainDelayMS > MaxChainDelayMS {
		return fmt.Errorf("config validation: chain_delay_ms must be between 0 and %d, got %d", MaxChainDelayMS, config.ChainDelayMS)
	}

	if config.StoneCapacity < 1 || config.StoneCapacity > MaxStoneCapacity {
		return fmt.Errorf("config validation: stone_capacity must be between 1 and %d, got %d", MaxStoneCapacity, config.StoneCapacity)
	}
	for t, n := range config.StartingStones {
		if !t.Valid() {
			return fmt.Errorf("config validation: starting_stones has unknown stone type %q", t)
		}
		if n < 0 || n > config.StoneCapacity {
			return fmt.Errorf("config validation: starting_stones[%s] must be between 0 and stone_capacity (%d), got %d",
				t, config.StoneCapacity, n)
		}
	}

	if config.ShrinesPerType < 0 || config.ShrinesPerType > MaxShrinesPerType {
		return fmt.Errorf("config validation: shrines_per_type must be between 0 and %d, got %d", MaxShrinesPerType, config.ShrinesPerType)
	}
	if config.ShrinesPerType > 0 && config.GridRadius < MegaTileRadius*2 {
		return fmt.Errorf("config validation: grid_radius %d is too small for shrines", config.GridRadius)
	}

	if s := config.Scatter; s != nil {
		if s.SafeRadius < 0 {
			return fmt.Errorf("config validation: scatter.safe_radius cannot be negative, got %d", s.SafeRadius)
		}
		for t, d := range s.Dice {
			if !t.Valid() {
				return fmt.Errorf("config validation: scatter.dice has unknown stone type %q", t)
			}
			if d.Count < 0 || d.Sides < 1 {
				return fmt.Errorf("config validation: scatter.dice[%s] must have count >= 0 and sides >= 1", t)
			}
		}
	}

	if config.Messages.Welcome == "" {
		return fmt.Errorf("config validation: messages.welcome is required")
	}
	if config.Messages.TurnEnded != "" && strings.Count(config.Messages.TurnEnded, "%d") != 2 {
		return fmt.Errorf("config validation: messages.turn_ended must contain %%d for turn and %%d for limit")
	}

	return nil
}

// LoadGameConfig loads a game configuration from a JSON file
func LoadGameConfig(filename string) (*GameConfig, error) {
	// Support CONFIG_DIR environment variable for alternative config directory
	configPath := filename
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		if strings.HasPrefix(filename, "configs/") {
			configPath = filepath.Join(configDir, strings.TrimPrefix(filename, "configs/"))
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// DefaultConfig returns the built-in classic level used when no config file
// is available.
func DefaultConfig() *GameConfig {
	config := &GameConfig{
		Name:           "classic",
		Description:    "Explore a radius 12 board, find shrines and survive 50 turns",
		Level:          1,
		GridRadius:     DefaultGridRadius,
		RevealRadius:   7,
		APPerTurn:      DefaultAPPerTurn,
		TurnLimit:      DefaultTurnLimit,
		ChainDelayMS:   DefaultChainDelayMS,
		StoneCapacity:  DefaultStoneCapacity,
		ShrinesPerType: 1,
	}
	config.Messages.Welcome = "Welcome! Explore the board, place stones and discover the shrines."
	config.Messages.TurnEnded = "Turn ended. Action Points restored. (Turn %d/%d)"
	config.Messages.GameOver = "You took too many turns. Game Over!"
	return config
}

// TurnLimitForLevel shortens the turn limit by five for every level past the first.
func TurnLimitForLevel(level int) int {
	return max(DefaultTurnLimit-(level-1)*5, 5)
}

// InitGameStateFromConfig creates a new game state using the provided configuration
func InitGameStateFromConfig(config *GameConfig) *GameState {
	if config == nil {
		config = DefaultConfig()
	}

	grid := NewGrid(config.GridRadius)
	grid.RevealBox(config.RevealRadius)
	grid.Reveal(grid.Player())
	grid.RevealAdjacent(grid.Player())

	inv := NewInventory(config.StoneCapacity)
	for _, t := range StoneTypes {
		inv.Add(t, config.StartingStones[t])
	}

	state := &GameState{
		Grid:              grid,
		Inventory:         inv,
		AP:                APPool{RegularAP: config.APPerTurn},
		Turn:              0,
		TurnLimit:         config.TurnLimit,
		Level:             config.Level,
		MegaTiles:         PlaceMegaTiles(config.GridRadius, config.ShrinesPerType),
		Message:           config.Messages.Welcome,
		ConfigName:        config.Name,
		MoveHistory:       []HistoryEntry{},
		CurrentMoves:      []HistoryEntry{},
		CurrentMovesCount: 0,
	}

	if config.Scatter != nil {
		ScatterStones(grid, *config.Scatter)
	}
	grid.DrainDirty()

	return state
}
