package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/hexstones/game/engine"
	"github.com/wricardo/hexstones/game/service"
)

var (
	// ErrConfigNotFound is shared with the service layer so it can tell a
	// missing level from a broken one.
	ErrConfigNotFound = service.ErrConfigNotFound
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// DefaultConfigID is the config loaded when a session names none.
const DefaultConfigID = "classic"

// Manager handles level configuration loading and caching
type Manager struct {
	configDir     string
	defaultConfig *engine.GameConfig
	defaultID     string
	configs       map[string]*engine.GameConfig
	logger        *slog.Logger
	mu            sync.RWMutex
}

// NewManager creates a new configuration manager
func NewManager(configDir string) (*Manager, error) {
	return NewManagerWithLogger(configDir, slog.Default())
}

// NewManagerWithLogger creates a configuration manager that reports skipped
// files to logger.
func NewManagerWithLogger(configDir string, logger *slog.Logger) (*Manager, error) {
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}

	m := &Manager{
		configDir: configDir,
		configs:   make(map[string]*engine.GameConfig),
		logger:    logger,
	}

	if err := m.loadDefaultConfig(); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	return m, nil
}

func configID(name string) string {
	return strings.TrimSuffix(name, ".json")
}

// LoadConfig loads a configuration by ID, the file name without .json
func (m *Manager) LoadConfig(name string) (*engine.GameConfig, error) {
	id := configID(name)

	m.mu.RLock()
	if config, exists := m.configs[id]; exists {
		m.mu.RUnlock()
		return config, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if config, exists := m.configs[id]; exists {
		return config, nil
	}

	config, err := m.readConfig(id)
	if err != nil {
		return nil, err
	}
	m.configs[id] = config
	return config, nil
}

func (m *Manager) readConfig(id string) (*engine.GameConfig, error) {
	data, err := os.ReadFile(filepath.Join(m.configDir, id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config engine.GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := engine.ValidateGameConfig(&config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &config, nil
}

// ReloadConfig drops a cached config and reads it from disk again.
func (m *Manager) ReloadConfig(name string) error {
	id := configID(name)
	config, err := m.readConfig(id)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[id] = config
	if m.defaultID == id {
		m.defaultConfig = config
	}
	return nil
}

// ValidateConfig checks a config without saving it.
func (m *Manager) ValidateConfig(config *engine.GameConfig) error {
	if err := engine.ValidateGameConfig(config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ListConfigs returns information about all valid configurations, sorted by
// level and then ID.
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var configs []*service.ConfigInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		id := configID(entry.Name())
		config, err := m.LoadConfig(id)
		if err != nil {
			m.logger.Warn("skipping config", "file", entry.Name(), "error", err)
			continue
		}

		configs = append(configs, &service.ConfigInfo{
			Filename:    entry.Name(),
			ConfigID:    id,
			Name:        config.Name,
			Description: config.Description,
			Level:       config.Level,
			GridRadius:  config.GridRadius,
			TurnLimit:   config.TurnLimit,
			APPerTurn:   config.APPerTurn,
		})
	}

	sort.SliceStable(configs, func(i, j int) bool {
		if configs[i].Level != configs[j].Level {
			return configs[i].Level < configs[j].Level
		}
		return configs[i].ConfigID < configs[j].ConfigID
	})
	return configs, nil
}

// GetDefault returns the default configuration
func (m *Manager) GetDefault() *engine.GameConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultConfig
}

// DefaultID returns the ID of the default configuration.
func (m *Manager) DefaultID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultID
}

// SetDefault sets the default configuration by name
func (m *Manager) SetDefault(name string) error {
	config, err := m.LoadConfig(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultConfig = config
	m.defaultID = configID(name)
	return nil
}

// RefreshCache reloads all cached configurations from disk
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.configs = make(map[string]*engine.GameConfig)
	m.mu.Unlock()

	return m.loadDefaultConfig()
}

// loadDefaultConfig picks classic.json, then the first valid file, then the
// built-in classic level.
func (m *Manager) loadDefaultConfig() error {
	config, err := m.LoadConfig(DefaultConfigID)
	id := DefaultConfigID
	if err != nil {
		configs, listErr := m.ListConfigs()
		if listErr != nil || len(configs) == 0 {
			m.setDefault(DefaultConfigID, engine.DefaultConfig())
			return nil
		}
		id = configs[0].ConfigID
		if config, err = m.LoadConfig(id); err != nil {
			m.setDefault(DefaultConfigID, engine.DefaultConfig())
			return nil
		}
	}

	m.setDefault(id, config)
	return nil
}

func (m *Manager) setDefault(id string, config *engine.GameConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultID = id
	m.defaultConfig = config
	if _, ok := m.configs[id]; !ok {
		m.configs[id] = config
	}
}

// SaveConfig saves a configuration to disk
func (m *Manager) SaveConfig(name string, config *engine.GameConfig) error {
	if err := m.ValidateConfig(config); err != nil {
		return err
	}

	id := configID(name)
	if id == "" || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: config id %q", ErrInvalidConfig, name)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(m.configDir, id+".json"), data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	m.mu.Lock()
	m.configs[id] = config
	m.mu.Unlock()

	return nil
}
