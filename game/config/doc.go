// Package config loads and caches hexstones level configurations.
//
// Levels are JSON files in a config directory, one per level, named by their
// config ID (classic.json is the level "classic"). Every file is validated
// with engine.ValidateGameConfig before it is cached.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	level, err := manager.LoadConfig("scatter")
//	defaultLevel := manager.GetDefault()
//	levels, err := manager.ListConfigs()
//
// When the directory holds no classic.json, the first valid file becomes the
// default, and an empty directory falls back to engine.DefaultConfig.
package config
