// Package service provides the business logic layer for the hex stones puzzle.
//
// The service package implements:
//   - Multi-session game management
//   - Action processing with machine-readable failure codes
//   - Timed chain reaction resolution
//   - Move history pagination
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and persistence.
// ConfigManager manages level configuration loading and validation.
// Notifier receives a StateUpdate after every change to a session, and
// ChainScheduler runs deferred chain reactions.
//
// Architecture:
//
// The service layer sits between the transports (HTTP, WebSocket, MCP) and
// the engine. Engines are not safe for concurrent use, so every engine call
// happens under a single service lock, including the timer callback that
// resolves a pending chain reaction. A session is persisted after each
// action unless a chain reaction is pending; it is persisted once the chain
// resolves.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr,
//		service.WithNotifier(hub))
//
//	info, err := gameService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Move(ctx, info.ID, hexmath.Coord{Q: 1, R: 0})
//	if err == nil && !result.Success {
//		fmt.Println(result.ReasonCode, result.Message)
//	}
package service
