// Package websocket pushes live game updates to browser clients.
//
// A Hub keeps the connected clients of every session and implements
// service.Notifier: each StateUpdate the game service emits is marshalled
// once and written to every client watching that session. Updates carry a
// type of state_update, chain_started or chain_resolved, the full game
// state and the hexes that changed.
//
// Clients connect to /ws?session=<id> and only listen; the connection is
// kept alive with ping/pong.
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run(ctx)
//
//	svc := service.NewGameService(sessions, configs, service.WithNotifier(hub))
package websocket
