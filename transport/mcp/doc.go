// Package mcp exposes the hex stones game to AI agents over the Model Context
// Protocol.
//
// The Client is a thin proxy: every tool call becomes a request against the
// REST API, so an agent sees exactly what the HTTP clients see. Results are
// rendered as text (position, AP, inventory, the six neighbours and a small
// local view) rather than raw JSON.
//
// Tools:
//   - create_session, list_sessions, get_session
//   - game_state, movable_hexes, describe_hex, water_connections, move_history
//   - move, sacrifice, place_stone, break_stone, end_turn, reset_game
//   - list_configs, game_instructions
//
// An action the rules refuse is not a tool error. It is returned as text
// starting with ✗ and carrying the reason, so the agent can adjust.
//
// Transport modes:
//
//	// Stdio
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
//
//	// HTTP, one JSON-RPC message per POST
//	apiServer.Mount("/mcp", client.HTTPHandler())
package mcp
