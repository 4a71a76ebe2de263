// Package api provides the HTTP REST API for the hex stones puzzle.
//
// Endpoints:
//
// Sessions:
//   - POST /api/sessions - Create a session ({"config_id": "classic"})
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get a session
//   - DELETE /api/sessions/{id} - Delete a session
//
// Game state:
//   - GET /api/sessions/{id}/state - Full game state
//   - GET /api/sessions/{id}/movable - Neighbors the player can enter now
//   - GET /api/sessions/{id}/hex/{q}/{r} - Stone, mimic type, cost and wind zone of one hex
//   - GET /api/sessions/{id}/water-connections - Linked water pairs
//   - GET /api/sessions/{id}/history - Paginated action history (?page=&limit=&order=)
//
// Actions (POST, JSON body):
//   - /place {"q":1,"r":0,"stone":"water"}
//   - /break {"q":1,"r":0}
//   - /move {"q":1,"r":0}
//   - /sacrifice {"q":1,"r":0,"stones":["earth","wind"]}
//   - /end-turn, /reset, /reveal-all
//
// Configuration:
//   - GET /api/configs, GET /api/configs/{name}, POST /api/configs?id=name
//
// Other:
//   - GET /health
//   - GET /ws?session={id} - WebSocket stream of state updates
//
// Status codes:
//
// An action the rules refuse answers 409 with the full action result, whose
// reason_code and message explain the refusal. Unknown sessions, configs and
// hexes answer 404; malformed input answers 400. Other errors are returned
// as JSON:
//
//	{
//	  "error": "error message",
//	  "code": 400
//	}
package api
