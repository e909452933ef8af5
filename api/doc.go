// Package api provides the HTTP surface of the sea battle server.
//
// The api package implements:
//   - Read-only REST endpoints for monitoring games, rooms and winners
//   - WebSocket upgrade handling for the game protocol
//   - Static file serving for the bundled client
//
// Endpoints:
//
// Monitoring:
//   - GET /api/games - List all active games
//   - GET /api/games/{id} - Get the public view of one game
//   - GET /api/rooms - List rooms waiting for a second player
//   - GET /api/winners - Get the winners leaderboard
//   - GET /api/health - Server health, uptime and connection counts
//
// Game traffic:
//   - /ws - WebSocket endpoint carrying the game protocol
//
// The REST surface is intentionally read-only. All state changes flow
// through the websocket protocol, where the server can tie commands to a
// registered connection. Game views returned by the API never include ship
// positions, so watching the API yields no in-game advantage.
//
// Request/Response Format:
//
// All endpoints return JSON. Errors are returned as JSON with appropriate
// HTTP status codes:
//
//	{
//	  "error": "error message"
//	}
//
// Usage:
//
//	server := api.NewServer(gameService, hub)
//	http.ListenAndServe(":8080", server)
package api
