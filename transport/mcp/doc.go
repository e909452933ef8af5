// Package mcp provides the Model Context Protocol surface of the sea
// battle server.
//
// The package is a thin client: every tool call is proxied to the REST API
// over HTTP, so the MCP surface stays consistent with what any other API
// consumer sees and never touches game state directly.
//
// MCP Tools:
//
// All tools are read-only observers of the running server:
//   - list_games: List all active games with their phase and players
//   - game_state: Get the public state of one game (no ship positions)
//   - list_rooms: List rooms waiting for a second player
//   - list_winners: Get the winners leaderboard
//   - server_info: Server health, uptime and connection counts
//
// Transport Modes:
//
// The server supports two transport modes:
//   - Stdio: Direct stdio communication for local MCP clients
//   - HTTP: POST /mcp endpoint for remote MCP integration
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//
//	// Stdio mode
//	server.ServeStdio(client.GetMCPServer())
//
//	// HTTP mode
//	response := client.GetMCPServer().HandleMessage(ctx, body)
package mcp
