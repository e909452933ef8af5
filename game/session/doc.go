// Package session provides the registry of active games.
//
// The session package implements:
//   - Thread-safe game storage and retrieval
//   - Lookup of the game a player is currently in
//   - Game lifecycle cleanup
//
// Core Types:
//
// Registry is the authoritative map from game id to engine.Game. Games are
// created when a room fills up or a single-player game is requested, and
// removed when they finish or a participant disconnects.
//
// Identifiers:
//
// Game ids are small sequential integers handed out by the room manager, so
// a game id never collides with another active game. The registry logs and
// overwrites on a duplicate id rather than failing, since a duplicate means
// a stale game was never cleaned up.
//
// Concurrency:
//
// The registry is thread-safe. It guards only its own map; the games it
// holds are mutated under the game service's lock, which serializes all
// state-changing commands.
//
// Usage:
//
//	registry := session.NewRegistry()
//
//	// Create a game for two participants
//	g := registry.Create(gameID, playerOne, playerTwo)
//
//	// Find the game a player is part of
//	g, ok := registry.FindByPlayer(playerID)
//
//	// Remove a finished game
//	registry.Remove(gameID)
package session
