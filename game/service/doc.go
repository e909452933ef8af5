// Package service orchestrates the sea battle server's moving parts.
//
// GameService is the single entry point for everything the transports can
// do: player registration, matchmaking, ship placement, attacks and
// disconnect handling, plus the read-only views served by the REST API.
// The implementation coordinates the player store, the room manager, the
// game registry and the engine, and fans every state change out as
// notifications:
//
//   - per-player messages (create_game, start_game, attack, turn, finish)
//     go through each participant's connection handle
//   - lobby-wide messages (update_room, update_winners) go through the
//     attached Broadcaster
//
// The service also drives the bot. When a game against the bot starts or
// the bot gains the turn, the service lets it shoot in a loop until it
// misses, wins, or runs out of cells, notifying after every shot. By the
// time a command returns, the board is fully settled.
//
// All state-changing operations are serialized behind one lock, so the
// engine never sees concurrent writers even though transports call in from
// different goroutines.
package service
