// Package engine implements the rules of a single sea battle game.
//
// A Game ties two participants together and enforces the full attack
// protocol: phase and turn checks, bounds and shot-uniqueness checks, hit
// and kill resolution, and the win condition. The engine is deliberately
// free of transport concerns; it reports what happened through Outcome
// values and leaves notification fan-out to the service layer.
//
// Game Flow:
//
//  1. NewGame creates a game in the pending-ships phase with a random
//     first turn.
//  2. PlaceShips assigns each participant's fleet; the second fleet
//     transitions the game to the playing phase.
//  3. Attack and RandomAttack resolve shots. A miss passes the turn to
//     the defender; a hit or kill keeps it with the attacker.
//  4. The shot that sinks the defender's last ship finishes the game and
//     records the winner.
//
// Kills:
//
// Sinking a ship retroactively upgrades its earlier hit records to kills
// and marks every cell surrounding the ship as a miss, since the
// no-touching placement rule guarantees those cells are empty.
//
// Concurrency:
//
// A Game is not safe for concurrent use. Callers serialize access; in this
// server the game service holds a lock across every state-changing call.
package engine
