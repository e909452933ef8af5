// Package websocket provides the WebSocket transport for the sea battle
// game protocol.
//
// The package uses a hub-and-spoke model where a central Hub manages all
// connections. Each client connection is served by a read goroutine and a
// write goroutine; everything a client sends is funneled into the hub's
// single event loop, so game commands are applied one at a time and the
// game state never sees concurrent writers.
//
// Message Protocol:
//
// Frames are JSON envelopes with the payload re-encoded as a string:
//
//	{"type": "attack", "data": "{\"gameId\":1,\"x\":3,\"y\":5}", "id": 0}
//
// Clients send commands (reg, create_room, add_user_to_room, add_ships,
// attack, randomAttack, create_single_player_game) and receive
// server-initiated notifications (create_game, start_game, attack, turn,
// finish, update_room, update_winners). Server frames always carry id 0.
// A failed command is echoed back to its sender with the same type and id
// and an {error, errorText} payload.
//
// Identity:
//
// A connection starts anonymous. The reg command binds it to a player; every
// later command is executed as that player regardless of any ids the client
// puts in payloads. Disconnecting a bound connection forfeits the player's
// active game.
//
// Usage:
//
//	hub := websocket.NewHub(gameService)
//	gameService.SetBroadcaster(hub)
//	go hub.Run()
//
//	http.HandleFunc("/ws", hub.ServeWS)
package websocket
