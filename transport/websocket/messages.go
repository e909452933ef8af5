package websocket

import (
	"encoding/json"

	"github.com/mkowalczyk/seabattle/game/board"
)

// Client-initiated command types.
const (
	CmdReg              = "reg"
	CmdCreateRoom       = "create_room"
	CmdAddUserToRoom    = "add_user_to_room"
	CmdAddShips         = "add_ships"
	CmdAttack           = "attack"
	CmdRandomAttack     = "randomAttack"
	CmdSinglePlayerGame = "create_single_player_game"
)

// Envelope is the frame exchanged over the socket. The payload travels as
// a JSON document re-encoded into the Data string; an empty string means
// no payload. ID is 0 on every server-initiated frame.
type Envelope struct {
	Type string `json:"type"`
	Data string `json:"data"`
	ID   int    `json:"id"`
}

// RegRequest asks to register a new player or log an existing one in.
type RegRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// RegResponse answers a reg command. Index is the assigned player id.
type RegResponse struct {
	Name      string `json:"name"`
	Index     int    `json:"index"`
	Error     bool   `json:"error"`
	ErrorText string `json:"errorText"`
}

// JoinRoomRequest names the room the player wants to join.
type JoinRoomRequest struct {
	IndexRoom int `json:"indexRoom"`
}

// AddShipsRequest submits a player's fleet for a game. IndexPlayer must
// match the connection's registered identity when present; the registered
// id is what the server acts on.
type AddShipsRequest struct {
	GameID      int           `json:"gameId"`
	Ships       []*board.Ship `json:"ships"`
	IndexPlayer int           `json:"indexPlayer"`
}

// AttackRequest requests a shot at the given cell.
type AttackRequest struct {
	GameID      int `json:"gameId"`
	X           int `json:"x"`
	Y           int `json:"y"`
	IndexPlayer int `json:"indexPlayer"`
}

// RandomAttackRequest requests a shot at a server-chosen cell.
type RandomAttackRequest struct {
	GameID      int `json:"gameId"`
	IndexPlayer int `json:"indexPlayer"`
}

// ErrorPayload is echoed back with the failed command's type when a
// command cannot be carried out.
type ErrorPayload struct {
	Error     bool   `json:"error"`
	ErrorText string `json:"errorText"`
}

// encodeEnvelope wraps a payload in the wire envelope. A nil payload
// produces an empty Data string.
func encodeEnvelope(msgType string, payload interface{}, id int) ([]byte, error) {
	data := ""
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		data = string(raw)
	}
	return json.Marshal(Envelope{Type: msgType, Data: data, ID: id})
}

// decodePayload unpacks the envelope's Data string into v. An empty Data
// string is treated as an empty payload.
func decodePayload(env *Envelope, v interface{}) error {
	if env.Data == "" {
		return nil
	}
	return json.Unmarshal([]byte(env.Data), v)
}
