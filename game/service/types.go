package service

import (
	"context"

	"github.com/mkowalczyk/seabattle/game/board"
	"github.com/mkowalczyk/seabattle/game/engine"
	"github.com/mkowalczyk/seabattle/game/player"
	"github.com/mkowalczyk/seabattle/game/room"
)

// Server-initiated message types. Transports use these verbatim as the
// envelope type field.
const (
	MsgCreateGame    = "create_game"
	MsgStartGame     = "start_game"
	MsgAttack        = "attack"
	MsgTurn          = "turn"
	MsgFinish        = "finish"
	MsgUpdateRoom    = "update_room"
	MsgUpdateWinners = "update_winners"
)

// CreateGamePayload tells a player which game they were put into and the
// id the server knows them by inside it.
type CreateGamePayload struct {
	IDGame   int `json:"idGame"`
	IDPlayer int `json:"idPlayer"`
}

// StartGamePayload echoes a player's own fleet back to them once both
// sides have placed ships. CurrentPlayerIndex is the id of the player
// who moves first.
type StartGamePayload struct {
	Ships              []*board.Ship `json:"ships"`
	CurrentPlayerIndex int           `json:"currentPlayerIndex"`
}

// AttackPayload describes one resolved shot to both players. Ship is set
// only on a kill and carries the destroyed ship.
type AttackPayload struct {
	Position      board.Coordinate `json:"position"`
	CurrentPlayer int              `json:"currentPlayer"`
	Status        board.ShotResult `json:"status"`
	Ship          *board.Ship      `json:"ship,omitempty"`
}

// TurnPayload names the player who moves next.
type TurnPayload struct {
	CurrentPlayer int `json:"currentPlayer"`
}

// FinishPayload names the winner of a finished game.
type FinishPayload struct {
	WinPlayer int `json:"winPlayer"`
}

// ParticipantView is the public, placement-free view of one game side.
type ParticipantView struct {
	ID            int    `json:"playerId"`
	Name          string `json:"playerName"`
	Bot           bool   `json:"isBot,omitempty"`
	ShipsPlaced   bool   `json:"shipsPlaced"`
	ShotsReceived int    `json:"shotsReceived"`
	ShipsLost     int    `json:"shipsLost"`
}

// GameView is the public view of a game for the monitoring API. It never
// exposes ship positions.
type GameView struct {
	ID       int               `json:"gameId"`
	Phase    engine.Phase      `json:"status"`
	Players  []ParticipantView `json:"players"`
	TurnOf   int               `json:"currentPlayer"`
	WinnerID int               `json:"winner,omitempty"`
}

// Broadcaster delivers a message to every connected client. The websocket
// hub implements it; tests substitute a recorder.
type Broadcaster interface {
	Broadcast(msgType string, payload interface{})
}

// GameService defines all game-related operations.
type GameService interface {
	// Player identity
	Register(ctx context.Context, name, password string) (*player.Player, error)
	Winners(ctx context.Context) []player.WinnerEntry

	// Matchmaking
	CreateRoom(ctx context.Context, playerID int, conn engine.Conn) (*room.Room, error)
	JoinRoom(ctx context.Context, roomID, playerID int, conn engine.Conn) (*engine.Game, error)
	Rooms(ctx context.Context) []room.Summary

	// Game lifecycle
	CreateSinglePlayerGame(ctx context.Context, playerID int, conn engine.Conn) (*engine.Game, error)
	PlaceShips(ctx context.Context, gameID, playerID int, ships []*board.Ship) error
	Attack(ctx context.Context, gameID, playerID int, coord board.Coordinate) error
	RandomAttack(ctx context.Context, gameID, playerID int) error
	HandleDisconnect(ctx context.Context, playerID int)

	// Monitoring
	ListGames(ctx context.Context) []GameView
	GetGame(ctx context.Context, gameID int) (*GameView, error)

	// Wiring
	SetBroadcaster(b Broadcaster)
}
