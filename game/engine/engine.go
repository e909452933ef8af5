package engine

import (
	"errors"
	"log"
	"math/rand"

	"github.com/mkowalczyk/seabattle/game/board"
)

var (
	ErrGameNotFound    = errors.New("game not found")
	ErrGameNotActive   = errors.New("game is not active")
	ErrNotInGame       = errors.New("player not found in this game")
	ErrNotYourTurn     = errors.New("not your turn")
	ErrOutOfBounds     = errors.New("invalid coordinates")
	ErrCellAlreadyShot = errors.New("cell already shot")
	ErrBoardNotReady   = errors.New("opponent board not set up")
	ErrNoOpenCells     = errors.New("no available cells to shoot at")
)

// Phase describes where a game is in its lifecycle. The string values are
// the wire names reported to clients and the API.
type Phase string

const (
	PhasePendingShips Phase = "pending_ships"
	PhasePlaying      Phase = "playing"
	PhaseFinished     Phase = "finished"
)

// Conn is a weak reference to a participant's transport connection. The
// engine never owns the connection; it only sends notifications through it
// when it is still alive. Bots carry a nil Conn.
type Conn interface {
	// Send delivers a server-initiated message. Implementations must not
	// block the caller and must swallow delivery failures.
	Send(msgType string, payload interface{})
	// Alive reports whether the connection can still receive messages.
	Alive() bool
}

// Participant is one side of a game: a registered player or a bot stand-in.
// Bot ids are negative; player ids assigned by the store start at 1.
type Participant struct {
	ID    int          `json:"playerId"`
	Name  string       `json:"playerName"`
	Board *board.Board `json:"board"`
	Bot   bool         `json:"isBot,omitempty"`
	Conn  Conn         `json:"-"`
}

// Game is the authoritative state of one match. Current indexes Players and
// names whose turn it is. WinnerID is meaningful only once Phase is
// PhaseFinished (0 otherwise; real ids are never 0).
type Game struct {
	ID       int             `json:"gameId"`
	Players  [2]*Participant `json:"players"`
	Current  int             `json:"currentPlayerIndex"`
	Phase    Phase           `json:"status"`
	WinnerID int             `json:"winner,omitempty"`
}

// Outcome is the structured result of one resolved attack.
type Outcome struct {
	GameID     int
	AttackerID int
	Position   board.Coordinate
	Result     board.ShotResult
	ShipSunk   *board.Ship
	// TurnChanged is false when the attacker retains the turn (hit or kill).
	TurnChanged  bool
	NextPlayerID int
	// Finished and WinnerID are set when this attack ended the game.
	Finished bool
	WinnerID int
}

// NewGame creates a game in the pending-ships phase with a randomly chosen
// first turn. Both participants get a fresh empty board.
func NewGame(id int, p1, p2 *Participant) *Game {
	p1.Board = board.New()
	p2.Board = board.New()
	g := &Game{
		ID:      id,
		Players: [2]*Participant{p1, p2},
		Current: rand.Intn(2),
		Phase:   PhasePendingShips,
	}
	log.Printf("[Engine] Created game %d: %s vs %s, %s starts",
		id, p1.Name, p2.Name, g.Players[g.Current].Name)
	return g
}

// playerIndex returns the index of the participant with the given id.
func (g *Game) playerIndex(playerID int) (int, bool) {
	for i, p := range g.Players {
		if p.ID == playerID {
			return i, true
		}
	}
	return 0, false
}

// Participant returns the participant with the given id, if present.
func (g *Game) Participant(playerID int) (*Participant, bool) {
	if i, ok := g.playerIndex(playerID); ok {
		return g.Players[i], true
	}
	return nil, false
}

// Opponent returns the other participant.
func (g *Game) Opponent(playerID int) (*Participant, bool) {
	if i, ok := g.playerIndex(playerID); ok {
		return g.Players[1-i], true
	}
	return nil, false
}

// ActivePlayer returns the participant whose turn it is.
func (g *Game) ActivePlayer() *Participant {
	return g.Players[g.Current]
}

// PlaceShips assigns a participant's fleet. When both boards are populated
// the game transitions to the playing phase. The boolean result reports
// whether this call started the game.
func (g *Game) PlaceShips(playerID int, ships []*board.Ship) (bool, error) {
	idx, ok := g.playerIndex(playerID)
	if !ok {
		return false, ErrNotInGame
	}
	if err := g.Players[idx].Board.PlaceShips(ships); err != nil {
		return false, err
	}
	log.Printf("[Engine] Ships added for %s (ID %d) in game %d",
		g.Players[idx].Name, playerID, g.ID)

	if g.Phase == PhasePendingShips &&
		len(g.Players[0].Board.Ships) > 0 && len(g.Players[1].Board.Ships) > 0 {
		g.Phase = PhasePlaying
		log.Printf("[Engine] Both fleets placed for game %d, game is now playing", g.ID)
		return true, nil
	}
	return false, nil
}

// Attack resolves one shot from attackerID at coord.
//
// Preconditions are checked in order: the game must be playing, the
// attacker must be a participant, it must be their turn, the coordinate
// must be on the board, and the defender's cell must not have been shot
// before. A miss flips the turn to the defender; a hit or kill keeps it.
// A kill retroactively upgrades the ship's earlier shot records and marks
// the surrounding cells as misses. The game finishes on the shot that
// destroys the defender's last ship.
func (g *Game) Attack(attackerID int, coord board.Coordinate) (*Outcome, error) {
	if g.Phase != PhasePlaying {
		return nil, ErrGameNotActive
	}
	attackerIdx, ok := g.playerIndex(attackerID)
	if !ok {
		return nil, ErrNotInGame
	}
	if g.Current != attackerIdx {
		return nil, ErrNotYourTurn
	}
	if !coord.InBounds() {
		return nil, ErrOutOfBounds
	}

	defenderIdx := 1 - attackerIdx
	defender := g.Players[defenderIdx].Board
	if len(defender.Ships) == 0 {
		return nil, ErrBoardNotReady
	}
	if defender.HasShot(coord) {
		return nil, ErrCellAlreadyShot
	}

	out := &Outcome{
		GameID:     g.ID,
		AttackerID: attackerID,
		Position:   coord,
		Result:     board.ResultMiss,
	}

	ship, segment, hit := defender.ShipAt(coord)
	if !hit {
		out.TurnChanged = true
		if err := defender.RecordShot(coord, board.ResultMiss); err != nil {
			// Unreachable given the HasShot check above.
			log.Printf("[Engine] Invariant violation recording miss in game %d: %v", g.ID, err)
		}
	} else {
		out.Result = board.ResultHit
		ship.Hits[segment] = true
		if err := defender.RecordShot(coord, board.ResultHit); err != nil {
			log.Printf("[Engine] Invariant violation recording hit in game %d: %v", g.ID, err)
		}
		if ship.Sunk() {
			out.Result = board.ResultKill
			out.ShipSunk = ship
			defender.UpgradeShots(ship, board.ResultKill)
			defender.MarkSurrounding(ship)
			log.Printf("[Engine] Ship killed: %s in game %d", ship.Type, g.ID)
		}
	}

	// Only a hit or kill can end the game.
	if out.Result != board.ResultMiss && defender.AllSunk() {
		g.Phase = PhaseFinished
		g.WinnerID = attackerID
		out.Finished = true
		out.WinnerID = attackerID
		log.Printf("[Engine] Game %d finished, winner %d", g.ID, attackerID)
	}

	if out.TurnChanged && g.Phase == PhasePlaying {
		g.Current = defenderIdx
	}
	out.NextPlayerID = g.Players[g.Current].ID
	return out, nil
}

// RandomAttack picks a uniformly random unshot cell on the defender's board
// and resolves it through Attack, which re-validates turn and board state.
func (g *Game) RandomAttack(attackerID int) (*Outcome, error) {
	if g.Phase != PhasePlaying {
		return nil, ErrGameNotActive
	}
	attackerIdx, ok := g.playerIndex(attackerID)
	if !ok {
		return nil, ErrNotInGame
	}
	open := g.Players[1-attackerIdx].Board.OpenCells()
	if len(open) == 0 {
		return nil, ErrNoOpenCells
	}
	coord := open[rand.Intn(len(open))]
	log.Printf("[Engine] Random attack for player %d in game %d chose (%d,%d)",
		attackerID, g.ID, coord.X, coord.Y)
	return g.Attack(attackerID, coord)
}

// Forfeit finishes the game in favor of the opponent of leaverID. It is the
// disconnect path and bypasses the normal attack resolution. The returned
// participant is the winner; ok is false when the game was already finished
// or the leaver is not a participant.
func (g *Game) Forfeit(leaverID int) (*Participant, bool) {
	if g.Phase == PhaseFinished {
		return nil, false
	}
	opponent, ok := g.Opponent(leaverID)
	if !ok {
		return nil, false
	}
	g.Phase = PhaseFinished
	g.WinnerID = opponent.ID
	log.Printf("[Engine] Game %d forfeited by %d, winner %d", g.ID, leaverID, opponent.ID)
	return opponent, true
}
