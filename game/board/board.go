package board

import (
	"errors"
	"fmt"
)

// Size is the fixed board dimension. Boards are always Size x Size.
const Size = 10

var (
	ErrShipsAlreadyPlaced = errors.New("ships already placed on this board")
	ErrNoShips            = errors.New("at least one ship is required")
	ErrCellAlreadyShot    = errors.New("cell already shot")
)

// Coordinate identifies a single cell on the board.
type Coordinate struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// InBounds reports whether the coordinate lies on the board.
func (c Coordinate) InBounds() bool {
	return c.X >= 0 && c.X < Size && c.Y >= 0 && c.Y < Size
}

// ShipType categorizes ships by length. The wire names match the client
// protocol: small=1, medium=2, large=3, huge=4.
type ShipType string

const (
	ShipSmall  ShipType = "small"
	ShipMedium ShipType = "medium"
	ShipLarge  ShipType = "large"
	ShipHuge   ShipType = "huge"
)

// Length returns the canonical ship length for the type.
func (t ShipType) Length() int {
	switch t {
	case ShipSmall:
		return 1
	case ShipMedium:
		return 2
	case ShipLarge:
		return 3
	case ShipHuge:
		return 4
	default:
		return 0
	}
}

// ShotResult is the outcome of a single shot.
type ShotResult string

const (
	ResultMiss ShotResult = "miss"
	ResultHit  ShotResult = "shot"
	ResultKill ShotResult = "killed"
)

// Ship is a placed fleet unit. Position is the origin cell; a vertical ship
// extends along +y, a horizontal one along +x. Hits holds one flag per
// occupied cell, index i being the i-th cell from the origin.
//
// The "direction" JSON name (true = vertical) is the client wire format.
type Ship struct {
	Position Coordinate `json:"position"`
	Vertical bool       `json:"direction"`
	Length   int        `json:"length"`
	Type     ShipType   `json:"type"`
	Hits     []bool     `json:"hits"`
}

// Cell returns the coordinate of the i-th segment. i must be in [0, Length).
func (s *Ship) Cell(i int) Coordinate {
	if s.Vertical {
		return Coordinate{X: s.Position.X, Y: s.Position.Y + i}
	}
	return Coordinate{X: s.Position.X + i, Y: s.Position.Y}
}

// Cells returns every coordinate the ship occupies.
func (s *Ship) Cells() []Coordinate {
	cells := make([]Coordinate, s.Length)
	for i := 0; i < s.Length; i++ {
		cells[i] = s.Cell(i)
	}
	return cells
}

// InBounds reports whether every segment lies on the board.
func (s *Ship) InBounds() bool {
	return s.Position.InBounds() && s.Cell(s.Length-1).InBounds()
}

// Sunk reports whether every segment has been hit.
func (s *Ship) Sunk() bool {
	for _, hit := range s.Hits {
		if !hit {
			return false
		}
	}
	return true
}

// Shot records one received shot and its result.
type Shot struct {
	X      int        `json:"x"`
	Y      int        `json:"y"`
	Result ShotResult `json:"result"`
}

// Board is one participant's half of a game: their placed ships and the
// shots their opponent has fired at them. Ship placement happens exactly
// once; afterwards only hit masks and shot records mutate.
type Board struct {
	Ships         []*Ship `json:"ships"`
	ShotsReceived []Shot  `json:"shotsReceived"`
}

// New returns an empty board awaiting ship placement.
func New() *Board {
	return &Board{
		Ships:         []*Ship{},
		ShotsReceived: []Shot{},
	}
}

// PlaceShips assigns the board's ships with fresh all-false hit masks.
// It fails if ships were already placed or the slice is empty. Placement
// geometry (overlap, spacing) is the caller's responsibility; only segment
// bounds and the once-only rule are enforced here.
func (b *Board) PlaceShips(ships []*Ship) error {
	if len(b.Ships) > 0 {
		return ErrShipsAlreadyPlaced
	}
	if len(ships) == 0 {
		return ErrNoShips
	}
	placed := make([]*Ship, 0, len(ships))
	for _, s := range ships {
		if s.Length < 1 {
			return fmt.Errorf("invalid ship length %d", s.Length)
		}
		if !s.InBounds() {
			return fmt.Errorf("ship at (%d,%d) extends off the board", s.Position.X, s.Position.Y)
		}
		copied := *s
		copied.Hits = make([]bool, copied.Length)
		placed = append(placed, &copied)
	}
	b.Ships = placed
	return nil
}

// ShipAt returns the ship occupying coord and the segment index, skipping
// segments that are already hit. The second result is the segment index.
func (b *Board) ShipAt(coord Coordinate) (*Ship, int, bool) {
	for _, ship := range b.Ships {
		for i := 0; i < ship.Length; i++ {
			if ship.Hits[i] {
				continue
			}
			if ship.Cell(i) == coord {
				return ship, i, true
			}
		}
	}
	return nil, 0, false
}

// AllSunk reports whether every ship on the board is fully destroyed.
// An empty board is not considered sunk.
func (b *Board) AllSunk() bool {
	if len(b.Ships) == 0 {
		return false
	}
	for _, ship := range b.Ships {
		if !ship.Sunk() {
			return false
		}
	}
	return true
}

// HasShot reports whether a shot was already recorded at coord.
func (b *Board) HasShot(coord Coordinate) bool {
	for _, shot := range b.ShotsReceived {
		if shot.X == coord.X && shot.Y == coord.Y {
			return true
		}
	}
	return false
}

// RecordShot appends a shot record. Recording the same cell twice is a
// caller bug; the resolver checks HasShot first.
func (b *Board) RecordShot(coord Coordinate, result ShotResult) error {
	if b.HasShot(coord) {
		return ErrCellAlreadyShot
	}
	b.ShotsReceived = append(b.ShotsReceived, Shot{X: coord.X, Y: coord.Y, Result: result})
	return nil
}

// UpgradeShots rewrites the recorded result for every cell of the ship.
// Used when a kill retroactively turns earlier hits into kills.
func (b *Board) UpgradeShots(ship *Ship, result ShotResult) {
	for _, cell := range ship.Cells() {
		for i := range b.ShotsReceived {
			if b.ShotsReceived[i].X == cell.X && b.ShotsReceived[i].Y == cell.Y {
				b.ShotsReceived[i].Result = result
			}
		}
	}
}

// MarkSurrounding records a miss on every in-bounds cell adjacent (including
// diagonals) to the ship that has no shot yet. Placement rules guarantee the
// perimeter of a sunk ship is empty, so this spares the opponent wasted
// guesses. Existing records are never overwritten, which makes the call
// idempotent.
func (b *Board) MarkSurrounding(ship *Ship) {
	occupied := make(map[Coordinate]bool, ship.Length)
	for _, cell := range ship.Cells() {
		occupied[cell] = true
	}
	for _, cell := range ship.Cells() {
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				neighbor := Coordinate{X: cell.X + dx, Y: cell.Y + dy}
				if occupied[neighbor] || !neighbor.InBounds() || b.HasShot(neighbor) {
					continue
				}
				b.ShotsReceived = append(b.ShotsReceived, Shot{X: neighbor.X, Y: neighbor.Y, Result: ResultMiss})
			}
		}
	}
}

// OpenCells returns every coordinate without a shot record, in row-major
// order. The resolver and the bot both draw random targets from this set.
func (b *Board) OpenCells() []Coordinate {
	open := make([]Coordinate, 0, Size*Size)
	for x := 0; x < Size; x++ {
		for y := 0; y < Size; y++ {
			coord := Coordinate{X: x, Y: y}
			if !b.HasShot(coord) {
				open = append(open, coord)
			}
		}
	}
	return open
}
