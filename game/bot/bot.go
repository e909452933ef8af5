// Package bot implements the computer opponent: random fleet placement
// with spacing between ships, and random shot selection over cells the
// opponent board has not seen yet.
package bot

import (
	"log"
	"math/rand"

	"github.com/mkowalczyk/seabattle/game/board"
	"github.com/mkowalczyk/seabattle/game/config"
)

// The bot plays under a fixed identity so transport code can tell bot
// participants apart from registered players.
const (
	PlayerID = -1
	Name     = "Bot"
)

// PlaceFleet lays out the fleet described by rules on an empty board.
// Each ship gets a bounded number of random placement attempts; ships
// may not touch, so candidates are rejected when any of their cells
// falls inside the one-cell ring around an already placed ship. If a
// ship cannot be placed within the budget it is skipped and the fleet
// comes up short, which the game tolerates.
func PlaceFleet(rules *config.Rules) []*board.Ship {
	ships := make([]*board.Ship, 0, rules.TotalShips())
	for _, class := range rules.Fleet {
		for i := 0; i < class.Count; i++ {
			ship := placeOne(class, ships, rules.PlacementRetries)
			if ship == nil {
				log.Printf("[Bot] Could not place %s ship after %d attempts, continuing with partial fleet", class.Type, rules.PlacementRetries)
				continue
			}
			ships = append(ships, ship)
		}
	}
	return ships
}

func placeOne(class config.ShipClass, placed []*board.Ship, retries int) *board.Ship {
	for attempt := 0; attempt < retries; attempt++ {
		candidate := &board.Ship{
			Position: board.Coordinate{X: rand.Intn(board.Size), Y: rand.Intn(board.Size)},
			Vertical: rand.Intn(2) == 0,
			Length:   class.Length,
			Type:     class.Type,
			Hits:     make([]bool, class.Length),
		}
		if !candidate.InBounds() {
			continue
		}
		if collides(candidate, placed) {
			continue
		}
		return candidate
	}
	return nil
}

// collides reports whether any cell of the candidate falls on or next to
// an already placed ship. The check expands each placed ship by one cell
// in every direction, which enforces the no-touching rule.
func collides(candidate *board.Ship, placed []*board.Ship) bool {
	for _, cell := range candidate.Cells() {
		for _, other := range placed {
			for _, occupied := range other.Cells() {
				dx := cell.X - occupied.X
				dy := cell.Y - occupied.Y
				if dx >= -1 && dx <= 1 && dy >= -1 && dy <= 1 {
					return true
				}
			}
		}
	}
	return false
}

// ChooseTarget picks a uniformly random cell the target board has not
// been shot at yet. It returns false when every cell has been tried.
func ChooseTarget(target *board.Board) (board.Coordinate, bool) {
	open := target.OpenCells()
	if len(open) == 0 {
		return board.Coordinate{}, false
	}
	return open[rand.Intn(len(open))], true
}
