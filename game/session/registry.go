package session

import (
	"log"
	"sync"

	"github.com/mkowalczyk/seabattle/game/engine"
)

// Registry is the single owner of all live games. Lookups and removal go
// through it; other components receive a *engine.Game handle or a
// participant id to find one by.
type Registry struct {
	games map[int]*engine.Game
	mu    sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		games: make(map[int]*engine.Game),
	}
}

// Create stores a new game for the two participants. A duplicate id is a
// caller bug: it is logged and the old game overwritten rather than
// surfaced as an error.
func (r *Registry) Create(id int, p1, p2 *engine.Participant) *engine.Game {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.games[id]; exists {
		log.Printf("[Registry] Game with ID %d already exists, overwriting", id)
	}
	game := engine.NewGame(id, p1, p2)
	r.games[id] = game
	return game
}

// Get retrieves a game by id.
func (r *Registry) Get(id int) (*engine.Game, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	game, ok := r.games[id]
	return game, ok
}

// Remove deletes a game. It reports whether the game existed.
func (r *Registry) Remove(id int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.games[id]; !ok {
		return false
	}
	delete(r.games, id)
	log.Printf("[Registry] Removed game %d", id)
	return true
}

// FindByPlayer returns the game a player participates in, if any. Linear
// scan: the live-game count is small.
func (r *Registry) FindByPlayer(playerID int) (*engine.Game, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, game := range r.games {
		if _, ok := game.Participant(playerID); ok {
			return game, true
		}
	}
	return nil, false
}

// List returns all live games.
func (r *Registry) List() []*engine.Game {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*engine.Game, 0, len(r.games))
	for _, game := range r.games {
		result = append(result, game)
	}
	return result
}

// Count returns the number of live games.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.games)
}

// Reset clears all games. Test support.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.games = make(map[int]*engine.Game)
	log.Println("[Registry] Registry has been reset")
}
