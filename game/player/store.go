package player

import (
	"errors"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/mkowalczyk/seabattle/storage"
)

var (
	ErrInvalidPassword  = errors.New("invalid password")
	ErrEmptyCredentials = errors.New("username and password cannot be empty")
)

// Player is a registered human participant. Passwords are compared in
// plain text; hardening authentication is out of scope for this server.
type Player struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Password string `json:"-"`
	Wins     int    `json:"wins"`
}

// WinnerEntry is one row of the public winners list.
type WinnerEntry struct {
	Name string `json:"name"`
	Wins int    `json:"wins"`
}

// Store keeps all registered players. Ids are sequential starting at 1 so
// they never collide with bot ids, which are negative. When a storage
// backend is attached, win counts are loaded on registration and written
// through on every increment.
type Store struct {
	byID   map[int]*Player
	byName map[string]*Player
	nextID int
	ledger *storage.Store
	mu     sync.RWMutex
}

// NewStore creates an in-memory player store.
func NewStore() *Store {
	return &Store{
		byID:   make(map[int]*Player),
		byName: make(map[string]*Player),
		nextID: 1,
	}
}

// NewStoreWithLedger creates a player store whose win counts persist to the
// given storage backend.
func NewStoreWithLedger(ledger *storage.Store) *Store {
	s := NewStore()
	s.ledger = ledger
	return s
}

// RegisterOrLogin returns the existing player when the name is known and
// the password matches, or registers a new player. Blank credentials and
// wrong passwords are rejected.
func (s *Store) RegisterOrLogin(name, password string) (*Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byName[name]; ok {
		if existing.Password != password {
			return nil, ErrInvalidPassword
		}
		return existing, nil
	}

	if strings.TrimSpace(name) == "" || strings.TrimSpace(password) == "" {
		return nil, ErrEmptyCredentials
	}

	p := &Player{
		ID:       s.nextID,
		Name:     name,
		Password: password,
	}
	s.nextID++

	if s.ledger != nil {
		wins, err := s.ledger.Wins(name)
		if err != nil {
			log.Printf("[PlayerStore] Failed to load persisted wins for %s: %v", name, err)
		} else {
			p.Wins = wins
		}
	}

	s.byID[p.ID] = p
	s.byName[p.Name] = p
	log.Printf("[PlayerStore] Registered new player: %s (ID %d)", name, p.ID)
	return p, nil
}

// Get returns a player by id.
func (s *Store) Get(id int) (*Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	return p, ok
}

// IncrementWins credits one win to the player. Unknown ids (bots included)
// are ignored and reported as false.
func (s *Store) IncrementWins(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[id]
	if !ok {
		return false
	}
	p.Wins++
	log.Printf("[PlayerStore] Incremented wins for %s (ID %d), total %d", p.Name, p.ID, p.Wins)

	if s.ledger != nil {
		if err := s.ledger.SetWins(p.Name, p.Wins); err != nil {
			log.Printf("[PlayerStore] Failed to persist wins for %s: %v", p.Name, err)
		}
	}
	return true
}

// Winners returns all players sorted by win count descending.
func (s *Store) Winners() []WinnerEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]WinnerEntry, 0, len(s.byID))
	for _, p := range s.byID {
		entries = append(entries, WinnerEntry{Name: p.Name, Wins: p.Wins})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Wins != entries[j].Wins {
			return entries[i].Wins > entries[j].Wins
		}
		return entries[i].Name < entries[j].Name
	})
	return entries
}

// Count returns the number of registered players.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Reset clears all players. Test support.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID = make(map[int]*Player)
	s.byName = make(map[string]*Player)
	s.nextID = 1
	log.Println("[PlayerStore] Player store has been reset")
}
