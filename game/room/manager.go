package room

import (
	"errors"
	"log"
	"sync"

	"github.com/mkowalczyk/seabattle/game/engine"
)

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrRoomFull      = errors.New("room is already full")
	ErrAlreadyInRoom = errors.New("player is already in this room")
)

// Status describes a room's place in the matchmaking flow.
type Status string

const (
	StatusWaiting Status = "waiting"
	StatusReady   Status = "ready"
)

// User is a player sitting in a room. The connection handle is weak, kept
// only so the game created from this room can notify the player.
type User struct {
	Name  string      `json:"name"`
	Index int         `json:"index"`
	Conn  engine.Conn `json:"-"`
}

// Room is a matchmaking slot. It holds at most two users; the second join
// marks it ready and assigns a game id.
type Room struct {
	ID     int     `json:"id"`
	Users  []*User `json:"users"`
	Status Status  `json:"status"`
	GameID int     `json:"gameId,omitempty"`
}

// Summary is the client-facing view of a joinable room.
type Summary struct {
	RoomID    int           `json:"roomId"`
	RoomUsers []SummaryUser `json:"roomUsers"`
}

// SummaryUser is the client-facing view of a room occupant.
type SummaryUser struct {
	Name  string `json:"name"`
	Index int    `json:"index"`
}

// Manager owns the matchmaking rooms and hands out game ids.
type Manager struct {
	rooms      map[int]*Room
	nextRoomID int
	nextGameID int
	mu         sync.Mutex
}

// NewManager creates an empty room manager.
func NewManager() *Manager {
	return &Manager{
		rooms:      make(map[int]*Room),
		nextRoomID: 1,
		nextGameID: 1,
	}
}

// CreateRoom opens a new waiting room with the creator inside.
func (m *Manager) CreateRoom(playerID int, playerName string, conn engine.Conn) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()

	room := &Room{
		ID:     m.nextRoomID,
		Users:  []*User{{Name: playerName, Index: playerID, Conn: conn}},
		Status: StatusWaiting,
	}
	m.nextRoomID++
	m.rooms[room.ID] = room
	log.Printf("[RoomManager] Created room %d by %s (ID %d)", room.ID, playerName, playerID)
	return room
}

// AddUser joins a player to a room. The second occupant marks the room
// ready and assigns the game id the handler will use to create the match.
func (m *Manager) AddUser(roomID, playerID int, playerName string, conn engine.Conn) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	if len(room.Users) >= 2 {
		return nil, ErrRoomFull
	}
	for _, u := range room.Users {
		if u.Index == playerID {
			return nil, ErrAlreadyInRoom
		}
	}

	room.Users = append(room.Users, &User{Name: playerName, Index: playerID, Conn: conn})
	room.Status = StatusReady
	room.GameID = m.nextGameID
	m.nextGameID++
	log.Printf("[RoomManager] Added %s (ID %d) to room %d, game %d assigned",
		playerName, playerID, roomID, room.GameID)
	return room, nil
}

// Available returns summaries of rooms still waiting for a second player.
func (m *Manager) Available() []Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	summaries := make([]Summary, 0, len(m.rooms))
	for _, room := range m.rooms {
		if room.Status != StatusWaiting {
			continue
		}
		users := make([]SummaryUser, 0, len(room.Users))
		for _, u := range room.Users {
			users = append(users, SummaryUser{Name: u.Name, Index: u.Index})
		}
		summaries = append(summaries, Summary{RoomID: room.ID, RoomUsers: users})
	}
	return summaries
}

// Get returns a room by id.
func (m *Manager) Get(roomID int) (*Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[roomID]
	return room, ok
}

// Remove deletes a room, reporting whether it existed.
func (m *Manager) Remove(roomID int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[roomID]; !ok {
		return false
	}
	delete(m.rooms, roomID)
	log.Printf("[RoomManager] Removed room %d", roomID)
	return true
}

// FindByPlayer returns the room a player currently sits in, if any.
func (m *Manager) FindByPlayer(playerID int) (*Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, room := range m.rooms {
		for _, u := range room.Users {
			if u.Index == playerID {
				return room, true
			}
		}
	}
	return nil, false
}

// RemovePlayer takes a player out of a room. An emptied room is deleted;
// a ready room that loses one player goes back to waiting.
func (m *Manager) RemovePlayer(roomID, playerID int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[roomID]
	if !ok {
		return false
	}
	for i, u := range room.Users {
		if u.Index != playerID {
			continue
		}
		room.Users = append(room.Users[:i], room.Users[i+1:]...)
		log.Printf("[RoomManager] Removed player %d from room %d", playerID, roomID)
		if len(room.Users) == 0 {
			delete(m.rooms, roomID)
		} else if room.Status != StatusWaiting {
			room.Status = StatusWaiting
		}
		return true
	}
	return false
}

// NextGameID hands out a fresh game id outside the room flow (used by
// single-player games).
func (m *Manager) NextGameID() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextGameID
	m.nextGameID++
	return id
}

// Reset clears all rooms and id counters. Test support.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms = make(map[int]*Room)
	m.nextRoomID = 1
	m.nextGameID = 1
	log.Println("[RoomManager] Room manager has been reset")
}
