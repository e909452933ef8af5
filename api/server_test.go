package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mkowalczyk/seabattle/game/board"
	"github.com/mkowalczyk/seabattle/game/config"
	"github.com/mkowalczyk/seabattle/game/player"
	"github.com/mkowalczyk/seabattle/game/room"
	"github.com/mkowalczyk/seabattle/game/service"
	"github.com/mkowalczyk/seabattle/game/session"
	"github.com/mkowalczyk/seabattle/transport/websocket"
)

// newTestServer wires a real service with one running game and one
// registered winner behind the API.
func newTestServer(t *testing.T) (*Server, int) {
	t.Helper()
	ctx := context.Background()

	players := player.NewStore()
	svc := service.NewGameService(players, room.NewManager(), session.NewRegistry(), config.DefaultRules())

	alice, err := svc.Register(ctx, "alice", "pw")
	if err != nil {
		t.Fatalf("Failed to register alice: %v", err)
	}
	bob, err := svc.Register(ctx, "bob", "pw")
	if err != nil {
		t.Fatalf("Failed to register bob: %v", err)
	}
	players.IncrementWins(alice.ID)

	r, err := svc.CreateRoom(ctx, alice.ID, nil)
	if err != nil {
		t.Fatalf("Failed to create room: %v", err)
	}
	g, err := svc.JoinRoom(ctx, r.ID, bob.ID, nil)
	if err != nil {
		t.Fatalf("Failed to join room: %v", err)
	}

	ships := []*board.Ship{{Position: board.Coordinate{X: 0, Y: 0}, Length: 1, Type: board.ShipSmall}}
	if err := svc.PlaceShips(ctx, g.ID, alice.ID, ships); err != nil {
		t.Fatalf("Failed to place ships: %v", err)
	}

	hub := websocket.NewHub(svc)
	return NewServer(svc, hub), g.ID
}

func doGet(t *testing.T, server *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	return rec
}

func TestServer_ListGames(t *testing.T) {
	server, gameID := newTestServer(t)

	rec := doGet(t, server, "/api/games")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var response struct {
		Games []service.GameView `json:"games"`
		Count int                `json:"count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Count != 1 || len(response.Games) != 1 {
		t.Fatalf("Expected 1 game, got %+v", response)
	}
	if response.Games[0].ID != gameID {
		t.Errorf("Expected game %d, got %d", gameID, response.Games[0].ID)
	}
}

func TestServer_GetGame(t *testing.T) {
	server, gameID := newTestServer(t)

	t.Run("returns the public view", func(t *testing.T) {
		rec := doGet(t, server, fmt.Sprintf("/api/games/%d", gameID))
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}

		var view service.GameView
		if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if view.ID != gameID {
			t.Errorf("Expected game %d, got %d", gameID, view.ID)
		}
		if len(view.Players) != 2 {
			t.Fatalf("Expected 2 players, got %d", len(view.Players))
		}

		// One fleet submitted, one pending.
		placed := 0
		for _, p := range view.Players {
			if p.ShipsPlaced {
				placed++
			}
		}
		if placed != 1 {
			t.Errorf("Expected exactly one fleet placed, got %d", placed)
		}
	})

	t.Run("never leaks ship positions", func(t *testing.T) {
		rec := doGet(t, server, fmt.Sprintf("/api/games/%d", gameID))
		var raw map[string]interface{}
		if err := json.NewDecoder(rec.Body).Decode(&raw); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		body, _ := json.Marshal(raw)
		for _, forbidden := range []string{"ships", "position", "direction"} {
			if containsKey(raw, forbidden) {
				t.Errorf("Response leaks %q: %s", forbidden, body)
			}
		}
	})

	t.Run("unknown id yields 404", func(t *testing.T) {
		rec := doGet(t, server, "/api/games/999")
		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", rec.Code)
		}
	})

	t.Run("non-numeric id yields 400", func(t *testing.T) {
		rec := doGet(t, server, "/api/games/abc")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rec.Code)
		}
	})
}

// containsKey walks a decoded JSON document looking for a key.
func containsKey(v interface{}, key string) bool {
	switch val := v.(type) {
	case map[string]interface{}:
		for k, inner := range val {
			if k == key || containsKey(inner, key) {
				return true
			}
		}
	case []interface{}:
		for _, inner := range val {
			if containsKey(inner, key) {
				return true
			}
		}
	}
	return false
}

func TestServer_ListWinners(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doGet(t, server, "/api/winners")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var winners []player.WinnerEntry
	if err := json.NewDecoder(rec.Body).Decode(&winners); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(winners) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(winners))
	}
	if winners[0].Name != "alice" || winners[0].Wins != 1 {
		t.Errorf("Expected alice with 1 win first, got %+v", winners[0])
	}
}

func TestServer_ListRooms(t *testing.T) {
	server, _ := newTestServer(t)

	// The only room was consumed when the game started.
	rec := doGet(t, server, "/api/rooms")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var response struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Count != 0 {
		t.Errorf("Expected no waiting rooms, got %d", response.Count)
	}
}

func TestServer_Health(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doGet(t, server, "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var health map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&health); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if health["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", health["status"])
	}
	if health["active_games"].(float64) != 1 {
		t.Errorf("Expected 1 active game, got %v", health["active_games"])
	}
}
