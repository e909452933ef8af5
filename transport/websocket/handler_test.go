package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mkowalczyk/seabattle/game/board"
	"github.com/mkowalczyk/seabattle/game/engine"
	"github.com/mkowalczyk/seabattle/game/player"
	"github.com/mkowalczyk/seabattle/game/room"
	"github.com/mkowalczyk/seabattle/game/service"
)

// call records one dispatched service invocation.
type call struct {
	Method   string
	GameID   int
	PlayerID int
	Coord    board.Coordinate
	Ships    []*board.Ship
}

// fakeService records calls and returns scripted results.
type fakeService struct {
	calls       []call
	registerErr error
	attackErr   error
}

func (f *fakeService) Register(ctx context.Context, name, password string) (*player.Player, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	f.calls = append(f.calls, call{Method: "Register"})
	return &player.Player{ID: 7, Name: name}, nil
}

func (f *fakeService) Winners(ctx context.Context) []player.WinnerEntry {
	return []player.WinnerEntry{}
}

func (f *fakeService) CreateRoom(ctx context.Context, playerID int, conn engine.Conn) (*room.Room, error) {
	f.calls = append(f.calls, call{Method: "CreateRoom", PlayerID: playerID})
	return &room.Room{ID: 1}, nil
}

func (f *fakeService) JoinRoom(ctx context.Context, roomID, playerID int, conn engine.Conn) (*engine.Game, error) {
	f.calls = append(f.calls, call{Method: "JoinRoom", GameID: roomID, PlayerID: playerID})
	return nil, nil
}

func (f *fakeService) Rooms(ctx context.Context) []room.Summary {
	return []room.Summary{}
}

func (f *fakeService) CreateSinglePlayerGame(ctx context.Context, playerID int, conn engine.Conn) (*engine.Game, error) {
	f.calls = append(f.calls, call{Method: "CreateSinglePlayerGame", PlayerID: playerID})
	return nil, nil
}

func (f *fakeService) PlaceShips(ctx context.Context, gameID, playerID int, ships []*board.Ship) error {
	f.calls = append(f.calls, call{Method: "PlaceShips", GameID: gameID, PlayerID: playerID, Ships: ships})
	return nil
}

func (f *fakeService) Attack(ctx context.Context, gameID, playerID int, coord board.Coordinate) error {
	if f.attackErr != nil {
		return f.attackErr
	}
	f.calls = append(f.calls, call{Method: "Attack", GameID: gameID, PlayerID: playerID, Coord: coord})
	return nil
}

func (f *fakeService) RandomAttack(ctx context.Context, gameID, playerID int) error {
	f.calls = append(f.calls, call{Method: "RandomAttack", GameID: gameID, PlayerID: playerID})
	return nil
}

func (f *fakeService) HandleDisconnect(ctx context.Context, playerID int) {
	f.calls = append(f.calls, call{Method: "HandleDisconnect", PlayerID: playerID})
}

func (f *fakeService) ListGames(ctx context.Context) []service.GameView { return nil }

func (f *fakeService) GetGame(ctx context.Context, gameID int) (*service.GameView, error) {
	return nil, engine.ErrGameNotFound
}

func (f *fakeService) SetBroadcaster(b service.Broadcaster) {}

func (f *fakeService) lastCall() call {
	if len(f.calls) == 0 {
		return call{}
	}
	return f.calls[len(f.calls)-1]
}

func newTestClient(h *Hub) *Client {
	return &Client{hub: h, id: "test-client", send: make(chan []byte, 16)}
}

func commandFrame(t *testing.T, cmdType string, payload interface{}, id int) []byte {
	t.Helper()
	raw, err := encodeEnvelope(cmdType, payload, id)
	if err != nil {
		t.Fatalf("Failed to build frame: %v", err)
	}
	return raw
}

// drainFrame pops the next queued outbound frame, failing if none exists.
func drainFrame(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case raw := <-c.send:
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("Failed to parse outbound frame: %v", err)
		}
		return env
	default:
		t.Fatal("Expected an outbound frame")
		return Envelope{}
	}
}

func TestHub_HandleMessage_Reg(t *testing.T) {
	t.Run("binds the connection to the player", func(t *testing.T) {
		svc := &fakeService{}
		hub := NewHub(svc)
		client := newTestClient(hub)

		hub.handleMessage(client, commandFrame(t, CmdReg, RegRequest{Name: "alice", Password: "pw"}, 0))

		if client.playerID != 7 {
			t.Errorf("Expected playerID 7, got %d", client.playerID)
		}

		reg := drainFrame(t, client)
		if reg.Type != CmdReg {
			t.Fatalf("Expected reg response, got %s", reg.Type)
		}
		var resp RegResponse
		if err := json.Unmarshal([]byte(reg.Data), &resp); err != nil {
			t.Fatalf("Failed to parse reg response: %v", err)
		}
		if resp.Error || resp.Index != 7 || resp.Name != "alice" {
			t.Errorf("Unexpected reg response: %+v", resp)
		}

		// Fresh clients get the lobby snapshot right after reg.
		if rooms := drainFrame(t, client); rooms.Type != service.MsgUpdateRoom {
			t.Errorf("Expected update_room, got %s", rooms.Type)
		}
		if winners := drainFrame(t, client); winners.Type != service.MsgUpdateWinners {
			t.Errorf("Expected update_winners, got %s", winners.Type)
		}
	})

	t.Run("reports registration failure in the reg response", func(t *testing.T) {
		svc := &fakeService{registerErr: errors.New("invalid password")}
		hub := NewHub(svc)
		client := newTestClient(hub)

		hub.handleMessage(client, commandFrame(t, CmdReg, RegRequest{Name: "alice", Password: "bad"}, 0))

		if client.playerID != 0 {
			t.Error("Failed reg must not bind the connection")
		}
		reg := drainFrame(t, client)
		var resp RegResponse
		json.Unmarshal([]byte(reg.Data), &resp)
		if !resp.Error || resp.ErrorText != "invalid password" {
			t.Errorf("Unexpected reg response: %+v", resp)
		}
	})
}

func TestHub_HandleMessage_RequiresRegistration(t *testing.T) {
	svc := &fakeService{}
	hub := NewHub(svc)
	client := newTestClient(hub)

	hub.handleMessage(client, commandFrame(t, CmdCreateRoom, nil, 5))

	if len(svc.calls) != 0 {
		t.Error("Unregistered commands must not reach the service")
	}
	errFrame := drainFrame(t, client)
	if errFrame.Type != CmdCreateRoom || errFrame.ID != 5 {
		t.Errorf("Expected error echoed with same type and id, got %+v", errFrame)
	}
	var payload ErrorPayload
	json.Unmarshal([]byte(errFrame.Data), &payload)
	if !payload.Error {
		t.Error("Expected error payload")
	}
}

func TestHub_HandleMessage_Dispatch(t *testing.T) {
	svc := &fakeService{}
	hub := NewHub(svc)
	client := newTestClient(hub)
	client.playerID = 7

	t.Run("create_room", func(t *testing.T) {
		hub.handleMessage(client, commandFrame(t, CmdCreateRoom, nil, 0))
		if got := svc.lastCall(); got.Method != "CreateRoom" || got.PlayerID != 7 {
			t.Errorf("Unexpected call: %+v", got)
		}
	})

	t.Run("add_user_to_room", func(t *testing.T) {
		hub.handleMessage(client, commandFrame(t, CmdAddUserToRoom, JoinRoomRequest{IndexRoom: 3}, 0))
		if got := svc.lastCall(); got.Method != "JoinRoom" || got.GameID != 3 || got.PlayerID != 7 {
			t.Errorf("Unexpected call: %+v", got)
		}
	})

	t.Run("add_ships uses the connection identity", func(t *testing.T) {
		req := AddShipsRequest{
			GameID:      4,
			IndexPlayer: 7,
			Ships:       []*board.Ship{{Position: board.Coordinate{X: 0, Y: 0}, Length: 1, Type: board.ShipSmall}},
		}
		hub.handleMessage(client, commandFrame(t, CmdAddShips, req, 0))
		got := svc.lastCall()
		if got.Method != "PlaceShips" || got.GameID != 4 || got.PlayerID != 7 {
			t.Errorf("Unexpected call: %+v", got)
		}
		if len(got.Ships) != 1 {
			t.Errorf("Expected 1 ship, got %d", len(got.Ships))
		}
	})

	t.Run("add_ships rejects a forged player id", func(t *testing.T) {
		before := len(svc.calls)
		req := AddShipsRequest{
			GameID:      4,
			IndexPlayer: 99,
			Ships:       []*board.Ship{{Position: board.Coordinate{X: 0, Y: 0}, Length: 1, Type: board.ShipSmall}},
		}
		hub.handleMessage(client, commandFrame(t, CmdAddShips, req, 3))
		if len(svc.calls) != before {
			t.Error("Forged player id must not reach the service")
		}
		errFrame := drainFrame(t, client)
		if errFrame.Type != CmdAddShips || errFrame.ID != 3 {
			t.Errorf("Expected error echoed with same type and id, got %+v", errFrame)
		}
		var payload ErrorPayload
		json.Unmarshal([]byte(errFrame.Data), &payload)
		if !payload.Error || payload.ErrorText != "player id mismatch" {
			t.Errorf("Unexpected error payload: %+v", payload)
		}
	})

	t.Run("attack", func(t *testing.T) {
		hub.handleMessage(client, commandFrame(t, CmdAttack, AttackRequest{GameID: 4, X: 2, Y: 8}, 0))
		got := svc.lastCall()
		if got.Method != "Attack" || got.Coord.X != 2 || got.Coord.Y != 8 {
			t.Errorf("Unexpected call: %+v", got)
		}
	})

	t.Run("randomAttack", func(t *testing.T) {
		hub.handleMessage(client, commandFrame(t, CmdRandomAttack, RandomAttackRequest{GameID: 4}, 0))
		if got := svc.lastCall(); got.Method != "RandomAttack" || got.GameID != 4 {
			t.Errorf("Unexpected call: %+v", got)
		}
	})

	t.Run("create_single_player_game", func(t *testing.T) {
		hub.handleMessage(client, commandFrame(t, CmdSinglePlayerGame, nil, 0))
		if got := svc.lastCall(); got.Method != "CreateSinglePlayerGame" || got.PlayerID != 7 {
			t.Errorf("Unexpected call: %+v", got)
		}
	})

	t.Run("unknown command is acknowledged without dispatch", func(t *testing.T) {
		before := len(svc.calls)
		hub.handleMessage(client, commandFrame(t, "bogus", nil, 9))
		if len(svc.calls) != before {
			t.Error("Unknown command must not reach the service")
		}
		ack := drainFrame(t, client)
		if ack.Type != "bogus" || ack.ID != 9 {
			t.Errorf("Expected acknowledgment echoed with same type and id, got %+v", ack)
		}
	})
}

func TestHub_HandleMessage_Errors(t *testing.T) {
	svc := &fakeService{attackErr: engine.ErrNotYourTurn}
	hub := NewHub(svc)
	client := newTestClient(hub)
	client.playerID = 7

	hub.handleMessage(client, commandFrame(t, CmdAttack, AttackRequest{GameID: 4, X: 0, Y: 0}, 11))

	errFrame := drainFrame(t, client)
	if errFrame.Type != CmdAttack || errFrame.ID != 11 {
		t.Errorf("Expected error echoed as attack with id 11, got %+v", errFrame)
	}
	var payload ErrorPayload
	json.Unmarshal([]byte(errFrame.Data), &payload)
	if !payload.Error || payload.ErrorText != engine.ErrNotYourTurn.Error() {
		t.Errorf("Unexpected error payload: %+v", payload)
	}
}

func TestHub_HandleMessage_Malformed(t *testing.T) {
	svc := &fakeService{}
	hub := NewHub(svc)
	client := newTestClient(hub)
	client.playerID = 7

	hub.handleMessage(client, []byte("not json"))
	if len(svc.calls) != 0 {
		t.Error("Malformed frame must not reach the service")
	}
	frame := drainFrame(t, client)
	if frame.Type != "error" || frame.ID != 0 {
		t.Errorf("Expected generic error frame, got %+v", frame)
	}

	// Valid envelope with garbage payload is answered with an error frame.
	hub.handleMessage(client, []byte(`{"type":"attack","data":"{{{","id":2}`))
	errFrame := drainFrame(t, client)
	if errFrame.Type != CmdAttack || errFrame.ID != 2 {
		t.Errorf("Expected error frame for malformed payload, got %+v", errFrame)
	}
}

func TestClient_Send(t *testing.T) {
	t.Run("queues frames while alive", func(t *testing.T) {
		client := &Client{id: "c1", send: make(chan []byte, 2)}
		client.Send(service.MsgTurn, service.TurnPayload{CurrentPlayer: 1})
		if len(client.send) != 1 {
			t.Errorf("Expected 1 queued frame, got %d", len(client.send))
		}
		if !client.Alive() {
			t.Error("Expected client to be alive")
		}
	})

	t.Run("drops frames after close", func(t *testing.T) {
		client := &Client{id: "c2", send: make(chan []byte, 2)}
		client.markClosed()
		client.Send(service.MsgTurn, service.TurnPayload{CurrentPlayer: 1})
		if client.Alive() {
			t.Error("Expected client to be dead after close")
		}
	})

	t.Run("drops frames when the buffer is full", func(t *testing.T) {
		client := &Client{id: "c3", send: make(chan []byte, 1)}
		client.Send(service.MsgTurn, service.TurnPayload{CurrentPlayer: 1})
		client.Send(service.MsgTurn, service.TurnPayload{CurrentPlayer: 2})
		if len(client.send) != 1 {
			t.Errorf("Expected overflow frame to be dropped, queue length %d", len(client.send))
		}
	})
}
