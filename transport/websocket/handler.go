package websocket

import (
	"context"
	"encoding/json"
	"log"

	"github.com/mkowalczyk/seabattle/game/board"
	"github.com/mkowalczyk/seabattle/game/service"
)

// handleMessage dispatches one inbound command frame. It runs on the hub's
// event loop, so commands from all clients are applied one at a time.
func (h *Hub) handleMessage(c *Client, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("[WS] Client %s sent malformed frame: %v", c.id, err)
		h.sendError(c, &Envelope{Type: "error"}, "invalid message format")
		return
	}

	ctx := context.Background()

	if env.Type == CmdReg {
		h.handleReg(ctx, c, &env)
		return
	}
	if c.playerID == 0 {
		h.sendError(c, &env, "register first")
		return
	}

	switch env.Type {
	case CmdCreateRoom:
		if _, err := h.service.CreateRoom(ctx, c.playerID, c); err != nil {
			h.sendError(c, &env, err.Error())
		}

	case CmdAddUserToRoom:
		var req JoinRoomRequest
		if err := decodePayload(&env, &req); err != nil {
			h.sendError(c, &env, "malformed payload")
			return
		}
		if _, err := h.service.JoinRoom(ctx, req.IndexRoom, c.playerID, c); err != nil {
			h.sendError(c, &env, err.Error())
		}

	case CmdSinglePlayerGame:
		if _, err := h.service.CreateSinglePlayerGame(ctx, c.playerID, c); err != nil {
			h.sendError(c, &env, err.Error())
		}

	case CmdAddShips:
		var req AddShipsRequest
		if err := decodePayload(&env, &req); err != nil {
			h.sendError(c, &env, "malformed payload")
			return
		}
		if !h.checkIdentity(c, &env, req.IndexPlayer) {
			return
		}
		if err := h.service.PlaceShips(ctx, req.GameID, c.playerID, req.Ships); err != nil {
			h.sendError(c, &env, err.Error())
		}

	case CmdAttack:
		var req AttackRequest
		if err := decodePayload(&env, &req); err != nil {
			h.sendError(c, &env, "malformed payload")
			return
		}
		if !h.checkIdentity(c, &env, req.IndexPlayer) {
			return
		}
		coord := board.Coordinate{X: req.X, Y: req.Y}
		if err := h.service.Attack(ctx, req.GameID, c.playerID, coord); err != nil {
			h.sendError(c, &env, err.Error())
		}

	case CmdRandomAttack:
		var req RandomAttackRequest
		if err := decodePayload(&env, &req); err != nil {
			h.sendError(c, &env, "malformed payload")
			return
		}
		if !h.checkIdentity(c, &env, req.IndexPlayer) {
			return
		}
		if err := h.service.RandomAttack(ctx, req.GameID, c.playerID); err != nil {
			h.sendError(c, &env, err.Error())
		}

	default:
		log.Printf("[WS] Client %s sent unknown command %q", c.id, env.Type)
		raw, err := encodeEnvelope(env.Type, map[string]string{
			"message": "received command: " + env.Type,
		}, env.ID)
		if err != nil {
			return
		}
		c.enqueue(raw)
	}
}

// handleReg registers or logs in the player behind this connection. On
// success the client also receives the current room list and winners
// table so a fresh UI can render the lobby immediately.
func (h *Hub) handleReg(ctx context.Context, c *Client, env *Envelope) {
	var req RegRequest
	if err := decodePayload(env, &req); err != nil {
		h.sendError(c, env, "malformed payload")
		return
	}

	p, err := h.service.Register(ctx, req.Name, req.Password)
	if err != nil {
		c.Send(CmdReg, RegResponse{Name: req.Name, Error: true, ErrorText: err.Error()})
		return
	}
	c.playerID = p.ID
	log.Printf("[WS] Client %s registered as %s (ID %d)", c.id, p.Name, p.ID)

	c.Send(CmdReg, RegResponse{Name: p.Name, Index: p.ID})
	c.Send(service.MsgUpdateRoom, h.service.Rooms(ctx))
	c.Send(service.MsgUpdateWinners, h.service.Winners(ctx))
}

// checkIdentity rejects commands whose payload claims a player id other
// than the one this connection registered as. A zero id means the client
// omitted the field, which is tolerated since the registered identity is
// authoritative anyway.
func (h *Hub) checkIdentity(c *Client, env *Envelope, indexPlayer int) bool {
	if indexPlayer != 0 && indexPlayer != c.playerID {
		log.Printf("[WS] Client %s (player %d) sent %s claiming player %d",
			c.id, c.playerID, env.Type, indexPlayer)
		h.sendError(c, env, "player id mismatch")
		return false
	}
	return true
}

// sendError echoes a failed command back to its sender with the same type
// and id, so the client can correlate it with the request.
func (h *Hub) sendError(c *Client, env *Envelope, text string) {
	raw, err := encodeEnvelope(env.Type, ErrorPayload{Error: true, ErrorText: text}, env.ID)
	if err != nil {
		log.Printf("[WS] Failed to encode error frame: %v", err)
		return
	}
	c.enqueue(raw)
}
