package websocket

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mkowalczyk/seabattle/game/service"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Fleet submissions are the
	// largest frame and fit comfortably.
	maxMessageSize = 8192
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins in development
		return true
	},
}

// inboundMessage pairs a raw frame with the client that sent it.
type inboundMessage struct {
	client *Client
	raw    []byte
}

// Client is one websocket connection. It doubles as the engine's
// notification handle: Send queues a server frame, Alive reports whether
// the peer is still connected. A client starts anonymous; playerID is set
// by a successful reg command.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	id       string
	playerID int
	send     chan []byte

	mu     sync.Mutex
	closed bool
}

// Send delivers a server-initiated message to this client. It never
// blocks; frames to a slow or closed client are dropped.
func (c *Client) Send(msgType string, payload interface{}) {
	raw, err := encodeEnvelope(msgType, payload, 0)
	if err != nil {
		log.Printf("[WS] Failed to encode %s frame: %v", msgType, err)
		return
	}
	c.enqueue(raw)
}

// Alive reports whether the client can still receive frames.
func (c *Client) Alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

func (c *Client) enqueue(raw []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- raw:
	default:
		log.Printf("[WS] Client %s send buffer full, dropping frame", c.id)
	}
}

func (c *Client) markClosed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// Hub maintains the set of connected clients and serializes all inbound
// game commands through a single event loop, so the game state never sees
// two commands at once.
type Hub struct {
	service service.GameService

	clientsMu sync.RWMutex
	clients   map[*Client]bool

	register   chan *Client
	unregister chan *Client
	inbound    chan inboundMessage
}

// NewHub creates a hub on top of the given game service.
func NewHub(svc service.GameService) *Hub {
	return &Hub{
		service:    svc,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inboundMessage, 64),
	}
}

// Run starts the hub's event loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.dropClient(client)

		case msg := <-h.inbound:
			h.handleMessage(msg.client, msg.raw)
		}
	}
}

// ServeWS upgrades an HTTP request to a websocket connection and attaches
// it to the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] Upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		id:   uuid.NewString(),
		send: make(chan []byte, 256),
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

// Broadcast sends a server frame to every connected client. It implements
// the game service's Broadcaster.
func (h *Hub) Broadcast(msgType string, payload interface{}) {
	raw, err := encodeEnvelope(msgType, payload, 0)
	if err != nil {
		log.Printf("[WS] Failed to encode %s broadcast: %v", msgType, err)
		return
	}

	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	for client := range h.clients {
		client.enqueue(raw)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

func (h *Hub) addClient(client *Client) {
	h.clientsMu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.clientsMu.Unlock()

	log.Printf("[WS] Client %s connected (total clients: %d)", client.id, total)
}

func (h *Hub) dropClient(client *Client) {
	h.clientsMu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.clientsMu.Unlock()
		return
	}
	delete(h.clients, client)
	total := len(h.clients)
	h.clientsMu.Unlock()

	client.markClosed()
	log.Printf("[WS] Client %s disconnected (remaining clients: %d)", client.id, total)

	if client.playerID != 0 {
		h.service.HandleDisconnect(context.Background(), client.playerID)
	}
}

// readPump pumps frames from the websocket connection into the hub.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] Read error from client %s: %v", c.id, err)
			}
			break
		}
		c.hub.inbound <- inboundMessage{client: c, raw: raw}
	}
}

// writePump pumps frames from the send channel to the websocket
// connection. One frame per websocket message; clients parse each frame
// as a standalone JSON document.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case raw, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
