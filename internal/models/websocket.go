package models

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed
	maxMessageSize = 4096

	sendBuffer = 256
)

// Event types pushed to connected clients.
const (
	EventNotification = "notification"
	EventChatMessage  = "chatMessage"
	EventTeamUpdate   = "teamUpdate"
)

// Event is the envelope written to every websocket.
type Event struct {
	Type    string      `json:"type"`
	TeamID  string      `json:"teamId,omitempty"`
	UserID  string      `json:"userId,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

// Pusher delivers events to whoever is connected. Delivery is best effort.
type Pusher interface {
	PushToUser(userID string, ev Event) int
	BroadcastToTeam(teamID string, ev Event) int
}

var _ Pusher = (*Hub)(nil)

// Hub tracks live connections by user and by team and fans events out to them.
type Hub struct {
	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	// done is closed once Run returns.
	done chan struct{}

	mu      sync.RWMutex
	clients map[*Client]struct{}
	byUser  map[string]map[*Client]struct{}
	byTeam  map[string]map[*Client]struct{}
}

// Client represents a WebSocket connection
type Client struct {
	Hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	// Buffered channel of outbound messages.
	Send chan []byte

	UserID string
	// TeamID is empty when the client only listens for personal notifications.
	TeamID string
}

// NewClient wires a connection to the hub with a buffered send queue.
func NewClient(hub *Hub, conn *websocket.Conn, userID, teamID string) *Client {
	return &Client{
		Hub:    hub,
		Conn:   conn,
		Send:   make(chan []byte, sendBuffer),
		UserID: userID,
		TeamID: teamID,
	}
}

func NewHub() *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]struct{}),
		byUser:     make(map[string]map[*Client]struct{}),
		byTeam:     make(map[string]map[*Client]struct{}),
	}
}

// Run processes registrations until ctx is done, then closes every client.
// It must be called at most once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.Register:
			h.add(client)
		case client := <-h.Unregister:
			h.remove(client)
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.Send)
			}
			h.clients = make(map[*Client]struct{})
			h.byUser = make(map[string]map[*Client]struct{})
			h.byTeam = make(map[string]map[*Client]struct{})
			h.mu.Unlock()
			return
		}
	}
}

// Join hands c to the running hub. It reports false once the hub has
// stopped, in which case c was never registered.
func (h *Hub) Join(c *Client) bool {
	select {
	case h.Register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Leave asks the hub to drop c. It returns immediately after shutdown.
func (h *Hub) Leave(c *Client) {
	select {
	case h.Unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c] = struct{}{}
	index(h.byUser, c.UserID, c)
	if c.TeamID != "" {
		index(h.byTeam, c.TeamID, c)
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	unindex(h.byUser, c.UserID, c)
	if c.TeamID != "" {
		unindex(h.byTeam, c.TeamID, c)
	}
	close(c.Send)
}

func index(m map[string]map[*Client]struct{}, key string, c *Client) {
	set, ok := m[key]
	if !ok {
		set = make(map[*Client]struct{})
		m[key] = set
	}
	set[c] = struct{}{}
}

func unindex(m map[string]map[*Client]struct{}, key string, c *Client) {
	set, ok := m[key]
	if !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(m, key)
	}
}

// PushToUser sends ev to every connection of userID. It reports how many
// connections accepted the event; slow clients are skipped.
func (h *Hub) PushToUser(userID string, ev Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.deliver(h.byUser[userID], ev)
}

// BroadcastToTeam sends ev to every connection subscribed to teamID.
func (h *Hub) BroadcastToTeam(teamID string, ev Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if ev.TeamID == "" {
		ev.TeamID = teamID
	}
	return h.deliver(h.byTeam[teamID], ev)
}

func (h *Hub) deliver(set map[*Client]struct{}, ev Event) int {
	if len(set) == 0 {
		return 0
	}
	message, err := json.Marshal(ev)
	if err != nil {
		return 0
	}
	delivered := 0
	for client := range set {
		select {
		case client.Send <- message:
			delivered++
		default:
		}
	}
	return delivered
}

// IsUserConnected checks if a user has any active connections
func (h *Hub) IsUserConnected(userID string) bool {
	return h.Connections(userID) > 0
}

// Connections counts the live connections of userID.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[userID])
}

// ReadPump pumps messages from the WebSocket connection to the hub. Chat
// events from team-scoped clients are relayed to the rest of the team.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Leave(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			break
		}
		if ev, ok := c.relayable(message); ok {
			c.Hub.BroadcastToTeam(c.TeamID, ev)
		}
	}
}

// relayable decodes a client frame and reports whether it may be fanned out
// to the team. Only chat events are accepted; notification and team update
// events come from the server alone.
func (c *Client) relayable(message []byte) (Event, bool) {
	if c.TeamID == "" {
		return Event{}, false
	}
	var ev Event
	if err := json.Unmarshal(message, &ev); err != nil {
		return Event{}, false
	}
	if ev.Type != EventChatMessage {
		return Event{}, false
	}
	// the server decides who sent it and where it goes
	ev.UserID = c.UserID
	ev.TeamID = c.TeamID
	return ev, true
}

// WritePump pumps messages from the hub to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
