package ws

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

var ErrNotAuthenticated = errors.New("connection not authenticated")

type WSMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hub tracks live connections, the identity bound to each, and which
// connections are subscribed to which room. Presence is per identity: a user
// with several connections in a room counts once, and leaves the roster only
// when the last of those connections goes away.
//
// All mutations and the broadcasts they trigger happen under one lock, so no
// observer can see a roster that disagrees with the queued events.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	rooms   map[uint]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		rooms:   make(map[uint]map[*Client]struct{}),
	}
}

// Register wraps a transport connection and starts its write pump.
func (h *Hub) Register(conn Conn) *Client {
	c := newClient(conn)
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	go c.writePump()
	log.Info().Str("module", "ws.hub").Msg("client connected")
	return c
}

// Authenticate binds an identity to the connection. Calling it again
// rebinds; last write wins.
func (h *Hub) Authenticate(c *Client, id Identity) {
	h.mu.Lock()
	c.identity = &id
	h.mu.Unlock()
	log.Info().Str("module", "ws.hub").Uint("user_id", id.UserID).Str("name", id.DisplayName).Msg("client authenticated")
}

// Identity returns the identity bound to the connection, if any.
func (h *Hub) Identity(c *Client) (Identity, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if c.identity == nil {
		return Identity{}, false
	}
	return *c.identity, true
}

// JoinRoom subscribes the connection to a room. The joiner gets the full
// roster; the rest of the room gets user_joined only when this identity was
// not already present through another connection, and everyone gets the
// refreshed online_users roster.
func (h *Hub) JoinRoom(c *Client, roomID uint) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c.identity == nil {
		return ErrNotAuthenticated
	}
	id := *c.identity

	room := h.rooms[roomID]
	if room == nil {
		room = make(map[*Client]struct{})
		h.rooms[roomID] = room
	}
	if _, ok := room[c]; ok {
		return nil
	}

	wasOnline := h.identityInRoomLocked(roomID, id.UserID, c)
	room[c] = struct{}{}
	c.rooms[roomID] = struct{}{}

	if !wasOnline {
		h.broadcastLocked(roomID, c, "user_joined", id)
	}
	c.trySend(marshal("room_users", rosterPayload{RoomID: roomID, Users: h.onlineUsersLocked(roomID)}))
	h.broadcastRosterLocked(roomID)

	log.Info().Str("module", "ws.hub").Uint("room_id", roomID).Uint("user_id", id.UserID).Msg("client joined room")
	return nil
}

// LeaveRoom unsubscribes the connection. user_left goes out only when this
// was the identity's last connection in the room.
func (h *Hub) LeaveRoom(c *Client, roomID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, roomID, "user_left")
}

// Disconnect is the implicit leave for every subscribed room, with the
// user_disconnected event variant, followed by client teardown.
func (h *Hub) Disconnect(c *Client) {
	h.mu.Lock()
	for roomID := range c.rooms {
		h.leaveLocked(c, roomID, "user_disconnected")
	}
	delete(h.clients, c)
	h.mu.Unlock()

	c.close()
	log.Info().Str("module", "ws.hub").Msg("client disconnected")
}

func (h *Hub) leaveLocked(c *Client, roomID uint, event string) {
	room := h.rooms[roomID]
	if room == nil {
		return
	}
	if _, ok := room[c]; !ok {
		return
	}
	delete(room, c)
	delete(c.rooms, roomID)
	if len(room) == 0 {
		delete(h.rooms, roomID)
	}

	if c.identity == nil {
		return
	}
	id := *c.identity
	if !h.identityInRoomLocked(roomID, id.UserID, nil) {
		h.broadcastLocked(roomID, nil, event, id)
	}
	h.broadcastRosterLocked(roomID)
}

// OnlineUsers returns a snapshot of the identities present in the room.
func (h *Hub) OnlineUsers(roomID uint) []Identity {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.onlineUsersLocked(roomID)
}

// BroadcastToRoom delivers the event to every connection subscribed to the
// room. Fire and forget: connections that are gone or backed up miss it.
func (h *Hub) BroadcastToRoom(roomID uint, event string, data any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.broadcastLocked(roomID, nil, event, data)
}

// BroadcastToRoomExcept is BroadcastToRoom minus one connection, used so a
// sender does not receive its own echo.
func (h *Hub) BroadcastToRoomExcept(roomID uint, except *Client, event string, data any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.broadcastLocked(roomID, except, event, data)
}

// Send delivers an event to a single connection.
func (h *Hub) Send(c *Client, event string, data any) {
	c.trySend(marshal(event, data))
}

type rosterPayload struct {
	RoomID uint       `json:"room_id"`
	Count  int        `json:"count,omitempty"`
	Users  []Identity `json:"users"`
}

func (h *Hub) broadcastRosterLocked(roomID uint) {
	users := h.onlineUsersLocked(roomID)
	h.broadcastLocked(roomID, nil, "online_users", rosterPayload{RoomID: roomID, Count: len(users), Users: users})
}

func (h *Hub) broadcastLocked(roomID uint, except *Client, event string, data any) {
	room := h.rooms[roomID]
	if len(room) == 0 {
		return
	}
	frame := marshal(event, data)
	for c := range room {
		if c == except {
			continue
		}
		c.trySend(frame)
	}
}

// identityInRoomLocked reports whether any connection other than skip holds
// the given identity in the room.
func (h *Hub) identityInRoomLocked(roomID, userID uint, skip *Client) bool {
	for c := range h.rooms[roomID] {
		if c == skip {
			continue
		}
		if c.identity != nil && c.identity.UserID == userID {
			return true
		}
	}
	return false
}

func (h *Hub) onlineUsersLocked(roomID uint) []Identity {
	seen := make(map[uint]struct{})
	users := make([]Identity, 0, len(h.rooms[roomID]))
	for c := range h.rooms[roomID] {
		if c.identity == nil {
			continue
		}
		if _, ok := seen[c.identity.UserID]; ok {
			continue
		}
		seen[c.identity.UserID] = struct{}{}
		users = append(users, *c.identity)
	}
	return users
}

func marshal(event string, data any) []byte {
	b, err := json.Marshal(WSMessage{Type: event, Data: data})
	if err != nil {
		log.Error().Err(err).Str("module", "ws.hub").Str("event", event).Msg("marshal failed")
		return []byte(`{"type":"error"}`)
	}
	return b
}
