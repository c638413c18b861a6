package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	sendBuffer   = 64
	writeTimeout = 5 * time.Second
)

// Conn is an indirection over *websocket.Conn to ease testing.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(mt int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Identity is the user bound to a connection by the authenticate event.
type Identity struct {
	UserID      uint   `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// Client is one live websocket connection. Identity and room subscriptions
// are owned by the hub and guarded by its lock.
type Client struct {
	conn Conn
	send chan []byte
	once sync.Once

	identity *Identity
	rooms    map[uint]struct{}
}

func newClient(conn Conn) *Client {
	return &Client{
		conn:  conn,
		send:  make(chan []byte, sendBuffer),
		rooms: make(map[uint]struct{}),
	}
}

// trySend queues a frame without blocking. A full buffer drops the frame;
// delivery is at-most-once by contract.
func (c *Client) trySend(data []byte) {
	select {
	case c.send <- data:
	default:
		log.Warn().Str("module", "ws.client").Msg("send buffer full, dropping frame")
	}
}

func (c *Client) close() {
	c.once.Do(func() {
		close(c.send)
		_ = c.conn.Close()
	})
}

// writePump drains the send channel to the network. It exits when the
// channel is closed or a write fails; the read loop notices the dead
// connection and triggers Disconnect.
func (c *Client) writePump() {
	for data := range c.send {
		if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			return
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}
