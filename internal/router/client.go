package router

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/thermalab/thermal-ar-go/internal/analysis"
	"github.com/thermalab/thermal-ar-go/internal/pipeline"
)

const (
	// Time allowed to write a message to the client
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the client
	pongWait = 60 * time.Second

	// Send pings to client with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from a client. Frames arrive base64
	// encoded inside JSON, so this must fit a full radiometric frame.
	maxMessageSize = 4 << 20

	sendQueueSize = 256
)

// Client is one WebSocket connection. Its role starts unassigned and is
// promoted by a registration message. Device clients own a processing
// pipeline and a current analysis mode.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	id   string

	mu       sync.Mutex
	role     Role
	deviceID string
	pipeline *pipeline.Pipeline
	mode     analysis.Mode
	lastSeen time.Time
}

func newClient(conn *websocket.Conn, id string) *Client {
	return &Client{
		conn:     conn,
		send:     make(chan []byte, sendQueueSize),
		id:       id,
		role:     RoleUnassigned,
		mode:     analysis.ModeBuilding,
		lastSeen: time.Now(),
	}
}

// ID returns the connection identifier.
func (c *Client) ID() string { return c.id }

// Role returns the current protocol role.
func (c *Client) Role() Role {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.role
}

func (c *Client) setRole(role Role) {
	c.mu.Lock()
	c.role = role
	c.mu.Unlock()
}

// DeviceID returns the device identifier, empty for non-device clients.
func (c *Client) DeviceID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deviceID
}

// Pipeline returns the processing pipeline of a device client, nil
// otherwise.
func (c *Client) Pipeline() *pipeline.Pipeline {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pipeline
}

func (c *Client) bindDevice(deviceID string, p *pipeline.Pipeline) {
	c.mu.Lock()
	c.deviceID = deviceID
	c.pipeline = p
	c.mu.Unlock()
}

// Mode returns the device's current analysis mode.
func (c *Client) Mode() analysis.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *Client) setMode(mode analysis.Mode) {
	c.mu.Lock()
	c.mode = mode
	c.mu.Unlock()
}

// LastSeen returns the time of the last pong received from the client.
func (c *Client) LastSeen() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen
}

// TrySend queues data without blocking. A full queue means the client
// cannot keep up, the message is dropped and false returned.
func (c *Client) TrySend(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// writePump pumps messages from the send queue to the WebSocket connection.
// One writePump runs per connection, keeping all writes on one goroutine.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump pumps messages from the WebSocket connection into the router.
// Frame processing happens inline here so a device's frames are handled in
// submission order.
func (c *Client) readPump(r *Router, logger *slog.Logger) {
	defer func() {
		r.disconnect(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.mu.Lock()
		c.lastSeen = time.Now()
		c.mu.Unlock()
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Debug("websocket read failed", "client", c.id, "error", err)
			}
			break
		}
		r.Handle(c, message)
	}
}
