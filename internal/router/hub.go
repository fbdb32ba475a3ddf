package router

import (
	"sync"

	"github.com/thermalab/thermal-ar-go/internal/observability/metrics"
)

// Role is the protocol role of a connection. Connections start unassigned
// and become a device or viewer through an explicit registration message.
type Role string

const (
	RoleUnassigned Role = "unassigned"
	RoleDevice     Role = "device"
	RoleViewer     Role = "viewer"
)

// Hub is the registry of live connections. It tracks each client's role and
// answers presence and fan-out queries. All methods are safe for concurrent
// use.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	metrics *metrics.RouterMetrics
}

// NewHub creates an empty registry.
func NewHub(m *metrics.RouterMetrics) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		metrics: m,
	}
}

// Add registers a freshly connected client with the unassigned role.
func (h *Hub) Add(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.ConnectedClients.WithLabelValues(string(RoleUnassigned)).Inc()
	}
}

// Remove unregisters a client. Safe to call for clients never added.
func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	_, present := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	if present && h.metrics != nil {
		h.metrics.ConnectedClients.WithLabelValues(string(c.Role())).Dec()
	}
}

// Promote records a role change after a registration message.
func (h *Hub) Promote(c *Client, role Role) {
	old := c.Role()
	c.setRole(role)

	if h.metrics != nil {
		h.metrics.ConnectedClients.WithLabelValues(string(old)).Dec()
		h.metrics.ConnectedClients.WithLabelValues(string(role)).Inc()
		h.metrics.RegistrationCount.WithLabelValues(string(role)).Inc()
	}
}

// Devices returns the currently registered device connections.
func (h *Hub) Devices() []*Client {
	return h.withRole(RoleDevice)
}

// Viewers returns the currently registered viewer connections.
func (h *Hub) Viewers() []*Client {
	return h.withRole(RoleViewer)
}

func (h *Hub) withRole(role Role) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []*Client
	for c := range h.clients {
		if c.Role() == role {
			out = append(out, c)
		}
	}
	return out
}

// Counts returns the number of device and viewer connections.
func (h *Hub) Counts() (devices, viewers int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		switch c.Role() {
		case RoleDevice:
			devices++
		case RoleViewer:
			viewers++
		}
	}
	return devices, viewers
}

// Broadcast queues data on every client except the excluded one. Returns
// the number of recipients.
func (h *Hub) Broadcast(data []byte, exclude *Client) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for c := range h.clients {
		if c == exclude {
			continue
		}
		if c.TrySend(data) {
			n++
		}
	}
	if h.metrics != nil {
		h.metrics.BroadcastFanout.Observe(float64(n))
	}
	return n
}

// BroadcastRole queues data on every client with the given role, except the
// excluded one. Returns the number of recipients.
func (h *Hub) BroadcastRole(data []byte, role Role, exclude *Client) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for c := range h.clients {
		if c == exclude || c.Role() != role {
			continue
		}
		if c.TrySend(data) {
			n++
		}
	}
	if h.metrics != nil {
		h.metrics.BroadcastFanout.Observe(float64(n))
	}
	return n
}
