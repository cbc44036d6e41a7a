package gateway

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	defaultHistorySize = 50
	writeTimeout       = 10 * time.Second
)

// Event types.
const (
	EventMessage = "message"
	EventReply   = "reply"
	EventJoin    = "join"
	EventLeave   = "leave"
)

// client serializes writes to one connection.
type client struct {
	conn *websocket.Conn
	user string

	mu sync.Mutex
}

func (c *client) write(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

type room struct {
	clients    map[*client]struct{}
	history    []Event
	lastActive time.Time
}

// Hub tracks rooms, their clients and their recent history. Rooms without
// clients keep their history until PruneIdle evicts them.
type Hub struct {
	mu          sync.Mutex
	rooms       map[string]*room
	historySize int
	now         func() time.Time
}

// NewHub creates a hub keeping historySize events per room.
func NewHub(historySize int) *Hub {
	if historySize <= 0 {
		historySize = defaultHistorySize
	}
	return &Hub{
		rooms:       make(map[string]*room),
		historySize: historySize,
		now:         time.Now,
	}
}

// join adds c to the room and replays the room history to it before any
// later broadcast can reach it.
func (h *Hub) join(name string, c *client) {
	c.mu.Lock()
	h.mu.Lock()
	r := h.roomLocked(name)
	r.clients[c] = struct{}{}
	r.lastActive = h.now()
	history := append([]Event(nil), r.history...)
	h.mu.Unlock()

	for _, event := range history {
		payload, err := json.Marshal(event)
		if err != nil {
			continue
		}
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			break
		}
	}
	c.mu.Unlock()
	connectionsGauge.Inc()

	h.Broadcast(Event{Type: EventJoin, Room: name, User: c.user})
}

func (h *Hub) leave(name string, c *client) {
	var present bool
	h.mu.Lock()
	if r, ok := h.rooms[name]; ok {
		if _, present = r.clients[c]; present {
			delete(r.clients, c)
		}
		r.lastActive = h.now()
		if len(r.clients) == 0 && len(r.history) == 0 {
			delete(h.rooms, name)
		}
	}
	h.mu.Unlock()

	_ = c.conn.Close()
	if present {
		connectionsGauge.Dec()
		h.Broadcast(Event{Type: EventLeave, Room: name, User: c.user})
	}
}

// Broadcast sends event to every client of its room. Message and reply
// events are kept in the room history.
func (h *Hub) Broadcast(event Event) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.Lock()
	r, ok := h.rooms[event.Room]
	if !ok {
		h.mu.Unlock()
		return
	}
	r.lastActive = h.now()
	if event.Type == EventMessage || event.Type == EventReply {
		r.history = append(r.history, event)
		if len(r.history) > h.historySize {
			r.history = r.history[len(r.history)-h.historySize:]
		}
	}
	targets := make([]*client, 0, len(r.clients))
	for c := range r.clients {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	for _, c := range targets {
		if err := c.write(payload); err != nil {
			_ = c.conn.Close()
		}
	}
}

// History returns a copy of the room's recent events.
func (h *Hub) History(name string) []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.rooms[name]; ok {
		return append([]Event(nil), r.history...)
	}
	return nil
}

// PruneIdle drops rooms that have had no clients and no traffic for idle,
// together with their history, and returns how many were dropped.
func (h *Hub) PruneIdle(idle time.Duration) int {
	cutoff := h.now().Add(-idle)
	h.mu.Lock()
	defer h.mu.Unlock()
	removed := 0
	for name, r := range h.rooms {
		if len(r.clients) == 0 && r.lastActive.Before(cutoff) {
			delete(h.rooms, name)
			removed++
		}
	}
	return removed
}

// Rooms reports how many rooms the hub holds.
func (h *Hub) Rooms() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	var all []*client
	for _, r := range h.rooms {
		for c := range r.clients {
			all = append(all, c)
		}
	}
	h.mu.Unlock()
	for _, c := range all {
		_ = c.conn.Close()
	}
}

func (h *Hub) roomLocked(name string) *room {
	r, ok := h.rooms[name]
	if !ok {
		r = &room{clients: make(map[*client]struct{})}
		h.rooms[name] = r
	}
	return r
}
