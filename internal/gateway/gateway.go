package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"tagscout/internal/config"
	"tagscout/internal/logging"
	"tagscout/internal/pipeline"
	"tagscout/internal/services"
)

const (
	component      = "gateway"
	botUser        = "tagscout"
	maxMessageSize = 16 << 10

	roomIdleTimeout   = time.Hour
	roomSweepInterval = 5 * time.Minute
)

// Processor answers chat messages. *pipeline.Processor satisfies it.
type Processor interface {
	Process(ctx context.Context, msg pipeline.Message) (pipeline.Reply, error)
}

// Event is one entry of a room's stream.
type Event struct {
	Type      string          `json:"type"`
	Room      string          `json:"room"`
	User      string          `json:"user,omitempty"`
	MessageID string          `json:"message_id,omitempty"`
	Text      string          `json:"text,omitempty"`
	Reply     *pipeline.Reply `json:"reply,omitempty"`
	At        time.Time       `json:"at"`
}

type incomingMessage struct {
	Text string `json:"text"`
	User string `json:"user"`
}

// Gateway serves WebSocket chat connections and answers tagged messages.
type Gateway struct {
	hub       *Hub
	processor Processor
	logger    *slog.Logger
	upgrader  websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a gateway answering messages through processor.
func New(cfg *config.Config, processor Processor, logger *slog.Logger) (*Gateway, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, component, "init", "config required", nil)
	}
	if processor == nil {
		return nil, services.Wrap(services.ErrConfiguration, component, "init", "processor required", nil)
	}
	ctx, cancel := context.WithCancel(context.Background())
	g := &Gateway{
		hub:       NewHub(cfg.Gateway.HistorySize),
		processor: processor,
		logger:    logging.NewComponentLogger(logger, component),
		ctx:       ctx,
		cancel:    cancel,
	}
	allowed := slices.Clone(cfg.Gateway.AllowedOrigins)
	g.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return len(allowed) == 0 || origin == "" || slices.Contains(allowed, origin)
		},
	}
	g.wg.Go(g.sweepRooms)
	return g, nil
}

// sweepRooms evicts idle rooms until the gateway closes.
func (g *Gateway) sweepRooms() {
	ticker := time.NewTicker(roomSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-g.ctx.Done():
			return
		case <-ticker.C:
			if removed := g.hub.PruneIdle(roomIdleTimeout); removed > 0 {
				g.logger.Debug("evicted idle rooms", logging.Int("removed", removed), logging.Int("remaining", g.hub.Rooms()))
			}
		}
	}
}

// Hub returns the gateway's room hub.
func (g *Gateway) Hub() *Hub {
	return g.hub
}

// RoomName returns the room key for a server and channel.
func RoomName(serverID, channelID string) string {
	return serverID + "/" + channelID
}

// ServeHTTP upgrades the request and serves the connection until the client
// disconnects. Query parameters: server, channel (required) and user.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	serverID := strings.TrimSpace(r.URL.Query().Get("server"))
	channelID := strings.TrimSpace(r.URL.Query().Get("channel"))
	if serverID == "" || channelID == "" {
		http.Error(w, "server and channel are required", http.StatusBadRequest)
		return
	}
	user := strings.TrimSpace(r.URL.Query().Get("user"))
	if user == "" {
		user = "anon"
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Debug("websocket upgrade failed", logging.Error(err))
		return
	}
	conn.SetReadLimit(maxMessageSize)

	g.wg.Add(1)
	defer g.wg.Done()

	name := RoomName(serverID, channelID)
	c := &client{conn: conn, user: user}
	g.hub.join(name, c)
	defer g.hub.leave(name, c)
	g.logger.Debug("client joined", logging.String("room", name), logging.String("user", user))

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		text, author := decodeIncoming(payload)
		if text == "" {
			continue
		}
		if author == "" {
			author = user
		}
		g.handle(pipeline.Message{
			ID:        uuid.NewString(),
			Body:      text,
			AuthorID:  author,
			ServerID:  serverID,
			ChannelID: channelID,
		}, name)
	}
}

func decodeIncoming(payload []byte) (string, string) {
	var incoming incomingMessage
	if err := json.Unmarshal(payload, &incoming); err != nil {
		return strings.TrimSpace(string(payload)), ""
	}
	return strings.TrimSpace(incoming.Text), strings.TrimSpace(incoming.User)
}

// handle broadcasts msg and then the bot's reply, if any.
func (g *Gateway) handle(msg pipeline.Message, room string) {
	g.hub.Broadcast(Event{
		Type:      EventMessage,
		Room:      room,
		User:      msg.AuthorID,
		MessageID: msg.ID,
		Text:      msg.Body,
	})

	reply, err := g.processor.Process(g.ctx, msg)
	if err != nil {
		gatewayMessagesTotal.WithLabelValues("failed").Inc()
		if g.ctx.Err() == nil {
			logging.WarnWithContext(g.logger, "message processing failed", "gateway_process_failed",
				logging.String(logging.FieldMessageID, msg.ID),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check provider and resolution logs"),
				logging.String(logging.FieldImpact, "message left unanswered"),
			)
		}
		return
	}
	if reply.Empty() {
		gatewayMessagesTotal.WithLabelValues("silent").Inc()
		return
	}
	gatewayMessagesTotal.WithLabelValues("answered").Inc()
	g.hub.Broadcast(Event{
		Type:      EventReply,
		Room:      room,
		User:      botUser,
		MessageID: msg.ID,
		Text:      Render(reply),
		Reply:     &reply,
	})
}

// HistoryHandler serves the recent events of one room as JSON.
func (g *Gateway) HistoryHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serverID := strings.TrimSpace(r.URL.Query().Get("server"))
		channelID := strings.TrimSpace(r.URL.Query().Get("channel"))
		if serverID == "" || channelID == "" {
			http.Error(w, "server and channel are required", http.StatusBadRequest)
			return
		}
		history := g.hub.History(RoomName(serverID, channelID))
		if history == nil {
			history = []Event{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(history)
	})
}

// Close disconnects every client, cancels in-flight processing and waits
// for connection handlers to return.
func (g *Gateway) Close() {
	g.cancel()
	g.hub.Close()
	g.wg.Wait()
}
