package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"mindicons/internal/config"
	"mindicons/internal/events"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the API only listens on loopback by default
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocketManager streams bus events to websocket clients.
type WebSocketManager struct {
	bus    *events.Bus
	logger *zap.Logger

	mu      sync.Mutex
	clients map[*wsClient]struct{}
	stopped bool
}

// wsClient is one connection. mapFilter, when set, drops node events of
// other maps; toolbar and config events always pass.
type wsClient struct {
	conn      *websocket.Conn
	sub       *events.Subscription
	mapFilter string
	once      sync.Once
}

// NewWebSocketManager creates a new WebSocket manager
func NewWebSocketManager(bus *events.Bus, logger *zap.Logger) *WebSocketManager {
	return &WebSocketManager{
		bus:     bus,
		logger:  logger,
		clients: make(map[*wsClient]struct{}),
	}
}

// HandleWebSocket upgrades the request and streams events until either side
// goes away.
func (m *WebSocketManager) HandleWebSocket(w http.ResponseWriter, r *http.Request, mapFilter string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}

	c := &wsClient{
		conn:      conn,
		sub:       m.bus.SubscribeBuffered(config.WebSocketSendBufferSize),
		mapFilter: mapFilter,
	}

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		c.sub.Close()
		conn.Close()
		return
	}
	m.clients[c] = struct{}{}
	total := len(m.clients)
	m.mu.Unlock()

	m.logger.Info("WebSocket client connected",
		zap.String("map_filter", mapFilter),
		zap.Int("total_clients", total))

	go m.readPump(c)
	go m.writePump(c)
}

// drop forgets c and releases its subscription and connection, once.
func (m *WebSocketManager) drop(c *wsClient) {
	c.once.Do(func() {
		m.mu.Lock()
		delete(m.clients, c)
		total := len(m.clients)
		m.mu.Unlock()

		c.sub.Close()
		c.conn.Close()

		fields := []zap.Field{zap.Int("total_clients", total)}
		if n := c.sub.Dropped(); n > 0 {
			fields = append(fields, zap.Uint64("dropped_events", n))
		}
		m.logger.Info("WebSocket client disconnected", fields...)
	})
}

// Stop disconnects every client and refuses new ones. Safe to call more
// than once.
func (m *WebSocketManager) Stop() {
	m.mu.Lock()
	m.stopped = true
	clients := make([]*wsClient, 0, len(m.clients))
	for c := range m.clients {
		clients = append(clients, c)
	}
	m.mu.Unlock()

	for _, c := range clients {
		m.drop(c)
	}
}

// ActiveConnections returns the number of connected clients
func (m *WebSocketManager) ActiveConnections() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}

func (c *wsClient) accepts(ev events.Event) bool {
	if c.mapFilter == "" || ev.MapID == "" {
		return true
	}
	return ev.MapID == c.mapFilter
}

// readPump only handles control frames; clients never send data.
func (m *WebSocketManager) readPump(c *wsClient) {
	defer m.drop(c)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				m.logger.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}
	}
}

// writePump owns all writes to the connection: events and pings.
func (m *WebSocketManager) writePump(c *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		m.drop(c)
	}()

	for {
		select {
		case ev, ok := <-c.sub.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if !c.accepts(ev) {
				continue
			}
			data, err := json.Marshal(ev)
			if err != nil {
				m.logger.Error("Failed to marshal event", zap.String("event_type", string(ev.Type)), zap.Error(err))
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				m.logger.Warn("WebSocket write error", zap.Error(err))
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
