package realtime

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	maxMsgSize = 4096
)

// Envelope is the frame pushed over the realtime channel.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

// Hub tracks open per-user connections. A user with no connection simply
// misses the live push; the stored inbox copy is the durable path.
type Hub struct {
	mu      sync.RWMutex
	clients map[uint]map[*client]struct{}
	log     *slog.Logger

	upgrader websocket.Upgrader
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[uint]map[*client]struct{}),
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// HandleWS upgrades the request and services the connection until the
// peer goes away. Client pings are answered with pong envelopes.
func (h *Hub) HandleWS(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Query("user_id"), 10, 32)
	if err != nil || userID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "valid user_id is required"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	cl := &client{conn: conn}
	h.register(uint(userID), cl)
	defer h.unregister(uint(userID), cl)

	conn.SetReadLimit(maxMsgSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		var incoming Envelope
		if err := json.Unmarshal(raw, &incoming); err != nil {
			continue
		}
		if incoming.Type == "ping" {
			if err := cl.write(Envelope{Type: "pong"}); err != nil {
				return
			}
		}
	}
}

// Push delivers a notification envelope to every open connection of the
// user and reports whether at least one write succeeded.
func (h *Hub) Push(userID uint, data any) bool {
	h.mu.RLock()
	conns := make([]*client, 0, len(h.clients[userID]))
	for cl := range h.clients[userID] {
		conns = append(conns, cl)
	}
	h.mu.RUnlock()

	delivered := false
	for _, cl := range conns {
		if err := cl.write(Envelope{Type: "notification", Data: data}); err != nil {
			h.log.Debug("realtime push failed", slog.Uint64("user_id", uint64(userID)))
			continue
		}
		delivered = true
	}
	return delivered
}

// Connected reports whether the user holds at least one open connection.
func (h *Hub) Connected(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

func (h *Hub) register(userID uint, cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*client]struct{})
	}
	h.clients[userID][cl] = struct{}{}
	h.log.Debug("realtime client connected", slog.Uint64("user_id", uint64(userID)))
}

func (h *Hub) unregister(userID uint, cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients[userID], cl)
	if len(h.clients[userID]) == 0 {
		delete(h.clients, userID)
	}
	cl.conn.Close()
}
