package stream

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/savonet/ai-radio/internal/logger"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 30 * time.Second
)

// NowPlaying is the payload pushed to websocket subscribers on every track
// change.
type NowPlaying struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Source string `json:"source"`
	Cover  string `json:"cover"`
}

// NowPlayingHub pushes track changes to websocket subscribers the moment
// they happen, so clients do not need to poll the status endpoint.
type NowPlayingHub struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*wsClient]struct{}
	last    *NowPlaying
}

type wsClient struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// NewNowPlayingHub creates a hub with no subscribers.
func NewNowPlayingHub() *NowPlayingHub {
	return &NowPlayingHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  512,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*wsClient]struct{}),
	}
}

// Broadcast pushes np to every subscriber. A subscriber whose send buffer
// is full gets disconnected instead of holding the broadcast up.
func (h *NowPlayingHub) Broadcast(np NowPlaying) {
	data, err := json.Marshal(np)
	if err != nil {
		return
	}

	h.mu.Lock()
	h.last = &np
	clients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		select {
		case c.send <- data:
		default:
			h.drop(c)
		}
	}
}

// Count returns the number of websocket subscribers.
func (h *NowPlayingHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every subscriber.
func (h *NowPlayingHub) Close() {
	h.mu.Lock()
	clients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*wsClient]struct{})
	h.mu.Unlock()

	for _, c := range clients {
		c.conn.Close()
	}
}

func (h *NowPlayingHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("ws: upgrade failed", logger.Err(err))
		return
	}

	c := &wsClient{
		id:   r.RemoteAddr,
		conn: conn,
		send: make(chan []byte, 8),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	last := h.last
	total := len(h.clients)
	h.mu.Unlock()

	logger.Info("ws: subscriber connected",
		logger.String("client", c.id), logger.Int("total", total))

	// New subscribers immediately learn what is on air.
	if last != nil {
		if data, err := json.Marshal(last); err == nil {
			c.send <- data
		}
	}

	go c.writePump()
	go c.readPump(h)
}

// drop removes a client from the hub and closes its connection, which in
// turn terminates both pumps. Safe to call more than once per client.
func (h *NowPlayingHub) drop(c *wsClient) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	total := len(h.clients)
	h.mu.Unlock()
	if !ok {
		return
	}
	c.conn.Close()

	logger.Info("ws: subscriber disconnected",
		logger.String("client", c.id), logger.Int("total", total))
}

// readPump discards inbound messages; the connection is push-only. It keeps
// the read deadline fresh from pongs and tears the client down when the
// peer goes away.
func (c *wsClient) readPump(h *NowPlayingHub) {
	defer h.drop(c)

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
