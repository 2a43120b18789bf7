package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"retro-platformer/internal/game"

	"github.com/gorilla/websocket"
)

const (
	// MaxWSConnectionsTotal is the maximum number of WebSocket connections allowed
	MaxWSConnectionsTotal = 256

	// MaxWSConnectionsPerIP is the maximum WebSocket connections per IP
	MaxWSConnectionsPerIP = 8

	// wsSendBuffer is the per-client outbound queue; a full queue
	// drops frames for that client instead of stalling the hub
	wsSendBuffer = 16

	// wsMaxMessageSize bounds inbound intent messages
	wsMaxMessageSize = 512
)

// wsClient is one WebSocket connection with its outbound queue.
type wsClient struct {
	conn *websocket.Conn
	ip   string
	send chan []byte
}

// wsIntentMessage is the inbound wire format from play clients.
type wsIntentMessage struct {
	Type  string `json:"type"`
	Left  bool   `json:"left"`
	Right bool   `json:"right"`
	Up    bool   `json:"up"`
	Down  bool   `json:"down"`
	Jump  bool   `json:"jump"`
}

// WebSocketHub manages all WebSocket connections. Snapshots fan out
// through per-client buffered queues; a slow client loses frames, the
// other clients and the engine never wait for it.
type WebSocketHub struct {
	engine EngineInterface

	clients    map[*wsClient]struct{}
	broadcast  chan []byte
	register   chan *wsClient
	unregister chan *wsClient
	mu         sync.RWMutex

	allowedOrigins []string
	wsLimiter      *WebSocketRateLimiter

	stopChan chan struct{}
	stopOnce sync.Once
}

// NewWebSocketHub creates a hub with connection limiting. Origins is
// the CORS-style allowlist applied during the upgrade handshake.
func NewWebSocketHub(engine EngineInterface, origins []string) *WebSocketHub {
	return &WebSocketHub{
		engine:         engine,
		clients:        make(map[*wsClient]struct{}),
		broadcast:      make(chan []byte, 64),
		register:       make(chan *wsClient),
		unregister:     make(chan *wsClient),
		allowedOrigins: origins,
		wsLimiter:      NewWebSocketRateLimiter(MaxWSConnectionsPerIP),
		stopChan:       make(chan struct{}),
	}
}

// Run owns the client set. Register, unregister and broadcast all
// funnel through here, so the map needs no further locking for writes.
func (h *WebSocketHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			count := len(h.clients)
			h.mu.Unlock()

			log.Printf("📱 Client connected from %s (%d total)", client.ip, count)
			UpdateWSConnections(count)

		case client := <-h.unregister:
			h.dropClient(client)

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client backlogged; skip this frame for it
					IncrementWSDropped()
				}
			}
			h.mu.RUnlock()
			IncrementWSMessages()

		case <-h.stopChan:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				client.conn.Close()
				h.wsLimiter.Release(client.ip)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			UpdateWSConnections(0)
			return
		}
	}
}

// Stop closes every client and terminates Run.
func (h *WebSocketHub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopChan)
	})
}

// dropClient removes a client and releases its resources. Safe to call
// twice for the same client; the second call finds it already gone.
func (h *WebSocketHub) dropClient(client *wsClient) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
	}
	count := len(h.clients)
	h.mu.Unlock()

	if !ok {
		return
	}

	close(client.send)
	client.conn.Close()
	h.wsLimiter.Release(client.ip)

	log.Printf("📱 Client disconnected (%d remaining)", count)
	UpdateWSConnections(count)
}

// Broadcast queues an event envelope for every connected client.
func (h *WebSocketHub) Broadcast(event string, data interface{}) {
	msg := map[string]interface{}{
		"event": event,
		"data":  data,
	}

	jsonBytes, err := json.Marshal(msg)
	if err != nil {
		return
	}

	select {
	case h.broadcast <- jsonBytes:
	default:
		// Hub backlogged, skip
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// StartBroadcastLoop pushes the latest snapshot to all clients at the
// given rate until the hub stops.
func (h *WebSocketHub) StartBroadcastLoop(hz int) {
	if hz <= 0 {
		hz = 20
	}
	ticker := time.NewTicker(time.Second / time.Duration(hz))

	go func() {
		defer ticker.Stop()
		var lastSeq uint64
		for {
			select {
			case <-h.stopChan:
				return
			case <-ticker.C:
				if h.ClientCount() == 0 {
					continue
				}
				snap := h.engine.Snapshot()
				if snap == nil || snap.Sequence == lastSeq {
					continue
				}
				lastSeq = snap.Sequence
				h.Broadcast("snapshot", snap)
			}
		}
	}()
}

// HandleWebSocket upgrades a connection, enforcing origin and
// connection limits, then starts its read and write pumps.
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if h.ClientCount() >= MaxWSConnectionsTotal {
		log.Printf("⚠️ WebSocket connection rejected: total limit reached")
		RecordConnectionRejected("ws_total_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}

	if !h.wsLimiter.Allow(ip) {
		log.Printf("⚠️ WebSocket connection rejected from %s: per-IP limit reached", ip)
		RecordConnectionRejected("ws_ip_limit")
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// Non-browser clients (the terminal player) send none
				return true
			}
			if originAllowed(origin, h.allowedOrigins) {
				return true
			}
			log.Printf("⚠️ WebSocket connection rejected from origin: %s", origin)
			RecordConnectionRejected("origin")
			return false
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		h.wsLimiter.Release(ip)
		return
	}

	client := &wsClient{conn: conn, ip: ip, send: make(chan []byte, wsSendBuffer)}

	select {
	case h.register <- client:
	case <-h.stopChan:
		conn.Close()
		h.wsLimiter.Release(ip)
		return
	}

	go h.writePump(client)
	go h.readPump(client)
}

// writePump drains the client queue onto the socket. A send channel
// closed by the hub ends the pump.
func (h *WebSocketHub) writePump(client *wsClient) {
	for message := range client.send {
		if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			break
		}
	}
	client.conn.Close()
}

// readPump decodes inbound intent messages and forwards them to the
// engine mailbox. Any read error unregisters the client.
func (h *WebSocketHub) readPump(client *wsClient) {
	defer func() {
		select {
		case h.unregister <- client:
		case <-h.stopChan:
		}
	}()

	client.conn.SetReadLimit(wsMaxMessageSize)

	for {
		_, message, err := client.conn.ReadMessage()
		if err != nil {
			break
		}

		var msg wsIntentMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		if msg.Type != "intent" {
			continue
		}

		h.engine.SubmitIntent(game.Intent{
			Left:  msg.Left,
			Right: msg.Right,
			Up:    msg.Up,
			Down:  msg.Down,
			Jump:  msg.Jump,
		})
	}
}
