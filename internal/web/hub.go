package web

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 5 * time.Second

// Hub tracks connected WebSocket clients, fans state broadcasts out to
// them, and feeds inbound command frames to the run loop. Broadcast is
// called only from the run loop goroutine; the mutex guards the client set
// against connect/disconnect from HTTP goroutines.
type Hub struct {
	commands chan<- Command
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

// NewHub creates a hub that forwards validated commands to the given
// channel. The send is non-blocking: if the run loop is behind, the frame
// is dropped and logged rather than stalling the reader.
func NewHub(commands chan<- Command) *Hub {
	return &Hub{
		commands: commands,
		clients:  make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			// The strip lives on a trusted LAN; the UI is served from
			// the same box but also hand-held via file:// during bring-up.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleWS upgrades an HTTP request and services the connection.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade: %v", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	n := len(h.clients)
	h.mu.Unlock()
	log.Printf("ws client connected (%d total)", n)

	go h.readPump(conn)
}

// readPump consumes command frames until the client goes away.
func (h *Hub) readPump(conn *websocket.Conn) {
	defer h.drop(conn)

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		cmd, err := ParseCommand(data)
		if err != nil {
			log.Printf("ws command rejected: %v", err)
			continue
		}

		select {
		case h.commands <- cmd:
		default:
			log.Printf("ws command dropped: run loop busy")
		}
	}
}

// Broadcast writes a payload to every connected client. Clients that fail
// to accept the write are dropped; the next snapshot heals any gap.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		c.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("ws write failed, dropping client: %v", err)
			h.drop(c)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.clients = make(map[*websocket.Conn]bool)
	h.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}
