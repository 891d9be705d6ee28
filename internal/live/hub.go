package live

import (
	"encoding/json"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 2 * time.Second

// Hub fans clip and cycle events out to TCP and websocket observers. The
// stream is one JSON object per line. The hub retains the latest cycle
// summary and replays it to every new subscriber, so a freshly attached
// monitor sees the pipeline state without waiting out a cycle interval.
// Slow or dead observers are dropped on the first failed write; they can
// reconnect and resync from the replay.
type Hub struct {
	mu        sync.Mutex
	tcp       map[net.Conn]struct{}
	ws        map[*websocket.Conn]struct{}
	published int
	lastCycle []byte
}

type Stats struct {
	TCPClients int `json:"tcp_clients"`
	WSClients  int `json:"ws_clients"`
	Published  int `json:"events_published"`
}

func NewHub() *Hub {
	return &Hub{
		tcp: make(map[net.Conn]struct{}),
		ws:  make(map[*websocket.Conn]struct{}),
	}
}

// PublishClip announces one catalog mutation.
func (h *Hub) PublishClip(ev ClipEvent) {
	b, err := json.Marshal(ev)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.publishLocked(append(b, '\n'))
}

// PublishCycle announces a finished cycle and retains it for replay.
func (h *Hub) PublishCycle(ev CycleEvent) {
	b, err := json.Marshal(ev)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastCycle = append(b, '\n')
	h.publishLocked(h.lastCycle)
}

// Subscribe attaches a TCP observer and sends it the greeting plus the
// retained cycle summary.
func (h *Hub) Subscribe(conn net.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.tcp[conn] = struct{}{}
	if !h.writeTCP(conn, h.helloLocked()) {
		return
	}
	if h.lastCycle != nil {
		h.writeTCP(conn, h.lastCycle)
	}
}

func (h *Hub) Unsubscribe(conn net.Conn) {
	h.mu.Lock()
	delete(h.tcp, conn)
	h.mu.Unlock()
	_ = conn.Close()
}

// SubscribeWS attaches a websocket observer, with the same greeting and
// cycle replay as TCP.
func (h *Hub) SubscribeWS(ws *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.ws[ws] = struct{}{}
	if !h.writeWS(ws, h.helloLocked()) {
		return
	}
	if h.lastCycle != nil {
		h.writeWS(ws, h.lastCycle)
	}
}

func (h *Hub) UnsubscribeWS(ws *websocket.Conn) {
	h.mu.Lock()
	delete(h.ws, ws)
	h.mu.Unlock()
	_ = ws.Close()
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{
		TCPClients: len(h.tcp),
		WSClients:  len(h.ws),
		Published:  h.published,
	}
}

func (h *Hub) publishLocked(line []byte) {
	h.published++
	for conn := range h.tcp {
		h.writeTCP(conn, line)
	}
	for ws := range h.ws {
		h.writeWS(ws, line)
	}
}

// writeTCP pushes one line to a TCP observer, evicting it on failure.
func (h *Hub) writeTCP(conn net.Conn, line []byte) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if _, err := conn.Write(line); err != nil {
		delete(h.tcp, conn)
		_ = conn.Close()
		return false
	}
	return true
}

func (h *Hub) writeWS(ws *websocket.Conn, line []byte) bool {
	_ = ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := ws.WriteMessage(websocket.TextMessage, line); err != nil {
		delete(h.ws, ws)
		_ = ws.Close()
		return false
	}
	return true
}

type helloEvent struct {
	Type       string `json:"type"`
	TCPClients int    `json:"tcp_clients"`
	WSClients  int    `json:"ws_clients"`
}

func (h *Hub) helloLocked() []byte {
	b, _ := json.Marshal(helloEvent{
		Type:       HelloEvent,
		TCPClients: len(h.tcp),
		WSClients:  len(h.ws),
	})
	return append(b, '\n')
}
