package notify

import (
	"encoding/json"
	"errors"
	"log"
	"net"
	"sync"

	"cliphub/internal/live"
)

const (
	RegisterMessageType = "register"
	CycleMessageType    = "cycle_summary"
)

// RegisterMessage is what a monitor sends to subscribe to cycle summaries.
type RegisterMessage struct {
	Type    string `json:"type"`
	Monitor string `json:"monitor"`
}

type Client struct {
	Monitor string
	Addr    *net.UDPAddr
}

type Registry struct {
	mu      sync.RWMutex
	clients map[string]Client
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]Client)}
}

func (r *Registry) Register(monitor string, addr *net.UDPAddr) {
	if monitor == "" || addr == nil {
		return
	}
	r.mu.Lock()
	r.clients[monitor] = Client{Monitor: monitor, Addr: addr}
	r.mu.Unlock()
}

func (r *Registry) Remove(monitor string) {
	r.mu.Lock()
	delete(r.clients, monitor)
	r.mu.Unlock()
}

func (r *Registry) Snapshot() []Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clients := make([]Client, 0, len(r.clients))
	for _, client := range r.clients {
		clients = append(clients, client)
	}
	return clients
}

// Server listens for monitor registrations over UDP and pushes cycle
// summaries to everyone registered. Losing a datagram is fine; the next
// cycle sends another.
type Server struct {
	addr     string
	registry *Registry
	logger   *log.Logger
	conn     *net.UDPConn
}

func NewServer(addr string, registry *Registry, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{addr: addr, registry: registry, logger: logger}
}

func (s *Server) Run() error {
	udpAddr, err := net.ResolveUDPAddr("udp", s.addr)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return err
	}
	s.conn = conn
	defer conn.Close()

	s.logger.Printf("UDP notify server listening on %s", s.addr)

	buffer := make([]byte, 2048)
	for {
		n, addr, err := conn.ReadFromUDP(buffer)
		if err != nil {
			return err
		}
		msg, err := parseRegisterMessage(buffer[:n])
		if err != nil {
			s.logger.Printf("invalid UDP message from %s: %v", addr, err)
			continue
		}
		if msg.Type != RegisterMessageType {
			continue
		}
		s.registry.Register(msg.Monitor, addr)
		s.logger.Printf("registered UDP monitor %s (%s)", msg.Monitor, addr)
	}
}

// BroadcastCycle pushes one cycle summary to all registered monitors.
func (s *Server) BroadcastCycle(ev live.CycleEvent) {
	if s.conn == nil {
		s.logger.Printf("UDP notify server not running")
		return
	}
	ev.Type = CycleMessageType
	payload, err := json.Marshal(ev)
	if err != nil {
		s.logger.Printf("failed to marshal broadcast: %v", err)
		return
	}

	for _, client := range s.registry.Snapshot() {
		s.sendWithRetry(client, payload)
	}
}

func (s *Server) sendWithRetry(client Client, payload []byte) {
	if err := s.sendOnce(client, payload); err == nil {
		return
	}
	if err := s.sendOnce(client, payload); err != nil {
		s.logger.Printf("failed to notify monitor %s at %s: %v", client.Monitor, client.Addr, err)
		s.registry.Remove(client.Monitor)
	}
}

func (s *Server) sendOnce(client Client, payload []byte) error {
	if client.Addr == nil {
		return errors.New("missing client address")
	}
	_, err := s.conn.WriteToUDP(payload, client.Addr)
	return err
}

func parseRegisterMessage(data []byte) (RegisterMessage, error) {
	var msg RegisterMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, err
	}
	if msg.Monitor == "" || msg.Type == "" {
		return msg, errors.New("missing required fields")
	}
	return msg, nil
}
