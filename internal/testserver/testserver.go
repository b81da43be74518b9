// Package testserver is an in-process stand-in for the simulation server,
// used by tests. It serves the command and status endpoints and a push
// channel that tests can broadcast on.
package testserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

type Status struct {
	IsRunning      bool     `json:"is_running"`
	ActiveStrategy string   `json:"active_strategy"`
	Strategies     []string `json:"strategies"`
}

type StartRequest struct {
	InitialCash         float64 `json:"initial_cash"`
	EnableBrokerCharges bool    `json:"enable_broker_charges"`
}

type Server struct {
	*httptest.Server

	upgrader websocket.Upgrader

	mu          sync.Mutex
	status      Status
	starts      []StartRequest
	stops       int
	strategyReq []string
	requestIDs  []string
	failures    map[string]int
	clients     map[*websocket.Conn]bool
	connects    int
}

// New starts a server with two strategies and no simulation running.
func New() *Server {
	s := &Server{
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		status: Status{
			ActiveStrategy: "TrendFollowing",
			Strategies:     []string{"TrendFollowing", "MeanReversion"},
		},
		failures: make(map[string]int),
		clients:  make(map[*websocket.Conn]bool),
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/start", s.handleStart).Methods(http.MethodPost)
	r.HandleFunc("/api/stop", s.handleStop).Methods(http.MethodPost)
	r.HandleFunc("/api/strategy", s.handleStrategy).Methods(http.MethodPost)
	r.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)

	s.Server = httptest.NewServer(r)
	return s
}

// WSURL is the push-channel address.
func (s *Server) WSURL() string {
	return "ws" + strings.TrimPrefix(s.URL, "http") + "/ws"
}

// Close drops push clients and shuts the server down.
func (s *Server) Close() {
	s.DropClients()
	s.Server.Close()
}

// FailWith makes path answer with code until cleared with code 0.
func (s *Server) FailWith(path string, code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if code == 0 {
		delete(s.failures, path)
		return
	}
	s.failures[path] = code
}

func (s *Server) SetStatus(st Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = st
}

func (s *Server) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Server) Starts() []StartRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]StartRequest(nil), s.starts...)
}

func (s *Server) Stops() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stops
}

func (s *Server) StrategyRequests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.strategyReq...)
}

// RequestIDs are the X-Request-ID headers seen on commands.
func (s *Server) RequestIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requestIDs...)
}

// Connects counts accepted push-channel connections.
func (s *Server) Connects() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connects
}

// WaitForClients blocks until n push clients are connected or timeout.
func (s *Server) WaitForClients(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		got := len(s.clients)
		s.mu.Unlock()
		if got >= n {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

// Broadcast sends v as JSON to every push client.
func (s *Server) Broadcast(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.BroadcastRaw(data)
}

// BroadcastRaw sends data unchanged, which lets tests send malformed frames.
func (s *Server) BroadcastRaw(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for client := range s.clients {
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			client.Close()
			delete(s.clients, client)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// DropClients closes every push connection without a close frame.
func (s *Server) DropClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for client := range s.clients {
		client.Close()
	}
	s.clients = make(map[*websocket.Conn]bool)
}

func (s *Server) failed(w http.ResponseWriter, path string) bool {
	s.mu.Lock()
	code, ok := s.failures[path]
	s.mu.Unlock()
	if ok {
		http.Error(w, "injected failure", code)
	}
	return ok
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (s *Server) recordID(r *http.Request) {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		s.requestIDs = append(s.requestIDs, id)
	}
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if s.failed(w, r.URL.Path) {
		return
	}
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	s.mu.Lock()
	s.recordID(r)
	s.starts = append(s.starts, req)
	if s.status.IsRunning {
		s.mu.Unlock()
		writeJSON(w, map[string]any{"status": "already_running"})
		return
	}
	s.status.IsRunning = true
	s.mu.Unlock()

	writeJSON(w, map[string]any{"status": "started", "config": req})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if s.failed(w, r.URL.Path) {
		return
	}
	s.mu.Lock()
	s.recordID(r)
	s.stops++
	wasRunning := s.status.IsRunning
	s.status.IsRunning = false
	s.mu.Unlock()

	if !wasRunning {
		writeJSON(w, map[string]any{"status": "not_running"})
		return
	}
	writeJSON(w, map[string]any{"status": "stopped"})
}

func (s *Server) handleStrategy(w http.ResponseWriter, r *http.Request) {
	if s.failed(w, r.URL.Path) {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	s.mu.Lock()
	s.recordID(r)
	s.strategyReq = append(s.strategyReq, req.Name)
	known := false
	for _, name := range s.status.Strategies {
		if name == req.Name {
			known = true
		}
	}
	if known {
		s.status.ActiveStrategy = req.Name
	}
	s.mu.Unlock()

	if !known {
		writeJSON(w, map[string]any{"status": "error", "message": "Strategy not found"})
		return
	}
	writeJSON(w, map[string]any{"status": "ok", "strategy": req.Name})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.failed(w, r.URL.Path) {
		return
	}
	writeJSON(w, s.Status())
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.failed(w, r.URL.Path) {
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s.mu.Lock()
	s.clients[conn] = true
	s.connects++
	s.mu.Unlock()

	// Drain client frames so control messages (ping, close) are processed.
	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.clients, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
