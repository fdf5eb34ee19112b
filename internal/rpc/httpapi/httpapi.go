// Package httpapi exposes the health/reindex-status polling endpoints over
// plain net/http: a hand-registered *http.ServeMux, one HandleFunc per
// endpoint, and a running-flag-guarded Start/Shutdown lifecycle.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/standardbeagle/knowledge-engine/internal/rpc/mcp"
)

// Server serves the health/reindex-status dashboard endpoints for one
// Workspace. It never duplicates Workspace logic; every handler is a thin
// JSON adapter over the same methods internal/rpc/mcp's tool handlers call.
type Server struct {
	ws *mcp.Workspace

	mu       sync.Mutex
	running  bool
	listener net.Listener
	server   *http.Server
}

func NewServer(ws *mcp.Workspace) *Server {
	return &Server{ws: ws}
}

// Start begins serving on addr (e.g. ":8090") and returns once the listener
// is bound; requests are served on a background goroutine.
func (s *Server) Start(addr string) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("httpapi: server already running")
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("httpapi: listen %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	s.registerHandlers(mux)

	s.listener = listener
	s.server = &http.Server{Handler: mux}
	s.running = true
	s.mu.Unlock()

	go func() {
		_ = s.server.Serve(listener)
	}()

	return nil
}

func (s *Server) registerHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/reindex-status", s.handleReindexStatus)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	result, err := s.ws.Health(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleReindexStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.ws.ReindexStatus(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if status == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "idle"})
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	srv := s.server
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Addr reports the bound listener address; useful in tests that pass ":0".
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}
