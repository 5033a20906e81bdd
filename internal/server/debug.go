// Package server exposes the agent fleet over HTTP for diagnostics: JSON
// snapshots on demand and a websocket stream of the same data.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/halcyongames/sentinel/internal/core/behavior"
	"github.com/halcyongames/sentinel/internal/core/observability/log"
)

const defaultStreamInterval = 500 * time.Millisecond

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// diagnostics only, same-origin policy is not enforced
	CheckOrigin: func(*http.Request) bool { return true },
}

// DebugServer serves the diagnostics endpoints over one HTTP listener.
type DebugServer struct {
	manager        *behavior.Manager
	logger         log.Log
	server         *http.Server
	streamInterval time.Duration
}

// NewDebugServer builds a server over the manager, listening on addr once
// started.
func NewDebugServer(manager *behavior.Manager, logger log.Log, addr string) *DebugServer {
	if logger == nil {
		logger = log.Nop()
	}
	s := &DebugServer{
		manager:        manager,
		logger:         logger.With(log.String("component", "debug_server")),
		streamInterval: defaultStreamInterval,
	}
	s.server = &http.Server{Addr: addr, Handler: s.routes()}
	return s
}

func (s *DebugServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/debug/agents", s.handleAgents)
	mux.HandleFunc("/debug/agents/", s.handleAgent)
	mux.HandleFunc("/debug/stream", s.handleStream)
	return mux
}

// Start begins serving in the background.
func (s *DebugServer) Start(_ context.Context) error {
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("debug server exited", log.Error(err))
		}
	}()
	s.logger.Info("debug server listening", log.String("addr", s.server.Addr))
	return nil
}

// Stop shuts the listener down gracefully.
func (s *DebugServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *DebugServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *DebugServer) handleAgents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.manager.Snapshots())
}

// agentReport is the per-agent detail payload.
type agentReport struct {
	Snapshot behavior.Snapshot `json:"snapshot"`
	Stats    behavior.Stats    `json:"stats"`
}

func (s *DebugServer) handleAgent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/debug/agents/")
	engine, ok := s.manager.Agent(id)
	if !ok {
		http.Error(w, "unknown agent", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, agentReport{
		Snapshot: engine.DebugSnapshot(),
		Stats:    engine.Stats(),
	})
}

func (s *DebugServer) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", log.Error(err))
		return
	}
	defer conn.Close()

	// Drain inbound frames so close and error frames from the client are
	// noticed between snapshot writes.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.streamInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteJSON(s.manager.Snapshots()); err != nil {
				return
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
