// Package server is the control surface: an HTTP panel for reading and
// changing the warp engine's multiplier. It holds no time arithmetic: every
// handler calls straight into the engine's public operations and reflects
// the clamped result back to the caller.
package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/timewarplabs/timewarp/internal/warp"
)

// Options configures optional server features.
type Options struct {
	// Hub receives multiplier-changed events for connected panels.
	Hub *Hub
	// Metrics exposes /metrics when set.
	Metrics bool
	// Log defaults to a nop logger.
	Log *zap.Logger
}

// Server is the timewarp control-surface HTTP server.
type Server struct {
	httpServer *http.Server
	engine     *warp.Engine
	hub        *Hub
	log        *zap.Logger
	mux        *http.ServeMux
}

// New creates a control server over eng.
func New(addr string, eng *warp.Engine, opts Options) *Server {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	s := &Server{
		engine: eng,
		hub:    opts.Hub,
		log:    opts.Log,
		mux:    http.NewServeMux(),
	}
	s.routes(opts.Metrics)
	if s.hub != nil {
		eng.OnChange(func(m float64) {
			s.hub.BroadcastMultiplier(m, eng.VirtualTime())
		})
	}
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}
	return s
}

func (s *Server) routes(metrics bool) {
	s.mux.HandleFunc("/", s.handleRoot)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/multiplier", s.handleMultiplier)
	s.mux.HandleFunc("/api/time", s.handleTime)
	s.mux.HandleFunc("/dashboard/", s.handleDashboard)
	if s.hub != nil {
		s.mux.HandleFunc("/ws", s.hub.HandleWebSocket)
	}
	if metrics {
		s.mux.Handle("/metrics", promhttp.Handler())
	}
}

// handleRoot serves service info.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"service":      "timewarp",
		"status":       "running",
		"virtual_time": s.engine.VirtualTime().Format(time.RFC3339),
	})
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// multiplierResponse reflects the engine's installed (clamped) state.
type multiplierResponse struct {
	Multiplier float64 `json:"multiplier"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
}

func (s *Server) currentMultiplier() multiplierResponse {
	min, max := s.engine.Bounds()
	return multiplierResponse{
		Multiplier: s.engine.Multiplier(),
		Min:        min,
		Max:        max,
	}
}

// handleMultiplier reads (GET) or sets (PUT) the multiplier. Out-of-range
// requests are never an error: the engine clamps and the response carries
// the value actually installed.
func (s *Server) handleMultiplier(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(s.currentMultiplier())

	case http.MethodPut, http.MethodPost:
		var req struct {
			Multiplier *float64 `json:"multiplier"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Multiplier == nil {
			http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
			return
		}
		// Out-of-range values, zero and negative included, are clamped by
		// the engine; min > 0 keeps virtual time monotonic.
		s.engine.SetMultiplier(*req.Multiplier)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(s.currentMultiplier())

	default:
		http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
	}
}

// handleTime reports the two time domains side by side.
func (s *Server) handleTime(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"real":       now.Format(time.RFC3339Nano),
		"virtual":    s.engine.VirtualTimeAt(now).Format(time.RFC3339Nano),
		"multiplier": s.engine.Multiplier(),
	})
}

// handleDashboard serves the embedded control panel.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(DashboardHTML))
}

// Start begins listening. It blocks until the server is shut down.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	s.log.Info("control surface listening", zap.String("addr", ln.Addr().String()))
	return s.httpServer.Serve(ln)
}

// StartOnListener begins serving on the provided listener.
// Useful for tests that need to pick an ephemeral port.
func (s *Server) StartOnListener(ln net.Listener) error {
	s.log.Info("control surface listening", zap.String("addr", ln.Addr().String()))
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
