package server

import (
	"context"
	"log"
	"net"
	"net/http"
	"strconv"
	gosync "sync"
	"time"

	"github.com/flowbreak/focusagent/internal/agent"
	"github.com/flowbreak/focusagent/internal/config"
	"github.com/flowbreak/focusagent/internal/observability"
)

// VersionInfo holds build-time version metadata.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

// Server is the HTTP boundary around the focus agent.
type Server struct {
	mu      gosync.RWMutex
	cfg     config.Config
	agent   *agent.Agent
	metrics *observability.Metrics
	mux     *http.ServeMux
	httpSrv *http.Server
	version VersionInfo

	// handlerDelay is injected before each timeout-wrapped
	// handler, used only by tests to guarantee handlers
	// exceed a short timeout. Zero in production.
	handlerDelay time.Duration
}

// New creates a new Server.
func New(
	cfg config.Config, a *agent.Agent, opts ...Option,
) *Server {
	s := &Server{
		cfg:   cfg,
		agent: a,
		mux:   http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = observability.NewMetrics(s.sessionGauge)
	}
	s.routes()
	return s
}

// Option configures a Server.
type Option func(*Server)

// WithVersion sets the build-time version metadata.
func WithVersion(v VersionInfo) Option {
	return func(s *Server) { s.version = v }
}

// WithMetrics overrides the metrics collectors, allowing tests
// to inspect them. Nil is ignored.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
	}
}

func (s *Server) routes() {
	// Unversioned paths serve existing clients.
	for _, prefix := range []string{"", "/api/v1"} {
		s.mux.Handle("POST "+prefix+"/analyze", s.withTimeout(s.handleAnalyze))
		s.mux.Handle("POST "+prefix+"/chat", s.withTimeout(s.handleChat))
		s.mux.Handle("GET "+prefix+"/health", s.withTimeout(s.handleHealth))
	}
	s.mux.Handle(
		"POST /api/v1/sessions/{id}/analyze",
		s.withTimeout(s.handleAnalyzeEvents),
	)
	s.mux.Handle("GET /api/v1/version", s.withTimeout(s.handleGetVersion))
	s.mux.Handle("GET /metrics", s.metrics.Handler())
}

func (s *Server) handleGetVersion(
	w http.ResponseWriter, _ *http.Request,
) {
	writeJSON(w, http.StatusOK, s.version)
}

// sessionGauge samples the store size for the metrics gauge.
func (s *Server) sessionGauge() float64 {
	n, err := s.agent.SessionCount(context.Background())
	if err != nil {
		log.Printf("metrics: counting sessions: %v", err)
		return 0
	}
	return float64(n)
}

// SetPort updates the listen port (for testing).
func (s *Server) SetPort(port int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Port = port
}

// Handler returns the http.Handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return corsMiddleware(s.logMiddleware(s.recoverMiddleware(s.mux)))
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	s.mu.Lock()
	addr := s.cfg.Addr()
	srv := &http.Server{
		Addr:        addr,
		Handler:     s.Handler(),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}
	s.httpSrv = srv
	s.mu.Unlock()
	log.Printf("Starting server at http://%s", addr)
	return srv.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	srv := s.httpSrv
	s.mu.RUnlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// FindAvailablePort finds an available port starting from the
// given port, binding to the specified host.
func FindAvailablePort(host string, start int) int {
	for port := start; port < start+100; port++ {
		addr := net.JoinHostPort(host, strconv.Itoa(port))
		ln, err := net.Listen("tcp", addr)
		if err == nil {
			ln.Close()
			return port
		}
	}
	return start
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set(
			"Access-Control-Allow-Methods", "GET, POST, OPTIONS",
		)
		w.Header().Set(
			"Access-Control-Allow-Headers",
			"Content-Type, X-Request-ID",
		)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
