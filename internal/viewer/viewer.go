package viewer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/joshharrison/pertloom/internal/cpm"
	"github.com/joshharrison/pertloom/internal/export"
	"github.com/joshharrison/pertloom/internal/graph"
	"github.com/joshharrison/pertloom/internal/input"
)

// maxBodyBytes bounds the size of a posted activity document.
const maxBodyBytes = 4 << 20

// errorResponse is the body of a 4xx reply.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// --- HTTP server ---

// Server holds the most recently analysed network and serves its layout graph.
type Server struct {
	mu    sync.RWMutex
	graph *export.Graph
	opts  cpm.Options
	log   *slog.Logger
}

// New creates a viewer server. opts are passed to every analysis.
func New(opts cpm.Options, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{opts: opts, log: log}
}

// Load replaces the served graph with the layout of res.
func (s *Server) Load(res *cpm.Result) *export.Graph {
	g := export.ToGraph(res)
	s.mu.Lock()
	s.graph = g
	s.mu.Unlock()
	return g
}

func (s *Server) handlePostGraph(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "read body: " + err.Error()})
		return
	}

	doc, err := input.Parse(data, input.FormatJSON)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	res, err := cpm.CalculateDocument(doc, r.URL.Query().Get("mode"), s.opts)
	if err != nil {
		s.log.Warn("analysis rejected", "error", err)
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Kind: errorKind(err)})
		return
	}

	g := s.Load(res)
	s.log.Info("graph loaded",
		"activities", len(res.Order),
		"project_duration", res.Analysis.ProjectDuration,
		"critical", len(res.Analysis.CriticalPath))

	writeJSON(w, http.StatusCreated, g)
}

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	g := s.graph
	s.mu.RUnlock()

	if g == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no graph loaded"})
		return
	}

	writeJSON(w, http.StatusOK, g)
}

// Handler returns the viewer's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/graph", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			s.handlePostGraph(w, r)
		case http.MethodGet:
			s.handleGetGraph(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok\n"))
	})

	return mux
}

// Start launches the viewer HTTP server on the given port in the background.
// Returns the base URL (e.g. "http://localhost:7171") or an error.
func (s *Server) Start(port int) (string, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return "", fmt.Errorf("listen on port %d: %w", port, err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("viewer stopped", "error", err)
		}
	}()

	addr := fmt.Sprintf("http://localhost:%d", port)
	s.log.Info("viewer listening", "addr", addr)
	return addr, nil
}

// IsPortOpen checks if something is listening on the given address.
func IsPortOpen(addr string) bool {
	conn, err := net.DialTimeout("tcp", addr, 500*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// errorKind names the engine failure for API clients.
func errorKind(err error) string {
	switch {
	case errors.Is(err, graph.ErrCyclicDependency):
		return "cyclic_dependency"
	case errors.Is(err, graph.ErrInvalidReference):
		return "invalid_reference"
	case errors.Is(err, graph.ErrDuplicateActivityID):
		return "duplicate_activity_id"
	case errors.Is(err, graph.ErrInvalidActivity):
		return "invalid_activity"
	default:
		return "unknown"
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
