// Package inspect serves a live view of a realdom engine over HTTP.
//
// Routes:
//
//	GET /tree               JSON snapshot of the tree reachable from the root
//	GET /nodes/{id}         JSON snapshot of one subtree
//	GET /listeners/{event}  ids of the nodes listening for an event
//	GET /metrics            Prometheus exposition
//	GET /ws                 WebSocket stream of cycle reports
package inspect

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	rderrors "github.com/vango-dev/realdom/internal/errors"
	"github.com/vango-dev/realdom/pkg/realdom"
	"github.com/vango-dev/realdom/pkg/tree"
)

// Options configures the inspector.
type Options struct {
	// Dom is the engine to inspect. It may be attached later with Attach,
	// which is needed when the Server is also the Dom's Recorder.
	Dom *realdom.Dom

	// Lock guards Dom. The inspector holds it while reading; whoever
	// mutates or updates the Dom must hold it too.
	Lock sync.Locker

	// Gatherer backs /metrics (default: prometheus.DefaultGatherer).
	Gatherer prometheus.Gatherer

	// Logger (default: slog.Default() with component=inspect).
	Logger *slog.Logger
}

// Server is the inspector. It is also a realdom.Recorder: register it with
// realdom.WithRecorder to stream cycle reports to WebSocket clients.
type Server struct {
	lock   sync.Locker
	hub    *hub
	router chi.Router
	logger *slog.Logger

	mu  sync.Mutex
	dom *realdom.Dom
}

var _ realdom.Recorder = (*Server)(nil)

// New creates an inspector.
func New(opts Options) *Server {
	if opts.Lock == nil {
		opts.Lock = &sync.Mutex{}
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default().With("component", "inspect")
	}
	s := &Server{
		dom:    opts.Dom,
		lock:   opts.Lock,
		hub:    newHub(),
		logger: opts.Logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/tree", s.handleTree)
	r.Get("/nodes/{id}", s.handleNode)
	r.Get("/listeners/{event}", s.handleListeners)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	r.Get("/ws", s.handleWebSocket)
	s.router = r
	return s
}

// Attach sets the Dom to inspect.
func (s *Server) Attach(d *realdom.Dom) {
	s.mu.Lock()
	s.dom = d
	s.mu.Unlock()
}

func (s *Server) attached(w http.ResponseWriter) *realdom.Dom {
	s.mu.Lock()
	d := s.dom
	s.mu.Unlock()
	if d == nil {
		writeError(w, http.StatusServiceUnavailable, rderrors.New("E141").
			WithDetail("No engine is attached to the inspector."))
	}
	return d
}

// Handler returns the inspector routes.
func (s *Server) Handler() http.Handler { return s.router }

// RecordCycle implements realdom.Recorder.
func (s *Server) RecordCycle(r realdom.CycleReport) {
	s.hub.broadcast(Message{Type: MessageCycle, Dom: r.Dom, Cycle: r})
}

// ClientCount returns the number of connected WebSocket clients.
func (s *Server) ClientCount() int { return s.hub.count() }

// ListenAndServe serves the inspector on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("inspector listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.hub.close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Close drops every WebSocket client.
func (s *Server) Close() {
	s.hub.close()
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	d := s.attached(w)
	if d == nil {
		return
	}
	s.lock.Lock()
	snap := d.Snapshot()
	s.lock.Unlock()
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	d := s.attached(w)
	if d == nil {
		return
	}
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, rderrors.New("E007").
			WithSubjects(raw).
			WithDetailf("%q is not a node id", raw))
		return
	}

	s.lock.Lock()
	snap, ok := d.SnapshotNode(tree.NodeID(id))
	s.lock.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, rderrors.New("E007").
			WithSubjects(raw).
			WithDetailf("node %d does not exist", id))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleListeners(w http.ResponseWriter, r *http.Request) {
	d := s.attached(w)
	if d == nil {
		return
	}
	event := chi.URLParam(r, "event")
	s.lock.Lock()
	refs := d.GetListeners(event)
	s.lock.Unlock()

	ids := make([]tree.NodeID, len(refs))
	for i, ref := range refs {
		ids[i] = ref.ID()
	}
	writeJSON(w, http.StatusOK, map[string]any{"event": event, "nodes": ids})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	hello := Message{Type: MessageHello}
	s.mu.Lock()
	if s.dom != nil {
		hello.Dom = s.dom.ID().String()
	}
	s.mu.Unlock()
	s.hub.serve(w, r, hello)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, e *rderrors.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(e.FormatJSON()))
}
