package api

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"grimm.is/burrow/internal/brand"
	"grimm.is/burrow/internal/clock"
	"grimm.is/burrow/internal/config"
	"grimm.is/burrow/internal/events"
	"grimm.is/burrow/internal/logging"
	"grimm.is/burrow/internal/metrics"
	"grimm.is/burrow/internal/netstate"
)

// Server handles API requests over the daemon's unix socket.
type Server struct {
	cfg       *config.Config
	mgr       netstate.Manager
	hub       *events.Hub
	history   *events.History
	log       *logging.Logger
	mux       *http.ServeMux
	startTime time.Time
}

// ServerOptions holds dependencies for the API server.
type ServerOptions struct {
	Config  *config.Config
	Manager netstate.Manager
	Hub     *events.Hub
	// History is optional; without it /v1/events/history returns 404.
	History *events.History
	Logger  *logging.Logger
}

// NewServer creates a new API server with the provided options.
func NewServer(opts ServerOptions) (*Server, error) {
	if opts.Manager == nil {
		return nil, fmt.Errorf("api server requires a manager")
	}
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Hub == nil {
		opts.Hub = events.NewHub()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.WithComponent("api")
	}

	s := &Server{
		cfg:       opts.Config,
		mgr:       opts.Manager,
		hub:       opts.Hub,
		history:   opts.History,
		log:       logger,
		mux:       http.NewServeMux(),
		startTime: clock.Now(),
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.handle("GET /v1/status", s.handleStatus)

	s.handle("GET /v1/netns", s.handleNamespaceList)
	s.handle("POST /v1/netns", s.handleNamespaceCreate)
	s.handle("DELETE /v1/netns/{ns}", s.handleNamespaceRemove)

	s.handle("GET /v1/netns/{ns}/interfaces", s.handleInterfaceList)
	s.handle("POST /v1/netns/{ns}/interfaces", s.handleInterfaceCreate)
	s.handle("DELETE /v1/netns/{ns}/interfaces/{dev}", s.handleInterfaceDelete)
	s.handle("POST /v1/netns/{ns}/interfaces/{dev}/up", s.handleInterfaceUp)

	// with no {dev} segment the handler lists the whole namespace
	s.handle("GET /v1/netns/{ns}/addresses", s.handleAddressList)
	s.handle("GET /v1/netns/{ns}/interfaces/{dev}/addresses", s.handleAddressList)
	s.handle("POST /v1/netns/{ns}/interfaces/{dev}/addresses", s.handleAddressAdd)
	s.handle("DELETE /v1/netns/{ns}/interfaces/{dev}/addresses", s.handleAddressDelete)

	s.handle("GET /v1/netns/{ns}/rules", s.handleRuleList)
	s.handle("POST /v1/netns/{ns}/rules", s.handleRuleAdd)
	s.handle("DELETE /v1/netns/{ns}/rules", s.handleRuleDelete)

	s.handle("GET /v1/events", s.handleEvents)
	s.handle("GET /v1/events/history", s.handleEventHistory)

	s.mux.Handle("GET /metrics", promhttp.Handler())
}

// handle registers a pattern with peer-credential checking and request
// instrumentation wrapped around the handler.
func (s *Server) handle(pattern string, h http.HandlerFunc) {
	m := metrics.Get()
	s.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		if !s.authorize(w, r) {
			return
		}
		start := clock.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		m.APIRequests.WithLabelValues(r.Method, r.Pattern, strconv.Itoa(rec.status)).Inc()
		m.APILatency.WithLabelValues(r.Method, r.Pattern).Observe(clock.Since(start).Seconds())
	})
}

// statusRecorder captures the response code for instrumentation.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.written {
		r.status = code
		r.written = true
	}
	r.ResponseWriter.WriteHeader(code)
}

// Hijack passes through so the websocket upgrade keeps working under
// the instrumentation wrapper.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}

// authorize checks the caller's socket credentials: root always
// passes, other UIDs must be listed in api.allowed_uids. Requests
// without credentials (not from our unix listener) are refused.
func (s *Server) authorize(w http.ResponseWriter, r *http.Request) bool {
	cred, ok := PeerCredFromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusForbidden, "peer credentials unavailable")
		return false
	}
	if cred.Uid == 0 {
		return true
	}
	for _, uid := range s.cfg.API.AllowedUIDs {
		if int(cred.Uid) == uid {
			return true
		}
	}
	s.log.Warn("rejected unauthorized API caller", "uid", cred.Uid, "pid", cred.Pid)
	WriteError(w, http.StatusForbidden, "caller not permitted")
	return false
}

// Handler returns the server's HTTP handler; exported for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Serve listens on the configured unix socket until ctx is done. A
// stale socket file from an unclean shutdown is removed first.
func (s *Server) Serve(ctx context.Context) error {
	path := s.cfg.API.Socket
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create socket directory: %w", err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove stale socket: %w", err)
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", path, err)
	}
	// Group access is gated by SO_PEERCRED anyway, but keep the file
	// itself closed to others.
	if err := os.Chmod(path, 0o660); err != nil {
		ln.Close()
		return fmt.Errorf("failed to set socket mode: %w", err)
	}

	srv := &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
		ConnContext:       connContext,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		os.Remove(path)
	}()

	s.log.Info("API listening", "socket", path, "version", brand.Version)
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
