// Package server exposes the counter service over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tckz/go-hit-counter/internal/counter"
	"github.com/tckz/go-hit-counter/internal/log"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type options struct {
	logger          *zap.SugaredLogger
	gatherer        prometheus.Gatherer
	storeName       string
	shutdownTimeout time.Duration
}

type Option func(o *options)

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithGatherer exposes the collected metrics on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(o *options) {
		o.gatherer = g
	}
}

func WithStoreName(name string) Option {
	return func(o *options) {
		o.storeName = name
	}
}

func WithShutdownTimeout(d time.Duration) Option {
	return func(o *options) {
		o.shutdownTimeout = d
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger:          zap.NewNop().Sugar(),
		shutdownTimeout: 10 * time.Second,
	}
	for _, e := range opts {
		e(&o)
	}
	return o
}

// NewHandler returns the whole HTTP surface including middleware.
func NewHandler(svc *counter.Service, opts ...Option) http.Handler {
	return newHandler(svc, newOptions(opts))
}

func newHandler(svc *counter.Service, o options) http.Handler {
	ch := NewCounterHandler(svc, o.logger)

	router := mux.NewRouter()
	if o.gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(o.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	router.HandleFunc("/healthz", healthHandler(o.storeName, o.logger)).Methods(http.MethodGet)
	router.Path("/").Methods(http.MethodGet).MatcherFunc(hasNoQuery).HandlerFunc(pageHandler(o.logger))
	router.Path("/").Handler(ch)
	router.Path("/api/counter").Handler(ch)
	router.Path("/counter").Handler(ch)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Not found", Endpoints: endpoints}, o.logger)
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "Method not allowed"}, o.logger)
	})

	var h http.Handler = cors(router)
	h = accessLog(o.logger, h)
	h = handlers.ProxyHeaders(h)
	h = requestID(h)
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(log.RecoveryLogger{Logger: o.logger}),
		handlers.PrintRecoveryStack(false),
	)(h)
	return h
}

type Server struct {
	addr            string
	httpServer      *http.Server
	logger          *zap.SugaredLogger
	shutdownTimeout time.Duration
}

func New(addr string, svc *counter.Service, opts ...Option) *Server {
	o := newOptions(opts)
	return &Server{
		addr: addr,
		httpServer: &http.Server{
			Handler:           newHandler(svc, o),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger:          o.logger,
		shutdownTimeout: o.shutdownTimeout,
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("net.Listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then waits up to the shutdown timeout
// for in-flight requests.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Infof("listening on %s", ln.Addr())

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("httpServer.Serve: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		s.logger.Infof("shutting down, timeout=%s", s.shutdownTimeout)

		sctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(sctx); err != nil {
			return fmt.Errorf("httpServer.Shutdown: %w", err)
		}
		return nil
	})
	return eg.Wait()
}
