// Package http exposes the ledger as a JSON REST API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"ledgerbook/internal/log"
	"ledgerbook/internal/metrics"
	"ledgerbook/internal/middleware/ratelimit"
	"ledgerbook/internal/middleware/security"
	"ledgerbook/internal/middleware/trace"
)

const readyTimeout = 2 * time.Second

// Deps are the collaborators the handlers call.
type Deps struct {
	Ledger     LedgerAPI
	People     PersonAPI
	Categories CategoryAPI
	// Ready backs /readyz; nil always reports ready.
	Ready   func(ctx context.Context) error
	Metrics *metrics.Metrics
	Logger  *log.Logger
}

type Options struct {
	// RequestsPerMinute per client on mutating methods.
	RequestsPerMinute int
	TrustedProxies    []string
}

type Server struct {
	http.Server
	ledger     LedgerAPI
	people     PersonAPI
	categories CategoryAPI
	ready      func(ctx context.Context) error
	metrics    *metrics.Metrics
	logger     *log.Logger

	rateLimiter  *ratelimit.Limiter
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps, opts Options) (*Server, error) {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		ledger:     deps.Ledger,
		people:     deps.People,
		categories: deps.Categories,
		ready:      deps.Ready,
		metrics:    deps.Metrics,
		logger:     logger,
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RequestsPerMinute,
		}),
	}

	detector := security.NewDetector(logger, deps.Metrics)
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			s.rateLimiter.Stop()
			return nil, err
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", deps.Metrics.Handler())

	mux.Handle("POST /categories", apiHandler(s.handleCreateCategory))
	mux.Handle("GET /categories", apiHandler(s.handleListCategories))
	mux.Handle("GET /categories/{id}", apiHandler(s.handleGetCategory))
	mux.Handle("PUT /categories/{id}", apiHandler(s.handleUpdateCategory))
	mux.Handle("DELETE /categories/{id}", apiHandler(s.handleDeleteCategory))

	mux.Handle("POST /people", apiHandler(s.handleCreatePerson))
	mux.Handle("GET /people", apiHandler(s.handleListPeople))
	mux.Handle("GET /people/{id}", apiHandler(s.handleGetPerson))
	mux.Handle("PUT /people/{id}", apiHandler(s.handleUpdatePerson))
	mux.Handle("DELETE /people/{id}", apiHandler(s.handleDeletePerson))

	mux.Handle("POST /entries", apiHandler(s.handleCreateEntry))
	mux.Handle("GET /entries", apiHandler(s.handleListEntries))
	mux.Handle("GET /entries/filter", apiHandler(s.handleFilterEntries))
	mux.Handle("GET /entries/{id}", apiHandler(s.handleGetEntry))
	mux.Handle("PUT /entries/{id}", apiHandler(s.handleUpdateEntry))
	mux.Handle("DELETE /entries/{id}", apiHandler(s.handleDeleteEntry))

	// Outermost first. Nothing below trace may replace the request, or the
	// route pattern would not reach the metrics.
	chain := []func(http.Handler) http.Handler{
		trace.NewMiddleware(logger, deps.Metrics, detector.ExtractClientIP).Middleware,
		security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware,
		detector.Middleware,
		s.rateLimiter.Middleware(detector.ExtractClientIP, s.onRateLimited),
	}
	var handler http.Handler = mux
	for i := len(chain) - 1; i >= 0; i-- {
		handler = chain[i](handler)
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	s.metrics.RateLimited()
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
}

// Shutdown stops the rate limiter janitor and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Run runs ListenAndServe until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", s.Addr)
		if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.rateLimiter.Stop()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("Shutting down HTTP server", log.FieldOperation, log.OpShutdown)
	return s.Shutdown(shutdownCtx)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
