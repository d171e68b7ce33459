// Package http serves the transactions REST API.
package http

import (
	"context"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"expensetracker/internal/core"
	"expensetracker/internal/log"
	"expensetracker/internal/middleware/ratelimit"
	"expensetracker/internal/middleware/security"
	"expensetracker/internal/query"
	"expensetracker/internal/services"
	"expensetracker/internal/storage"
)

const (
	maxBodyBytes  = 1 << 20
	readyTimeout  = 2 * time.Second
	compressLevel = 5
)

// Config holds the HTTP surface settings.
type Config struct {
	Addr               string
	AllowedOrigins     []string
	RateLimitPerMinute int
	// TrustedProxies extends the private ranges allowed to set X-Forwarded-For.
	TrustedProxies     []string
	DefaultOwner       string
	Logger             *log.Logger
	// Now is used for export filenames. Defaults to time.Now.
	Now func() time.Time
}

type Server struct {
	http.Server
	service     *services.TransactionService
	store       storage.Store
	rateLimiter *ratelimit.Limiter
	logger      *log.Logger
	owner       string
	now         func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server. store is only used for the readiness probe.
func NewServer(cfg Config, svc *services.TransactionService, store storage.Store) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.New(log.DefaultConfig())
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.DefaultOwner == "" {
		cfg.DefaultOwner = core.DefaultOwnerID
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	rlConfig := ratelimit.DefaultConfig()
	if cfg.RateLimitPerMinute > 0 {
		rlConfig.RequestsPerMinute = cfg.RateLimitPerMinute
	}

	s := &Server{
		service:     svc,
		store:       store,
		rateLimiter: ratelimit.NewLimiter(rlConfig),
		logger:      cfg.Logger.WithComponent(log.ComponentHTTP),
		owner:       cfg.DefaultOwner,
		now:         cfg.Now,
	}
	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(cfg),
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}
	return s
}

func (s *Server) routes(cfg Config) chi.Router {
	ipResolver := security.NewClientIPResolver()
	for _, cidr := range cfg.TrustedProxies {
		if err := ipResolver.AddTrustedProxy(cidr); err != nil {
			s.logger.Warn("Ignoring trusted proxy", "cidr", cidr, log.FieldError, err)
		}
	}
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(ipResolver.Middleware)
	r.Use(log.Middleware(s.logger))
	r.Use(s.recoverer)
	r.Use(headers.Middleware)
	r.Use(CORS(cfg.AllowedOrigins))
	r.Use(chimiddleware.Compress(compressLevel))
	r.Use(s.rateLimiter.Middleware(ipResolver.ClientIP, s.rateLimited))
	r.Use(s.withOwner)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/ready", s.handleReady)

		r.Route("/transactions", func(r chi.Router) {
			r.Use(log.ComponentMiddleware(log.ComponentTransaction))
			r.Get("/", s.handleList)
			r.Post("/", s.handleCreate)
			r.Get("/stats", s.handleStats)
			r.Get("/monthly", s.handleMonthly)
			r.Get("/export", s.handleExport)
			r.Get("/{id}", s.handleGet)
			r.Put("/{id}", s.handleUpdate)
			r.Delete("/{id}", s.handleDelete)
		})
	})

	return r
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.logger.InfoContext(ctx, "Stopping HTTP server",
			log.FieldOperation, log.OpShutdown,
			"rate_limited_clients", s.rateLimiter.ActiveClients())
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// recoverer turns a panic into a 500 envelope.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			log.FromContext(r.Context()).ErrorContext(r.Context(), "Panic recovered",
				log.FieldErrorType, log.ErrorTypeInternal,
				"panic", rec,
				"stack", string(debug.Stack()))
			WriteError(w, http.StatusInternalServerError, "An unexpected error occurred")
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(),
		"Rate limit exceeded", log.FieldClientIP, r.RemoteAddr)
	WriteError(w, http.StatusTooManyRequests, "Too many requests, please try again later.")
}

// withOwner scopes every request to the configured owner.
func (s *Server) withOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(core.WithOwner(r.Context(), s.owner)))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().Message("OK", "Server is running").Write(w)
}

// handleReady probes the store with a cheap count.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if s.store == nil {
		WriteError(w, http.StatusServiceUnavailable, "Service not ready")
		return
	}
	if _, err := s.store.Count(ctx, query.Filter{OwnerID: s.owner}); err != nil {
		log.FromContext(ctx).WithComponent(log.ComponentStorage).ErrorContext(ctx,
			"Readiness check failed", log.FieldError, err)
		WriteError(w, http.StatusServiceUnavailable, "Service not ready")
		return
	}
	NewResponse().Message("OK", "Service is ready").Write(w)
}
