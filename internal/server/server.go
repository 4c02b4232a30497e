package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/chatgate/chatgate/internal/config"
	"github.com/chatgate/chatgate/internal/handler"
	"github.com/chatgate/chatgate/internal/model"
	"github.com/chatgate/chatgate/internal/server/middleware"
)

const readinessTimeout = 2 * time.Second

// Pinger reports whether the credential store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps bundles everything the router dispatches to.
type Deps struct {
	Store     Pinger
	Keys      handler.KeyIssuer
	Counter   handler.KeyCounter
	Chat      handler.ChatService
	Catalog   handler.ModelCatalog
	Operator  handler.Operator
	OpenAPI   *openapi3.T
	Templates *template.Template
	Cookie    handler.CookieConfig
}

// Server is the top-level HTTP server. It owns the chi router and the
// dependencies the handlers dispatch to.
type Server struct {
	cfg        config.ServerConfig
	deps       Deps
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a new Server, wires up all routes and middleware, and returns
// it ready to listen. Call ListenAndServe to start accepting connections.
func New(cfg config.ServerConfig, deps Deps, logger *slog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: logger,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(chimw.Compress(5))

	chatHandler := handler.NewChatHandler(s.deps.Chat, s.deps.Catalog, s.logger)
	keyHandler := handler.NewKeyHandler(s.deps.Keys, s.logger)
	console := handler.NewConsoleHandler(s.deps.Operator, s.deps.Counter, s.deps.Catalog, s.deps.Templates, s.deps.Cookie, s.logger)

	// --- Health checks (no auth required) ---
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Get("/openapi.json", handler.NewOpenAPIHandler(s.deps.OpenAPI).ServeSpec)

	// --- API routes ---
	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
		r.Use(chimw.RequestSize(s.cfg.MaxBodySize))

		r.Get("/models", chatHandler.Models)

		r.With(chimw.ThrottleBacklog(s.cfg.MaxConcurrentChats, s.cfg.ChatBacklog, s.cfg.ChatBacklogTimeout)).
			Post("/chat", chatHandler.Chat)

		r.With(middleware.RequireSession(s.deps.Operator, s.deps.Cookie.Name, middleware.DenyJSON)).
			Post("/create_key", keyHandler.CreateKey)
	})

	// --- Operator console ---
	r.Get("/", console.Root)
	r.Get("/login", console.LoginPage)
	r.Post("/login", console.Login)
	r.Get("/logout", console.Logout)
	r.With(middleware.RequireSession(s.deps.Operator, s.deps.Cookie.Name, middleware.DenyRedirect)).
		Get("/dashboard", console.Dashboard)

	s.router = r
}

// handleHealthz is a liveness probe. Returns 200 if the process is running.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleReadyz is a readiness probe. Returns 200 when the credential store
// answers a ping, or 503 otherwise.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	resp := model.StatusResponse{Status: "ok", Checks: map[string]string{"store": "ok"}}
	httpStatus := http.StatusOK
	if err := s.deps.Store.Ping(ctx); err != nil {
		resp.Status = "degraded"
		resp.Checks["store"] = "error: " + err.Error()
		httpStatus = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(resp)
}

// ListenAndServe starts the HTTP server and blocks until ctx is cancelled.
// It then performs a graceful shutdown, draining in-flight requests within
// the configured shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := s.cfg.Addr()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
