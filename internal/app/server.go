package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/markdave123-py/Studia/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/Studia/internal/api/middlewares"
	"github.com/markdave123-py/Studia/internal/config"
	"github.com/markdave123-py/Studia/internal/metrics"
	"github.com/markdave123-py/Studia/internal/services"
)

// Handlers groups the route handlers mounted under /api.
type Handlers struct {
	Documents *handlers.DocumentHandler
	Materials *handlers.MaterialHandler
	Users     *handlers.UserHandler
}

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, users *services.UserService, h Handlers, logger *slog.Logger) *Server {
	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(cfg, users, h, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return &Server{httpServer: httpSrv, logger: logger}
}

func newRouter(cfg *config.Config, users *services.UserService, h Handlers, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(appMiddleware.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(appMiddleware.Metrics)

	// public endpoints
	r.Get("/healthz", handlers.Health)
	r.Handle("/metrics", metrics.Handler())

	// protected endpoints
	r.Route("/api", func(api chi.Router) {
		api.Use(appMiddleware.JWTMiddleware(cfg.JWTSecret))
		api.Use(appMiddleware.ProvisionUser(users, logger))

		api.Post("/uploads", h.Documents.UploadDocument)
		api.Post("/uploads/text", h.Documents.UploadText)
		api.Get("/uploads", h.Documents.GetUploads)
		api.Get("/uploads/{id}/file", h.Documents.DownloadFile)
		api.Delete("/uploads/{id}", h.Documents.DeleteUpload)

		api.Get("/materials", h.Materials.GetMaterials)
		api.Get("/materials/{id}", h.Materials.GetMaterial)
		api.Post("/materials/{id}/usage", h.Materials.RecordUsage)

		api.Get("/usage", h.Users.GetUsage)
		api.Get("/me", h.Users.Me)
	})

	return r
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Serve is Start on an existing listener.
func (s *Server) Serve(l net.Listener) error {
	if err := s.httpServer.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
