// internal/server/server.go

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"propmap/internal/config"
	"propmap/internal/domain/temporal"
	"propmap/internal/metrics"
	"propmap/internal/server/handlers"
)

// Server represents the HTTP server
type Server struct {
	server *http.Server
	router *chi.Mux
}

// NewServer creates a new HTTP server
func NewServer(
	cfg config.ServerConfig,
	viewManager temporal.ViewManager,
	catalog temporal.DatasetCatalog,
	eventBus temporal.EventBus,
	defaultDataset string,
	settings temporal.MapSettings,
) *Server {
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	viewHandler := handlers.NewViewHandler(viewManager, defaultDataset, settings)
	datasetHandler := handlers.NewDatasetHandler(catalog)

	// Routes
	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		// Health check
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		r.Route("/v1", func(r chi.Router) {
			r.Get("/settings", viewHandler.GetSettings)

			// Datasets API
			r.Route("/datasets/{name}", func(r chi.Router) {
				r.Get("/attributes", datasetHandler.GetAttributes)
				r.Get("/stats", datasetHandler.GetStats)
				r.Post("/reload", datasetHandler.Reload)
			})

			// Views API
			r.Route("/views", func(r chi.Router) {
				r.Post("/", viewHandler.CreateView)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", viewHandler.GetView)
					r.Delete("/", viewHandler.DeleteView)
					r.Post("/forward", viewHandler.Forward)
					r.Post("/reverse", viewHandler.Reverse)
					r.Put("/index", viewHandler.Seek)
					r.Get("/symbols", viewHandler.GetSymbols)
					r.Get("/legend", viewHandler.GetLegend)
				})
			})
		})
	})

	// WebSocket endpoint for live sequence control
	router.Get("/ws/views/{id}", handlers.ViewWebSocketHandler(viewManager, eventBus))

	router.Handle("/metrics", metrics.Handler())

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		server: httpServer,
		router: router,
	}
}

// Handler returns the server's router
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
