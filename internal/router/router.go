package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/imah-safety/epi-api/internal/handler"
	"github.com/imah-safety/epi-api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
func New(catalogHandler *handler.CatalogHandler, sessionHandler *handler.SessionHandler, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration: the issuance UI runs on the operator's
	// workstation, not a fixed origin.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Catalog and employee lists
	catalogHandler.RegisterRoutes(r)

	// Issuance sessions
	r.Route("/sessions", sessionHandler.RegisterRoutes)

	// WebSocket route: commit events per session
	r.Get("/ws/sessions/{sid}", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, w, r)
	})

	return r
}
