package http

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter assembles the public HTTP surface.
func NewRouter(
	allowedOrigins []string,
	proxy *ProxyHandler,
	screening *ScreeningHandler,
	providers *ProviderHandler,
	ws *WSHandler,
) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", proxy.Health)

		r.Get("/google-places/*", proxy.Get)
		r.Post("/google-places", proxy.Post)

		r.Get("/instruments/{id}", screening.Instrument)
		r.Route("/screenings", func(r chi.Router) {
			r.Post("/", screening.Start)
			r.Get("/{id}", screening.Progress)
			r.Delete("/{id}", screening.End)
			r.Post("/{id}/answers", screening.Answer)
			r.Post("/{id}/submit", screening.Submit)
		})

		r.Route("/providers", func(r chi.Router) {
			r.Get("/", providers.Search)
			r.Post("/login", providers.Login)
			r.Get("/{id}", providers.Get)
			r.Put("/{id}", providers.Update)
		})
	})

	r.Get("/ws", ws.ServeWS)

	return r
}
