package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewRouter creates a new Chi router with all middleware and routes
func NewRouter(handler *Handler, logger *zap.Logger, rateLimiter *RateLimiter) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(rateLimiter.Middleware)

	r.Get("/healthz", handler.Healthz)
	r.Get("/readyz", handler.Readyz)

	// Root-level redirect route
	r.Get("/{code}", handler.Redirect)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/urls", handler.CreateShortURL)
		r.Get("/urls/{code}", handler.GetURLDetails)
		r.Get("/urls/{code}/stats", handler.GetURLStats)
		r.Delete("/urls/{code}", handler.DeleteURL)

		r.Get("/users/{userID}/urls", handler.ListUserURLs)
		r.Get("/users/{userID}/stats", handler.GetUserStats)
		r.Get("/users/{userID}/operations", handler.ListUserOperations)

		r.Post("/bulk", handler.SubmitBulk)
		r.Post("/bulk/urls", handler.SubmitBulkCreation)
		r.Get("/operations/{id}", handler.GetOperation)
		r.Post("/operations/{id}/cancel", handler.CancelOperation)
	})

	return r
}
