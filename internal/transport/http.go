package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	storefrontHttp "github.com/pedilo/storefront/internal/handler/http"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

const (
	healthTimeout  = 2 * time.Second
	requestTimeout = 30 * time.Second
)

func NewRouter(orderHandler *storefrontHttp.OrderHandler, db Pinger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(storefrontHttp.LoggingMiddleware)
	r.Use(storefrontHttp.RecoveryMiddleware)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			log.Error().Err(err).Msg("Health check failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("UNAVAILABLE"))
			return
		}
		_, _ = w.Write([]byte("OK"))
	})

	orderHandler.RegisterRoutes(r)

	return r
}
