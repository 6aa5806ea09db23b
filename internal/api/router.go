package api

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/medialoom/socialpick/internal/api/handler"
	mw "github.com/medialoom/socialpick/internal/api/middleware"
)

// NewRouter creates the HTTP router with all routes configured.
func NewRouter(
	resolveHandler *handler.ResolveHandler,
	healthHandler *handler.HealthHandler,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.CleanPath)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Logger(logger))
	r.Use(middleware.Recoverer)
	// Resolution can wait on slow upstreams plus an ffmpeg run.
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Get("/health", healthHandler.Live)
	r.Get("/", resolveHandler.Root)

	return r
}
