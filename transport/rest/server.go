package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rocketscienceinc/tictactoe-arcade/pkg/handlers"
	"github.com/rocketscienceinc/tictactoe-arcade/pkg/httpserver"
)

// NewRouter - wires the session routes.
func NewRouter(logger *slog.Logger, gameService gameService) http.Handler {
	h := NewHandlers(logger, gameService)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/ping", handlers.PingHandler)
	r.Post("/sessions", h.StartSession)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Delete("/", h.EndSession)
		r.Post("/turns", h.MakeTurn)
		r.Post("/replay", h.Replay)
	})

	return r
}

// Start - serves the REST API on port until ctx is done.
func Start(ctx context.Context, logger *slog.Logger, port string, gameService gameService) error {
	return httpserver.Run(ctx, httpserver.New(port, NewRouter(logger, gameService)))
}
