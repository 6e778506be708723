package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rocketscienceinc/tictactoe-arcade/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-arcade/internal/entity"
)

type gameService interface {
	StartRound(ctx context.Context, mode entity.Mode, humanMark entity.Mark) (*entity.Session, error)
	GetSession(ctx context.Context, id string) (*entity.Session, error)
	PlayRound(ctx context.Context, id string, cell int) (*entity.Session, error)
	ReplayRound(ctx context.Context, id string) (*entity.Session, error)
	EndGame(ctx context.Context, id string) error
}

type startRequest struct {
	Mode      string `json:"mode"`
	HumanMark string `json:"human_mark"`
}

type turnRequest struct {
	Cell *int `json:"cell"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type Handlers struct {
	logger      *slog.Logger
	gameService gameService
}

func NewHandlers(logger *slog.Logger, gameService gameService) *Handlers {
	return &Handlers{
		logger:      logger,
		gameService: gameService,
	}
}

func (that *Handlers) StartSession(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		that.writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	mode, err := entity.ParseMode(req.Mode)
	if err != nil {
		that.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	humanMark := entity.PlayerX
	if req.HumanMark != "" {
		if humanMark, err = entity.ParseMark(req.HumanMark); err != nil {
			that.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	session, err := that.gameService.StartRound(r.Context(), mode, humanMark)
	if err != nil {
		that.handleError(w, "StartSession", err)
		return
	}

	that.writeJSON(w, http.StatusCreated, session.Public())
}

func (that *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := that.gameService.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		that.handleError(w, "GetSession", err)
		return
	}

	that.writeJSON(w, http.StatusOK, session.Public())
}

// MakeTurn - the human move and, against the computer, its reply.
func (that *Handlers) MakeTurn(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		that.writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	if req.Cell == nil {
		that.writeError(w, http.StatusBadRequest, "cell is required")
		return
	}

	session, err := that.gameService.PlayRound(r.Context(), chi.URLParam(r, "id"), *req.Cell)
	if err != nil {
		that.handleError(w, "MakeTurn", err)
		return
	}

	that.writeJSON(w, http.StatusOK, session.Public())
}

func (that *Handlers) Replay(w http.ResponseWriter, r *http.Request) {
	session, err := that.gameService.ReplayRound(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		that.handleError(w, "Replay", err)
		return
	}

	that.writeJSON(w, http.StatusOK, session.Public())
}

func (that *Handlers) EndSession(w http.ResponseWriter, r *http.Request) {
	if err := that.gameService.EndGame(r.Context(), chi.URLParam(r, "id")); err != nil {
		that.handleError(w, "EndSession", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (that *Handlers) handleError(w http.ResponseWriter, method string, err error) {
	status := statusFromError(err)
	if status == http.StatusInternalServerError {
		that.logger.Error("request failed", "method", method, "error", err)
		that.writeError(w, status, "internal server error")
		return
	}

	that.logger.Debug("request rejected", "method", method, "error", err)
	that.writeError(w, status, err.Error())
}

func (that *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	that.writeJSON(w, status, errorResponse{Error: message})
}

func (that *Handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, apperror.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrInvalidMove):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperror.ErrNotYourTurn), errors.Is(err, apperror.ErrGameFinished):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrSessionIDRequired),
		errors.Is(err, apperror.ErrUnknownMode),
		errors.Is(err, apperror.ErrInvalidMark):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
