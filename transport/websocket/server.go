package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/tictactoe-arcade/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-arcade/internal/entity"
	"github.com/rocketscienceinc/tictactoe-arcade/pkg/handlers"
	"github.com/rocketscienceinc/tictactoe-arcade/pkg/httpserver"
)

type gameService interface {
	StartRound(ctx context.Context, mode entity.Mode, humanMark entity.Mark) (*entity.Session, error)
	GetSession(ctx context.Context, id string) (*entity.Session, error)
	PlayRound(ctx context.Context, id string, cell int) (*entity.Session, error)
	ReplayRound(ctx context.Context, id string) (*entity.Session, error)
	EndGame(ctx context.Context, id string) error
	Subscribe(ctx context.Context, id string) (<-chan entity.Event, func(), error)
}

type handlerFunc func(ctx context.Context, conn *connection, payload *Payload) (*Payload, error)

type Server struct {
	logger      *slog.Logger
	gameService gameService
	upgrader    websocket.Upgrader

	handlers map[string]handlerFunc
}

func New(logger *slog.Logger, gameService gameService) *Server {
	server := &Server{
		logger:      logger,
		gameService: gameService,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},

		handlers: make(map[string]handlerFunc),
	}

	server.handlers[actionSessionNew] = server.handleNewSession
	server.handlers[actionSessionGet] = server.handleGetSession
	server.handlers[actionSessionTurn] = server.handleSessionTurn
	server.handlers[actionSessionReplay] = server.handleSessionReplay
	server.handlers[actionSessionLeave] = server.handleSessionLeave

	return server
}

// Handler - /ws upgrades to WebSocket, /ping answers health checks.
func (that *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", handlers.PingHandler)
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.upgradeToWebSocket(ctx, w, r)
	})

	return mux
}

// Start - starts WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	return httpserver.Run(ctx, httpserver.New(port, that.Handler(ctx)))
}

func (that *Server) upgradeToWebSocket(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	wsConn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	conn := newConnection(wsConn)
	defer that.handleDisconnect(ctx, conn)

	log.Info("WebSocket connection established", "remote", r.RemoteAddr)

	that.handleMessages(ctx, conn)
}

// handleMessages - processes messages from the client until it goes away.
func (that *Server) handleMessages(ctx context.Context, conn *connection) {
	log := that.logger.With("method", "handleMessages")

	for {
		var message Message
		if err := conn.conn.ReadJSON(&message); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				that.sendErrorResponse(conn, actionError, "malformed message")
				continue
			}

			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("connection closed", "error", err)
			}

			return
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			that.sendErrorResponse(conn, message.Action, "unknown action")
			continue
		}

		var payload Payload
		if len(message.Payload) > 0 {
			if err := json.Unmarshal(message.Payload, &payload); err != nil {
				that.sendErrorResponse(conn, message.Action, "malformed payload")
				continue
			}
		}

		response, err := handler(ctx, conn, &payload)
		if err != nil {
			that.sendErrorResponse(conn, message.Action, that.errorMessage(message.Action, err))
			continue
		}

		if err = conn.send(message.Action, *response); err != nil {
			log.Error("failed to send response", "action", message.Action, "error", err)
			return
		}
	}
}

// handleDisconnect - a session dies with the connection that created it.
func (that *Server) handleDisconnect(ctx context.Context, conn *connection) {
	log := that.logger.With("method", "handleDisconnect")

	conn.close()

	sessionID := conn.owned()
	if sessionID == "" {
		return
	}

	if err := that.gameService.EndGame(ctx, sessionID); err != nil && !errors.Is(err, apperror.ErrSessionNotFound) {
		log.Error("failed to end session", "sessionID", sessionID, "error", err)
		return
	}

	log.Info("player disconnected", "sessionID", sessionID)
}

func (that *Server) sendErrorResponse(conn *connection, action, errorMsg string) {
	if err := conn.send(action, Payload{Error: errorMsg}); err != nil {
		that.logger.Error("failed to send error response", "action", action, "error", err)
	}
}

func (that *Server) errorMessage(action string, err error) string {
	switch {
	case errors.Is(err, apperror.ErrSessionNotFound),
		errors.Is(err, apperror.ErrSessionIDRequired),
		errors.Is(err, apperror.ErrInvalidMove),
		errors.Is(err, apperror.ErrNotYourTurn),
		errors.Is(err, apperror.ErrGameFinished),
		errors.Is(err, apperror.ErrUnknownMode),
		errors.Is(err, apperror.ErrInvalidMark):
		return err.Error()
	default:
		that.logger.Error("error processing message", "action", action, "error", err)
		return "internal server error"
	}
}
