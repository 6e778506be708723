package websocket

import (
	"context"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-arcade/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-arcade/internal/entity"
)

var errCellRequired = fmt.Errorf("%w: cell is required", apperror.ErrInvalidMove)

func (that *Server) handleNewSession(ctx context.Context, conn *connection, payload *Payload) (*Payload, error) {
	log := that.logger.With("method", "handleNewSession")

	mode, err := entity.ParseMode(payload.Mode)
	if err != nil {
		return nil, err
	}

	humanMark := entity.PlayerX
	if payload.HumanMark != "" {
		if humanMark, err = entity.ParseMark(payload.HumanMark); err != nil {
			return nil, err
		}
	}

	session, err := that.gameService.StartRound(ctx, mode, humanMark)
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	if err = that.followSession(ctx, conn, session.ID); err != nil {
		if endErr := that.gameService.EndGame(ctx, session.ID); endErr != nil {
			log.Warn("failed to end unfollowed session", "sessionID", session.ID, "error", endErr)
		}

		return nil, err
	}

	if previous := conn.owned(); previous != "" && previous != session.ID {
		if err = that.gameService.EndGame(ctx, previous); err != nil && !errors.Is(err, apperror.ErrSessionNotFound) {
			log.Warn("failed to end previous session", "sessionID", previous, "error", err)
		}
	}
	conn.own(session.ID)

	log.Info("session created", "sessionID", session.ID, "mode", session.Mode)

	return &Payload{Session: session.Public()}, nil
}

// handleGetSession - also attaches the connection to the session's events, so a reconnecting client resumes its stream.
func (that *Server) handleGetSession(ctx context.Context, conn *connection, payload *Payload) (*Payload, error) {
	session, err := that.gameService.GetSession(ctx, payload.SessionID)
	if err != nil {
		return nil, err
	}

	if err = that.followSession(ctx, conn, session.ID); err != nil {
		return nil, err
	}

	return &Payload{Session: session.Public()}, nil
}

func (that *Server) handleSessionTurn(ctx context.Context, _ *connection, payload *Payload) (*Payload, error) {
	if payload.Cell == nil {
		return nil, errCellRequired
	}

	session, err := that.gameService.PlayRound(ctx, payload.SessionID, *payload.Cell)
	if err != nil {
		return nil, err
	}

	return &Payload{Session: session.Public()}, nil
}

func (that *Server) handleSessionReplay(ctx context.Context, _ *connection, payload *Payload) (*Payload, error) {
	session, err := that.gameService.ReplayRound(ctx, payload.SessionID)
	if err != nil {
		return nil, err
	}

	return &Payload{Session: session.Public()}, nil
}

func (that *Server) handleSessionLeave(ctx context.Context, conn *connection, payload *Payload) (*Payload, error) {
	if err := that.gameService.EndGame(ctx, payload.SessionID); err != nil {
		return nil, err
	}

	if conn.owned() == payload.SessionID {
		conn.own("")
	}

	return &Payload{SessionID: payload.SessionID}, nil
}

// followSession - forwards the session's events to the connection until the subscription ends.
func (that *Server) followSession(ctx context.Context, conn *connection, sessionID string) error {
	if conn.following() == sessionID {
		return nil
	}

	events, unsubscribe, err := that.gameService.Subscribe(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	if !conn.follow(sessionID, unsubscribe) {
		unsubscribe()
		return nil
	}

	go that.forwardEvents(conn, events)

	return nil
}

func (that *Server) forwardEvents(conn *connection, events <-chan entity.Event) {
	log := that.logger.With("method", "forwardEvents")

	for event := range events {
		if err := conn.send(actionSessionEvent, Payload{SessionID: event.SessionID, Event: &event}); err != nil {
			log.Debug("failed to forward event", "sessionID", event.SessionID, "error", err)
			return
		}
	}
}
