package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rocketscienceinc/tictactoe-arcade/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-arcade/internal/entity"
	"github.com/rocketscienceinc/tictactoe-arcade/internal/tictactoe"
)

type sessionRepo interface {
	CreateOrUpdate(ctx context.Context, session *entity.Session) error
	GetByID(ctx context.Context, id string) (*entity.Session, error)
	DeleteByID(ctx context.Context, id string) error
}

type eventBroker interface {
	Publish(event entity.Event)
	Subscribe(ctx context.Context, sessionID string) (<-chan entity.Event, func())
	Close(sessionID string)
}

// GameManager - owns every session. Operations on one session id are serialised.
type GameManager struct {
	logger *slog.Logger
	engine *tictactoe.Engine

	sessionRepo sessionRepo
	broker      eventBroker

	locks sync.Map
}

func NewGameManager(logger *slog.Logger, engine *tictactoe.Engine, sessionRepo sessionRepo, broker eventBroker) *GameManager {
	return &GameManager{
		logger: logger,
		engine: engine,

		sessionRepo: sessionRepo,
		broker:      broker,
	}
}

// StartGame - creates a session and deals its first game.
func (that *GameManager) StartGame(ctx context.Context, mode entity.Mode, humanMark entity.Mark) (*entity.Session, error) {
	log := that.logger.With("method", "StartGame")

	session, err := that.engine.NewSession(mode, humanMark)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	session.ID = uuid.NewString()
	that.engine.ResetBoard(session)

	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now

	if err = that.sessionRepo.CreateOrUpdate(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	log.Info("session started", "sessionID", session.ID, "mode", session.Mode, "humanMark", session.HumanMark)

	that.publish(
		entity.NewEvent(entity.EventSessionStarted, session),
		entity.NewEvent(entity.EventBoardReset, session).WithMark(session.Turn),
	)

	return session, nil
}

func (that *GameManager) GetSession(ctx context.Context, id string) (*entity.Session, error) {
	if id == "" {
		return nil, apperror.ErrSessionIDRequired
	}

	session, err := that.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return session, nil
}

// MakeTurn - places the mark of the side to move on behalf of a human.
func (that *GameManager) MakeTurn(ctx context.Context, id string, cell int) (*entity.Session, error) {
	unlock := that.lock(id)
	defer unlock()

	session, err := that.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	if session.IsFinished() {
		return session, apperror.ErrGameFinished
	}

	if session.IsComputerTurn() {
		return session, apperror.ErrNotYourTurn
	}

	if err = that.applyMove(ctx, session, cell, session.Turn); err != nil {
		return session, err
	}

	return session, nil
}

// ComputerTurn - lets the computer reply in a player-vs-computer session.
func (that *GameManager) ComputerTurn(ctx context.Context, id string) (*entity.Session, error) {
	unlock := that.lock(id)
	defer unlock()

	session, err := that.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	if session.IsFinished() {
		return session, apperror.ErrGameFinished
	}

	if !session.IsComputerTurn() {
		return session, apperror.ErrNotYourTurn
	}

	cell, ok := that.engine.ChooseComputerMove(session)
	if !ok {
		return session, apperror.ErrNoMoveAvailable
	}

	if err = that.applyMove(ctx, session, cell, session.ComputerMark); err != nil {
		return session, err
	}

	return session, nil
}

// PlayRound - a human move immediately followed by the computer reply, if one is due.
func (that *GameManager) PlayRound(ctx context.Context, id string, cell int) (*entity.Session, error) {
	session, err := that.MakeTurn(ctx, id, cell)
	if err != nil {
		return session, err
	}

	return that.openIfComputerTurn(ctx, session)
}

// StartRound - StartGame, then the computer's opening move when it holds X.
func (that *GameManager) StartRound(ctx context.Context, mode entity.Mode, humanMark entity.Mark) (*entity.Session, error) {
	session, err := that.StartGame(ctx, mode, humanMark)
	if err != nil {
		return nil, err
	}

	return that.openIfComputerTurn(ctx, session)
}

// ReplayRound - Replay, then the computer's opening move when it holds X.
func (that *GameManager) ReplayRound(ctx context.Context, id string) (*entity.Session, error) {
	session, err := that.Replay(ctx, id)
	if err != nil {
		return nil, err
	}

	return that.openIfComputerTurn(ctx, session)
}

func (that *GameManager) openIfComputerTurn(ctx context.Context, session *entity.Session) (*entity.Session, error) {
	if !session.IsComputerTurn() {
		return session, nil
	}

	return that.ComputerTurn(ctx, session.ID)
}

// Replay - clears the board for another game within the same session.
func (that *GameManager) Replay(ctx context.Context, id string) (*entity.Session, error) {
	log := that.logger.With("method", "Replay")

	unlock := that.lock(id)
	defer unlock()

	session, err := that.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	that.engine.ResetBoard(session)
	session.UpdatedAt = time.Now().UTC()

	if err = that.updateSession(ctx, session); err != nil {
		return nil, err
	}

	log.Debug("board reset", "sessionID", session.ID, "counter", session.Counter, "shouldLose", session.ComputerShouldLose)

	that.publish(entity.NewEvent(entity.EventBoardReset, session).WithMark(session.Turn))

	return session, nil
}

// EndGame - discards the session and ends its subscriptions.
func (that *GameManager) EndGame(ctx context.Context, id string) error {
	log := that.logger.With("method", "EndGame")

	unlock := that.lock(id)
	defer func() {
		that.locks.Delete(id)
		unlock()
	}()

	session, err := that.GetSession(ctx, id)
	if err != nil {
		return err
	}

	if err = that.sessionRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	log.Info("session closed", "sessionID", id, "games", session.Counter)

	that.publish(entity.NewEvent(entity.EventSessionClosed, session))
	that.broker.Close(id)

	return nil
}

// Subscribe - streams the events of an existing session.
func (that *GameManager) Subscribe(ctx context.Context, id string) (<-chan entity.Event, func(), error) {
	if _, err := that.GetSession(ctx, id); err != nil {
		return nil, nil, err
	}

	events, unsubscribe := that.broker.Subscribe(ctx, id)

	return events, unsubscribe, nil
}

func (that *GameManager) applyMove(ctx context.Context, session *entity.Session, cell int, mark entity.Mark) error {
	if err := that.engine.PlaceMark(session, cell, mark); err != nil {
		return fmt.Errorf("failed to place mark: %w", err)
	}

	events := []entity.Event{entity.NewEvent(entity.EventMarkPlaced, session).WithCell(cell, mark)}

	outcome := that.engine.EvaluateOutcome(session, mark)
	switch outcome.Kind {
	case entity.OutcomeWin:
		events = append(events, entity.NewEvent(entity.EventGameWon, session).WithOutcome(outcome))
	case entity.OutcomeDraw:
		events = append(events, entity.NewEvent(entity.EventGameDrawn, session).WithOutcome(outcome))
	default:
		session.Turn = mark.Opponent()
		events = append(events, entity.NewEvent(entity.EventTurnChanged, session).WithMark(session.Turn))
	}

	session.UpdatedAt = time.Now().UTC()

	if err := that.updateSession(ctx, session); err != nil {
		return err
	}

	that.publish(events...)

	return nil
}

func (that *GameManager) updateSession(ctx context.Context, session *entity.Session) error {
	if err := that.sessionRepo.CreateOrUpdate(ctx, session); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	return nil
}

func (that *GameManager) publish(events ...entity.Event) {
	for _, event := range events {
		that.broker.Publish(event)
	}
}

func (that *GameManager) lock(id string) func() {
	value, _ := that.locks.LoadOrStore(id, &sync.Mutex{})
	mu := value.(*sync.Mutex) //nolint: forcetypeassert // only mutexes are stored

	mu.Lock()

	return mu.Unlock
}
