package tictactoe

import (
	"fmt"
	"time"

	"github.com/rocketscienceinc/tictactoe-arcade/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-arcade/internal/entity"
)

// DefaultLoseOdds - the computer plays randomly in one game out of DefaultLoseOdds.
const DefaultLoseOdds = 10

// Engine owns the rules of a session: placing marks, evaluating outcomes and
// choosing the computer's move. It keeps no state besides its random source,
// so one Engine serves every session.
type Engine struct {
	random   Random
	loseOdds int
}

type Option func(*Engine)

// WithRandom replaces the random source.
func WithRandom(random Random) Option {
	return func(engine *Engine) {
		if random != nil {
			engine.random = random
		}
	}
}

// WithLoseOdds sets N in "the computer plays randomly in 1 game out of N".
func WithLoseOdds(odds int) Option {
	return func(engine *Engine) {
		if odds > 0 {
			engine.loseOdds = odds
		}
	}
}

func NewEngine(opts ...Option) *Engine {
	engine := &Engine{
		random:   globalRandom{},
		loseOdds: DefaultLoseOdds,
	}

	for _, opt := range opts {
		opt(engine)
	}

	return engine
}

// NewSession - creates a session with an empty board where X moves first.
func (that *Engine) NewSession(mode entity.Mode, humanMark entity.Mark) (*entity.Session, error) {
	if mode != entity.ModePlayerVsPlayer && mode != entity.ModePlayerVsComputer {
		return nil, fmt.Errorf("%w: %q", apperror.ErrUnknownMode, mode)
	}

	if !humanMark.IsPlayer() {
		return nil, fmt.Errorf("%w: %q", apperror.ErrInvalidMark, humanMark)
	}

	now := time.Now()

	return &entity.Session{
		Turn:         entity.PlayerX,
		Mode:         mode,
		HumanMark:    humanMark,
		ComputerMark: humanMark.Opponent(),
		Active:       true,
		Outcome:      entity.Ongoing(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ResetBoard - clears the board for the next game of the same session.
func (that *Engine) ResetBoard(session *entity.Session) *entity.Session {
	session.Board = entity.Board{}
	session.Turn = entity.PlayerX
	session.Active = true
	session.Outcome = entity.Ongoing()
	session.Counter++

	session.ComputerShouldLose = false
	if session.IsWithComputer() {
		session.ComputerShouldLose = that.random.Intn(that.loseOdds) == 0
	}

	session.UpdatedAt = time.Now()

	return session
}

// PlaceMark - puts mark into the cell. Either the cell is set or nothing changes.
func (that *Engine) PlaceMark(session *entity.Session, cell int, mark entity.Mark) error {
	if !entity.IsValidCell(cell) {
		return fmt.Errorf("%w: cell %d is out of range", apperror.ErrInvalidMove, cell)
	}

	if !session.Active {
		return fmt.Errorf("%w: game is over", apperror.ErrInvalidMove)
	}

	if !mark.IsPlayer() {
		return fmt.Errorf("%w: mark %q", apperror.ErrInvalidMove, mark)
	}

	if session.Board[cell] != entity.EmptyCell {
		return fmt.Errorf("%w: cell %d is occupied", apperror.ErrInvalidMove, cell)
	}

	session.Board[cell] = mark
	session.UpdatedAt = time.Now()

	return nil
}

// EvaluateOutcome - checks the board after mark has moved.
// Only the side that just moved can have completed a line.
func (that *Engine) EvaluateOutcome(session *entity.Session, mark entity.Mark) entity.Outcome {
	outcome := entity.Ongoing()

	switch {
	case session.Board.HasLine(mark):
		outcome = entity.Win(mark)
	case session.Board.IsFull():
		outcome = entity.Draw()
	}

	session.Outcome = outcome
	if outcome.IsTerminal() {
		session.Active = false
	}

	return outcome
}

// ChooseComputerMove - picks the computer's cell. ok is false only on a full board.
//
// The opponent looks one move ahead: it completes its own line, otherwise it
// blocks the human's line, otherwise it plays a random empty cell. In a game
// sampled with ComputerShouldLose it always plays randomly.
func (that *Engine) ChooseComputerMove(session *entity.Session) (int, bool) {
	available := session.Board.EmptyCells()
	if len(available) == 0 {
		return -1, false
	}

	if session.ComputerShouldLose {
		return that.randomCell(available), true
	}

	if cell, ok := findWinningMove(&session.Board, session.ComputerMark); ok {
		return cell, true
	}

	if cell, ok := findWinningMove(&session.Board, session.HumanMark); ok {
		return cell, true
	}

	return that.randomCell(available), true
}

func (that *Engine) randomCell(available []int) int {
	return available[that.random.Intn(len(available))]
}

// findWinningMove - returns the empty cell of the first line holding two marks and a gap.
func findWinningMove(board *entity.Board, mark entity.Mark) (int, bool) {
	for _, combo := range entity.WinCombos {
		count, gap := 0, -1

		for _, cell := range combo {
			switch board[cell] {
			case mark:
				count++
			case entity.EmptyCell:
				gap = cell
			}
		}

		if count == 2 && gap >= 0 {
			return gap, true
		}
	}

	return -1, false
}
