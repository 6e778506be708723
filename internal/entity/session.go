package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/rocketscienceinc/tictactoe-arcade/internal/apperror"
)

type Mode string

const (
	ModePlayerVsPlayer   Mode = "pvp"
	ModePlayerVsComputer Mode = "pvc"
)

// ParseMode - accepts "pvp" or "pvc" in any case.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case ModePlayerVsPlayer:
		return ModePlayerVsPlayer, nil
	case ModePlayerVsComputer:
		return ModePlayerVsComputer, nil
	default:
		return "", fmt.Errorf("%w: %q", apperror.ErrUnknownMode, value)
	}
}

type OutcomeKind string

const (
	OutcomeOngoing OutcomeKind = "ongoing"
	OutcomeWin     OutcomeKind = "win"
	OutcomeDraw    OutcomeKind = "draw"
)

// Outcome is the state of a single game: Ongoing, Win(mark) or Draw.
type Outcome struct {
	Kind   OutcomeKind `json:"kind"`
	Winner Mark        `json:"winner,omitempty"`
}

func Ongoing() Outcome {
	return Outcome{Kind: OutcomeOngoing}
}

func Win(mark Mark) Outcome {
	return Outcome{Kind: OutcomeWin, Winner: mark}
}

func Draw() Outcome {
	return Outcome{Kind: OutcomeDraw}
}

// IsTerminal reports whether the game is over.
func (that Outcome) IsTerminal() bool {
	return that.Kind == OutcomeWin || that.Kind == OutcomeDraw
}

func (that Outcome) String() string {
	switch that.Kind {
	case OutcomeWin:
		return fmt.Sprintf("Player %s wins!", that.Winner)
	case OutcomeDraw:
		return "It's a draw!"
	default:
		return "ongoing"
	}
}

// Session is one mode selection: a board that is replayed any number of times.
type Session struct {
	ID                 string    `json:"id"`
	Board              Board     `json:"board"`
	Turn               Mark      `json:"turn"`
	Mode               Mode      `json:"mode"`
	HumanMark          Mark      `json:"human_mark"`
	ComputerMark       Mark      `json:"computer_mark"`
	Active             bool      `json:"active"`
	Counter            int       `json:"counter"`
	ComputerShouldLose bool      `json:"computer_should_lose,omitempty"`
	Outcome            Outcome   `json:"outcome"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (that *Session) IsWithComputer() bool {
	return that.Mode == ModePlayerVsComputer
}

// IsComputerTurn reports whether the computer is expected to move now.
func (that *Session) IsComputerTurn() bool {
	return that.IsWithComputer() && that.Active && that.Turn == that.ComputerMark
}

// IsFinished reports whether the current game reached Win or Draw.
func (that *Session) IsFinished() bool {
	return !that.Active
}

// Public returns a copy fit for clients: whether the computer is going to throw the game stays hidden.
func (that *Session) Public() *Session {
	public := that.Clone()
	public.ComputerShouldLose = false
	return public
}

// Clone returns a copy that shares no memory with the receiver.
func (that *Session) Clone() *Session {
	clone := *that
	return &clone
}
