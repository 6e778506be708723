package tui

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rocketscienceinc/tictactoe-arcade/internal/broker"
	"github.com/rocketscienceinc/tictactoe-arcade/internal/entity"
	"github.com/rocketscienceinc/tictactoe-arcade/internal/repository"
	"github.com/rocketscienceinc/tictactoe-arcade/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-arcade/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedRandom never throws a game and picks the second free cell.
type fixedRandom struct{}

func (fixedRandom) Intn(n int) int { return 1 % n }

func newTestModel(t *testing.T) (Model, *usecase.GameManager, *bytes.Buffer) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := tictactoe.NewEngine(tictactoe.WithRandom(fixedRandom{}))
	gm := usecase.NewGameManager(logger, engine, repository.NewMemorySessionRepository(), broker.New(logger, 0))
	bell := &bytes.Buffer{}

	return New(context.Background(), logger, gm, 0, bell), gm, bell
}

func key(name string) tea.KeyMsg {
	switch name {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(name)}
	}
}

func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()

	var cmd tea.Cmd
	for _, name := range keys {
		var next tea.Model
		next, cmd = m.Update(key(name))

		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}

	return m, cmd
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()

	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)

	return model, cmd
}

func place(t *testing.T, m Model, cells ...string) Model {
	t.Helper()

	for _, cell := range cells {
		m, _ = press(t, m, cell, "enter")
	}

	return m
}

func TestModel_Menu(t *testing.T) {
	t.Run("Exit quits", func(t *testing.T) {
		m, _, _ := newTestModel(t)

		m, cmd := press(t, m, "down", "enter")

		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
		assert.Equal(t, "Goodbye!\n", m.View())
	})

	t.Run("Start opens setup and back returns", func(t *testing.T) {
		m, _, _ := newTestModel(t)

		m, _ = press(t, m, "enter")
		assert.Equal(t, ScreenSetup, m.Screen())
		assert.Contains(t, m.View(), "Player vs Computer")

		m, _ = press(t, m, "up", "enter")
		assert.Equal(t, ScreenMenu, m.Screen())
	})

	t.Run("Mark toggle", func(t *testing.T) {
		m, _, _ := newTestModel(t)

		m, _ = press(t, m, "enter", "down", "down", "enter")
		assert.Contains(t, m.View(), "Play as: O")

		m, _ = press(t, m, "x")
		assert.Contains(t, m.View(), "Play as: X")
	})
}

func TestModel_PlayerVsPlayer(t *testing.T) {
	m, gm, _ := newTestModel(t)

	// Given: a player vs player game
	m, _ = press(t, m, "enter", "enter")
	require.Equal(t, ScreenBoard, m.Screen())
	assert.Contains(t, m.View(), "Player X's turn")

	// When: X completes the top row
	m = place(t, m, "1", "4", "2", "5", "3")

	// Then: the popup announces the winner
	require.Equal(t, ScreenPopup, m.Screen())
	assert.Contains(t, m.View(), "Player X wins!")
	assert.Contains(t, m.View(), "Retry")

	// When: Retry is chosen
	m, _ = press(t, m, "enter")

	// Then: a fresh game starts within the same session
	require.Equal(t, ScreenBoard, m.Screen())
	assert.Equal(t, 2, m.Session().Counter)
	assert.Equal(t, entity.Board{}, m.Session().Board)

	// When: the player leaves to the menu
	sessionID := m.Session().ID
	m, _ = press(t, m, "esc")

	// Then: the session is discarded
	assert.Equal(t, ScreenMenu, m.Screen())
	assert.Nil(t, m.Session())
	_, err := gm.GetSession(context.Background(), sessionID)
	require.Error(t, err)
}

func TestModel_Draw(t *testing.T) {
	m, _, _ := newTestModel(t)

	m, _ = press(t, m, "enter", "enter")
	m = place(t, m, "1", "2", "3", "5", "4", "6", "8", "7", "9")

	require.Equal(t, ScreenPopup, m.Screen())
	assert.Contains(t, m.View(), "It's a draw!")

	// Exit from the popup goes back to the menu
	m, _ = press(t, m, "right", "enter")
	assert.Equal(t, ScreenMenu, m.Screen())
}

func TestModel_OccupiedCell(t *testing.T) {
	m, _, _ := newTestModel(t)

	m, _ = press(t, m, "enter", "enter")
	m = place(t, m, "5", "5")

	assert.Contains(t, m.View(), "cell 5 is taken")
	assert.Equal(t, entity.PlayerO, m.Session().Turn)
}

func TestModel_PlayerVsComputer(t *testing.T) {
	t.Run("Computer replies after the delay", func(t *testing.T) {
		m, _, _ := newTestModel(t)

		m, _ = press(t, m, "enter", "down", "enter")
		require.Equal(t, ScreenBoard, m.Screen())

		// When: the human takes the corner
		m, cmd := press(t, m, "1", "enter")

		// Then: the computer's reply is scheduled
		require.NotNil(t, cmd)
		assert.Contains(t, m.View(), "Computer's turn")

		m, _ = update(t, m, computerMoveMsg{sessionID: m.Session().ID, counter: m.Session().Counter})

		assert.Equal(t, entity.PlayerO, m.Session().Board[2])
		assert.Contains(t, m.View(), "Player X's turn")
	})

	t.Run("Computer opens as X", func(t *testing.T) {
		m, _, _ := newTestModel(t)

		// Given: the human plays O
		m, _ = press(t, m, "enter", "o", "down", "enter")
		require.Equal(t, ScreenBoard, m.Screen())
		require.True(t, m.Session().IsComputerTurn())

		// When: the human tries to move first
		m, _ = press(t, m, "enter")

		// Then: nothing is placed until the computer has moved
		assert.Len(t, m.Session().Board.EmptyCells(), 9)

		m, _ = update(t, m, computerMoveMsg{sessionID: m.Session().ID, counter: m.Session().Counter})
		assert.Len(t, m.Session().Board.EmptyCells(), 8)
		assert.Contains(t, m.View(), "Player O's turn")
	})

	t.Run("Stale computer move is ignored", func(t *testing.T) {
		m, _, _ := newTestModel(t)

		m, _ = press(t, m, "enter", "o", "down", "enter")

		m, _ = update(t, m, computerMoveMsg{sessionID: m.Session().ID, counter: m.Session().Counter + 1})

		assert.Len(t, m.Session().Board.EmptyCells(), 9)
	})
}

func TestModel_Events(t *testing.T) {
	m, _, bell := newTestModel(t)

	m, _ = press(t, m, "enter", "enter")
	m = place(t, m, "5")

	// When: the placed-mark event arrives
	msg := waitForEvent(m.events)()
	m, cmd := update(t, m, msg)

	// Then: feedback is shown and the bell rings
	assert.Contains(t, m.View(), "X took cell 5")
	assert.Equal(t, "\a", bell.String())
	assert.NotNil(t, cmd)

	// And: a stale event source is ignored
	m, cmd = update(t, m, eventMsg{event: entity.Event{Type: entity.EventMarkPlaced}, source: make(chan entity.Event)})
	assert.Nil(t, cmd)
	assert.Equal(t, "\a", bell.String())
}
