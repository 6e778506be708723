// Package tui is the terminal front-end: menus, the board and the end-of-game popup.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rocketscienceinc/tictactoe-arcade/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-arcade/internal/entity"
)

type gameService interface {
	StartGame(ctx context.Context, mode entity.Mode, humanMark entity.Mark) (*entity.Session, error)
	MakeTurn(ctx context.Context, id string, cell int) (*entity.Session, error)
	ComputerTurn(ctx context.Context, id string) (*entity.Session, error)
	Replay(ctx context.Context, id string) (*entity.Session, error)
	EndGame(ctx context.Context, id string) error
	Subscribe(ctx context.Context, id string) (<-chan entity.Event, func(), error)
}

// Screen is the part of the UI that currently takes input.
type Screen int

const (
	ScreenMenu Screen = iota
	ScreenSetup
	ScreenBoard
	ScreenPopup
)

const (
	menuStart = iota
	menuExit
)

const (
	setupPlayerVsPlayer = iota
	setupPlayerVsComputer
	setupMark
	setupBack
)

const (
	popupRetry = iota
	popupExit
)

var (
	menuItems  = []string{"Start", "Exit"}
	popupItems = []string{"Retry", "Exit"}
)

// Model is the Bubble Tea model of the whole game.
type Model struct {
	ctx           context.Context
	logger        *slog.Logger
	games         gameService
	computerDelay time.Duration
	bell          io.Writer

	screen    Screen
	menuIdx   int
	setupIdx  int
	popupIdx  int
	humanMark entity.Mark

	session     *entity.Session
	cursor      int
	status      string
	popup       string
	lastEvent   string
	events      <-chan entity.Event
	unsubscribe func()

	err      error
	quitting bool
}

type computerMoveMsg struct {
	sessionID string
	counter   int
}

type eventMsg struct {
	event  entity.Event
	source <-chan entity.Event
}

type eventsClosedMsg struct {
	source <-chan entity.Event
}

// New - bell receives a BEL byte on every move and outcome; pass io.Discard to stay quiet.
func New(ctx context.Context, logger *slog.Logger, games gameService, computerDelay time.Duration, bell io.Writer) Model {
	if bell == nil {
		bell = io.Discard
	}

	return Model{
		ctx:           ctx,
		logger:        logger,
		games:         games,
		computerDelay: computerDelay,
		bell:          bell,
		screen:        ScreenMenu,
		humanMark:     entity.PlayerX,
		cursor:        4,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.SetWindowTitle("Tic-Tac-Toe")
}

// Screen reports which screen is shown.
func (m Model) Screen() Screen {
	return m.screen
}

// Session returns the session on the board, nil outside of a game.
func (m Model) Session() *entity.Session {
	return m.session
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}

		switch m.screen {
		case ScreenMenu:
			return m.updateMenu(msg)
		case ScreenSetup:
			return m.updateSetup(msg)
		case ScreenBoard:
			return m.updateBoard(msg)
		case ScreenPopup:
			return m.updatePopup(msg)
		}

	case computerMoveMsg:
		return m.computerMove(msg)

	case eventMsg:
		return m.handleEvent(msg)

	case eventsClosedMsg:
		if msg.source == m.events {
			m.events = nil
		}
	}

	return m, nil
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.menuIdx = wrap(m.menuIdx-1, len(menuItems))
	case "down", "j", "tab":
		m.menuIdx = wrap(m.menuIdx+1, len(menuItems))
	case "q", "esc":
		return m.quit()
	case "enter", " ":
		if m.menuIdx == menuExit {
			return m.quit()
		}

		m.screen = ScreenSetup
		m.setupIdx = setupPlayerVsPlayer
		m.err = nil
	}

	return m, nil
}

func (m Model) updateSetup(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.setupIdx = wrap(m.setupIdx-1, setupBack+1)
	case "down", "j", "tab":
		m.setupIdx = wrap(m.setupIdx+1, setupBack+1)
	case "left", "right", "x", "o":
		if m.setupIdx == setupMark || msg.String() == "x" || msg.String() == "o" {
			m.humanMark = toggledMark(m.humanMark, msg.String())
		}
	case "esc":
		m.screen = ScreenMenu
	case "enter", " ":
		switch m.setupIdx {
		case setupPlayerVsPlayer:
			return m.startGame(entity.ModePlayerVsPlayer)
		case setupPlayerVsComputer:
			return m.startGame(entity.ModePlayerVsComputer)
		case setupMark:
			m.humanMark = m.humanMark.Opponent()
		case setupBack:
			m.screen = ScreenMenu
		}
	}

	return m, nil
}

func (m Model) updateBoard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch key {
	case "up", "k":
		m.cursor = moveCursor(m.cursor, -3)
	case "down", "j":
		m.cursor = moveCursor(m.cursor, 3)
	case "left", "h":
		if m.cursor%3 > 0 {
			m.cursor--
		}
	case "right", "l":
		if m.cursor%3 < 2 {
			m.cursor++
		}
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		m.cursor = int(key[0] - '1')
	case "enter", " ":
		return m.humanMove()
	case "esc", "q":
		return m.leaveGame()
	}

	return m, nil
}

func (m Model) updatePopup(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "left", "right", "up", "down", "tab", "h", "l":
		m.popupIdx = wrap(m.popupIdx+1, len(popupItems))
	case "r":
		return m.retry()
	case "esc", "q":
		return m.leaveGame()
	case "enter", " ":
		if m.popupIdx == popupRetry {
			return m.retry()
		}

		return m.leaveGame()
	}

	return m, nil
}

func (m Model) startGame(mode entity.Mode) (tea.Model, tea.Cmd) {
	session, err := m.games.StartGame(m.ctx, mode, m.humanMark)
	if err != nil {
		m.err = err
		return m, nil
	}

	events, unsubscribe, err := m.games.Subscribe(m.ctx, session.ID)
	if err != nil {
		m.err = err
		return m, nil
	}

	m.session = session
	m.events = events
	m.unsubscribe = unsubscribe
	m.screen = ScreenBoard
	m.cursor = 4
	m.lastEvent = ""
	m.err = nil
	m.status = turnStatus(session)

	return m, tea.Batch(waitForEvent(events), m.scheduleComputer())
}

func (m Model) humanMove() (tea.Model, tea.Cmd) {
	if m.session == nil || m.session.IsFinished() || m.session.IsComputerTurn() {
		return m, nil
	}

	session, err := m.games.MakeTurn(m.ctx, m.session.ID, m.cursor)
	if errors.Is(err, apperror.ErrInvalidMove) {
		m.err = fmt.Errorf("cell %d is taken", m.cursor+1)
		return m, nil
	}

	if err != nil {
		m.err = err
		return m, nil
	}

	m.err = nil

	return m.apply(session)
}

func (m Model) computerMove(msg computerMoveMsg) (tea.Model, tea.Cmd) {
	if m.session == nil || m.session.ID != msg.sessionID || m.session.Counter != msg.counter {
		return m, nil
	}

	if !m.session.IsComputerTurn() {
		return m, nil
	}

	session, err := m.games.ComputerTurn(m.ctx, m.session.ID)
	if err != nil {
		m.logger.Error("computer failed to move", "sessionID", msg.sessionID, "error", err)
		m.err = err
		return m, nil
	}

	return m.apply(session)
}

func (m Model) retry() (tea.Model, tea.Cmd) {
	session, err := m.games.Replay(m.ctx, m.session.ID)
	if err != nil {
		m.err = err
		return m, nil
	}

	m.screen = ScreenBoard
	m.popup = ""
	m.popupIdx = popupRetry
	m.cursor = 4
	m.lastEvent = ""

	return m.apply(session)
}

// leaveGame - discards the session and goes back to the main menu.
func (m Model) leaveGame() (tea.Model, tea.Cmd) {
	m = m.endSession()
	m.screen = ScreenMenu
	m.menuIdx = menuStart

	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m = m.endSession()
	m.quitting = true

	return m, tea.Quit
}

func (m Model) endSession() Model {
	if m.session == nil {
		return m
	}

	if err := m.games.EndGame(m.ctx, m.session.ID); err != nil && !errors.Is(err, apperror.ErrSessionNotFound) {
		m.logger.Error("failed to end session", "sessionID", m.session.ID, "error", err)
	}

	if m.unsubscribe != nil {
		m.unsubscribe()
	}

	m.session = nil
	m.events = nil
	m.unsubscribe = nil
	m.popup = ""
	m.status = ""
	m.lastEvent = ""

	return m
}

func (m Model) apply(session *entity.Session) (tea.Model, tea.Cmd) {
	m.session = session
	m.status = turnStatus(session)

	if session.Outcome.IsTerminal() {
		m.screen = ScreenPopup
		m.popup = session.Outcome.String()
		m.popupIdx = popupRetry
		return m, nil
	}

	return m, m.scheduleComputer()
}

// scheduleComputer - the computer answers after a short pause so its move is visible.
func (m Model) scheduleComputer() tea.Cmd {
	if m.session == nil || !m.session.IsComputerTurn() {
		return nil
	}

	msg := computerMoveMsg{sessionID: m.session.ID, counter: m.session.Counter}

	return tea.Tick(m.computerDelay, func(time.Time) tea.Msg {
		return msg
	})
}

func (m Model) handleEvent(msg eventMsg) (tea.Model, tea.Cmd) {
	if msg.source != m.events {
		return m, nil
	}

	event := msg.event

	switch event.Type {
	case entity.EventMarkPlaced:
		if event.Cell != nil {
			m.lastEvent = fmt.Sprintf("%s took cell %d", event.Mark, *event.Cell+1)
		}
		m.ring()
	case entity.EventGameWon, entity.EventGameDrawn:
		if event.Outcome != nil {
			m.lastEvent = event.Outcome.String()
		}
		m.ring()
	case entity.EventBoardReset:
		m.lastEvent = fmt.Sprintf("Game %d", event.Counter)
	}

	return m, waitForEvent(m.events)
}

func (m Model) ring() {
	if _, err := m.bell.Write([]byte("\a")); err != nil {
		m.logger.Debug("failed to ring bell", "error", err)
	}
}

func waitForEvent(events <-chan entity.Event) tea.Cmd {
	if events == nil {
		return nil
	}

	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return eventsClosedMsg{source: events}
		}

		return eventMsg{event: event, source: events}
	}
}

func turnStatus(session *entity.Session) string {
	switch {
	case session.Outcome.IsTerminal():
		return session.Outcome.String()
	case session.IsComputerTurn():
		return "Computer's turn"
	default:
		return fmt.Sprintf("Player %s's turn", session.Turn)
	}
}

func toggledMark(current entity.Mark, key string) entity.Mark {
	switch key {
	case "x":
		return entity.PlayerX
	case "o":
		return entity.PlayerO
	default:
		return current.Opponent()
	}
}

func moveCursor(cursor, delta int) int {
	next := cursor + delta
	if !entity.IsValidCell(next) {
		return cursor
	}

	return next
}

func wrap(index, size int) int {
	return (index%size + size) % size
}
