package entity

import "time"

type EventType string

const (
	EventSessionStarted EventType = "session:started"
	EventBoardReset     EventType = "board:reset"
	EventMarkPlaced     EventType = "mark:placed"
	EventTurnChanged    EventType = "turn:changed"
	EventGameWon        EventType = "game:won"
	EventGameDrawn      EventType = "game:drawn"
	EventSessionClosed  EventType = "session:closed"
)

// Event is a state transition of a session, published after it is stored.
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	Counter   int       `json:"counter"`
	Cell      *int      `json:"cell,omitempty"`
	Mark      Mark      `json:"mark,omitempty"`
	Outcome   *Outcome  `json:"outcome,omitempty"`
	At        time.Time `json:"at"`
}

func NewEvent(eventType EventType, session *Session) Event {
	return Event{
		Type:      eventType,
		SessionID: session.ID,
		Counter:   session.Counter,
		At:        time.Now(),
	}
}

func (that Event) WithCell(cell int, mark Mark) Event {
	that.Cell = &cell
	that.Mark = mark
	return that
}

func (that Event) WithMark(mark Mark) Event {
	that.Mark = mark
	return that
}

func (that Event) WithOutcome(outcome Outcome) Event {
	that.Outcome = &outcome
	return that
}

// IsTerminal reports whether the event ends a game or the session.
func (that Event) IsTerminal() bool {
	switch that.Type {
	case EventGameWon, EventGameDrawn, EventSessionClosed:
		return true
	default:
		return false
	}
}
