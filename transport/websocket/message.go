package websocket

import (
	"encoding/json"

	"github.com/rocketscienceinc/tictactoe-arcade/internal/entity"
)

const (
	actionSessionNew    = "session:new"
	actionSessionGet    = "session:get"
	actionSessionTurn   = "session:turn"
	actionSessionReplay = "session:replay"
	actionSessionLeave  = "session:leave"
	actionSessionEvent  = "session:event"
	actionError         = "error"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Payload struct {
	SessionID string          `json:"session_id,omitempty"`
	Mode      string          `json:"mode,omitempty"`
	HumanMark string          `json:"human_mark,omitempty"`
	Cell      *int            `json:"cell,omitempty"`
	Session   *entity.Session `json:"session,omitempty"`
	Event     *entity.Event   `json:"event,omitempty"`
	Error     string          `json:"error,omitempty"`
}
