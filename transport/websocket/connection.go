package websocket

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// connection - a client socket. gorilla allows one concurrent writer, so every write takes mu.
type connection struct {
	conn *websocket.Conn

	mu sync.Mutex

	subMu       sync.Mutex
	sessionID   string
	unsubscribe func()
	ownedID     string
}

func newConnection(conn *websocket.Conn) *connection {
	return &connection{conn: conn}
}

func (that *connection) send(action string, payload Payload) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if err = that.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err = that.conn.WriteJSON(Message{Action: action, Payload: payloadBytes}); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

// follow - replaces the current subscription. Returns false when already following sessionID.
func (that *connection) follow(sessionID string, unsubscribe func()) bool {
	that.subMu.Lock()
	defer that.subMu.Unlock()

	if that.sessionID == sessionID {
		return false
	}

	if that.unsubscribe != nil {
		that.unsubscribe()
	}

	that.sessionID = sessionID
	that.unsubscribe = unsubscribe

	return true
}

func (that *connection) following() string {
	that.subMu.Lock()
	defer that.subMu.Unlock()

	return that.sessionID
}

func (that *connection) own(sessionID string) {
	that.subMu.Lock()
	defer that.subMu.Unlock()

	that.ownedID = sessionID
}

func (that *connection) owned() string {
	that.subMu.Lock()
	defer that.subMu.Unlock()

	return that.ownedID
}

func (that *connection) close() {
	that.subMu.Lock()
	if that.unsubscribe != nil {
		that.unsubscribe()
		that.unsubscribe = nil
	}
	that.sessionID = ""
	that.subMu.Unlock()

	_ = that.conn.Close()
}
