package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/tictactoe-arcade/internal/broker"
	"github.com/rocketscienceinc/tictactoe-arcade/internal/entity"
	"github.com/rocketscienceinc/tictactoe-arcade/internal/repository"
	"github.com/rocketscienceinc/tictactoe-arcade/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-arcade/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type firstFree struct{}

func (firstFree) Intn(int) int { return 0 }

type testClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func newTestServer(t *testing.T) (*usecase.GameManager, *testClient) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := tictactoe.NewEngine(tictactoe.WithRandom(firstFree{}))
	gm := usecase.NewGameManager(logger, engine, repository.NewMemorySessionRepository(), broker.New(logger, 0))

	return gm, startServer(t, logger, gm)
}

func startServer(t *testing.T, logger *slog.Logger, service gameService) *testClient {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv := httptest.NewServer(New(logger, service).Handler(ctx))
	t.Cleanup(srv.Close)

	return dial(t, srv.URL)
}

// unsubscribable starts sessions normally but refuses every subscription.
type unsubscribable struct {
	*usecase.GameManager

	mu      sync.Mutex
	started []string
}

func (that *unsubscribable) startedIDs() []string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return append([]string(nil), that.started...)
}

func (that *unsubscribable) StartRound(ctx context.Context, mode entity.Mode, humanMark entity.Mark) (*entity.Session, error) {
	session, err := that.GameManager.StartRound(ctx, mode, humanMark)
	if err == nil {
		that.mu.Lock()
		that.started = append(that.started, session.ID)
		that.mu.Unlock()
	}

	return session, err
}

func (that *unsubscribable) Subscribe(context.Context, string) (<-chan entity.Event, func(), error) {
	return nil, nil, errors.New("broker unavailable")
}

func dial(t *testing.T, serverURL string) *testClient {
	t.Helper()

	url := "ws" + strings.TrimPrefix(serverURL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })

	return &testClient{t: t, conn: conn}
}

func (that *testClient) send(action string, payload Payload) {
	that.t.Helper()

	raw, err := json.Marshal(payload)
	require.NoError(that.t, err)
	require.NoError(that.t, that.conn.WriteJSON(Message{Action: action, Payload: raw}))
}

// readUntil - reads messages until match accepts one; other messages are skipped.
func (that *testClient) readUntil(match func(action string, payload Payload) bool) Payload {
	that.t.Helper()

	require.NoError(that.t, that.conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	for {
		var message Message
		require.NoError(that.t, that.conn.ReadJSON(&message))

		var payload Payload
		if len(message.Payload) > 0 {
			require.NoError(that.t, json.Unmarshal(message.Payload, &payload))
		}

		if match(message.Action, payload) {
			return payload
		}
	}
}

func (that *testClient) reply(action string) Payload {
	that.t.Helper()

	return that.readUntil(func(got string, _ Payload) bool { return got == action })
}

func cell(n int) *int {
	return &n
}

func TestServer_NewSessionAndTurn(t *testing.T) {
	_, client := newTestServer(t)

	// Given: a player vs computer session
	client.send(actionSessionNew, Payload{Mode: "pvc", HumanMark: "X"})
	created := client.reply(actionSessionNew)
	require.Empty(t, created.Error)
	require.NotNil(t, created.Session)
	assert.Equal(t, entity.ModePlayerVsComputer, created.Session.Mode)
	assert.False(t, created.Session.ComputerShouldLose)

	// When: the human plays the center
	client.send(actionSessionTurn, Payload{SessionID: created.Session.ID, Cell: cell(4)})

	// Then: the computer reply is in the response
	turn := client.reply(actionSessionTurn)
	require.Empty(t, turn.Error)
	assert.Equal(t, entity.PlayerX, turn.Session.Board[4])
	assert.Equal(t, entity.PlayerO, turn.Session.Board[0])
	assert.Equal(t, entity.PlayerX, turn.Session.Turn)
}

func TestServer_ComputerOpensAsX(t *testing.T) {
	_, client := newTestServer(t)

	// Given: a player vs computer session where the human plays O
	client.send(actionSessionNew, Payload{Mode: "pvc", HumanMark: "O"})
	created := client.reply(actionSessionNew)
	require.Empty(t, created.Error)

	// Then: the computer has already opened and the human is to move
	assert.Equal(t, entity.PlayerX, created.Session.Board[0])
	assert.Equal(t, entity.PlayerO, created.Session.Turn)
	id := created.Session.ID

	// When: the human plays until the computer completes the top row
	client.send(actionSessionTurn, Payload{SessionID: id, Cell: cell(4)})
	require.Empty(t, client.reply(actionSessionTurn).Error)
	client.send(actionSessionTurn, Payload{SessionID: id, Cell: cell(7)})
	finished := client.reply(actionSessionTurn)
	require.Empty(t, finished.Error)
	assert.Equal(t, entity.Win(entity.PlayerX), finished.Session.Outcome)

	// And: the game is replayed
	client.send(actionSessionReplay, Payload{SessionID: id})
	replayed := client.reply(actionSessionReplay)

	// Then: the computer opens the new game too
	require.Empty(t, replayed.Error)
	assert.Equal(t, 2, replayed.Session.Counter)
	assert.Equal(t, entity.PlayerX, replayed.Session.Board[0])
	assert.Len(t, replayed.Session.Board.EmptyCells(), 8)
	assert.Equal(t, entity.PlayerO, replayed.Session.Turn)

	client.send(actionSessionTurn, Payload{SessionID: id, Cell: cell(4)})
	assert.Empty(t, client.reply(actionSessionTurn).Error)
}

func TestServer_FailedSubscriptionEndsNewSession(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gm := usecase.NewGameManager(logger, tictactoe.NewEngine(), repository.NewMemorySessionRepository(), broker.New(logger, 0))
	service := &unsubscribable{GameManager: gm}
	client := startServer(t, logger, service)

	// When: the session starts but its events cannot be followed
	client.send(actionSessionNew, Payload{Mode: "pvp"})
	reply := client.reply(actionSessionNew)

	// Then: the client gets an error and the session is not left behind
	assert.Equal(t, "internal server error", reply.Error)
	started := service.startedIDs()
	require.Len(t, started, 1)
	_, err := gm.GetSession(context.Background(), started[0])
	require.Error(t, err)
}

func TestServer_ForwardsEvents(t *testing.T) {
	_, client := newTestServer(t)

	client.send(actionSessionNew, Payload{Mode: "pvp"})
	created := client.reply(actionSessionNew)
	require.NotNil(t, created.Session)

	client.send(actionSessionTurn, Payload{SessionID: created.Session.ID, Cell: cell(2)})

	event := client.readUntil(func(action string, payload Payload) bool {
		return action == actionSessionEvent && payload.Event != nil && payload.Event.Type == entity.EventMarkPlaced
	})

	require.NotNil(t, event.Event.Cell)
	assert.Equal(t, 2, *event.Event.Cell)
	assert.Equal(t, entity.PlayerX, event.Event.Mark)
	assert.Equal(t, created.Session.ID, event.SessionID)
}

func TestServer_Errors(t *testing.T) {
	t.Run("Unknown action", func(t *testing.T) {
		_, client := newTestServer(t)

		client.send("session:dance", Payload{})

		assert.Equal(t, "unknown action", client.reply("session:dance").Error)
	})

	t.Run("Invalid move", func(t *testing.T) {
		_, client := newTestServer(t)

		client.send(actionSessionNew, Payload{Mode: "pvp"})
		created := client.reply(actionSessionNew)

		client.send(actionSessionTurn, Payload{SessionID: created.Session.ID, Cell: cell(42)})

		assert.Contains(t, client.reply(actionSessionTurn).Error, "invalid move")
	})

	t.Run("Missing cell", func(t *testing.T) {
		_, client := newTestServer(t)

		client.send(actionSessionNew, Payload{Mode: "pvp"})
		created := client.reply(actionSessionNew)

		client.send(actionSessionTurn, Payload{SessionID: created.Session.ID})

		assert.Contains(t, client.reply(actionSessionTurn).Error, "cell is required")
	})

	t.Run("Unknown session", func(t *testing.T) {
		_, client := newTestServer(t)

		client.send(actionSessionGet, Payload{SessionID: "missing"})

		assert.Contains(t, client.reply(actionSessionGet).Error, "session not found")
	})

	t.Run("Unknown mode", func(t *testing.T) {
		_, client := newTestServer(t)

		client.send(actionSessionNew, Payload{Mode: "solo"})

		assert.Contains(t, client.reply(actionSessionNew).Error, "unknown game mode")
	})
}

func TestServer_ReplayAndLeave(t *testing.T) {
	gm, client := newTestServer(t)

	client.send(actionSessionNew, Payload{Mode: "pvp"})
	created := client.reply(actionSessionNew)

	client.send(actionSessionReplay, Payload{SessionID: created.Session.ID})
	replayed := client.reply(actionSessionReplay)
	require.Empty(t, replayed.Error)
	assert.Equal(t, 2, replayed.Session.Counter)

	client.send(actionSessionLeave, Payload{SessionID: created.Session.ID})
	left := client.reply(actionSessionLeave)
	require.Empty(t, left.Error)
	assert.Equal(t, created.Session.ID, left.SessionID)

	_, err := gm.GetSession(context.Background(), created.Session.ID)
	require.Error(t, err)
}

func TestServer_DisconnectEndsOwnedSession(t *testing.T) {
	gm, client := newTestServer(t)

	client.send(actionSessionNew, Payload{Mode: "pvp"})
	created := client.reply(actionSessionNew)

	require.NoError(t, client.conn.Close())

	assert.Eventually(t, func() bool {
		_, err := gm.GetSession(context.Background(), created.Session.ID)
		return err != nil
	}, 2*time.Second, 10*time.Millisecond)
}
