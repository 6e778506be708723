package broker

import (
	"context"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/tictactoe-arcade/internal/entity"
)

const defaultBufferSize = 16

type subscriber struct {
	ch        chan entity.Event
	done      chan struct{}
	closeOnce sync.Once
}

func newSubscriber(bufferSize int) *subscriber {
	return &subscriber{
		ch:   make(chan entity.Event, bufferSize),
		done: make(chan struct{}),
	}
}

// close - ends delivery and releases the context watcher.
func (that *subscriber) close() {
	that.closeOnce.Do(func() {
		close(that.ch)
		close(that.done)
	})
}

// Broker - fans session events out to subscribers.
// A subscriber whose buffer is full is dropped and its channel closed, so a slow reader never blocks a game.
type Broker struct {
	logger     *slog.Logger
	bufferSize int

	mu   sync.Mutex
	subs map[string]map[*subscriber]struct{}
}

func New(logger *slog.Logger, bufferSize int) *Broker {
	if bufferSize < 1 {
		bufferSize = defaultBufferSize
	}

	return &Broker{
		logger:     logger,
		bufferSize: bufferSize,
		subs:       make(map[string]map[*subscriber]struct{}),
	}
}

// Publish - delivers the event to every subscriber of its session without blocking.
func (that *Broker) Publish(event entity.Event) {
	log := that.logger.With("method", "Publish", "sessionID", event.SessionID, "event", event.Type)

	that.mu.Lock()
	defer that.mu.Unlock()

	set := that.subs[event.SessionID]
	for sub := range set {
		select {
		case sub.ch <- event:
		default:
			log.Warn("dropping slow subscriber")

			delete(set, sub)
			sub.close()
		}
	}

	if len(set) == 0 {
		delete(that.subs, event.SessionID)
	}
}

// Subscribe - registers a subscriber for the session.
// The subscription ends when ctx is done or the returned func is called.
func (that *Broker) Subscribe(ctx context.Context, sessionID string) (<-chan entity.Event, func()) {
	sub := newSubscriber(that.bufferSize)

	that.mu.Lock()
	set, ok := that.subs[sessionID]
	if !ok {
		set = make(map[*subscriber]struct{})
		that.subs[sessionID] = set
	}
	set[sub] = struct{}{}
	that.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			that.mu.Lock()
			defer that.mu.Unlock()

			if set, ok := that.subs[sessionID]; ok {
				delete(set, sub)
				if len(set) == 0 {
					delete(that.subs, sessionID)
				}
			}
			sub.close()
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			unsubscribe()
		case <-sub.done:
		}
	}()

	return sub.ch, unsubscribe
}

// Close - ends every subscription of the session.
func (that *Broker) Close(sessionID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	for sub := range that.subs[sessionID] {
		sub.close()
	}
	delete(that.subs, sessionID)
}

// Subscribers - number of live subscriptions of the session.
func (that *Broker) Subscribers(sessionID string) int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.subs[sessionID])
}
