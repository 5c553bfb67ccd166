package http

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/liveslides/internal/logging"
)

// Event names pushed to subscribers.
const (
	EventState = "state"
	EventTally = "tally"
)

// Event is one message relayed to SSE and WebSocket clients.
type Event struct {
	Name string
	Data []byte
}

// SourceFunc opens the upstream feed of a presentation. The channel must be
// closed when ctx is canceled.
type SourceFunc func(ctx context.Context, code string) (<-chan Event, error)

// StreamManager fans the events of a presentation out to its connected
// clients. One upstream feed runs per code while it has subscribers.
type StreamManager struct {
	source SourceFunc
	logger *slog.Logger

	mu          sync.RWMutex
	subscribers map[string]map[chan Event]struct{}
	pumps       map[string]context.CancelFunc
}

// NewStreamManager creates a manager reading from source.
func NewStreamManager(source SourceFunc, logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		source:      source,
		logger:      logger,
		subscribers: make(map[string]map[chan Event]struct{}),
		pumps:       make(map[string]context.CancelFunc),
	}
}

// Subscribe registers a client of code. The returned cancel func must be
// called once; it closes the channel.
func (sm *StreamManager) Subscribe(code string) (<-chan Event, func(), error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, ok := sm.pumps[code]; !ok {
		ctx, cancel := context.WithCancel(context.Background())
		feed, err := sm.source(ctx, code)
		if err != nil {
			cancel()
			return nil, nil, err
		}
		sm.pumps[code] = cancel
		go sm.pump(code, feed)
	}

	ch := make(chan Event, 16)
	if _, ok := sm.subscribers[code]; !ok {
		sm.subscribers[code] = make(map[chan Event]struct{})
	}
	sm.subscribers[code][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		subs, ok := sm.subscribers[code]
		if !ok {
			return
		}
		if _, ok := subs[ch]; !ok {
			return
		}
		delete(subs, ch)
		close(ch)
		if len(subs) == 0 {
			delete(sm.subscribers, code)
			if stop, ok := sm.pumps[code]; ok {
				stop()
				delete(sm.pumps, code)
			}
		}
	}, nil
}

// Subscribers returns the number of clients of code.
func (sm *StreamManager) Subscribers(code string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[code])
}

func (sm *StreamManager) pump(code string, feed <-chan Event) {
	for evt := range feed {
		sm.Broadcast(code, evt)
	}
}

// Broadcast delivers evt to every client of code. Slow clients miss events.
func (sm *StreamManager) Broadcast(code string, evt Event) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[code] {
		select {
		case ch <- evt:
		default:
			sm.logger.Warn("client buffer full, dropping event", "code", code, "event", evt.Name)
		}
	}
}
