package tally

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/liveslides/internal/logging"
	"github.com/aretw0/liveslides/pkg/domain"
)

// DefaultFlushInterval is how often buffered messages are applied.
const DefaultFlushInterval = time.Second

// Snapshot is the moderator view of a presentation's responses.
type Snapshot struct {
	Entries []Entry                `json:"entries"`
	Total   int                    `json:"total"`
	Recent  []domain.ResponseEvent `json:"recent"`
}

// Board buffers stream messages and applies them to an Aggregator and a Log
// on a fixed interval, so renderers see at most one update per interval.
type Board struct {
	agg      *Aggregator
	log      *Log
	interval time.Duration
	logger   *slog.Logger
	onFlush  func(Snapshot)

	mu       sync.Mutex
	buf      []json.RawMessage
	watchers map[chan Snapshot]struct{}
}

// BoardOption configures a Board.
type BoardOption func(*Board)

// WithFlushInterval sets the flush interval.
func WithFlushInterval(d time.Duration) BoardOption {
	return func(b *Board) {
		if d > 0 {
			b.interval = d
		}
	}
}

// WithLogSize bounds the recent-events log.
func WithLogSize(n int) BoardOption {
	return func(b *Board) { b.log = NewLog(n) }
}

// WithBoardLogger sets the logger.
func WithBoardLogger(l *slog.Logger) BoardOption {
	return func(b *Board) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithOnFlush registers a callback invoked after each flush that applied messages.
func WithOnFlush(fn func(Snapshot)) BoardOption {
	return func(b *Board) { b.onFlush = fn }
}

// NewBoard creates a board.
func NewBoard(opts ...BoardOption) *Board {
	b := &Board{
		agg:      New(),
		log:      NewLog(DefaultLogSize),
		interval: DefaultFlushInterval,
		logger:   logging.NewNop(),
		watchers: make(map[chan Snapshot]struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Aggregator exposes the underlying counts.
func (b *Board) Aggregator() *Aggregator { return b.agg }

// Push buffers one raw stream message.
func (b *Board) Push(data json.RawMessage) {
	b.mu.Lock()
	b.buf = append(b.buf, data)
	b.mu.Unlock()
}

// Flush applies every buffered message and returns how many were applied.
// Malformed messages are logged and skipped.
func (b *Board) Flush(ctx context.Context) int {
	b.mu.Lock()
	pending := b.buf
	b.buf = nil
	b.mu.Unlock()

	if len(pending) == 0 {
		return 0
	}

	applied := 0
	for _, data := range pending {
		evt, err := Decode(data)
		if err != nil {
			b.logger.WarnContext(ctx, "skipping malformed response event", "error", err)
			continue
		}
		b.agg.Add(evt)
		b.log.Add(evt)
		applied++
	}

	snap := b.Snapshot()
	b.mu.Lock()
	for ch := range b.watchers {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
	b.mu.Unlock()

	if b.onFlush != nil {
		b.onFlush(snap)
	}
	b.logger.DebugContext(ctx, "tally flushed", "applied", applied, "total", snap.Total)
	return applied
}

// Snapshot returns the current view.
func (b *Board) Snapshot() Snapshot {
	return Snapshot{
		Entries: b.agg.Entries(),
		Total:   b.agg.Total(),
		Recent:  b.log.Events(),
	}
}

// Watch delivers the latest snapshot after every flush, starting with the
// current one. The channel is closed when ctx is done.
func (b *Board) Watch(ctx context.Context) <-chan Snapshot {
	ch := make(chan Snapshot, 1)
	ch <- b.Snapshot()

	b.mu.Lock()
	b.watchers[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.watchers, ch)
		close(ch)
		b.mu.Unlock()
	}()
	return ch
}

// Run consumes msgs until ctx is done or msgs is closed, flushing on every
// tick and once more before returning.
func (b *Board) Run(ctx context.Context, msgs <-chan json.RawMessage) error {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.Flush(context.WithoutCancel(ctx))
			return ctx.Err()
		case data, ok := <-msgs:
			if !ok {
				b.Flush(ctx)
				return nil
			}
			b.Push(data)
		case <-ticker.C:
			b.Flush(ctx)
		}
	}
}
