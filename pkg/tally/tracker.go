package tally

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/liveslides/internal/logging"
	"github.com/aretw0/liveslides/pkg/domain"
	"github.com/aretw0/liveslides/pkg/ports"
)

// Tracker keeps one Board per presentation, each following the
// presentation's response stream from its first message.
type Tracker struct {
	ctx     context.Context
	streams ports.StreamStore
	opts    []BoardOption
	logger  *slog.Logger
	onVotes func(code string, n int)

	mu     sync.Mutex
	boards map[string]*Board
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithBoardOptions applies opts to every board.
func WithBoardOptions(opts ...BoardOption) TrackerOption {
	return func(t *Tracker) { t.opts = append(t.opts, opts...) }
}

// WithTrackerLogger sets the logger.
func WithTrackerLogger(l *slog.Logger) TrackerOption {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithVoteCounter registers a callback receiving the number of newly counted
// Tally events per flush.
func WithVoteCounter(fn func(code string, n int)) TrackerOption {
	return func(t *Tracker) { t.onVotes = fn }
}

// NewTracker creates a tracker. Boards stop when ctx is done.
func NewTracker(ctx context.Context, streams ports.StreamStore, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		ctx:     ctx,
		streams: streams,
		logger:  logging.NewNop(),
		boards:  make(map[string]*Board),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Board returns the board of code, starting it on first use.
func (t *Tracker) Board(code string) (*Board, error) {
	code = domain.NormalizeCode(code)

	t.mu.Lock()
	defer t.mu.Unlock()
	if b, ok := t.boards[code]; ok {
		return b, nil
	}

	msgs, err := t.streams.SubscribeStream(t.ctx, domain.StreamName(code), true)
	if err != nil {
		return nil, err
	}

	logger := t.logger.With("code", code)
	opts := append([]BoardOption{WithBoardLogger(logger)}, t.opts...)
	if t.onVotes != nil {
		last := 0
		opts = append(opts, WithOnFlush(func(s Snapshot) {
			t.onVotes(code, s.Total-last)
			last = s.Total
		}))
	}
	b := NewBoard(opts...)
	t.boards[code] = b

	go func() {
		if err := b.Run(t.ctx, msgs); err != nil && t.ctx.Err() == nil {
			logger.WarnContext(t.ctx, "tally board stopped", "error", err)
		}
	}()
	logger.DebugContext(t.ctx, "tally board started")
	return b, nil
}

// Codes lists the presentations with a running board.
func (t *Tracker) Codes() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	codes := make([]string, 0, len(t.boards))
	for c := range t.boards {
		codes = append(codes, c)
	}
	return codes
}
