// Package analytics provides ports.Analytics sinks: a structured-log sink,
// a Segment HTTP sink and an in-memory recorder for tests.
package analytics

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/liveslides/pkg/ports"
)

// Log writes analytics calls to a structured logger.
type Log struct {
	logger *slog.Logger
}

var _ ports.Analytics = (*Log)(nil)

// NewLog creates a log sink.
func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Track(ctx context.Context, event string, properties map[string]any) error {
	l.logger.InfoContext(ctx, "analytics track", "event", event, "properties", properties)
	return nil
}

func (l *Log) Identify(ctx context.Context, userID string, properties map[string]any) error {
	l.logger.InfoContext(ctx, "analytics identify", "user_id", userID, "properties", properties)
	return nil
}

// Call is one recorded analytics call.
type Call struct {
	Method     string // "track" or "identify"
	Name       string // event name or user id
	Properties map[string]any
}

// Recorder keeps every call in memory. An optional Err is returned from every call.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
	Err   error
}

var _ ports.Analytics = (*Recorder)(nil)

func (r *Recorder) Track(ctx context.Context, event string, properties map[string]any) error {
	r.record(Call{Method: "track", Name: event, Properties: properties})
	return r.Err
}

func (r *Recorder) Identify(ctx context.Context, userID string, properties map[string]any) error {
	r.record(Call{Method: "identify", Name: userID, Properties: properties})
	return r.Err
}

func (r *Recorder) record(c Call) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Select returns the configured sink for a presentation: Segment when a write
// key is available, the log sink otherwise.
func Select(writeKey string, logger *slog.Logger, opts ...SegmentOption) ports.Analytics {
	if writeKey == "" {
		return NewLog(logger)
	}
	return NewSegment(writeKey, opts...)
}
