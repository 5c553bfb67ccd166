package tally

import (
	"sync"

	"github.com/aretw0/liveslides/pkg/domain"
)

// DefaultLogSize bounds the event log when no limit is given.
const DefaultLogSize = 100

// Log keeps the most recent response events, newest first.
type Log struct {
	mu     sync.Mutex
	events []domain.ResponseEvent
	limit  int
}

// NewLog creates a log holding at most limit events.
func NewLog(limit int) *Log {
	if limit <= 0 {
		limit = DefaultLogSize
	}
	return &Log{limit: limit}
}

// Add records evt as the newest entry, dropping the oldest beyond the limit.
func (l *Log) Add(evt domain.ResponseEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append([]domain.ResponseEvent{evt}, l.events...)
	if len(l.events) > l.limit {
		l.events = l.events[:l.limit]
	}
}

// Events returns a copy of the log, newest first.
func (l *Log) Events() []domain.ResponseEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.ResponseEvent(nil), l.events...)
}

// Len returns the number of kept events.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}
