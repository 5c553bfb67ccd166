// Package tally aggregates response events into a live frequency table.
//
// Counts only ever grow: there is no retraction and no de-duplication, so
// under at-least-once delivery a count is an upper bound on distinct voters.
package tally

import (
	"encoding/json"
	"fmt"
	"math"
	"sync"

	"github.com/aretw0/liveslides/pkg/domain"
)

const (
	// OtherLabel is counted for Tally events with an empty answer.
	OtherLabel = "Other"
	// PlaceholderLabel is the single entry shown while nothing was counted.
	PlaceholderLabel = "TBD"
)

// Entry is one row of the derived view.
type Entry struct {
	Label   string  `json:"label"`
	Value   int     `json:"value"`
	Percent float64 `json:"percent"`
}

// Aggregator counts Tally answers. Safe for concurrent use.
type Aggregator struct {
	mu     sync.RWMutex
	counts map[string]int
	order  []string
	total  int
}

// New creates an empty aggregator.
func New() *Aggregator {
	return &Aggregator{counts: make(map[string]int)}
}

// Add counts evt when it is a Tally event and reports whether it did.
func (a *Aggregator) Add(evt domain.ResponseEvent) bool {
	if evt.Type != domain.ActionTally {
		return false
	}
	label := evt.Answer
	if label == "" {
		label = OtherLabel
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, seen := a.counts[label]; !seen {
		a.order = append(a.order, label)
	}
	a.counts[label]++
	a.total++
	return true
}

// Consume decodes one stream message and adds it.
func (a *Aggregator) Consume(data []byte) (bool, error) {
	evt, err := Decode(data)
	if err != nil {
		return false, err
	}
	return a.Add(evt), nil
}

// Decode parses a stream message into a response event.
func Decode(data []byte) (domain.ResponseEvent, error) {
	var evt domain.ResponseEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return domain.ResponseEvent{}, fmt.Errorf("decode response event: %w", err)
	}
	return evt, nil
}

// Count returns the count for label.
func (a *Aggregator) Count(label string) int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.counts[label]
}

// Total returns the number of counted events.
func (a *Aggregator) Total() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.total
}

// Counts returns a copy of the frequency table.
func (a *Aggregator) Counts() map[string]int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[string]int, len(a.counts))
	for k, v := range a.counts {
		out[k] = v
	}
	return out
}

// Entries returns the table in first-seen order with percentages rounded to
// one decimal. An empty table yields a single PlaceholderLabel entry.
func (a *Aggregator) Entries() []Entry {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.total == 0 {
		return []Entry{{Label: PlaceholderLabel}}
	}
	out := make([]Entry, 0, len(a.order))
	for _, label := range a.order {
		v := a.counts[label]
		out = append(out, Entry{Label: label, Value: v, Percent: Percent(v, a.total)})
	}
	return out
}

// Reset clears every count.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counts = make(map[string]int)
	a.order = nil
	a.total = 0
}

// Percent returns value/total as a percentage with one decimal, 0 when total is 0.
func Percent(value, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(value)*1000/float64(total)) / 10
}
