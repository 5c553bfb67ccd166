package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/liveslides/pkg/domain"
	"github.com/aretw0/liveslides/pkg/ports"
)

// Decks implements ports.DeckSource and ports.Watchable using an in-memory map.
type Decks struct {
	mu       sync.RWMutex
	decks    map[string]*domain.Presentation
	watchers topics[string]
}

var (
	_ ports.DeckSource = (*Decks)(nil)
	_ ports.Watchable  = (*Decks)(nil)
)

// NewDecks creates a deck source from the provided presentations keyed by id.
func NewDecks(decks map[string]*domain.Presentation) *Decks {
	d := &Decks{
		decks:    make(map[string]*domain.Presentation, len(decks)),
		watchers: newTopics[string](),
	}
	for id, p := range decks {
		d.decks[id] = p
	}
	return d
}

// LoadDeck returns the presentation stored under id.
func (d *Decks) LoadDeck(ctx context.Context, id string) (*domain.Presentation, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p, ok := d.decks[id]
	if !ok {
		return nil, fmt.Errorf("%w: deck %s", domain.ErrPresentationNotFound, id)
	}
	cp := *p
	return &cp, nil
}

// ListDecks returns all deck ids in lexical order.
func (d *Decks) ListDecks(ctx context.Context) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ids := make([]string, 0, len(d.decks))
	for id := range d.decks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Put adds or replaces a deck and notifies watchers.
func (d *Decks) Put(id string, p *domain.Presentation) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.decks[id] = p
	d.watchers.publish("", id)
}

// Watch delivers the id of every deck passed to Put.
func (d *Decks) Watch(ctx context.Context) (<-chan string, error) {
	sub := newSubscriber[string]()

	d.mu.Lock()
	d.watchers.add("", sub)
	d.mu.Unlock()

	go sub.run(ctx, func() {
		d.mu.Lock()
		d.watchers.remove("", sub)
		d.mu.Unlock()
	})
	return sub.out, nil
}
