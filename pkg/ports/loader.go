package ports

import (
	"context"

	"github.com/aretw0/liveslides/pkg/domain"
)

// DeckSource is a read-only source of presentation definitions, keyed by deck id.
type DeckSource interface {
	// LoadDeck returns the presentation stored under id.
	LoadDeck(ctx context.Context, id string) (*domain.Presentation, error)

	// ListDecks returns the ids of every deck in the source.
	ListDecks(ctx context.Context) ([]string, error)
}

// Watchable is implemented by sources that can notify about backend changes.
type Watchable interface {
	// Watch returns a channel that receives the id of each changed deck.
	Watch(ctx context.Context) (<-chan string, error)
}
