package catalog

import (
	"context"
	"fmt"

	"github.com/aretw0/liveslides/pkg/domain"
	"github.com/aretw0/liveslides/pkg/ports"
)

// Import copies deck id from src into the catalog. The deck id is used as
// the join code.
func (c *Catalog) Import(ctx context.Context, src ports.DeckSource, id string) (string, error) {
	code := domain.NormalizeCode(id)
	if !domain.ValidCode(code) {
		return "", fmt.Errorf("%w: deck id %q is not a join code", domain.ErrInvalidCode, id)
	}
	p, err := src.LoadDeck(ctx, id)
	if err != nil {
		return "", err
	}
	return code, c.Put(ctx, code, p)
}

// Sync imports every deck of src. Decks that fail are logged and reported in
// the returned count of failures.
func (c *Catalog) Sync(ctx context.Context, src ports.DeckSource) (imported []string, failed int, err error) {
	ids, err := src.ListDecks(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list decks: %w", err)
	}
	for _, id := range ids {
		code, err := c.Import(ctx, src, id)
		if err != nil {
			failed++
			c.logger.WarnContext(ctx, "deck not imported", "deck", id, "error", err)
			continue
		}
		imported = append(imported, code)
	}
	return imported, failed, nil
}

// Follow re-imports decks as src reports changes, until ctx is done.
// It returns once the watch is established.
func (c *Catalog) Follow(ctx context.Context, src ports.DeckSource, w ports.Watchable) error {
	changes, err := w.Watch(ctx)
	if err != nil {
		return err
	}
	go func() {
		for id := range changes {
			code, err := c.Import(ctx, src, id)
			if err != nil {
				c.logger.WarnContext(ctx, "hot reload failed", "deck", id, "error", err)
				continue
			}
			c.logger.InfoContext(ctx, "deck reloaded", "code", code)
		}
	}()
	return nil
}
