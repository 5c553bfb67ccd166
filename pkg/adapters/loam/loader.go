package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/liveslides/pkg/domain"
	"github.com/aretw0/liveslides/pkg/loader"
	"github.com/aretw0/liveslides/pkg/ports"
	"github.com/aretw0/loam"
)

// Loader adapts a Loam repository to ports.DeckSource and ports.Watchable.
type Loader struct {
	Repo *loam.TypedRepository[DeckMetadata]
}

var (
	_ ports.DeckSource = (*Loader)(nil)
	_ ports.Watchable  = (*Loader)(nil)
)

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[DeckMetadata]) *Loader {
	return &Loader{Repo: repo}
}

// Open initializes a read-only strict Loam repository at dir.
func Open(dir string) (*Loader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[DeckMetadata](repo)), nil
}

// LoadDeck returns the deck published under id (its code or file name).
func (l *Loader) LoadDeck(ctx context.Context, id string) (*domain.Presentation, error) {
	docID, err := l.resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	doc, err := l.Repo.Get(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("%w: loam get failed for %s: %v", domain.ErrPresentationNotFound, id, err)
	}
	return toPresentation(doc.Data)
}

func toPresentation(meta DeckMetadata) (*domain.Presentation, error) {
	return loader.FromMap(map[string]any{
		"title":           meta.Title,
		"analyticsKey":    meta.AnalyticsKey,
		"segmentWriteKey": meta.SegmentWriteKey,
		"slides":          meta.Slides,
	})
}

// ListDecks lists the ids of every deck in the repository.
func (l *Loader) ListDecks(ctx context.Context) ([]string, error) {
	index, err := l.index(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(index))
	for id := range index {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// index maps deck ids to Loam document ids.
func (l *Loader) index(ctx context.Context) (map[string]string, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string, len(docs))
	for _, doc := range docs {
		id := deckID(doc.ID, doc.Data)
		if existing, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: deck '%s' is defined in both '%s' and '%s'", id, existing, doc.ID)
		}
		seen[id] = doc.ID
	}
	return seen, nil
}

func (l *Loader) resolve(ctx context.Context, id string) (string, error) {
	index, err := l.index(ctx)
	if err != nil {
		return "", err
	}
	docID, ok := index[id]
	if !ok {
		docID, ok = index[domain.NormalizeCode(id)]
	}
	if !ok {
		return "", fmt.Errorf("%w: deck %s", domain.ErrPresentationNotFound, id)
	}
	return docID, nil
}

func deckID(docID string, meta DeckMetadata) string {
	if meta.Code != "" {
		return domain.NormalizeCode(meta.Code)
	}
	return trimExtension(docID)
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

// Watch implements ports.Watchable. It emits the deck id of every changed file.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	events, err := l.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				id := trimExtension(evt.ID)
				if doc, err := l.Repo.Get(ctx, evt.ID); err == nil {
					id = deckID(evt.ID, doc.Data)
				}
				select {
				case ch <- id:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}
