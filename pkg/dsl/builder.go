package dsl

import (
	"github.com/aretw0/liveslides/pkg/adapters/memory"
	"github.com/aretw0/liveslides/pkg/domain"
)

// Builder manages the presentation construction. Slides keep the order in
// which they are added.
type Builder struct {
	pres   domain.Presentation
	slides []*SlideBuilder
	index  map[string]*SlideBuilder
}

// New creates a new presentation builder.
func New(title string) *Builder {
	return &Builder{
		pres:  domain.Presentation{Title: title},
		index: make(map[string]*SlideBuilder),
	}
}

// AnalyticsKey sets the analytics write key of the deck.
func (b *Builder) AnalyticsKey(key string) *Builder {
	b.pres.AnalyticsKey = key
	return b
}

// Add creates a slide of the given kind. If the slide already exists, it
// returns the existing builder.
func (b *Builder) Add(id string, kind domain.SlideKind, title string) *SlideBuilder {
	if sb, ok := b.index[id]; ok {
		return sb
	}
	sb := &SlideBuilder{slide: domain.Slide{ID: id, Kind: kind, Title: title}}
	b.slides = append(b.slides, sb)
	b.index[id] = sb
	return sb
}

func (b *Builder) Question(id, title string) *SlideBuilder {
	return b.Add(id, domain.KindQuestion, title)
}

func (b *Builder) Identify(id, title string) *SlideBuilder {
	return b.Add(id, domain.KindIdentify, title)
}

func (b *Builder) DemoCta(id, title string) *SlideBuilder {
	return b.Add(id, domain.KindDemoCta, title)
}

func (b *Builder) Wait(id, title string) *SlideBuilder {
	return b.Add(id, domain.KindWatchPresenter, title)
}

func (b *Builder) Submitted(id, title string) *SlideBuilder {
	return b.Add(id, domain.KindSubmitted, title)
}

func (b *Builder) Ended(id, title string) *SlideBuilder {
	return b.Add(id, domain.KindEnded, title)
}

// Presentation returns the deck without validating it.
func (b *Builder) Presentation() *domain.Presentation {
	p := b.pres
	p.Slides = make([]domain.Slide, 0, len(b.slides))
	for _, sb := range b.slides {
		p.Slides = append(p.Slides, sb.build())
	}
	return &p
}

// Build returns the deck, or a *domain.ValidationError.
func (b *Builder) Build() (*domain.Presentation, error) {
	p := b.Presentation()
	if err := domain.Validate(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Source builds the deck into an in-memory deck source under id, ready for
// catalog.Import or catalog.Sync.
func (b *Builder) Source(id string) (*memory.Decks, error) {
	p, err := b.Build()
	if err != nil {
		return nil, err
	}
	return memory.NewDecks(map[string]*domain.Presentation{id: p}), nil
}
