package runtime

import (
	"fmt"

	"github.com/aretw0/liveslides/pkg/domain"
)

// Edge is a navigation edge created by a Slide action.
type Edge struct {
	From  string
	To    string
	Label string // option label, empty for slide-level actions
}

// Graph resolves slide identifiers against one loaded presentation.
// It is immutable once built.
type Graph struct {
	presentation *domain.Presentation
	index        map[string]int
}

// NewGraph indexes the slides of p. When ids repeat, the first slide wins,
// matching a front-to-back search of the slide list.
func NewGraph(p *domain.Presentation) *Graph {
	g := &Graph{presentation: p, index: make(map[string]int)}
	if p == nil {
		return g
	}
	for i, s := range p.Slides {
		if _, dup := g.index[s.ID]; !dup {
			g.index[s.ID] = i
		}
	}
	return g
}

// Presentation returns the indexed presentation.
func (g *Graph) Presentation() *domain.Presentation {
	if g == nil {
		return nil
	}
	return g.presentation
}

// Resolve returns the slide definition for id.
func (g *Graph) Resolve(id string) (domain.Slide, error) {
	if g == nil || g.presentation == nil {
		return domain.Slide{}, fmt.Errorf("%w: %q (no presentation loaded)", domain.ErrSlideNotFound, id)
	}
	i, ok := g.index[id]
	if !ok {
		return domain.Slide{}, fmt.Errorf("%w: %q", domain.ErrSlideNotFound, id)
	}
	return g.presentation.Slides[i], nil
}

// Entry returns the first slide of the deck.
func (g *Graph) Entry() (domain.Slide, bool) {
	if g == nil || g.presentation == nil || len(g.presentation.Slides) == 0 {
		return domain.Slide{}, false
	}
	return g.presentation.Slides[0], true
}

// Edges lists every Slide action in document order. Targets are not checked.
func (g *Graph) Edges() []Edge {
	if g == nil || g.presentation == nil {
		return nil
	}
	var edges []Edge
	collect := func(from, label string, actions domain.Actions) {
		for _, a := range actions {
			if sa, ok := a.(domain.SlideAction); ok {
				edges = append(edges, Edge{From: from, To: sa.SlideID, Label: label})
			}
		}
	}
	for _, s := range g.presentation.Slides {
		for _, o := range s.Options {
			collect(s.ID, o.OptionLabel, o.AfterSubmitActions)
		}
		collect(s.ID, "", s.AfterSubmitActions)
	}
	return edges
}

// Next returns the slide that follows id in document order.
func (g *Graph) Next(id string) (domain.Slide, bool) {
	return g.offset(id, 1)
}

// Prev returns the slide that precedes id in document order.
func (g *Graph) Prev(id string) (domain.Slide, bool) {
	return g.offset(id, -1)
}

func (g *Graph) offset(id string, delta int) (domain.Slide, bool) {
	if g == nil || g.presentation == nil {
		return domain.Slide{}, false
	}
	i, ok := g.index[id]
	if !ok {
		return domain.Slide{}, false
	}
	j := i + delta
	if j < 0 || j >= len(g.presentation.Slides) {
		return domain.Slide{}, false
	}
	return g.presentation.Slides[j], true
}
