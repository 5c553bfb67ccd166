package runtime

import (
	"testing"

	"github.com/aretw0/liveslides/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraph_Resolve(t *testing.T) {
	g := NewGraph(scenarioDeck())

	s, err := g.Resolve("END")
	require.NoError(t, err)
	assert.Equal(t, domain.KindEnded, s.Kind)

	_, err = g.Resolve("NOPE")
	assert.ErrorIs(t, err, domain.ErrSlideNotFound)
}

func TestGraph_NoPresentation(t *testing.T) {
	var g *Graph
	_, err := g.Resolve("Q1")
	assert.ErrorIs(t, err, domain.ErrSlideNotFound)

	_, err = NewGraph(nil).Resolve("Q1")
	assert.ErrorIs(t, err, domain.ErrSlideNotFound)
	assert.Nil(t, g.Edges())
}

func TestGraph_DuplicateIDsFirstWins(t *testing.T) {
	p := &domain.Presentation{Slides: []domain.Slide{
		{ID: "A", Kind: domain.KindQuestion},
		{ID: "A", Kind: domain.KindEnded},
	}}
	s, err := NewGraph(p).Resolve("A")
	require.NoError(t, err)
	assert.Equal(t, domain.KindQuestion, s.Kind)
}

func TestGraph_Edges(t *testing.T) {
	p := scenarioDeck()
	p.Slides = append(p.Slides, domain.Slide{
		ID: "G", Kind: domain.KindIdentify,
		AfterSubmitActions: domain.Actions{domain.SlideAction{SlideID: "Q1"}},
	})

	assert.Equal(t, []Edge{
		{From: "Q1", To: "END", Label: "Yes"},
		{From: "G", To: "Q1"},
	}, NewGraph(p).Edges())
}

func TestGraph_NextPrev(t *testing.T) {
	g := NewGraph(richDeck())

	next, ok := g.Next("WAIT")
	require.True(t, ok)
	assert.Equal(t, "Q1", next.ID)

	_, ok = g.Next("END")
	assert.False(t, ok)

	prev, ok := g.Prev("Q1")
	require.True(t, ok)
	assert.Equal(t, "WAIT", prev.ID)

	_, ok = g.Prev("WAIT")
	assert.False(t, ok)

	entry, ok := g.Entry()
	require.True(t, ok)
	assert.Equal(t, "WAIT", entry.ID)
}
