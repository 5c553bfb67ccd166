package dsl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/liveslides/pkg/domain"
)

func TestBuilder_Deck(t *testing.T) {
	deck := New("Launch").AnalyticsKey("wk_1")

	deck.Wait("WAIT", "Soon")
	q := deck.Question("Q1", "Ready?").Description("Pick one")
	q.Option("Yes").Value("yes").Primary().Tally("Yes").GoTo("END")
	q.Option("No").Tally("No").Stream("${client_id} said no")
	deck.Identify("ID", "Who are you?").
		OnSubmit().Identify(map[string]any{"email": "${email}"}).GoTo("END")
	deck.DemoCta("CTA", "Try it").
		Option("Open").Track("demo_opened", nil).URL("https://example.com")
	deck.Ended("END", "Thanks")

	p, err := deck.Build()
	require.NoError(t, err)

	assert.Equal(t, "wk_1", p.WriteKey())
	require.Len(t, p.Slides, 5)
	assert.Equal(t, []string{"WAIT", "Q1", "ID", "CTA", "END"}, p.SlideIDs())

	s, ok := p.Slide("Q1")
	require.True(t, ok)
	assert.Equal(t, "Pick one", s.Description)
	require.Len(t, s.Options, 2)
	assert.True(t, s.Options[0].Primary)
	assert.Equal(t, domain.Actions{
		domain.TallyAction{Answer: "Yes"},
		domain.SlideAction{SlideID: "END"},
	}, s.Options[0].AfterSubmitActions)
	assert.Equal(t, domain.ActionStream, s.Options[1].AfterSubmitActions[1].Type())

	id, _ := p.Slide("ID")
	assert.Len(t, id.AfterSubmitActions, 2)

	cta, _ := p.Slide("CTA")
	assert.Equal(t, domain.ActionURL, cta.Options[0].AfterSubmitActions[1].Type())
}

func TestBuilder_AddReturnsExisting(t *testing.T) {
	deck := New("Dup")
	a := deck.Question("Q1", "First")
	b := deck.Question("Q1", "Second")
	assert.Same(t, a, b)
	assert.Len(t, deck.Presentation().Slides, 1)
}

func TestBuilder_Invalid(t *testing.T) {
	deck := New("")
	deck.Question("Q1", "No options")

	_, err := deck.Build()
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.GreaterOrEqual(t, len(verr.Problems), 2)
}

func TestBuilder_Source(t *testing.T) {
	deck := New("Src")
	deck.Ended("END", "Bye")

	src, err := deck.Source("AB23")
	require.NoError(t, err)

	ids, err := src.ListDecks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"AB23"}, ids)
}
