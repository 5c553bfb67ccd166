package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDeck() *Presentation {
	return &Presentation{
		Title: "Demo",
		Slides: []Slide{
			{ID: "Q1", Kind: KindQuestion, Title: "Ready?", Options: []Option{
				{OptionLabel: "Yes", OptionValue: "yes", AfterSubmitActions: Actions{
					TallyAction{Answer: "Yes"},
					SlideAction{SlideID: "END"},
				}},
			}},
			{ID: "END", Kind: KindEnded, Title: "Thanks"},
		},
	}
}

func TestValidate_OK(t *testing.T) {
	assert.NoError(t, Validate(validDeck()))
}

func TestValidate_Problems(t *testing.T) {
	p := &Presentation{
		Slides: []Slide{
			{ID: "A", Kind: KindQuestion, Title: "q"},
			{ID: "A", Kind: KindEnded, Title: "dup"},
			{ID: "bad id", Kind: "Hologram"},
			{ID: "C", Kind: KindDemoCta, Title: "cta", Options: []Option{{OptionLabel: " "}}},
		},
	}

	err := Validate(p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidPresentation))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))

	fields := make([]string, 0, len(verr.Problems))
	for _, pr := range verr.Problems {
		fields = append(fields, pr.Field)
	}
	assert.Equal(t, []string{
		"title",
		"slides[0].options",
		"slides[1].id",
		"slides[2].id",
		"slides[2].title",
		"slides[2].kind",
		"slides[3].options[0].optionLabel",
	}, fields)
}

func TestValidate_Empty(t *testing.T) {
	err := Validate(&Presentation{Title: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one slide")

	assert.Error(t, Validate(nil))
}

func TestValidate_WelcomeNotPersisted(t *testing.T) {
	p := &Presentation{Title: "x", Slides: []Slide{{ID: "W", Kind: KindWelcome, Title: "hi"}}}
	assert.Error(t, Validate(p))
}

func TestLint(t *testing.T) {
	p := validDeck()
	p.Slides[0].Options = append(p.Slides[0].Options,
		Option{OptionLabel: "No", AfterSubmitActions: Actions{
			SlideAction{SlideID: "NOWHERE"},
			SlideAction{SlideID: "END"},
		}},
		Option{OptionLabel: "Maybe"},
		Option{OptionLabel: "Later"},
		Option{OptionLabel: "Never", AfterSubmitActions: Actions{InvalidAction{Err: errors.New("bad")}}},
	)

	warnings := Lint(p)
	paths := make([]string, 0, len(warnings))
	for _, w := range warnings {
		paths = append(paths, w.Path)
	}
	assert.Equal(t, []string{
		"slides[0].options",
		"slides[0].options[1].afterSubmitActions[0]",
		"slides[0].options[1]",
		"slides[0].options[4].afterSubmitActions[0]",
	}, paths)
	assert.Contains(t, warnings[1].Message, "NOWHERE")
}

func TestLint_Clean(t *testing.T) {
	assert.Empty(t, Lint(validDeck()))
}

func TestPresentation_JSONRoundTrip(t *testing.T) {
	raw := `{"title":"t","segmentWriteKey":"k","slides":[
		{"id":"Q1","kind":"Question","title":"q","options":[
			{"optionLabel":"Yes","optionValue":"yes","primary":true,
			 "afterSubmitActions":[{"type":"Tally","answer":"Yes"}]}]},
		{"id":"G","kind":"Identify","title":"who","afterSubmitActions":[{"type":"Identify"}]}]}`

	var p Presentation
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	assert.Equal(t, "k", p.WriteKey())
	slide, ok := p.Slide("Q1")
	require.True(t, ok)
	opt, ok := slide.OptionByValue("Yes")
	require.True(t, ok)
	assert.True(t, opt.Primary)
	assert.Equal(t, Actions{TallyAction{Answer: "Yes"}}, opt.AfterSubmitActions)

	gate, _ := p.Slide("G")
	assert.Equal(t, Actions{IdentifyAction{}}, gate.AfterSubmitActions)
	assert.Len(t, gate.Actions(), 1)
	assert.Equal(t, []string{"Q1", "G"}, p.SlideIDs())
}

func TestPresentation_SlideNil(t *testing.T) {
	var p *Presentation
	_, ok := p.Slide("x")
	assert.False(t, ok)
}
