package tui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/liveslides/internal/runtime"
	"github.com/aretw0/liveslides/pkg/domain"
	"github.com/aretw0/liveslides/pkg/tally"
	"github.com/stretchr/testify/assert"
)

func TestRenderView_Slide(t *testing.T) {
	slide := &domain.Slide{
		ID:          "Q1",
		Kind:        domain.KindQuestion,
		Title:       "Favourite language?",
		Description: "Pick **one**",
		Options:     []domain.Option{{OptionLabel: "Go", Primary: true}, {OptionLabel: "Rust"}},
	}
	out := RenderView(runtime.View{Phase: domain.PhaseQuestion, Slide: slide}, func(md string) (string, error) {
		return "<" + md + ">", nil
	})

	assert.Contains(t, out, "[Question]")
	assert.Contains(t, out, "# Favourite language?")
	assert.Contains(t, out, "<Pick **one**>")
	assert.Contains(t, out, "* 1) Go")
	assert.Contains(t, out, "  2) Rust")
}

func TestRenderView_RendererFailureKeepsText(t *testing.T) {
	slide := &domain.Slide{ID: "W", Kind: domain.KindWatchPresenter, Description: "raw"}
	out := RenderView(runtime.View{Phase: domain.PhaseWatchPresenter, Slide: slide}, func(string) (string, error) {
		return "", errors.New("boom")
	})
	assert.Contains(t, out, "raw")
}

func TestRenderView_Notes(t *testing.T) {
	out := RenderView(runtime.View{Phase: domain.PhaseErrorSync, Slide: &domain.Slide{Title: "stale"}}, nil)
	assert.Contains(t, out, "Connection lost")
	assert.NotContains(t, out, "stale")

	out = RenderView(runtime.View{Phase: domain.PhaseIdentify, Slide: &domain.Slide{Title: "Who"}}, nil)
	assert.Contains(t, out, "key=value")
}

func TestRenderTally(t *testing.T) {
	out := RenderTally(tally.Snapshot{
		Entries: []tally.Entry{{Label: "Yes", Value: 2, Percent: 66.7}, {Label: "Other", Value: 1, Percent: 33.3}},
		Total:   3,
	}, 10)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "Yes  "))
	assert.Contains(t, lines[0], " 66.7%")
	assert.Contains(t, lines[1], " 33.3%")
	assert.Equal(t, "total: 3", lines[2])
}

func TestRenderTally_Placeholder(t *testing.T) {
	out := RenderTally(tally.Snapshot{}, 0)
	assert.Contains(t, out, tally.PlaceholderLabel)
	assert.Contains(t, out, "0.0%")
}

func TestRenderLog(t *testing.T) {
	out := RenderLog(tally.Snapshot{Recent: []domain.ResponseEvent{
		{Type: domain.ActionStream, Message: "hello", ClientID: "b", Timestamp: "2024-05-01T10:00:02Z"},
		{Type: domain.ActionTally, Answer: "Yes", ClientID: "a", Timestamp: "bad"},
	}}, 0)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "10:00:02")
	assert.Contains(t, lines[0], "hello")
	assert.Contains(t, lines[1], "bad")

	assert.Len(t, strings.Split(strings.TrimSpace(RenderLog(tally.Snapshot{Recent: []domain.ResponseEvent{{}, {}, {}}}, 1)), "\n"), 1)
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	assert.Contains(t, buf.String(), "|_____|_|")
}

func TestNewRenderer(t *testing.T) {
	render := NewRenderer()
	out, err := render("# Title")
	assert.NoError(t, err)
	assert.Contains(t, out, "Title")
}
