package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/liveslides/internal/runtime"
	"github.com/aretw0/liveslides/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
// It falls back to the raw text when no renderer can be built.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// phaseNotes holds the fixed text of phases that carry no slide content.
var phaseNotes = map[domain.Phase]string{
	domain.PhaseWelcome:           "Waiting for the presentation to start...",
	domain.PhaseErrorNoPid:        "No presentation found for this code.",
	domain.PhaseErrorSync:         "Connection lost. Reload to rejoin.",
	domain.PhaseErrorNoToken:      "This presentation requires an access token.",
	domain.PhaseErrorTokenExpired: "Your access token has expired.",
}

// RenderView renders what a participant sees. render formats slide
// descriptions; nil prints them verbatim.
func RenderView(view runtime.View, render func(string) (string, error)) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s]\n", view.Phase)

	if note, ok := phaseNotes[view.Phase]; ok {
		sb.WriteString(note)
		sb.WriteString("\n")
		return sb.String()
	}
	if view.Slide == nil {
		return sb.String()
	}

	s := view.Slide
	if s.Title != "" {
		fmt.Fprintf(&sb, "# %s\n", s.Title)
	}
	if s.Description != "" {
		body := s.Description
		if render != nil {
			if out, err := render(s.Description); err == nil {
				body = out
			}
		}
		sb.WriteString(strings.TrimRight(body, "\n"))
		sb.WriteString("\n")
	}

	for i, o := range s.Options {
		marker := " "
		if o.Primary {
			marker = "*"
		}
		fmt.Fprintf(&sb, "%s %d) %s\n", marker, i+1, o.OptionLabel)
	}
	if view.Phase == domain.PhaseIdentify {
		sb.WriteString("Enter key=value pairs (e.g. email=ada@example.com), then submit.\n")
	}
	return sb.String()
}
