package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/liveslides/internal/runtime"
	"github.com/aretw0/liveslides/pkg/domain"
)

// Overlay contains live state to visualize on the graph.
type Overlay struct {
	VisitedSlides []string
	CurrentSlide  string
}

// GenerateMermaid produces a Mermaid flowchart of a presentation.
// Shapes follow the slide kind:
// - Question: [/Parallelogram/]
// - Identify: [[Subroutine]]
// - DemoCta: {{Hexagon}}
// - Ended: ((Circle))
// - Default: [Rectangle]
// Slide actions are solid arrows labelled with the option; deck order is dotted.
// Targets missing from the deck are drawn with the missing class.
func GenerateMermaid(p *domain.Presentation, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	if p == nil {
		return sb.String()
	}

	g := runtime.NewGraph(p)
	for _, s := range p.Slides {
		opener, closer := shape(s.Kind)
		title := strings.ReplaceAll(s.Title, "\"", "'")
		if title == "" {
			title = s.ID
		}
		fmt.Fprintf(&sb, "    %s%s\"%s<br/><small>%s</small>\"%s\n", sanitizeMermaidID(s.ID), opener, title, s.Kind, closer)
	}

	for i := 1; i < len(p.Slides); i++ {
		fmt.Fprintf(&sb, "    %s -.-> %s\n", sanitizeMermaidID(p.Slides[i-1].ID), sanitizeMermaidID(p.Slides[i].ID))
	}

	var missing []string
	seen := make(map[string]bool)
	for _, e := range g.Edges() {
		arrow := "-->"
		if e.Label != "" {
			arrow = fmt.Sprintf("-- \"%s\" -->", strings.ReplaceAll(e.Label, "\"", "'"))
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", sanitizeMermaidID(e.From), arrow, sanitizeMermaidID(e.To))

		if _, err := g.Resolve(e.To); err != nil && !seen[e.To] {
			seen[e.To] = true
			missing = append(missing, e.To)
		}
	}

	if len(missing) > 0 {
		sb.WriteString("\n    classDef missing fill:#ffebee,stroke:#c62828,stroke-dasharray:4 2,color:#000;\n")
		for _, id := range missing {
			fmt.Fprintf(&sb, "    class %s missing;\n", sanitizeMermaidID(id))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps contrast on light fills under both themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visited := make(map[string]bool)
		for _, id := range overlay.VisitedSlides {
			safeID := sanitizeMermaidID(id)
			if !visited[safeID] && safeID != "" && id != overlay.CurrentSlide {
				visited[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}
		if overlay.CurrentSlide != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentSlide))
		}
	}

	return sb.String()
}

func shape(kind domain.SlideKind) (string, string) {
	switch kind {
	case domain.KindQuestion:
		return "[/", "/]"
	case domain.KindIdentify:
		return "[[", "]]"
	case domain.KindDemoCta:
		return "{{", "}}"
	case domain.KindEnded:
		return "((", "))"
	default:
		return "[", "]"
	}
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
