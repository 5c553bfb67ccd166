package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/liveslides/pkg/tally"
	"github.com/muesli/termenv"
)

// DefaultBarWidth is the width of a full (100%) tally bar.
const DefaultBarWidth = 30

var barColors = []string{"#818cf8", "#c084fc", "#f472b6", "#fb7185", "#facc15", "#34d399"}

// RenderTally draws one coloured bar per answer, in first-seen order, with
// its count and percentage. An empty tally renders the placeholder row.
func RenderTally(snap tally.Snapshot, width int) string {
	if width <= 0 {
		width = DefaultBarWidth
	}
	p := termenv.ColorProfile()

	entries := snap.Entries
	if len(entries) == 0 {
		entries = []tally.Entry{{Label: tally.PlaceholderLabel}}
	}

	labelWidth := 0
	for _, e := range entries {
		if n := len([]rune(e.Label)); n > labelWidth {
			labelWidth = n
		}
	}

	var sb strings.Builder
	for i, e := range entries {
		filled := int(e.Percent / 100 * float64(width))
		bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
		colored := termenv.String(bar).Foreground(p.Color(barColors[i%len(barColors)]))
		fmt.Fprintf(&sb, "%-*s %s %4d %5.1f%%\n", labelWidth, e.Label, colored, e.Value, e.Percent)
	}
	fmt.Fprintf(&sb, "total: %d\n", snap.Total)
	return sb.String()
}

// RenderLog lists received events, newest first.
func RenderLog(snap tally.Snapshot, limit int) string {
	var sb strings.Builder
	for i, evt := range snap.Recent {
		if limit > 0 && i >= limit {
			break
		}
		text := evt.Answer
		if evt.Message != "" {
			text = evt.Message
		}
		stamp := evt.Timestamp
		if t := evt.Time(); !t.IsZero() {
			stamp = t.Format("15:04:05")
		}
		fmt.Fprintf(&sb, "%s %-6s %-12s %s\n", stamp, evt.Type, evt.ClientID, text)
	}
	return sb.String()
}
