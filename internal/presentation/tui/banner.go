package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the LiveSlides banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{" _     _           ____  _ _     _           ", "#818cf8"},
		{"| |   (_)_   _____/ ___|| (_) __| | ___  ___ ", "#a78bfa"},
		{"| |   | \\ \\ / / _ \\___ \\| | |/ _` |/ _ \\/ __|", "#c084fc"},
		{"| |___| |\\ V /  __/___) | | | (_| |  __/\\__ \\", "#e879f9"},
		{"|_____|_| \\_/ \\___|____/|_|_|\\__,_|\\___||___/", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
