package cli

import (
	"fmt"
	"io"

	"github.com/aretw0/liveslides"
	"github.com/aretw0/liveslides/internal/presentation/tui"
	"github.com/aretw0/liveslides/pkg/domain"
)

// ModerateOptions configures the live tally view.
type ModerateOptions struct {
	Code string
	// BarWidth is the width of a 100% bar.
	BarWidth int
	// LogLimit is the number of recent events shown, 0 hides the log.
	LogLimit int
	// Clear redraws in place using ANSI clear-screen.
	Clear bool
}

const clearScreen = "\033[H\033[2J"

// RunModerate renders the tally of opts.Code after every flush until ctx is done.
func RunModerate(ctx *SignalContext, app *liveslides.App, opts ModerateOptions, out io.Writer) error {
	code := domain.NormalizeCode(opts.Code)
	if _, err := app.Catalog.Get(ctx, code); err != nil {
		return err
	}
	board, err := app.Tally.Board(code)
	if err != nil {
		return err
	}

	for snap := range board.Watch(ctx) {
		if opts.Clear {
			fmt.Fprint(out, clearScreen)
		}
		state, err := app.Control.CurrentState(ctx, code)
		slide := state.CurrentSlideID
		if err != nil || slide == "" {
			slide = "-"
		}
		fmt.Fprintf(out, "%s  slide: %s\n\n", code, slide)
		fmt.Fprintln(out, tui.RenderTally(snap, opts.BarWidth))
		if opts.LogLimit > 0 {
			fmt.Fprintln(out, tui.RenderLog(snap, opts.LogLimit))
		}
	}
	return nil
}
