package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/liveslides"
	"github.com/aretw0/liveslides/internal/presentation/tui"
	"github.com/aretw0/liveslides/internal/runtime"
	"github.com/aretw0/liveslides/pkg/adapters/process"
	"github.com/aretw0/liveslides/pkg/ports"
	"github.com/aretw0/liveslides/pkg/runner"
)

// JoinOptions configures the audience terminal client.
type JoinOptions struct {
	Code     string
	Identity string
	Headless bool
	JSON     bool
	// LaunchersPath names an optional YAML/JSON file of URL launchers.
	LaunchersPath string
	// NoOpen prints URLs instead of launching anything.
	NoOpen bool
}

// RunJoin joins the presentation opts.Code and runs the interactive loop on
// in/out until the user quits, input ends or ctx is done.
func RunJoin(ctx *SignalContext, app *liveslides.App, opts JoinOptions, in io.Reader, out io.Writer) error {
	quiet := opts.JSON || opts.Headless
	if !quiet {
		tui.PrintBanner(out)
	}

	// 1. IO
	var handler runner.IOHandler
	if opts.JSON {
		handler = runner.NewJSONHandler(in, out)
	} else {
		var hopts []runner.TextHandlerOption
		if !opts.Headless {
			hopts = append(hopts, runner.WithTextHandlerRenderer(tui.NewRenderer()))
		}
		handler = runner.NewTextHandler(in, out, hopts...)
	}
	r := runner.NewRunner(
		runner.WithInputHandler(handler),
		runner.WithHeadless(quiet),
		runner.WithLogger(app.Logger()),
	)

	// 2. URL opener
	opener, err := createOpener(r, opts)
	if err != nil {
		return err
	}

	// 3. Participant
	identity := opts.Identity
	if identity == "" {
		identity = runner.NewIdentity()
	}
	p := app.Participant(opts.Code, identity, opener)
	if err := p.Start(ctx); err != nil {
		// The view already carries the error phase; show it before exiting.
		_ = handler.Output(ctx, p.View())
		if errors.Is(err, runtime.ErrNoPresentationID) {
			return err
		}
		return fmt.Errorf("join %s: %w", opts.Code, err)
	}
	if !quiet {
		printSystemMessage(out, "Joined %s as %s. Pick an option by number, r reloads, q quits.", opts.Code, identity)
	}

	// 4. Loop
	err = r.Run(ctx, p)
	if !quiet && ctx.Signal() != nil {
		printSystemMessage(out, "Interrupted.")
	}
	return err
}

func createOpener(r *runner.Runner, opts JoinOptions) (ports.URLOpener, error) {
	if opts.NoOpen {
		return r.PrintOpener(), nil
	}
	launchers, err := process.LoadLaunchers(opts.LaunchersPath)
	if err != nil {
		return nil, err
	}
	opener := process.NewOpener(process.WithSystemBrowser(), process.WithLaunchers(launchers))
	return r.ConfirmOpener(opener), nil
}
