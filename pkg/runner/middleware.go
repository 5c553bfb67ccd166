package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/liveslides/pkg/ports"
)

// ErrOpenDenied is returned when the user declines to open a URL.
var ErrOpenDenied = errors.New("user denied opening url")

// ConfirmOpener wraps next so that every URL action asks the user first.
// In headless mode it approves without asking.
//
// The prompt goes through IOHandler.SystemOutput so it stays distinct from
// slide content. The answer is read from the same input as the loop: URL
// actions run while the loop waits on Choose, so the next line belongs to
// the prompt.
func (r *Runner) ConfirmOpener(next ports.URLOpener) ports.URLOpener {
	return ports.URLOpenerFunc(func(ctx context.Context, url, target string) error {
		if r.Headless {
			return next.Open(ctx, url, target)
		}

		// 1. Ask
		if err := r.Handler.SystemOutput(ctx, fmt.Sprintf("Open %s (%s)? [y/N]", url, target)); err != nil {
			return err
		}

		// 2. Read Response
		input, err := r.readLine(ctx)
		if err != nil {
			return err
		}

		// 3. Validate
		input = strings.TrimSpace(strings.ToLower(input))
		if input != "y" && input != "yes" {
			return ErrOpenDenied
		}
		return next.Open(ctx, url, target)
	})
}

// PrintOpener reports URLs through the handler instead of opening them.
func (r *Runner) PrintOpener() ports.URLOpener {
	return ports.URLOpenerFunc(func(ctx context.Context, url, target string) error {
		return r.Handler.SystemOutput(ctx, fmt.Sprintf("Open %s (%s)", url, target))
	})
}
