package runner

import (
	"context"

	"github.com/aretw0/liveslides/internal/runtime"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (terminal) and JSON (structured) modes.
type IOHandler interface {
	// Output presents the participant's current view.
	Output(ctx context.Context, view runtime.View) error

	// Input reads one line from the user. It returns io.EOF when input ends.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message (status, errors, prompts),
	// distinct from slide content.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer transforms slide descriptions before output, e.g. markdown
// to ANSI.
type ContentRenderer func(string) (string, error)
