package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/liveslides/internal/logging"
	"github.com/aretw0/liveslides/pkg/domain"
)

// CreateLogger returns a debug logger on stderr, or a no-op logger. The
// terminal clients own stdout.
func CreateLogger(debug bool) *slog.Logger {
	if debug {
		return logging.New(slog.LevelDebug)
	}
	return logging.NewNop()
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

// DebugHooks logs every transition, action and publish at debug level.
func DebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			logger.DebugContext(ctx, "Transition", "from", e.From, "to", e.To, "slide", e.SlideID, "source", e.Source)
		},
		OnAction: func(ctx context.Context, e *domain.ActionEvent) {
			if e.Err != nil {
				logger.DebugContext(ctx, "Action (Error)", "index", e.Index, "type", e.Type, "err", e.Err)
				return
			}
			logger.DebugContext(ctx, "Action", "index", e.Index, "type", e.Type)
		},
		OnPublish: func(ctx context.Context, e *domain.ResponseEvent) {
			logger.DebugContext(ctx, "Publish", "type", e.Type, "answer", e.Answer, "client_id", e.ClientID)
		},
	}
}
