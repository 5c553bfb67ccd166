package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/liveslides/internal/logging"
	"github.com/aretw0/liveslides/internal/runtime"
	"github.com/aretw0/liveslides/pkg/domain"
)

// Participant is the part of runtime.Participant the runner drives.
type Participant interface {
	Watch(ctx context.Context) <-chan runtime.View
	View() runtime.View
	Choose(ctx context.Context, value string) (runtime.Result, error)
	Submit(ctx context.Context, fields map[string]any) (runtime.Result, error)
	Reload(ctx context.Context) error
}

// ErrUnknownCommand is reported when input matches nothing on the current slide.
var ErrUnknownCommand = errors.New("unknown command")

// Runner handles the interaction loop of a participant using provided IO.
// It uses an IOHandler strategy to abstract the interaction mode (Text vs JSON).
type Runner struct {
	// Handler is the strategy for IO. If nil, a TextHandler on Stdin/Stdout is used.
	Handler IOHandler

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger

	Headless bool
	Renderer ContentRenderer

	mu    sync.Mutex
	lines chan lineResult
}

type lineResult struct {
	text string
	err  error
}

// NewRunner creates a new Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	if r.Logger == nil {
		r.Logger = logging.NewNop()
	}
	if r.Handler == nil {
		var hopts []TextHandlerOption
		if r.Renderer != nil {
			hopts = append(hopts, WithTextHandlerRenderer(r.Renderer))
		}
		r.Handler = NewTextHandler(os.Stdin, os.Stdout, hopts...)
	}
	return r
}

// Run renders every view change of p and executes input commands until the
// user quits, input ends or ctx is done. None of these is an error.
func (r *Runner) Run(ctx context.Context, p Participant) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// 1. Setup Phase
	views := p.Watch(ctx)
	lines := r.startInput(ctx)
	defer r.stopInput()

	// 2. Interaction Loop
	for {
		select {
		case <-ctx.Done():
			return nil

		case view, ok := <-views:
			if !ok {
				return nil
			}
			if err := r.Handler.Output(ctx, view); err != nil {
				return fmt.Errorf("output error: %w", err)
			}

		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if line.err != nil {
				if errors.Is(line.err, io.EOF) || errors.Is(line.err, context.Canceled) {
					return nil
				}
				return fmt.Errorf("input error: %w", line.err)
			}
			quit, err := r.dispatch(ctx, p, line.text)
			if err != nil {
				r.Logger.Debug("command failed", "input", line.text, "error", err)
				if serr := r.Handler.SystemOutput(ctx, err.Error()); serr != nil {
					return serr
				}
			}
			if quit {
				return nil
			}
		}
	}
}

// dispatch interprets one input line against the current view.
func (r *Runner) dispatch(ctx context.Context, p Participant, line string) (bool, error) {
	line = strings.TrimSpace(line)
	switch strings.ToLower(line) {
	case "":
		return false, nil
	case "q", "quit", "exit":
		return true, nil
	case "r", "reload":
		return false, p.Reload(ctx)
	}

	view := p.View()
	if view.Slide == nil || view.Phase.IsError() {
		return false, fmt.Errorf("%w: nothing to answer in phase %s (r to reload, q to quit)", ErrUnknownCommand, view.Phase)
	}

	var (
		res runtime.Result
		err error
	)
	if fields, ok := ParseFields(line); ok && view.Slide.Kind == domain.KindIdentify {
		res, err = p.Submit(ctx, fields)
	} else {
		res, err = p.Choose(ctx, optionValue(*view.Slide, line))
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnknownCommand, err)
	}
	return false, resultError(res)
}

// optionValue maps a 1-based option number to the option's value (or label).
// Anything else is passed through.
func optionValue(s domain.Slide, line string) string {
	n, err := strconv.Atoi(line)
	if err != nil {
		return line
	}
	opt, ok := s.Option(n - 1)
	if !ok {
		return line
	}
	if opt.OptionValue != "" {
		return opt.OptionValue
	}
	return opt.OptionLabel
}

func resultError(res runtime.Result) error {
	if len(res.Errors) == 0 {
		return nil
	}
	errs := make([]error, 0, len(res.Errors))
	for _, e := range res.Errors {
		errs = append(errs, e)
	}
	return errors.Join(errs...)
}

// ParseFields parses "key=value" pairs separated by whitespace or commas.
// It reports false unless every token is a pair with a non-empty key.
func ParseFields(line string) (map[string]any, bool) {
	tokens := strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(tokens) == 0 {
		return nil, false
	}
	fields := make(map[string]any, len(tokens))
	for _, tok := range tokens {
		key, value, ok := strings.Cut(tok, "=")
		if !ok || key == "" {
			return nil, false
		}
		fields[key] = value
	}
	return fields, true
}

// startInput starts the goroutine feeding input lines to the loop and to
// ConfirmOpener.
func (r *Runner) startInput(ctx context.Context) <-chan lineResult {
	ch := make(chan lineResult, DefaultInputBufferSize)
	r.mu.Lock()
	r.lines = ch
	r.mu.Unlock()

	go func() {
		defer close(ch)
		for {
			text, err := r.Handler.Input(ctx)
			select {
			case ch <- lineResult{text: text, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()
	return ch
}

func (r *Runner) stopInput() {
	r.mu.Lock()
	r.lines = nil
	r.mu.Unlock()
}

// readLine reads the next line, sharing the loop's input while Run is active.
func (r *Runner) readLine(ctx context.Context) (string, error) {
	r.mu.Lock()
	lines := r.lines
	r.mu.Unlock()

	if lines == nil {
		return r.Handler.Input(ctx)
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-lines:
		if !ok {
			return "", io.EOF
		}
		return line.text, line.err
	}
}
