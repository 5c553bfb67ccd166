package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/liveslides/internal/logging"
	"github.com/aretw0/liveslides/pkg/domain"
	"github.com/aretw0/liveslides/pkg/ports"
	"github.com/aretw0/liveslides/pkg/urlgate"
)

// Navigator performs locally-driven navigation. Machine implements it.
type Navigator interface {
	Navigate(ctx context.Context, slideID string) error
	// CurrentSlideID is the slide being answered, or "" when none is resolved.
	CurrentSlideID() string
}

// Publisher appends response events to a presentation's stream.
type Publisher interface {
	PublishEvent(ctx context.Context, evt domain.ResponseEvent) error
}

// StreamPublisher publishes events as JSON to one stream of a ports.StreamStore.
type StreamPublisher struct {
	Store  ports.StreamStore
	Stream string
}

// PublishEvent encodes evt and appends it to the stream.
func (p StreamPublisher) PublishEvent(ctx context.Context, evt domain.ResponseEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode response event: %w", err)
	}
	return p.Store.Publish(ctx, p.Stream, data)
}

// Result is the outcome of one pipeline run.
type Result struct {
	// UserData is the accumulated user data after the run. Callers keep it and
	// pass it to the next run.
	UserData domain.UserData
	// Executed counts actions whose handler returned without error.
	Executed int
	Errors   []*ActionError
}

// Executor runs action pipelines. Actions run strictly in order and a failing
// action never stops the ones after it.
type Executor struct {
	navigator    Navigator
	publisher    Publisher
	analytics    ports.Analytics
	gate         *urlgate.Gate
	interpolator Interpolator
	identity     string
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	now          func() time.Time
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithNavigator sets the target of Slide actions.
func WithNavigator(n Navigator) ExecutorOption {
	return func(e *Executor) { e.navigator = n }
}

// WithPublisher sets the target of Tally and Stream actions.
func WithPublisher(p Publisher) ExecutorOption {
	return func(e *Executor) { e.publisher = p }
}

// WithAnalytics sets the target of Track and Identify actions.
func WithAnalytics(a ports.Analytics) ExecutorOption {
	return func(e *Executor) { e.analytics = a }
}

// WithURLGate sets the gate used by URL actions.
func WithURLGate(g *urlgate.Gate) ExecutorOption {
	return func(e *Executor) { e.gate = g }
}

// WithInterpolator replaces the template evaluator used by Stream actions.
func WithInterpolator(i Interpolator) ExecutorOption {
	return func(e *Executor) { e.interpolator = i }
}

// WithIdentity sets the participant identity, e.g. "participant:3f2a...".
func WithIdentity(identity string) ExecutorOption {
	return func(e *Executor) { e.identity = identity }
}

// WithExecutorHooks registers observability hooks.
func WithExecutorHooks(h domain.LifecycleHooks) ExecutorOption {
	return func(e *Executor) { e.hooks = h }
}

// WithExecutorLogger sets the logger.
func WithExecutorLogger(l *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) ExecutorOption {
	return func(e *Executor) { e.now = now }
}

// NewExecutor creates an executor. Collaborators that are not configured make
// their actions fail (and be reported) instead of panicking.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{
		interpolator: DefaultInterpolator,
		logger:       logging.NewNop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ClientID is the client_id attached to published events.
func (e *Executor) ClientID() string {
	return domain.ClientID(e.identity)
}

// Execute runs actions in order with params as the caller-supplied context
// (e.g. freshly collected form fields) and userData as the accumulated user
// data cache. It always returns normally.
func (e *Executor) Execute(ctx context.Context, actions domain.Actions, userData domain.UserData, params map[string]any) Result {
	res := Result{UserData: userData.Merge(nil)}
	if len(actions) == 0 {
		return res
	}

	// Responses are attributed to the slide shown when the run started, even
	// when an earlier action navigates away.
	var sid string
	if e.navigator != nil {
		sid = e.navigator.CurrentSlideID()
	}
	e.logger.DebugContext(ctx, "performing actions", "count", len(actions), "sid", sid)

	for i, action := range actions {
		err := e.run(ctx, action, &res, sid, params)

		var aerr *ActionError
		if err != nil {
			if !errors.As(err, &aerr) {
				aerr = &ActionError{Index: i, Type: typeOf(action), Err: err}
			}
			aerr.Index = i
			res.Errors = append(res.Errors, aerr)
			e.logger.WarnContext(ctx, "action failed", "index", i, "type", aerr.Type, "error", aerr.Err)
		} else {
			res.Executed++
		}

		if e.hooks.OnAction != nil {
			evt := &domain.ActionEvent{Index: i, Type: typeOf(action)}
			if aerr != nil {
				evt.Err = aerr
			}
			e.hooks.OnAction(ctx, evt)
		}
	}
	return res
}

func typeOf(a domain.Action) domain.ActionType {
	if a == nil {
		return domain.ActionInvalid
	}
	return a.Type()
}

// run dispatches one action and converts a handler panic into an ActionError.
func (e *Executor) run(ctx context.Context, action domain.Action, res *Result, sid string, params map[string]any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ActionError{Type: typeOf(action), Err: fmt.Errorf("%v", r), Panicked: true}
		}
	}()

	switch a := action.(type) {
	case domain.SlideAction:
		return e.slide(ctx, a)
	case domain.TallyAction:
		return e.tally(ctx, a, sid)
	case domain.StreamAction:
		return e.stream(ctx, a, sid, params)
	case domain.TrackAction:
		return e.track(ctx, a, res, params)
	case domain.IdentifyAction:
		return e.identify(ctx, a, res, params)
	case domain.URLAction:
		return e.openURL(ctx, a)
	case domain.InvalidAction:
		return fmt.Errorf("skipping malformed action: %w", a.Err)
	case nil:
		return errors.New("nil action")
	default:
		return fmt.Errorf("%w: %T", domain.ErrUnknownActionType, action)
	}
}

func (e *Executor) slide(ctx context.Context, a domain.SlideAction) error {
	if e.navigator == nil {
		return errors.New("no navigator configured")
	}
	return e.navigator.Navigate(ctx, a.SlideID)
}

func (e *Executor) tally(ctx context.Context, a domain.TallyAction, sid string) error {
	return e.publish(ctx, domain.ResponseEvent{
		SID:    sid,
		Type:   domain.ActionTally,
		Answer: a.Answer,
	})
}

func (e *Executor) stream(ctx context.Context, a domain.StreamAction, sid string, params map[string]any) error {
	// Caller context overrides the action's own fields.
	bindings := a.Params()
	for k, v := range params {
		bindings[k] = v
	}

	message := InterpolateOrKeep(ctx, e.logger, e.interpolator, a.Message, bindings)
	return e.publish(ctx, domain.ResponseEvent{
		SID:     sid,
		Type:    domain.ActionStream,
		Message: message,
	})
}

func (e *Executor) track(ctx context.Context, a domain.TrackAction, res *Result, params map[string]any) error {
	res.UserData = res.UserData.Merge(a.Properties)

	if e.analytics == nil {
		return errors.New("no analytics configured")
	}
	return e.analytics.Track(ctx, a.Event, merge(a.Properties, params))
}

func (e *Executor) identify(ctx context.Context, a domain.IdentifyAction, res *Result, params map[string]any) error {
	res.UserData = res.UserData.Merge(params)

	properties := merge(res.UserData, a.Properties, params)
	userID := firstString(params, "phone")
	if userID == "" {
		userID = res.UserData.String("phone")
	}
	if userID == "" {
		userID = res.UserData.String("email")
	}
	if userID == "" {
		userID = e.identity
	}

	if e.analytics == nil {
		return errors.New("no analytics configured")
	}
	return e.analytics.Identify(ctx, userID, properties)
}

func (e *Executor) openURL(ctx context.Context, a domain.URLAction) error {
	if e.gate == nil {
		return errors.New("no url gate configured")
	}
	if !e.gate.OpenSafely(ctx, a.URL, urlgate.DefaultTarget) {
		if _, err := urlgate.Check(a.URL); err != nil {
			return err
		}
		return fmt.Errorf("open %s failed", a.URL)
	}
	return nil
}

func (e *Executor) publish(ctx context.Context, evt domain.ResponseEvent) error {
	if e.publisher == nil {
		return errors.New("no stream publisher configured")
	}
	evt.ClientID = e.ClientID()
	evt.Timestamp = e.now().UTC().Format(domain.TimestampLayout)

	if err := e.publisher.PublishEvent(ctx, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", evt.Type, err)
	}
	e.logger.DebugContext(ctx, "published event", "type", evt.Type, "client_id", evt.ClientID)
	if e.hooks.OnPublish != nil {
		e.hooks.OnPublish(ctx, &evt)
	}
	return nil
}

func merge(maps ...map[string]any) map[string]any {
	out := make(map[string]any)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

func firstString(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}
