package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/liveslides/internal/logging"
	"github.com/aretw0/liveslides/pkg/domain"
	"github.com/aretw0/liveslides/pkg/ports"
	"github.com/aretw0/liveslides/pkg/urlgate"
)

// ErrNoPresentationID is returned by Start when the participant has no code.
var ErrNoPresentationID = errors.New("no presentation id")

// ParticipantConfig holds the collaborators of a Participant.
type ParticipantConfig struct {
	Store      ports.Store
	Code       string
	Identity   string
	CatalogMap string

	Analytics ports.Analytics
	Opener    ports.URLOpener
	// AnalyticsFor picks a sink once the presentation is loaded (e.g. from
	// its analyticsKey). It takes precedence over Analytics.
	AnalyticsFor func(*domain.Presentation) ports.Analytics

	Interpolator Interpolator
	Hooks        domain.LifecycleHooks
	Logger       *slog.Logger
}

// Participant keeps one client's view consistent with the shared state of a
// presentation and runs the pipelines triggered by that client.
type Participant struct {
	cfg     ParticipantConfig
	machine *Machine
	logger  *slog.Logger

	// runMu serializes pipelines so each run sees the user data of the last.
	runMu sync.Mutex

	mu       sync.Mutex
	userData domain.UserData
	executor *Executor
}

// NewParticipant creates a participant. Nothing touches the store until Start.
func NewParticipant(cfg ParticipantConfig) *Participant {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	if cfg.CatalogMap == "" {
		cfg.CatalogMap = domain.DefaultCatalog
	}
	cfg.Code = domain.NormalizeCode(cfg.Code)

	logger := cfg.Logger.With("code", cfg.Code)
	p := &Participant{
		cfg:      cfg,
		logger:   logger,
		userData: domain.UserData{},
		machine: NewMachine(
			WithMachineHooks(cfg.Hooks),
			WithMachineLogger(logger),
		),
	}
	p.executor = p.newExecutor(cfg.Analytics)
	return p
}

func (p *Participant) newExecutor(analytics ports.Analytics) *Executor {
	return NewExecutor(
		WithNavigator(p.machine),
		WithPublisher(StreamPublisher{Store: p.cfg.Store, Stream: domain.StreamName(p.cfg.Code)}),
		WithAnalytics(analytics),
		WithURLGate(urlgate.New(p.cfg.Opener, urlgate.WithLogger(p.logger))),
		WithInterpolator(p.cfg.Interpolator),
		WithIdentity(p.cfg.Identity),
		WithExecutorHooks(p.cfg.Hooks),
		WithExecutorLogger(p.logger),
	)
}

// Machine exposes the participant's state machine.
func (p *Participant) Machine() *Machine { return p.machine }

// View returns the current snapshot.
func (p *Participant) View() View { return p.machine.View() }

// Watch delivers view changes until ctx is done.
func (p *Participant) Watch(ctx context.Context) <-chan View { return p.machine.Watch(ctx) }

// UserData returns a copy of the accumulated user data.
func (p *Participant) UserData() domain.UserData {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.userData.Merge(nil)
}

// Start loads the presentation and follows the shared state and the store's
// connectivity until ctx is canceled. Every goroutine it starts stops with ctx.
func (p *Participant) Start(ctx context.Context) error {
	if p.cfg.Code == "" {
		_ = p.machine.Fail(ctx, domain.PhaseErrorNoPid)
		return ErrNoPresentationID
	}

	// 1. Connectivity
	states, err := p.cfg.Store.WatchConnection(ctx)
	if err != nil {
		return fmt.Errorf("watch connection: %w", err)
	}
	go func() {
		for s := range states {
			p.machine.ConnectionChanged(ctx, s)
		}
	}()

	// 2. Shared state subscription, opened before the first read so no
	// update between the two is lost.
	updates, err := p.cfg.Store.SubscribeDocument(ctx, domain.StateDocName(p.cfg.Code))
	if err != nil {
		return fmt.Errorf("subscribe to state: %w", err)
	}

	// 3. Presentation
	if err := p.loadPresentation(ctx); err != nil {
		if errors.Is(err, domain.ErrPresentationNotFound) {
			_ = p.machine.Fail(ctx, domain.PhaseErrorNoPid)
		}
		return err
	}

	// 4. Current state snapshot
	p.refreshState(ctx)

	go func() {
		for data := range updates {
			p.applyState(ctx, data)
		}
	}()
	return nil
}

// Reload models a full page reload: error phases are cleared, then the
// presentation and the current state are read again.
func (p *Participant) Reload(ctx context.Context) error {
	p.machine.Reset(ctx)
	if err := p.loadPresentation(ctx); err != nil {
		return err
	}
	p.refreshState(ctx)
	return nil
}

func (p *Participant) loadPresentation(ctx context.Context) error {
	raw, err := p.cfg.Store.MapGet(ctx, p.cfg.CatalogMap, p.cfg.Code)
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			return fmt.Errorf("%w: %s", domain.ErrPresentationNotFound, p.cfg.Code)
		}
		return fmt.Errorf("load presentation: %w", err)
	}

	var pres domain.Presentation
	if err := json.Unmarshal(raw, &pres); err != nil {
		return fmt.Errorf("decode presentation %s: %w", p.cfg.Code, err)
	}

	if p.cfg.AnalyticsFor != nil {
		p.mu.Lock()
		p.executor = p.newExecutor(p.cfg.AnalyticsFor(&pres))
		p.mu.Unlock()
	}

	p.logger.DebugContext(ctx, "presentation loaded", "title", pres.Title, "slides", len(pres.Slides))
	p.machine.Load(ctx, &pres)
	return nil
}

func (p *Participant) refreshState(ctx context.Context) {
	data, err := p.cfg.Store.GetDocument(ctx, domain.StateDocName(p.cfg.Code))
	if err != nil {
		if !errors.Is(err, domain.ErrDocumentNotFound) {
			p.logger.WarnContext(ctx, "read current state failed", "error", err)
		}
		return
	}
	p.applyState(ctx, data)
}

func (p *Participant) applyState(ctx context.Context, data json.RawMessage) {
	if ctx.Err() != nil {
		return
	}
	var st domain.CurrentState
	if err := json.Unmarshal(data, &st); err != nil {
		p.logger.WarnContext(ctx, "malformed current state", "error", err)
		return
	}
	_ = p.machine.ApplyState(ctx, st)
}

// PerformActions runs a pipeline with the participant's identity and user
// data. params is the caller-supplied context, e.g. form fields. Concurrent
// calls run one after the other.
func (p *Participant) PerformActions(ctx context.Context, actions domain.Actions, params map[string]any) Result {
	p.runMu.Lock()
	defer p.runMu.Unlock()

	p.mu.Lock()
	exec := p.executor
	userData := p.userData
	p.mu.Unlock()

	res := exec.Execute(ctx, actions, userData, params)

	p.mu.Lock()
	p.userData = res.UserData
	p.mu.Unlock()
	return res
}

// Choose runs the actions of the current slide's option matching value
// (option value first, then label).
func (p *Participant) Choose(ctx context.Context, value string) (Result, error) {
	view := p.machine.View()
	if view.Slide == nil {
		return Result{}, fmt.Errorf("%w: no current slide", domain.ErrSlideNotFound)
	}
	opt, ok := view.Slide.OptionByValue(value)
	if !ok {
		return Result{}, fmt.Errorf("slide %s has no option %q", view.Slide.ID, value)
	}
	return p.PerformActions(ctx, opt.AfterSubmitActions, nil), nil
}

// Submit runs the current slide's afterSubmitActions with form fields as
// context (Identify slides).
func (p *Participant) Submit(ctx context.Context, fields map[string]any) (Result, error) {
	view := p.machine.View()
	if view.Slide == nil {
		return Result{}, fmt.Errorf("%w: no current slide", domain.ErrSlideNotFound)
	}
	return p.PerformActions(ctx, view.Slide.AfterSubmitActions, fields), nil
}
