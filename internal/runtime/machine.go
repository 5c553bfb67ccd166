package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/liveslides/internal/logging"
	"github.com/aretw0/liveslides/pkg/domain"
	"github.com/aretw0/liveslides/pkg/ports"
)

// Transition sources reported in domain.TransitionEvent.
const (
	SourceShared     = "shared"
	SourceLocal      = "local"
	SourceConnection = "connection"
	SourceControl    = "control"
)

// View is a snapshot of what a participant currently sees.
type View struct {
	Phase domain.Phase
	// Slide is nil while no slide has been resolved (Welcome) and keeps the
	// last resolved slide in error phases.
	Slide *domain.Slide
}

// SlideID returns the id of the current slide, or "".
func (v View) SlideID() string {
	if v.Slide == nil {
		return ""
	}
	return v.Slide.ID
}

// Machine is the presentation state machine of one participant.
//
// The phase is a function of the last successfully resolved slide: a
// transition replaces phase and slide together or not at all. Error phases
// are absorbing until Reset.
type Machine struct {
	mu      sync.Mutex
	graph   *Graph
	phase   domain.Phase
	slide   *domain.Slide
	pending string

	watchers map[chan View]struct{}
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
}

// MachineOption configures a Machine.
type MachineOption func(*Machine)

// WithMachineHooks registers observability hooks.
func WithMachineHooks(h domain.LifecycleHooks) MachineOption {
	return func(m *Machine) { m.hooks = h }
}

// WithMachineLogger sets the logger.
func WithMachineLogger(l *slog.Logger) MachineOption {
	return func(m *Machine) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewMachine creates a machine in the Welcome phase.
func NewMachine(opts ...MachineOption) *Machine {
	m := &Machine{
		phase:    domain.PhaseWelcome,
		graph:    NewGraph(nil),
		watchers: make(map[chan View]struct{}),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// View returns the current snapshot.
func (m *Machine) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viewLocked()
}

// CurrentSlideID returns the id of the current slide, or "".
func (m *Machine) CurrentSlideID() string {
	return m.View().SlideID()
}

// Phase returns the current phase.
func (m *Machine) Phase() domain.Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Graph returns the resolver for the loaded presentation.
func (m *Machine) Graph() *Graph {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.graph
}

// Load installs a presentation. If a shared slide id arrived before the
// presentation, it is resolved now.
func (m *Machine) Load(ctx context.Context, p *domain.Presentation) {
	m.mu.Lock()
	m.graph = NewGraph(p)
	pending := m.pending
	if pending == "" && m.slide != nil {
		pending = m.slide.ID
	}
	m.mu.Unlock()

	if pending != "" {
		if err := m.resolve(ctx, pending, SourceShared); err != nil {
			m.logger.DebugContext(ctx, "slide not in reloaded presentation", "slide_id", pending, "error", err)
		}
	}
}

// ApplyState handles a Current-State document update. The slide id is
// remembered even when it does not resolve, so a later Load can apply it.
func (m *Machine) ApplyState(ctx context.Context, state domain.CurrentState) error {
	m.mu.Lock()
	m.pending = state.CurrentSlideID
	m.mu.Unlock()

	if state.CurrentSlideID == "" {
		return nil
	}
	err := m.resolve(ctx, state.CurrentSlideID, SourceShared)
	if err != nil {
		m.logger.WarnContext(ctx, "current slide update not applied", "slide_id", state.CurrentSlideID, "error", err)
	}
	return err
}

// Navigate handles a local Slide action. It does not touch the shared document.
func (m *Machine) Navigate(ctx context.Context, slideID string) error {
	return m.resolve(ctx, slideID, SourceLocal)
}

// ConnectionChanged moves to ErrorSync when the store disconnects, unless the
// phase is already terminal. Reconnection alone does not recover.
func (m *Machine) ConnectionChanged(ctx context.Context, state ports.ConnState) {
	if state == ports.ConnReady || state == ports.ConnInitializing {
		return
	}

	m.mu.Lock()
	if m.phase.IsTerminal() {
		m.mu.Unlock()
		return
	}
	from := m.phase
	m.phase = domain.PhaseErrorSync
	view := m.viewLocked()
	m.notifyLocked(view)
	m.mu.Unlock()

	m.logger.ErrorContext(ctx, "store connection lost", "state", state)
	m.emit(ctx, from, view, SourceConnection)
}

// Fail moves to an error phase (e.g. ErrorNoPid for a missing presentation id).
func (m *Machine) Fail(ctx context.Context, phase domain.Phase) error {
	if !phase.IsError() {
		return fmt.Errorf("%s is not an error phase", phase)
	}

	m.mu.Lock()
	from := m.phase
	if from.IsError() {
		m.mu.Unlock()
		return nil
	}
	m.phase = phase
	view := m.viewLocked()
	m.notifyLocked(view)
	m.mu.Unlock()

	m.emit(ctx, from, view, SourceControl)
	return nil
}

// Reset clears an error phase and returns to Welcome, keeping the loaded
// presentation. It models a full reload of the participant's view.
func (m *Machine) Reset(ctx context.Context) {
	m.mu.Lock()
	from := m.phase
	m.phase = domain.PhaseWelcome
	m.slide = nil
	m.pending = ""
	view := m.viewLocked()
	m.notifyLocked(view)
	m.mu.Unlock()

	if from != domain.PhaseWelcome {
		m.emit(ctx, from, view, SourceControl)
	}
}

// Watch delivers the latest View after every change. Intermediate views may be
// skipped when the reader is slow. The channel is closed when ctx is done.
func (m *Machine) Watch(ctx context.Context) <-chan View {
	ch := make(chan View, 1)

	m.mu.Lock()
	ch <- m.viewLocked()
	m.watchers[ch] = struct{}{}
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.watchers, ch)
		close(ch)
		m.mu.Unlock()
	}()
	return ch
}

func (m *Machine) resolve(ctx context.Context, slideID, source string) error {
	m.mu.Lock()
	if m.phase.IsError() {
		phase := m.phase
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrHalted, phase)
	}

	slide, err := m.graph.Resolve(slideID)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	if slide.Kind == "" {
		m.mu.Unlock()
		return fmt.Errorf("slide %q has no kind", slideID)
	}

	from := m.phase
	m.slide = &slide
	m.phase = domain.PhaseOf(slide.Kind)
	view := m.viewLocked()
	m.notifyLocked(view)
	m.mu.Unlock()

	m.logger.DebugContext(ctx, "transition", "from", from, "to", view.Phase, "slide_id", slideID, "source", source)
	m.emit(ctx, from, view, source)
	return nil
}

func (m *Machine) viewLocked() View {
	v := View{Phase: m.phase}
	if m.slide != nil {
		s := *m.slide
		v.Slide = &s
	}
	return v
}

// notifyLocked replaces any unread view in each watcher's buffer.
func (m *Machine) notifyLocked(view View) {
	for ch := range m.watchers {
		select {
		case <-ch:
		default:
		}
		ch <- view
	}
}

func (m *Machine) emit(ctx context.Context, from domain.Phase, view View, source string) {
	if m.hooks.OnTransition != nil {
		m.hooks.OnTransition(ctx, &domain.TransitionEvent{
			From:    from,
			To:      view.Phase,
			SlideID: view.SlideID(),
			Source:  source,
		})
	}
}
