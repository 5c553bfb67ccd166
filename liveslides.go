package liveslides

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/liveslides/internal/config"
	"github.com/aretw0/liveslides/internal/logging"
	"github.com/aretw0/liveslides/internal/runtime"
	"github.com/aretw0/liveslides/pkg/adapters/analytics"
	httpAdapter "github.com/aretw0/liveslides/pkg/adapters/http"
	loamAdapter "github.com/aretw0/liveslides/pkg/adapters/loam"
	"github.com/aretw0/liveslides/pkg/adapters/mcp"
	"github.com/aretw0/liveslides/pkg/adapters/memory"
	"github.com/aretw0/liveslides/pkg/adapters/redis"
	"github.com/aretw0/liveslides/pkg/catalog"
	"github.com/aretw0/liveslides/pkg/control"
	"github.com/aretw0/liveslides/pkg/domain"
	"github.com/aretw0/liveslides/pkg/metrics"
	"github.com/aretw0/liveslides/pkg/ports"
	"github.com/aretw0/liveslides/pkg/tally"
)

// App is the high-level entry point of the library. It wires the store,
// the catalog, the presenter controls and the tally tracker from a Config.
type App struct {
	Config  *config.Config
	Store   ports.Store
	Catalog *catalog.Catalog
	Control *control.Service
	Auth    *control.TokenAuth
	Tally   *tally.Tracker
	Metrics *metrics.Manager

	analytics ports.Analytics
	redact    func(ports.Analytics) ports.Analytics
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	backend   string
	closers   []func() error
}

// Option defines a functional option for configuring the App.
type Option func(*App)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// WithStore injects a store, bypassing the configured backend.
func WithStore(store ports.Store) Option {
	return func(a *App) {
		a.Store = store
		a.backend = "custom"
	}
}

// WithMetrics injects a metrics manager (e.g. one with its own registry).
func WithMetrics(m *metrics.Manager) Option {
	return func(a *App) {
		a.Metrics = m
	}
}

// WithAnalytics forces the analytics sink of every participant.
func WithAnalytics(sink ports.Analytics) Option {
	return func(a *App) {
		a.analytics = sink
	}
}

// WithLifecycleHooks registers observability hooks on every participant,
// in addition to the metrics hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(a *App) {
		a.hooks = hooks
	}
}

// New wires an App from cfg. A nil cfg uses the defaults.
// Background work (tally boards, deck following) stops when ctx is done.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.New()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{Config: cfg}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = logging.NewNop()
	}
	if a.Metrics == nil {
		a.Metrics = metrics.NewManager(metrics.WithMetricsEnabled(cfg.MetricsEnabled))
	}
	a.redact = func(sink ports.Analytics) ports.Analytics {
		wrapped, _ := analytics.Redact(sink, cfg.AnalyticsRedact...)
		return wrapped
	}

	// 1. Store
	var locker ports.DistributedLocker
	if a.Store == nil {
		switch cfg.Store {
		case config.StoreRedis:
			store, err := redis.New(ctx, cfg.RedisURL,
				redis.WithPrefix(cfg.RedisPrefix),
				redis.WithLogger(a.logger),
			)
			if err != nil {
				return nil, err
			}
			a.Store = store
			a.closers = append(a.closers, store.Close)
			locker = redis.NewLocker(store.Client(), cfg.RedisPrefix)
		default:
			a.Store = memory.NewStore()
		}
		a.backend = cfg.Store
	}

	// 2. Catalog and controls
	a.Catalog = catalog.New(a.Store,
		catalog.WithMapName(cfg.CatalogMap),
		catalog.WithCodeLength(cfg.CodeLength),
		catalog.WithLogger(a.logger),
	)
	controlOpts := []control.Option{
		control.WithLogger(a.logger),
		control.WithOnSet(func(code, _ string) { a.Metrics.RecordStateWrite(code) }),
	}
	if locker != nil {
		controlOpts = append(controlOpts, control.WithLocker(locker))
	}
	a.Control = control.NewService(a.Store, a.Catalog, controlOpts...)
	a.Auth = control.NewTokenAuth(cfg.PresenterToken)

	// 3. Tally
	a.Tally = tally.NewTracker(ctx, a.Store,
		tally.WithBoardOptions(tally.WithFlushInterval(cfg.TallyFlushInterval)),
		tally.WithTrackerLogger(a.logger),
		tally.WithVoteCounter(a.Metrics.RecordVotes),
	)

	// 4. Decks
	if cfg.DecksDir != "" {
		if err := a.followDecks(ctx, cfg.DecksDir); err != nil {
			_ = a.Close()
			return nil, err
		}
	}

	a.logger.Debug("app ready", "store", a.backend, "catalog", cfg.CatalogMap)
	return a, nil
}

// followDecks imports every deck of dir and keeps re-importing on change.
func (a *App) followDecks(ctx context.Context, dir string) error {
	src, err := loamAdapter.Open(dir)
	if err != nil {
		return fmt.Errorf("open decks %s: %w", dir, err)
	}
	imported, failed, err := a.Catalog.Sync(ctx, src)
	if err != nil {
		return err
	}
	a.logger.Info("decks imported", "dir", dir, "imported", len(imported), "failed", failed)
	return a.Catalog.Follow(ctx, src, src)
}

// Handler builds the HTTP surface.
func (a *App) Handler(ctx context.Context) (http.Handler, error) {
	return httpAdapter.NewHandler(ctx, httpAdapter.Config{
		Store:     a.Store,
		Catalog:   a.Catalog,
		Control:   a.Control,
		Auth:      a.Auth,
		Tally:     a.Tally,
		Metrics:   a.Metrics,
		Version:   Version,
		Backend:   a.backend,
		UIBaseURL: a.Config.UIBaseURL,
		Logger:    a.logger,
	})
}

// MCPServer builds the MCP surface.
func (a *App) MCPServer() *mcp.Server {
	return mcp.NewServer(mcp.Config{
		Catalog: a.Catalog,
		Control: a.Control,
		Tally:   a.Tally,
		Auth:    a.Auth,
		Version: Version,
		Logger:  a.logger,
	})
}

// Participant creates a participant session for code. Call Start on it to
// load the presentation and follow the shared state.
func (a *App) Participant(code, identity string, opener ports.URLOpener) *runtime.Participant {
	cfg := runtime.ParticipantConfig{
		Store:      a.Store,
		Code:       code,
		Identity:   identity,
		CatalogMap: a.Config.CatalogMap,
		Opener:     opener,
		Hooks:      chainHooks(a.Metrics.Hooks(), a.hooks),
		Logger:     a.logger,
	}
	if a.analytics != nil {
		cfg.Analytics = a.redact(a.analytics)
	} else {
		cfg.AnalyticsFor = func(p *domain.Presentation) ports.Analytics {
			key := p.WriteKey()
			if key == "" {
				key = a.Config.AnalyticsWriteKey
			}
			return a.redact(analytics.Select(key, a.logger))
		}
	}
	return runtime.NewParticipant(cfg)
}

// Backend names the store in use.
func (a *App) Backend() string { return a.backend }

// Logger returns the app logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// Close releases the store connection.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func chainHooks(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			for _, h := range hooks {
				if h.OnTransition != nil {
					h.OnTransition(ctx, e)
				}
			}
		},
		OnAction: func(ctx context.Context, e *domain.ActionEvent) {
			for _, h := range hooks {
				if h.OnAction != nil {
					h.OnAction(ctx, e)
				}
			}
		},
		OnPublish: func(ctx context.Context, e *domain.ResponseEvent) {
			for _, h := range hooks {
				if h.OnPublish != nil {
					h.OnPublish(ctx, e)
				}
			}
		},
	}
}
