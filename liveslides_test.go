package liveslides_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/liveslides"
	"github.com/aretw0/liveslides/internal/config"
	"github.com/aretw0/liveslides/internal/runtime"
	"github.com/aretw0/liveslides/internal/testutils"
	"github.com/aretw0/liveslides/pkg/adapters/analytics"
	"github.com/aretw0/liveslides/pkg/control"
	"github.com/aretw0/liveslides/pkg/domain"
	"github.com/aretw0/liveslides/pkg/dsl"
	"github.com/aretw0/liveslides/pkg/loader"
	"github.com/aretw0/liveslides/pkg/ports"
)

func newApp(t *testing.T, cfg *config.Config, opts ...liveslides.Option) *liveslides.App {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg.TallyFlushInterval = 10 * time.Millisecond
	app, err := liveslides.New(ctx, cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	deck, err := loader.Parse([]byte(testutils.ScenarioDeckJSON), loader.FormatJSON)
	require.NoError(t, err)
	require.NoError(t, app.Catalog.Put(ctx, "AB23", deck))
	return app
}

func nextView(t *testing.T, views <-chan runtime.View) runtime.View {
	t.Helper()
	select {
	case v := <-views:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a view")
		return runtime.View{}
	}
}

// scenario drives one participant through the deck and checks the tally.
func scenario(t *testing.T, app *liveslides.App) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := app.Participant("ab23", "participant:42", ports.URLOpenerFunc(func(context.Context, string, string) error { return nil }))
	require.NoError(t, p.Start(ctx))

	views := p.Watch(ctx)
	assert.Equal(t, domain.PhaseWelcome, nextView(t, views).Phase)

	require.NoError(t, app.Control.SetCurrentSlide(ctx, control.RolePresenter, "AB23", "Q1"))
	v := nextView(t, views)
	assert.Equal(t, domain.PhaseQuestion, v.Phase)
	assert.Equal(t, "Q1", v.SlideID())

	res, err := p.Choose(ctx, "yes")
	require.NoError(t, err)
	assert.Empty(t, res.Errors)
	assert.Equal(t, 2, res.Executed)
	assert.Equal(t, domain.PhaseEnded, nextView(t, views).Phase)

	board, err := app.Tally.Board("AB23")
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		return board.Snapshot().Total == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "Yes", board.Snapshot().Entries[0].Label)
}

func TestApp_MemoryScenario(t *testing.T) {
	app := newApp(t, config.New())
	assert.Equal(t, config.StoreMemory, app.Backend())
	scenario(t, app)
}

func TestApp_RedisScenario(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := config.New()
	cfg.Store = config.StoreRedis
	cfg.RedisURL = "redis://" + mr.Addr()
	app := newApp(t, cfg)

	assert.Equal(t, config.StoreRedis, app.Backend())
	scenario(t, app)
	assert.True(t, mr.Exists("liveslides:doc:STATE-AB23"))
}

func TestApp_PresenterTokenGuardsState(t *testing.T) {
	cfg := config.New()
	cfg.PresenterToken = "s3cret"
	app := newApp(t, cfg)
	ctx := context.Background()

	role := app.Auth.Role("wrong")
	err := app.Control.SetCurrentSlide(ctx, role, "AB23", "Q1")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	require.NoError(t, app.Control.SetCurrentSlide(ctx, app.Auth.Role("s3cret"), "AB23", "Q1"))
	state, err := app.Control.CurrentState(ctx, "AB23")
	require.NoError(t, err)
	assert.Equal(t, "Q1", state.CurrentSlideID)
}

func TestApp_Handler(t *testing.T) {
	app := newApp(t, config.New())

	h, err := app.Handler(context.Background())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/presentations/AB23", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"Scenario"`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/info", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), liveslides.Version)
}

func TestApp_DecksDir(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteFiles(t, dir, map[string]string{
		"CD45.json": testutils.ScenarioDeckJSON,
	})

	cfg := config.New()
	cfg.DecksDir = dir
	app := newApp(t, cfg)

	p, err := app.Catalog.Get(context.Background(), "CD45")
	require.NoError(t, err)
	assert.Equal(t, "Scenario", p.Title)
}

func TestApp_InvalidConfig(t *testing.T) {
	cfg := config.New()
	cfg.Store = "etcd"
	_, err := liveslides.New(context.Background(), cfg)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, liveslides.Version)
}

func TestApp_AnalyticsAndHooks(t *testing.T) {
	rec := &analytics.Recorder{}
	var (
		mu          sync.Mutex
		transitions []domain.Phase
	)
	app := newApp(t, config.New(),
		liveslides.WithAnalytics(rec),
		liveslides.WithLifecycleHooks(domain.LifecycleHooks{
			OnTransition: func(_ context.Context, e *domain.TransitionEvent) {
				mu.Lock()
				transitions = append(transitions, e.To)
				mu.Unlock()
			},
		}),
	)
	ctx := context.Background()

	deck := dsl.New("Tracked")
	deck.DemoCta("CTA", "Try it").
		Option("Go").Track("demo_opened", map[string]any{"email": "ana@example.com", "plan": "pro"})
	p, err := deck.Build()
	require.NoError(t, err)
	require.NoError(t, app.Catalog.Put(ctx, "EF67", p))
	require.NoError(t, app.Control.SetCurrentSlide(ctx, control.RolePresenter, "EF67", "CTA"))

	part := app.Participant("EF67", "participant:7", nil)
	require.NoError(t, part.Start(ctx))
	require.Eventually(t, func() bool { return part.View().SlideID() == "CTA" }, time.Second, 5*time.Millisecond)

	res, err := part.Choose(ctx, "Go")
	require.NoError(t, err)
	assert.Empty(t, res.Errors)

	calls := rec.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "demo_opened", calls[0].Name)
	assert.Equal(t, map[string]any{"email": analytics.Mask, "plan": "pro"}, calls[0].Properties)
	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, transitions, domain.PhaseDemoCta)
}
