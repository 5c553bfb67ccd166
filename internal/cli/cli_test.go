package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/liveslides"
	"github.com/aretw0/liveslides/internal/config"
	"github.com/aretw0/liveslides/internal/testutils"
	"github.com/aretw0/liveslides/pkg/control"
	"github.com/aretw0/liveslides/pkg/domain"
	"github.com/aretw0/liveslides/pkg/loader"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newApp(t *testing.T) (*liveslides.App, *SignalContext) {
	t.Helper()
	sc := NewSignalContext(context.Background())
	t.Cleanup(sc.Cancel)

	cfg := config.New()
	cfg.TallyFlushInterval = 10 * time.Millisecond
	app, err := liveslides.New(sc, cfg)
	require.NoError(t, err)

	deck, err := loader.Parse([]byte(testutils.ScenarioDeckJSON), loader.FormatJSON)
	require.NoError(t, err)
	require.NoError(t, app.Catalog.Put(sc, "AB23", deck))
	require.NoError(t, app.Control.SetCurrentSlide(sc, control.RolePresenter, "AB23", "Q1"))
	return app, sc
}

func TestRunJoin_Headless(t *testing.T) {
	app, sc := newApp(t)
	out := &syncBuffer{}

	err := RunJoin(sc, app, JoinOptions{Code: "ab23", Headless: true, NoOpen: true}, strings.NewReader("1\nq\n"), out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "[Question]")
	assert.NotContains(t, out.String(), ">>> Joined")

	board, err := app.Tally.Board("AB23")
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return board.Snapshot().Total == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestRunJoin_JSON(t *testing.T) {
	app, sc := newApp(t)
	out := &syncBuffer{}

	err := RunJoin(sc, app, JoinOptions{Code: "AB23", JSON: true, NoOpen: true, Identity: "participant:fixed"}, strings.NewReader("\"yes\"\n"), out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), `"phase":"Question"`)

	board, err := app.Tally.Board("AB23")
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		snap := board.Snapshot()
		return snap.Total == 1 && snap.Recent[0].ClientID == "fixed"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRunJoin_UnknownCode(t *testing.T) {
	app, sc := newApp(t)
	out := &syncBuffer{}

	err := RunJoin(sc, app, JoinOptions{Code: "ZZZZ", Headless: true, NoOpen: true}, strings.NewReader(""), out)
	assert.ErrorIs(t, err, domain.ErrPresentationNotFound)
	assert.Contains(t, out.String(), string(domain.PhaseErrorNoPid))
}

func TestRunModerate(t *testing.T) {
	app, _ := newApp(t)
	ctx := NewSignalContext(context.Background())
	defer ctx.Cancel()
	out := &syncBuffer{}

	done := make(chan error, 1)
	go func() {
		done <- RunModerate(ctx, app, ModerateOptions{Code: "ab23", LogLimit: 5}, out)
	}()

	evt := `{"type":"Tally","answer":"Yes","client_id":"c1","timestamp":"2025-01-01T00:00:00.000Z"}`
	require.NoError(t, app.Store.Publish(ctx, domain.StreamName("AB23"), []byte(evt)))

	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Yes") && strings.Contains(out.String(), "100.0%")
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, out.String(), "AB23  slide: Q1")

	ctx.Cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("moderate did not stop")
	}
}

func TestRunModerate_UnknownCode(t *testing.T) {
	app, sc := newApp(t)
	err := RunModerate(sc, app, ModerateOptions{Code: "ZZZZ"}, &syncBuffer{})
	assert.ErrorIs(t, err, domain.ErrPresentationNotFound)
}
