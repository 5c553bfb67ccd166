package control_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/liveslides/pkg/adapters/memory"
	"github.com/aretw0/liveslides/pkg/catalog"
	"github.com/aretw0/liveslides/pkg/control"
	"github.com/aretw0/liveslides/pkg/domain"
	"github.com/aretw0/liveslides/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const code = "AB23"

type countingLocker struct {
	mu       sync.Mutex
	locks    int
	unlocks  int
	keys     []string
	failWith error
}

func (l *countingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failWith != nil {
		return nil, l.failWith
	}
	l.locks++
	l.keys = append(l.keys, key)
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.unlocks++
		return nil
	}, nil
}

func setup(t *testing.T, opts ...control.Option) (*control.Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	cat := catalog.New(store)
	require.NoError(t, cat.Put(context.Background(), code, &domain.Presentation{
		Title: "Deck",
		Slides: []domain.Slide{
			{ID: "WAIT", Kind: domain.KindWatchPresenter, Title: "Hold on"},
			{ID: "Q1", Kind: domain.KindQuestion, Title: "Ready?", Options: []domain.Option{{OptionLabel: "Yes"}}},
			{ID: "END", Kind: domain.KindEnded, Title: "Bye"},
		},
	}))
	return control.NewService(store, cat, opts...), store
}

func TestSetCurrentSlide(t *testing.T) {
	ctx := context.Background()
	var notified []string
	svc, store := setup(t, control.WithOnSet(func(c, id string) { notified = append(notified, c+"/"+id) }))

	require.NoError(t, svc.SetCurrentSlide(ctx, control.RolePresenter, "ab23", "Q1"))

	raw, err := store.GetDocument(ctx, domain.StateDocName(code))
	require.NoError(t, err)
	assert.JSONEq(t, `{"currentSlideId":"Q1"}`, string(raw))

	st, err := svc.CurrentState(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, "Q1", st.CurrentSlideID)
	assert.Equal(t, []string{"AB23/Q1"}, notified)
}

func TestSetCurrentSlide_Rejections(t *testing.T) {
	ctx := context.Background()
	svc, store := setup(t)

	err := svc.SetCurrentSlide(ctx, control.RoleAudience, code, "Q1")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	err = svc.SetCurrentSlide(ctx, control.RoleModerator, code, "Q1")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	err = svc.SetCurrentSlide(ctx, control.RolePresenter, code, "NOPE")
	assert.ErrorIs(t, err, domain.ErrSlideNotFound)

	err = svc.SetCurrentSlide(ctx, control.RolePresenter, "ZZZZ", "Q1")
	assert.ErrorIs(t, err, domain.ErrPresentationNotFound)

	_, err = store.GetDocument(ctx, domain.StateDocName(code))
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestCurrentState_Missing(t *testing.T) {
	svc, _ := setup(t)
	st, err := svc.CurrentState(context.Background(), code)
	require.NoError(t, err)
	assert.Empty(t, st.CurrentSlideID)
}

func TestStep(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)

	id, err := svc.Step(ctx, control.RolePresenter, code, 1)
	require.NoError(t, err)
	assert.Equal(t, "WAIT", id, "starts at the entry slide")

	id, err = svc.Step(ctx, control.RolePresenter, code, 1)
	require.NoError(t, err)
	assert.Equal(t, "Q1", id)

	id, err = svc.Step(ctx, control.RolePresenter, code, -1)
	require.NoError(t, err)
	assert.Equal(t, "WAIT", id)

	_, err = svc.Step(ctx, control.RolePresenter, code, -1)
	assert.ErrorIs(t, err, domain.ErrSlideNotFound)
	st, err := svc.CurrentState(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, "WAIT", st.CurrentSlideID, "a failed step writes nothing")

	id, err = svc.Step(ctx, control.RolePresenter, code, 2)
	require.NoError(t, err)
	assert.Equal(t, "END", id)

	_, err = svc.Step(ctx, control.RolePresenter, code, 1)
	assert.ErrorIs(t, err, domain.ErrSlideNotFound)
	st, err = svc.CurrentState(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, "END", st.CurrentSlideID)

	_, err = svc.Step(ctx, control.RoleAudience, code, 1)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)
	require.NoError(t, svc.SetCurrentSlide(ctx, control.RolePresenter, code, "END"))
	require.NoError(t, svc.Clear(ctx, control.RolePresenter, code))

	st, err := svc.CurrentState(ctx, code)
	require.NoError(t, err)
	assert.Empty(t, st.CurrentSlideID)
}

func TestDistributedLock(t *testing.T) {
	ctx := context.Background()
	locker := &countingLocker{}
	svc, _ := setup(t, control.WithLocker(locker))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, svc.SetCurrentSlide(ctx, control.RolePresenter, code, "Q1"))
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, locker.locks)
	assert.Equal(t, 10, locker.unlocks)
	assert.Equal(t, domain.StateDocName(code), locker.keys[0])

	locker.failWith = errors.New("redis down")
	err := svc.SetCurrentSlide(ctx, control.RolePresenter, code, "END")
	assert.ErrorContains(t, err, "redis down")
}

func TestTokenAuth(t *testing.T) {
	open := control.NewTokenAuth("")
	assert.True(t, open.Open())
	assert.Equal(t, control.RolePresenter, open.Role(""))

	plain := control.NewTokenAuth("s3cret")
	assert.Equal(t, control.RolePresenter, plain.Role("s3cret"))
	assert.Equal(t, control.RoleAudience, plain.Role("guess"))
	assert.Equal(t, control.RoleAudience, plain.Role(""))

	hash, err := control.HashToken("s3cret")
	require.NoError(t, err)
	hashed := control.NewTokenAuth(hash)
	assert.Equal(t, control.RolePresenter, hashed.Role("s3cret"))
	assert.Equal(t, control.RoleAudience, hashed.Role(hash))
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", control.BearerToken("Bearer abc"))
	assert.Equal(t, "abc", control.BearerToken("bearer  abc "))
	assert.Empty(t, control.BearerToken("Basic abc"))
	assert.Empty(t, control.BearerToken(""))
}
