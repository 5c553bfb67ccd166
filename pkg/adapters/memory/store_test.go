package memory_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/liveslides/pkg/adapters/memory"
	"github.com/aretw0/liveslides/pkg/domain"
	"github.com/aretw0/liveslides/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunStoreContract(t, store)
}

func TestMemoryStore_RejectsInvalidJSON(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	assert.Error(t, store.SetDocument(ctx, "d", json.RawMessage(`{`)))
	assert.Error(t, store.Publish(ctx, "s", json.RawMessage(`nope`)))
	assert.Error(t, store.MapSet(ctx, "m", "k", json.RawMessage(``)))
}

func TestMemoryStore_ConcurrentPublishers(t *testing.T) {
	store := memory.NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, err := store.SubscribeStream(ctx, "STREAM-X", false)
	require.NoError(t, err)

	const writers, each = 8, 25
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				_ = store.Publish(ctx, "STREAM-X", json.RawMessage(`{"type":"Tally","answer":"Yes"}`))
			}
		}()
	}
	wg.Wait()

	received := 0
	timeout := time.After(2 * time.Second)
	for received < writers*each {
		select {
		case <-msgs:
			received++
		case <-timeout:
			t.Fatalf("received %d of %d", received, writers*each)
		}
	}
	assert.Equal(t, writers*each, store.StreamLen("STREAM-X"))
}

func TestMemoryStore_ConnectionChanges(t *testing.T) {
	store := memory.NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	states, err := store.WatchConnection(ctx)
	require.NoError(t, err)
	assert.Equal(t, ports.ConnReady, <-states)

	store.SetConnectionState(ports.ConnDisconnected)
	assert.Equal(t, ports.ConnDisconnected, <-states)
	assert.Equal(t, ports.ConnDisconnected, store.ConnectionState())
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	data := json.RawMessage(`{"a":1}`)
	require.NoError(t, store.SetDocument(ctx, "d", data))
	data[2] = 'b'

	got, err := store.GetDocument(ctx, "d")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(got))
}

func TestDecks(t *testing.T) {
	decks := memory.NewDecks(map[string]*domain.Presentation{
		"intro": {Title: "Intro"},
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := decks.Watch(ctx)
	require.NoError(t, err)

	decks.Put("outro", &domain.Presentation{Title: "Outro"})
	select {
	case id := <-changes:
		assert.Equal(t, "outro", id)
	case <-time.After(time.Second):
		t.Fatal("no change notification")
	}

	ids, err := decks.ListDecks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"intro", "outro"}, ids)

	p, err := decks.LoadDeck(ctx, "intro")
	require.NoError(t, err)
	assert.Equal(t, "Intro", p.Title)

	_, err = decks.LoadDeck(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrPresentationNotFound)
}
