package ports

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aretw0/liveslides/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contractWait = 2 * time.Second

// RunStoreContract runs a suite of tests to verify that a Store implementation
// adheres to the defined interface contract.
func RunStoreContract(t *testing.T, store Store) {
	ctx := context.Background()
	suffix := time.Now().Format("20060102150405.000000")

	t.Run("Set and Get document", func(t *testing.T) {
		name := "STATE-contract-" + suffix
		require.NoError(t, store.SetDocument(ctx, name, json.RawMessage(`{"currentSlideId":"Q1"}`)))

		data, err := store.GetDocument(ctx, name)
		require.NoError(t, err)
		assert.JSONEq(t, `{"currentSlideId":"Q1"}`, string(data))

		require.NoError(t, store.SetDocument(ctx, name, json.RawMessage(`{"currentSlideId":"Q2"}`)))
		data, err = store.GetDocument(ctx, name)
		require.NoError(t, err)
		assert.JSONEq(t, `{"currentSlideId":"Q2"}`, string(data), "last write wins")
	})

	t.Run("Get missing document", func(t *testing.T) {
		_, err := store.GetDocument(ctx, "missing-"+suffix)
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	})

	t.Run("Subscribe document", func(t *testing.T) {
		name := "STATE-sub-" + suffix
		subCtx, cancel := context.WithCancel(ctx)

		updates, err := store.SubscribeDocument(subCtx, name)
		require.NoError(t, err)

		require.NoError(t, store.SetDocument(ctx, name, json.RawMessage(`{"currentSlideId":"A"}`)))
		assert.JSONEq(t, `{"currentSlideId":"A"}`, string(receive(t, updates)))

		require.NoError(t, store.SetDocument(ctx, name, json.RawMessage(`{"currentSlideId":"B"}`)))
		assert.JSONEq(t, `{"currentSlideId":"B"}`, string(receive(t, updates)))

		cancel()
		assertClosed(t, updates)
	})

	t.Run("Publish and subscribe stream", func(t *testing.T) {
		name := "STREAM-contract-" + suffix
		subCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		msgs, err := store.SubscribeStream(subCtx, name, false)
		require.NoError(t, err)

		for _, answer := range []string{"Yes", "No", "Yes"} {
			msg, _ := json.Marshal(map[string]string{"type": "Tally", "answer": answer})
			require.NoError(t, store.Publish(ctx, name, msg))
		}

		var got []string
		for i := 0; i < 3; i++ {
			var evt map[string]string
			require.NoError(t, json.Unmarshal(receive(t, msgs), &evt))
			got = append(got, evt["answer"])
		}
		assert.Equal(t, []string{"Yes", "No", "Yes"}, got)
	})

	t.Run("Replay stream", func(t *testing.T) {
		name := "STREAM-replay-" + suffix
		require.NoError(t, store.Publish(ctx, name, json.RawMessage(`{"n":1}`)))
		require.NoError(t, store.Publish(ctx, name, json.RawMessage(`{"n":2}`)))

		subCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		msgs, err := store.SubscribeStream(subCtx, name, true)
		require.NoError(t, err)
		assert.JSONEq(t, `{"n":1}`, string(receive(t, msgs)))
		assert.JSONEq(t, `{"n":2}`, string(receive(t, msgs)))

		require.NoError(t, store.Publish(ctx, name, json.RawMessage(`{"n":3}`)))
		assert.JSONEq(t, `{"n":3}`, string(receive(t, msgs)))
	})

	t.Run("Map operations", func(t *testing.T) {
		mapName := "Presentations-" + suffix
		require.NoError(t, store.MapSet(ctx, mapName, "BBBB", json.RawMessage(`{"title":"b"}`)))
		require.NoError(t, store.MapSet(ctx, mapName, "AAAA", json.RawMessage(`{"title":"a"}`)))

		v, err := store.MapGet(ctx, mapName, "AAAA")
		require.NoError(t, err)
		assert.JSONEq(t, `{"title":"a"}`, string(v))

		keys, err := store.MapKeys(ctx, mapName)
		require.NoError(t, err)
		assert.Equal(t, []string{"AAAA", "BBBB"}, keys)

		require.NoError(t, store.MapRemove(ctx, mapName, "AAAA"))
		require.NoError(t, store.MapRemove(ctx, mapName, "AAAA"), "remove is idempotent")

		_, err = store.MapGet(ctx, mapName, "AAAA")
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	})

	t.Run("Connection state", func(t *testing.T) {
		assert.Equal(t, ConnReady, store.ConnectionState())

		watchCtx, cancel := context.WithCancel(ctx)
		states, err := store.WatchConnection(watchCtx)
		require.NoError(t, err)

		select {
		case s := <-states:
			assert.Equal(t, ConnReady, s)
		case <-time.After(contractWait):
			t.Fatal("no initial connection state")
		}
		cancel()
	})
}

func receive(t *testing.T, ch <-chan json.RawMessage) json.RawMessage {
	t.Helper()
	select {
	case msg, ok := <-ch:
		require.True(t, ok, "channel closed early")
		return msg
	case <-time.After(contractWait):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func assertClosed(t *testing.T, ch <-chan json.RawMessage) {
	t.Helper()
	deadline := time.After(contractWait)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after cancel")
		}
	}
}
