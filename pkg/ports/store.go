package ports

import (
	"context"
	"encoding/json"
)

// DocumentStore exposes named documents: single mutable JSON blobs.
// Writes are last-write-wins.
type DocumentStore interface {
	// GetDocument returns the current content of a document.
	// Returns domain.ErrDocumentNotFound if the document was never set.
	GetDocument(ctx context.Context, name string) (json.RawMessage, error)

	// SetDocument replaces the content of a document and notifies subscribers.
	SetDocument(ctx context.Context, name string, data json.RawMessage) error

	// SubscribeDocument delivers every subsequent content change, in the order
	// the store applied them. The channel is closed when ctx is canceled.
	SubscribeDocument(ctx context.Context, name string) (<-chan json.RawMessage, error)
}

// StreamStore exposes append-only, fan-out message channels.
// Delivery is at-least-once; there is no ordering guarantee across streams.
type StreamStore interface {
	// Publish appends a message to a stream, creating it if needed.
	Publish(ctx context.Context, stream string, msg json.RawMessage) error

	// SubscribeStream delivers messages appended to the stream. With replay set,
	// messages already in the stream are delivered first.
	// The channel is closed when ctx is canceled.
	SubscribeStream(ctx context.Context, stream string, replay bool) (<-chan json.RawMessage, error)
}

// MapStore exposes string-keyed maps of JSON values.
type MapStore interface {
	// MapGet returns domain.ErrDocumentNotFound if the key is absent.
	MapGet(ctx context.Context, mapName, key string) (json.RawMessage, error)
	MapSet(ctx context.Context, mapName, key string, value json.RawMessage) error
	// MapRemove is a no-op for absent keys.
	MapRemove(ctx context.Context, mapName, key string) error
	// MapKeys returns the keys in lexical order.
	MapKeys(ctx context.Context, mapName string) ([]string, error)
}

// ConnState is the connectivity state reported by a store.
type ConnState string

const (
	ConnInitializing ConnState = "initializing"
	ConnReady        ConnState = "ready"
	ConnDisconnected ConnState = "disconnected"
	ConnError        ConnState = "error"
)

// Healthy reports whether the store can serve requests.
func (s ConnState) Healthy() bool { return s == ConnReady }

// ConnectionMonitor reports the connectivity of a store.
type ConnectionMonitor interface {
	ConnectionState() ConnState

	// WatchConnection delivers every state change. The current state is sent first.
	// The channel is closed when ctx is canceled.
	WatchConnection(ctx context.Context) (<-chan ConnState, error)
}

// Store is the full Document Store Client used by the runtime.
type Store interface {
	DocumentStore
	StreamStore
	MapStore
	ConnectionMonitor
}
