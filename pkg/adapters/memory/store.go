package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/liveslides/pkg/domain"
	"github.com/aretw0/liveslides/pkg/ports"
)

// Store implements ports.Store in memory.
// Safe for concurrent use. Nothing survives a restart.
type Store struct {
	mu sync.Mutex

	docs    map[string]json.RawMessage
	streams map[string][]json.RawMessage
	maps    map[string]map[string]json.RawMessage
	state   ports.ConnState

	docSubs    topics[json.RawMessage]
	streamSubs topics[json.RawMessage]
	connSubs   topics[ports.ConnState]
}

var _ ports.Store = (*Store)(nil)

// NewStore creates a new in-memory store in the ready state.
func NewStore() *Store {
	return &Store{
		docs:       make(map[string]json.RawMessage),
		streams:    make(map[string][]json.RawMessage),
		maps:       make(map[string]map[string]json.RawMessage),
		state:      ports.ConnReady,
		docSubs:    newTopics[json.RawMessage](),
		streamSubs: newTopics[json.RawMessage](),
		connSubs:   newTopics[ports.ConnState](),
	}
}

func clone(data json.RawMessage) json.RawMessage {
	return bytes.Clone(data)
}

func checkJSON(data json.RawMessage) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON payload")
	}
	return nil
}

// GetDocument returns a copy of the stored document.
func (s *Store) GetDocument(ctx context.Context, name string) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.docs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, name)
	}
	return clone(data), nil
}

// SetDocument replaces the document and notifies subscribers.
func (s *Store) SetDocument(ctx context.Context, name string, data json.RawMessage) error {
	if err := checkJSON(data); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[name] = clone(data)
	s.docSubs.publish(name, clone(data))
	return nil
}

// SubscribeDocument delivers subsequent changes of the document.
func (s *Store) SubscribeDocument(ctx context.Context, name string) (<-chan json.RawMessage, error) {
	sub := newSubscriber[json.RawMessage]()

	s.mu.Lock()
	s.docSubs.add(name, sub)
	s.mu.Unlock()

	go sub.run(ctx, func() {
		s.mu.Lock()
		s.docSubs.remove(name, sub)
		s.mu.Unlock()
	})
	return sub.out, nil
}

// Publish appends a message to the stream.
func (s *Store) Publish(ctx context.Context, stream string, msg json.RawMessage) error {
	if err := checkJSON(msg); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.streams[stream] = append(s.streams[stream], clone(msg))
	s.streamSubs.publish(stream, clone(msg))
	return nil
}

// SubscribeStream delivers stream messages, optionally replaying history first.
func (s *Store) SubscribeStream(ctx context.Context, stream string, replay bool) (<-chan json.RawMessage, error) {
	s.mu.Lock()
	var history []json.RawMessage
	if replay {
		for _, m := range s.streams[stream] {
			history = append(history, clone(m))
		}
	}
	sub := newSubscriber(history...)
	s.streamSubs.add(stream, sub)
	s.mu.Unlock()

	go sub.run(ctx, func() {
		s.mu.Lock()
		s.streamSubs.remove(stream, sub)
		s.mu.Unlock()
	})
	return sub.out, nil
}

// MapGet returns a copy of the map entry.
func (s *Store) MapGet(ctx context.Context, mapName, key string) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.maps[mapName][key]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", domain.ErrDocumentNotFound, mapName, key)
	}
	return clone(v), nil
}

// MapSet stores a map entry.
func (s *Store) MapSet(ctx context.Context, mapName, key string, value json.RawMessage) error {
	if err := checkJSON(value); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.maps[mapName]
	if !ok {
		m = make(map[string]json.RawMessage)
		s.maps[mapName] = m
	}
	m[key] = clone(value)
	return nil
}

// MapRemove deletes a map entry.
func (s *Store) MapRemove(ctx context.Context, mapName, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.maps[mapName], key)
	return nil
}

// MapKeys lists the keys of a map in lexical order.
func (s *Store) MapKeys(ctx context.Context, mapName string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.maps[mapName]))
	for k := range s.maps[mapName] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// ConnectionState returns the simulated connectivity state.
func (s *Store) ConnectionState() ports.ConnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// WatchConnection delivers the current state, then every change.
func (s *Store) WatchConnection(ctx context.Context) (<-chan ports.ConnState, error) {
	s.mu.Lock()
	sub := newSubscriber(s.state)
	s.connSubs.add("", sub)
	s.mu.Unlock()

	go sub.run(ctx, func() {
		s.mu.Lock()
		s.connSubs.remove("", sub)
		s.mu.Unlock()
	})
	return sub.out, nil
}

// SetConnectionState simulates a connectivity change.
func (s *Store) SetConnectionState(state ports.ConnState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == state {
		return
	}
	s.state = state
	s.connSubs.publish("", state)
}

// StreamLen returns the number of messages in a stream.
func (s *Store) StreamLen(stream string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.streams[stream])
}
