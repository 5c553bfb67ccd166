package memory

import (
	"context"
	"sync"
)

// subscriber buffers messages for one consumer so publishers never block on
// a slow reader. Messages are delivered in push order.
type subscriber[T any] struct {
	out   chan T
	wake  chan struct{}
	mu    sync.Mutex
	queue []T
}

func newSubscriber[T any](initial ...T) *subscriber[T] {
	return &subscriber[T]{
		out:   make(chan T),
		wake:  make(chan struct{}, 1),
		queue: append([]T(nil), initial...),
	}
}

func (s *subscriber[T]) push(v T) {
	s.mu.Lock()
	s.queue = append(s.queue, v)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// run delivers queued messages until ctx is done, then closes out and calls done.
func (s *subscriber[T]) run(ctx context.Context, done func()) {
	defer func() {
		done()
		close(s.out)
	}()

	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			select {
			case <-s.wake:
				continue
			case <-ctx.Done():
				return
			}
		}
		next := s.queue[0]
		var zero T
		s.queue[0] = zero
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- next:
		case <-ctx.Done():
			return
		}
	}
}

// topics groups subscribers by name.
type topics[T any] struct {
	subs map[string]map[*subscriber[T]]struct{}
}

func newTopics[T any]() topics[T] {
	return topics[T]{subs: make(map[string]map[*subscriber[T]]struct{})}
}

func (t topics[T]) add(name string, s *subscriber[T]) {
	set, ok := t.subs[name]
	if !ok {
		set = make(map[*subscriber[T]]struct{})
		t.subs[name] = set
	}
	set[s] = struct{}{}
}

func (t topics[T]) remove(name string, s *subscriber[T]) {
	set := t.subs[name]
	delete(set, s)
	if len(set) == 0 {
		delete(t.subs, name)
	}
}

func (t topics[T]) publish(name string, v T) {
	for s := range t.subs[name] {
		s.push(v)
	}
}
