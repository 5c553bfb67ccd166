// Package control is the only writer of the Current-State document.
// Writes are role-checked, validated against the presentation and
// serialized per presentation code.
package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/liveslides/internal/logging"
	"github.com/aretw0/liveslides/internal/runtime"
	"github.com/aretw0/liveslides/pkg/catalog"
	"github.com/aretw0/liveslides/pkg/domain"
	"github.com/aretw0/liveslides/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock is held.
const DefaultLockTTL = 10 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Service changes the current slide of presentations.
type Service struct {
	docs    ports.DocumentStore
	catalog *catalog.Catalog

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
	onSet   func(code, slideID string)
}

// Option configures the Service.
type Option func(*Service)

// WithLocker serializes writes across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(s *Service) { s.locker = locker }
}

// WithLockTTL sets the distributed lock TTL.
func WithLockTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.lockTTL = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithOnSet registers a callback invoked after every successful write.
func WithOnSet(fn func(code, slideID string)) Option {
	return func(s *Service) { s.onSet = fn }
}

// NewService creates a control service.
func NewService(docs ports.DocumentStore, cat *catalog.Catalog, opts ...Option) *Service {
	s := &Service{
		docs:    docs,
		catalog: cat,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// acquire gets or creates a lock entry and increments its reference count.
func (s *Service) acquire(code string) *lockEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.locks[code]
	if !ok {
		entry = &lockEntry{}
		s.locks[code] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and drops the entry at zero.
func (s *Service) release(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.locks[code]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(s.locks, code)
	}
}

// withLock runs fn while holding the local and, when configured, the
// distributed lock for code.
func (s *Service) withLock(ctx context.Context, code string, fn func(context.Context) error) error {
	entry := s.acquire(code)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		s.release(code)
	}()

	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, domain.StateDocName(code), s.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				s.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"code", code,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// CurrentState reads the Current-State document. A missing document yields
// an empty state.
func (s *Service) CurrentState(ctx context.Context, code string) (domain.CurrentState, error) {
	code = domain.NormalizeCode(code)
	raw, err := s.docs.GetDocument(ctx, domain.StateDocName(code))
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			return domain.CurrentState{}, nil
		}
		return domain.CurrentState{}, err
	}
	var st domain.CurrentState
	if err := json.Unmarshal(raw, &st); err != nil {
		return domain.CurrentState{}, fmt.Errorf("decode current state: %w", err)
	}
	return st, nil
}

// SetCurrentSlide makes slideID the shared current slide of code.
// The slide must exist in the presentation.
func (s *Service) SetCurrentSlide(ctx context.Context, role Role, code, slideID string) error {
	if !role.CanWriteState() {
		return fmt.Errorf("%w: role %s cannot change the current slide", domain.ErrForbidden, role)
	}
	code = domain.NormalizeCode(code)

	return s.withLock(ctx, code, func(ctx context.Context) error {
		p, err := s.catalog.Get(ctx, code)
		if err != nil {
			return err
		}
		if _, err := runtime.NewGraph(p).Resolve(slideID); err != nil {
			return err
		}
		return s.write(ctx, code, slideID)
	})
}

// Step moves the current slide by delta positions in document order and
// returns the new slide id. With no current slide it starts at the entry slide.
// Stepping past either end fails with domain.ErrSlideNotFound and writes nothing.
func (s *Service) Step(ctx context.Context, role Role, code string, delta int) (string, error) {
	if !role.CanWriteState() {
		return "", fmt.Errorf("%w: role %s cannot change the current slide", domain.ErrForbidden, role)
	}
	code = domain.NormalizeCode(code)

	var target string
	err := s.withLock(ctx, code, func(ctx context.Context) error {
		p, err := s.catalog.Get(ctx, code)
		if err != nil {
			return err
		}
		st, err := s.CurrentState(ctx, code)
		if err != nil {
			return err
		}

		g := runtime.NewGraph(p)
		var next domain.Slide
		var ok bool
		if st.CurrentSlideID == "" {
			next, ok = g.Entry()
		} else {
			next, err = g.Resolve(st.CurrentSlideID)
			ok = err == nil
			for i := 0; ok && i < delta; i++ {
				next, ok = g.Next(next.ID)
			}
			for i := 0; ok && i > delta; i-- {
				next, ok = g.Prev(next.ID)
			}
		}
		if !ok {
			return fmt.Errorf("%w: no slide to move to from %q", domain.ErrSlideNotFound, st.CurrentSlideID)
		}
		target = next.ID
		return s.write(ctx, code, target)
	})
	return target, err
}

// Clear empties the current slide, so participants stay on their view
// until the next change.
func (s *Service) Clear(ctx context.Context, role Role, code string) error {
	if !role.CanWriteState() {
		return fmt.Errorf("%w: role %s cannot change the current slide", domain.ErrForbidden, role)
	}
	code = domain.NormalizeCode(code)
	return s.withLock(ctx, code, func(ctx context.Context) error {
		return s.write(ctx, code, "")
	})
}

func (s *Service) write(ctx context.Context, code, slideID string) error {
	data, err := json.Marshal(domain.CurrentState{CurrentSlideID: slideID})
	if err != nil {
		return err
	}
	if err := s.docs.SetDocument(ctx, domain.StateDocName(code), data); err != nil {
		return fmt.Errorf("write current state: %w", err)
	}
	s.logger.InfoContext(ctx, "current slide changed", "code", code, "slide_id", slideID)
	if s.onSet != nil {
		s.onSet(code, slideID)
	}
	return nil
}
