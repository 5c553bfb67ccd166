// Package catalog stores presentation documents in a map keyed by join code.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/liveslides/internal/logging"
	"github.com/aretw0/liveslides/pkg/domain"
	"github.com/aretw0/liveslides/pkg/ports"
)

// ErrCodeExhausted is returned when no free code was found.
var ErrCodeExhausted = errors.New("could not allocate a free presentation code")

// DefaultAttempts bounds code generation retries on collision.
const DefaultAttempts = 16

// Entry is a catalog listing row.
type Entry struct {
	Code   string `json:"code"`
	Title  string `json:"title"`
	Slides int    `json:"slides"`
}

// Catalog reads and writes presentations.
type Catalog struct {
	store    ports.MapStore
	mapName  string
	codeLen  int
	attempts int
	logger   *slog.Logger
	newCode  func(int) (string, error)
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithMapName overrides the catalog map name.
func WithMapName(name string) Option {
	return func(c *Catalog) {
		if name != "" {
			c.mapName = name
		}
	}
}

// WithCodeLength sets the length of generated codes.
func WithCodeLength(n int) Option {
	return func(c *Catalog) { c.codeLen = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Catalog) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithCodeGenerator replaces the random code generator.
func WithCodeGenerator(fn func(int) (string, error)) Option {
	return func(c *Catalog) { c.newCode = fn }
}

// New creates a catalog over store.
func New(store ports.MapStore, opts ...Option) *Catalog {
	c := &Catalog{
		store:    store,
		mapName:  domain.DefaultCatalog,
		codeLen:  domain.DefaultCodeSize,
		attempts: DefaultAttempts,
		logger:   logging.NewNop(),
		newCode:  domain.NewCode,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MapName returns the name of the backing map.
func (c *Catalog) MapName() string { return c.mapName }

// Get loads the presentation for code.
func (c *Catalog) Get(ctx context.Context, code string) (*domain.Presentation, error) {
	code = domain.NormalizeCode(code)
	raw, err := c.store.MapGet(ctx, c.mapName, code)
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrPresentationNotFound, code)
		}
		return nil, err
	}

	var p domain.Presentation
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode presentation %s: %w", code, err)
	}
	return &p, nil
}

// Put validates p and stores it under code, replacing any previous document.
func (c *Catalog) Put(ctx context.Context, code string, p *domain.Presentation) error {
	code = domain.NormalizeCode(code)
	if !domain.ValidCode(code) {
		return fmt.Errorf("%w: %q", domain.ErrInvalidCode, code)
	}
	if err := domain.Validate(p); err != nil {
		return err
	}
	for _, w := range domain.Lint(p) {
		c.logger.WarnContext(ctx, "presentation warning", "code", code, "path", w.Path, "message", w.Message)
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode presentation: %w", err)
	}
	if err := c.store.MapSet(ctx, c.mapName, code, data); err != nil {
		return fmt.Errorf("store presentation %s: %w", code, err)
	}
	c.logger.InfoContext(ctx, "presentation stored", "code", code, "title", p.Title)
	return nil
}

// Create stores p under a newly generated code and returns the code.
func (c *Catalog) Create(ctx context.Context, p *domain.Presentation) (string, error) {
	if err := domain.Validate(p); err != nil {
		return "", err
	}

	for i := 0; i < c.attempts; i++ {
		code, err := c.newCode(c.codeLen)
		if err != nil {
			return "", err
		}
		exists, err := c.Exists(ctx, code)
		if err != nil {
			return "", err
		}
		if exists {
			c.logger.DebugContext(ctx, "code collision", "code", code)
			continue
		}
		return code, c.Put(ctx, code, p)
	}
	return "", ErrCodeExhausted
}

// Exists reports whether code is taken.
func (c *Catalog) Exists(ctx context.Context, code string) (bool, error) {
	_, err := c.store.MapGet(ctx, c.mapName, domain.NormalizeCode(code))
	if errors.Is(err, domain.ErrDocumentNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Delete removes the presentation for code.
func (c *Catalog) Delete(ctx context.Context, code string) error {
	code = domain.NormalizeCode(code)
	exists, err := c.Exists(ctx, code)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", domain.ErrPresentationNotFound, code)
	}
	return c.store.MapRemove(ctx, c.mapName, code)
}

// List returns every presentation, sorted by code. Entries that fail to
// decode are logged and skipped.
func (c *Catalog) List(ctx context.Context) ([]Entry, error) {
	codes, err := c.store.MapKeys(ctx, c.mapName)
	if err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(codes))
	for _, code := range codes {
		p, err := c.Get(ctx, code)
		if err != nil {
			c.logger.WarnContext(ctx, "skipping unreadable presentation", "code", code, "error", err)
			continue
		}
		out = append(out, Entry{Code: code, Title: p.Title, Slides: len(p.Slides)})
	}
	return out, nil
}
