// Package urlgate decides which URLs the runtime may open.
//
// Only absolute http and https URLs with a host pass. Every other scheme,
// including javascript:, data:, file: and tel:, is rejected.
package urlgate

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/aretw0/liveslides/internal/logging"
	"github.com/aretw0/liveslides/pkg/domain"
	"github.com/aretw0/liveslides/pkg/ports"
)

// DefaultTarget is the browsing context used by URL actions.
const DefaultTarget = "_self"

// Check parses raw and returns a wrapped domain.ErrUnsafeURL when it is not allowed.
func Check(raw string) (*url.URL, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: empty url", domain.ErrUnsafeURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnsafeURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme %q not allowed", domain.ErrUnsafeURL, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host", domain.ErrUnsafeURL)
	}
	return u, nil
}

// IsSafe reports whether raw may be opened.
func IsSafe(raw string) bool {
	_, err := Check(raw)
	return err == nil
}

// Gate opens URLs that pass the allow-list through a ports.URLOpener.
type Gate struct {
	opener ports.URLOpener
	logger *slog.Logger
}

// Option configures a Gate.
type Option func(*Gate)

// WithLogger sets the logger used for rejections.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) { g.logger = logger }
}

// New creates a gate in front of opener.
func New(opener ports.URLOpener, opts ...Option) *Gate {
	g := &Gate{opener: opener, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// OpenSafely opens raw when it passes the allow-list. Rejections and opener
// failures are logged and reported as false.
func (g *Gate) OpenSafely(ctx context.Context, raw, target string) bool {
	u, err := Check(raw)
	if err != nil {
		g.logger.WarnContext(ctx, "blocked url", "url", raw, "error", err)
		return false
	}
	if target == "" {
		target = DefaultTarget
	}
	if g.opener == nil {
		g.logger.WarnContext(ctx, "no url opener configured", "url", u.String())
		return false
	}
	if err := g.opener.Open(ctx, u.String(), target); err != nil {
		g.logger.WarnContext(ctx, "open url failed", "url", u.String(), "error", err)
		return false
	}
	return true
}
