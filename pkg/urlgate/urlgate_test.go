package urlgate

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/liveslides/pkg/domain"
	"github.com/aretw0/liveslides/pkg/ports"
	"github.com/stretchr/testify/assert"
)

func TestIsSafe(t *testing.T) {
	allowed := []string{
		"https://x",
		"http://x",
		"https://example.com/path?q=1#frag",
		"HTTPS://x",
	}
	for _, u := range allowed {
		assert.True(t, IsSafe(u), u)
	}

	rejected := []string{
		"",
		"   ",
		"javascript:alert(1)",
		"data:text/html,<script>alert(1)</script>",
		"file:///etc/passwd",
		"tel:+15551234",
		"mailto:a@b.c",
		"ftp://example.com",
		"//example.com",
		"/relative",
		"https://",
		"http://[::1",
	}
	for _, u := range rejected {
		assert.False(t, IsSafe(u), u)
	}
}

func TestCheck_WrapsSentinel(t *testing.T) {
	_, err := Check("javascript:alert(1)")
	assert.True(t, errors.Is(err, domain.ErrUnsafeURL))
}

func TestGate_OpenSafely(t *testing.T) {
	type call struct{ url, target string }
	var calls []call
	opener := ports.URLOpenerFunc(func(ctx context.Context, url, target string) error {
		calls = append(calls, call{url, target})
		return nil
	})
	g := New(opener)
	ctx := context.Background()

	assert.True(t, g.OpenSafely(ctx, "https://example.com", ""))
	assert.False(t, g.OpenSafely(ctx, "javascript:alert(1)", "_blank"))
	assert.True(t, g.OpenSafely(ctx, "http://example.com", "_blank"))

	assert.Equal(t, []call{
		{"https://example.com", "_self"},
		{"http://example.com", "_blank"},
	}, calls)
}

func TestGate_OpenerFailure(t *testing.T) {
	g := New(ports.URLOpenerFunc(func(ctx context.Context, url, target string) error {
		return errors.New("no browser")
	}))
	assert.False(t, g.OpenSafely(context.Background(), "https://example.com", ""))

	assert.False(t, New(nil).OpenSafely(context.Background(), "https://example.com", ""))
}
