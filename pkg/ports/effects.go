package ports

import "context"

// Analytics forwards Track and Identify actions to an analytics vendor.
type Analytics interface {
	Track(ctx context.Context, event string, properties map[string]any) error
	Identify(ctx context.Context, userID string, properties map[string]any) error
}

// URLOpener opens a URL that already passed the allow-list.
// Target follows the browser convention ("_self", "_blank").
type URLOpener interface {
	Open(ctx context.Context, url, target string) error
}

// URLOpenerFunc adapts a function to URLOpener.
type URLOpenerFunc func(ctx context.Context, url, target string) error

func (f URLOpenerFunc) Open(ctx context.Context, url, target string) error {
	return f(ctx, url, target)
}
