package analytics

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/liveslides/pkg/ports"
)

// Mask replaces redacted property values.
const Mask = "***"

type redactor struct {
	next     ports.Analytics
	patterns []*regexp.Regexp
}

// Redact wraps next so that property values whose key matches any pattern
// are masked, at any depth. With no patterns it returns next unchanged.
func Redact(next ports.Analytics, patterns ...string) (ports.Analytics, error) {
	if len(patterns) == 0 {
		return next, nil
	}
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("redact pattern %q: %w", p, err)
		}
		compiled[i] = re
	}
	return &redactor{next: next, patterns: compiled}, nil
}

func (r *redactor) Track(ctx context.Context, event string, properties map[string]any) error {
	return r.next.Track(ctx, event, r.mask(properties))
}

func (r *redactor) Identify(ctx context.Context, userID string, properties map[string]any) error {
	return r.next.Identify(ctx, userID, r.mask(properties))
}

// mask returns a masked deep copy; the caller's map is left untouched.
func (r *redactor) mask(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if r.matches(k) {
			out[k] = Mask
			continue
		}
		if sub, ok := v.(map[string]any); ok {
			out[k] = r.mask(sub)
			continue
		}
		out[k] = v
	}
	return out
}

func (r *redactor) matches(key string) bool {
	for _, p := range r.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
