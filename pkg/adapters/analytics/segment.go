package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aretw0/liveslides/pkg/ports"
	"github.com/google/uuid"
)

// DefaultSegmentEndpoint is the Segment HTTP tracking API.
const DefaultSegmentEndpoint = "https://api.segment.io/v1"

// Segment sends calls to the Segment HTTP tracking API.
type Segment struct {
	writeKey    string
	endpoint    string
	client      *http.Client
	anonymousID string
	now         func() time.Time
}

var _ ports.Analytics = (*Segment)(nil)

type SegmentOption func(*Segment)

// WithEndpoint overrides the API base URL.
func WithEndpoint(endpoint string) SegmentOption {
	return func(s *Segment) { s.endpoint = endpoint }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) SegmentOption {
	return func(s *Segment) { s.client = c }
}

// WithAnonymousID sets the anonymous id sent with Track calls.
func WithAnonymousID(id string) SegmentOption {
	return func(s *Segment) { s.anonymousID = id }
}

// NewSegment creates a Segment sink for the given write key.
func NewSegment(writeKey string, opts ...SegmentOption) *Segment {
	s := &Segment{
		writeKey:    writeKey,
		endpoint:    DefaultSegmentEndpoint,
		client:      &http.Client{Timeout: 5 * time.Second},
		anonymousID: uuid.NewString(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type segmentPayload struct {
	Type        string         `json:"type"`
	Event       string         `json:"event,omitempty"`
	UserID      string         `json:"userId,omitempty"`
	AnonymousID string         `json:"anonymousId,omitempty"`
	Properties  map[string]any `json:"properties,omitempty"`
	Traits      map[string]any `json:"traits,omitempty"`
	MessageID   string         `json:"messageId"`
	Timestamp   string         `json:"timestamp"`
}

func (s *Segment) Track(ctx context.Context, event string, properties map[string]any) error {
	return s.send(ctx, "track", segmentPayload{
		Type:        "track",
		Event:       event,
		AnonymousID: s.anonymousID,
		Properties:  properties,
	})
}

func (s *Segment) Identify(ctx context.Context, userID string, properties map[string]any) error {
	p := segmentPayload{
		Type:   "identify",
		UserID: userID,
		Traits: properties,
	}
	if userID == "" {
		p.AnonymousID = s.anonymousID
	}
	return s.send(ctx, "identify", p)
}

func (s *Segment) send(ctx context.Context, path string, p segmentPayload) error {
	p.MessageID = uuid.NewString()
	p.Timestamp = s.now().UTC().Format(time.RFC3339Nano)

	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode segment %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"/"+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build segment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(s.writeKey, "")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("segment %s: %w", path, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("segment %s: unexpected status %d", path, resp.StatusCode)
	}
	return nil
}
