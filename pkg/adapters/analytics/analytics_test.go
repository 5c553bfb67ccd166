package analytics_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/liveslides/pkg/adapters/analytics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegment_Track(t *testing.T) {
	var gotPath, gotUser string
	var body map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, _, _ = r.BasicAuth()
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	seg := analytics.NewSegment("wk_123", analytics.WithEndpoint(srv.URL), analytics.WithAnonymousID("anon-1"))
	err := seg.Track(context.Background(), "Voted", map[string]any{"answer": "yes"})
	require.NoError(t, err)

	assert.Equal(t, "/track", gotPath)
	assert.Equal(t, "wk_123", gotUser)
	assert.Equal(t, "Voted", body["event"])
	assert.Equal(t, "anon-1", body["anonymousId"])
	assert.Equal(t, map[string]any{"answer": "yes"}, body["properties"])
	assert.NotEmpty(t, body["messageId"])
}

func TestSegment_IdentifyError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/identify", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	seg := analytics.NewSegment("wk", analytics.WithEndpoint(srv.URL))
	err := seg.Identify(context.Background(), "+15551234", map[string]any{"name": "Ada"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestRecorder(t *testing.T) {
	rec := &analytics.Recorder{}
	ctx := context.Background()

	require.NoError(t, rec.Track(ctx, "e", nil))
	require.NoError(t, rec.Identify(ctx, "u", map[string]any{"k": "v"}))

	calls := rec.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "track", calls[0].Method)
	assert.Equal(t, "u", calls[1].Name)

	rec.Err = errors.New("down")
	assert.Error(t, rec.Track(ctx, "e", nil))
}

func TestSelect(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	_, isLog := analytics.Select("", logger).(*analytics.Log)
	assert.True(t, isLog)

	_, isSegment := analytics.Select("key", logger).(*analytics.Segment)
	assert.True(t, isSegment)
}

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	sink := analytics.NewLog(slog.New(slog.NewTextHandler(&buf, nil)))

	require.NoError(t, sink.Track(context.Background(), "Clicked", map[string]any{"x": 1}))
	assert.Contains(t, buf.String(), "event=Clicked")
}

func TestRedact(t *testing.T) {
	rec := &analytics.Recorder{}
	sink, err := analytics.Redact(rec, "(?i)^email$", "phone")
	require.NoError(t, err)
	ctx := context.Background()

	props := map[string]any{
		"email": "ana@example.com",
		"plan":  "pro",
		"contact": map[string]any{
			"mobile_phone": "+15550100",
			"city":         "Lisbon",
		},
	}
	require.NoError(t, sink.Identify(ctx, "participant:1", props))
	require.NoError(t, sink.Track(ctx, "signup", map[string]any{"EMAIL": "x"}))

	calls := rec.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, map[string]any{
		"email": analytics.Mask,
		"plan":  "pro",
		"contact": map[string]any{
			"mobile_phone": analytics.Mask,
			"city":         "Lisbon",
		},
	}, calls[0].Properties)
	assert.Equal(t, analytics.Mask, calls[1].Properties["EMAIL"])
	assert.Equal(t, "ana@example.com", props["email"], "input map must not be modified")

	same, err := analytics.Redact(rec)
	require.NoError(t, err)
	assert.Same(t, rec, same)

	_, err = analytics.Redact(rec, "(")
	assert.Error(t, err)
}
