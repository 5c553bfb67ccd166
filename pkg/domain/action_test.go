package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActions_UnmarshalJSON(t *testing.T) {
	raw := `[
		{"type":"Tally","answer":"Yes"},
		{"type":"Slide","slideId":"END"},
		{"type":"Track","event":"Voted","properties":{"choice":"yes"}},
		{"type":"Identify","properties":{"plan":"pro"}},
		{"type":"Stream","message":"Hi ${name}","channel":"ops"},
		{"type":"URL","url":"https://example.com"}
	]`

	var actions Actions
	require.NoError(t, json.Unmarshal([]byte(raw), &actions))
	require.Len(t, actions, 6)

	assert.Equal(t, TallyAction{Answer: "Yes"}, actions[0])
	assert.Equal(t, SlideAction{SlideID: "END"}, actions[1])
	assert.Equal(t, TrackAction{Event: "Voted", Properties: map[string]any{"choice": "yes"}}, actions[2])
	assert.Equal(t, IdentifyAction{Properties: map[string]any{"plan": "pro"}}, actions[3])

	stream, ok := actions[4].(StreamAction)
	require.True(t, ok)
	assert.Equal(t, "Hi ${name}", stream.Message)
	assert.Equal(t, map[string]any{"channel": "ops"}, stream.Extra)

	assert.Equal(t, URLAction{URL: "https://example.com"}, actions[5])
}

func TestActions_UnmarshalJSON_KeepsInvalidEntries(t *testing.T) {
	raw := `[
		{"type":"Teleport","where":"moon"},
		{"type":"Slide"},
		"not-an-object",
		{"type":"Tally","answer":"No"}
	]`

	var actions Actions
	require.NoError(t, json.Unmarshal([]byte(raw), &actions))
	require.Len(t, actions, 4)

	unknown, ok := actions[0].(InvalidAction)
	require.True(t, ok)
	assert.True(t, errors.Is(unknown.Err, ErrUnknownActionType))
	assert.Equal(t, "moon", unknown.Raw["where"])

	missing, ok := actions[1].(InvalidAction)
	require.True(t, ok)
	assert.Contains(t, missing.Err.Error(), "slideId")

	_, ok = actions[2].(InvalidAction)
	assert.True(t, ok)

	assert.Equal(t, TallyAction{Answer: "No"}, actions[3])
}

func TestActions_MarshalJSON(t *testing.T) {
	actions := Actions{
		TallyAction{Answer: "Yes"},
		SlideAction{SlideID: "END"},
		StreamAction{Message: "m", Extra: map[string]any{"channel": "ops"}},
	}

	data, err := json.Marshal(actions)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"type":"Tally","answer":"Yes"},
		{"type":"Slide","slideId":"END"},
		{"type":"Stream","message":"m","channel":"ops"}
	]`, string(data))
}

func TestActions_MarshalJSON_InvalidKeepsRaw(t *testing.T) {
	actions := Actions{InvalidAction{Raw: map[string]any{"type": "Teleport", "where": "moon"}}}

	data, err := json.Marshal(actions)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"type":"Teleport","where":"moon"}]`, string(data))
}

func TestStreamAction_Params(t *testing.T) {
	a := StreamAction{
		Message:    "Hello ${name}",
		Properties: map[string]any{"x": 1},
		Extra:      map[string]any{"name": "default"},
	}

	params := a.Params()
	assert.Equal(t, "Stream", params["type"])
	assert.Equal(t, "Hello ${name}", params["message"])
	assert.Equal(t, "default", params["name"])
	assert.Equal(t, map[string]any{"x": 1}, params["properties"])
}

func TestDecodeAction_UnknownType(t *testing.T) {
	_, err := DecodeAction(map[string]any{"type": "Nope"})
	assert.ErrorIs(t, err, ErrUnknownActionType)

	_, err = DecodeAction(map[string]any{})
	assert.ErrorIs(t, err, ErrUnknownActionType)
}

func TestDecodeAction_TallyWithoutAnswer(t *testing.T) {
	a, err := DecodeAction(map[string]any{"type": "Tally"})
	require.NoError(t, err)
	assert.Equal(t, TallyAction{}, a)

	_, err = DecodeAction(map[string]any{"type": "Tally", "answer": 3})
	assert.Error(t, err)
}

func TestDecodeAction_WrongFieldType(t *testing.T) {
	_, err := DecodeAction(map[string]any{"type": "Track", "event": "e", "properties": "flat"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "properties")
}
