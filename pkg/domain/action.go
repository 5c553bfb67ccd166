package domain

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/liveslides/pkg/schema"
)

// ActionType is the discriminant of an action in its serialized form.
type ActionType string

const (
	ActionSlide    ActionType = "Slide"
	ActionTrack    ActionType = "Track"
	ActionIdentify ActionType = "Identify"
	ActionStream   ActionType = "Stream"
	ActionURL      ActionType = "URL"
	ActionTally    ActionType = "Tally"
	// ActionInvalid marks a payload that could not be decoded into a known variant.
	ActionInvalid ActionType = "Invalid"
)

// KeyType is the discriminant field name in serialized actions.
const KeyType = "type"

// ErrUnknownActionType is returned when an action's discriminant is not one of the known variants.
var ErrUnknownActionType = errors.New("unknown action type")

// Action is one declarative, side-effecting instruction.
//
// The set of variants is closed: only types in this package implement it, so
// a type switch over the variants below is exhaustive.
type Action interface {
	Type() ActionType
	isAction()
}

// SlideAction navigates to another slide of the same presentation.
type SlideAction struct {
	SlideID string `mapstructure:"slideId"`
}

// TrackAction forwards a named event to analytics.
type TrackAction struct {
	Event      string         `mapstructure:"event"`
	Properties map[string]any `mapstructure:"properties"`
}

// IdentifyAction identifies the participant to analytics.
type IdentifyAction struct {
	Properties map[string]any `mapstructure:"properties"`
}

// StreamAction publishes an interpolated message to the response stream.
type StreamAction struct {
	Message    string         `mapstructure:"message"`
	Properties map[string]any `mapstructure:"properties"`
	// Extra keeps author-defined fields so templates can reference them.
	Extra map[string]any `mapstructure:",remain"`
}

// URLAction opens an external URL after it passes the allow-list.
type URLAction struct {
	URL string `mapstructure:"url"`
}

// TallyAction records a discrete answer on the response stream.
type TallyAction struct {
	Answer string `mapstructure:"answer"`
}

// InvalidAction carries a payload that failed to decode. It is kept in the
// list so the pipeline can report it and move on to the next action.
type InvalidAction struct {
	Raw map[string]any
	Err error
}

func (SlideAction) Type() ActionType    { return ActionSlide }
func (TrackAction) Type() ActionType    { return ActionTrack }
func (IdentifyAction) Type() ActionType { return ActionIdentify }
func (StreamAction) Type() ActionType   { return ActionStream }
func (URLAction) Type() ActionType      { return ActionURL }
func (TallyAction) Type() ActionType    { return ActionTally }
func (InvalidAction) Type() ActionType  { return ActionInvalid }

func (SlideAction) isAction()    {}
func (TrackAction) isAction()    {}
func (IdentifyAction) isAction() {}
func (StreamAction) isAction()   {}
func (URLAction) isAction()      {}
func (TallyAction) isAction()    {}
func (InvalidAction) isAction()  {}

// Params returns the action's own fields as template bindings.
func (a StreamAction) Params() map[string]any {
	params := make(map[string]any, len(a.Extra)+3)
	for k, v := range a.Extra {
		params[k] = v
	}
	params[KeyType] = string(ActionStream)
	params["message"] = a.Message
	if a.Properties != nil {
		params["properties"] = a.Properties
	}
	return params
}

var actionSchemas = map[ActionType]schema.Schema{
	ActionSlide: {"slideId": schema.NonEmptyString()},
	ActionTrack: {
		"event":      schema.NonEmptyString(),
		"properties": schema.Optional(schema.Map()),
	},
	ActionIdentify: {"properties": schema.Optional(schema.Map())},
	ActionStream: {
		"message":    schema.String(),
		"properties": schema.Optional(schema.Map()),
	},
	ActionURL:   {"url": schema.String()},
	ActionTally: {"answer": schema.Optional(schema.String())},
}

// DecodeAction converts a raw map into its variant. Payloads with an unknown
// discriminant or missing fields are rejected.
func DecodeAction(raw map[string]any) (Action, error) {
	kind, _ := raw[KeyType].(string)

	if s, ok := actionSchemas[ActionType(kind)]; ok {
		if err := schema.Validate(s, raw); err != nil {
			return nil, fmt.Errorf("invalid %s action: %w", kind, err)
		}
	}

	var target Action
	switch ActionType(kind) {
	case ActionSlide:
		var a SlideAction
		if err := decodeInto(raw, &a); err != nil {
			return nil, err
		}
		target = a
	case ActionTrack:
		var a TrackAction
		if err := decodeInto(raw, &a); err != nil {
			return nil, err
		}
		target = a
	case ActionIdentify:
		var a IdentifyAction
		if err := decodeInto(raw, &a); err != nil {
			return nil, err
		}
		target = a
	case ActionStream:
		var a StreamAction
		if err := decodeInto(raw, &a); err != nil {
			return nil, err
		}
		delete(a.Extra, KeyType)
		target = a
	case ActionURL:
		var a URLAction
		if err := decodeInto(raw, &a); err != nil {
			return nil, err
		}
		target = a
	case ActionTally:
		var a TallyAction
		if err := decodeInto(raw, &a); err != nil {
			return nil, err
		}
		target = a
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownActionType, kind)
	}
	return target, nil
}

func decodeInto(raw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "mapstructure",
		Result:  out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("decode %v action: %w", raw[KeyType], err)
	}
	return nil
}

// EncodeAction converts an action back into its serialized map form.
func EncodeAction(a Action) map[string]any {
	out := map[string]any{KeyType: string(a.Type())}
	switch v := a.(type) {
	case SlideAction:
		out["slideId"] = v.SlideID
	case TrackAction:
		out["event"] = v.Event
		if v.Properties != nil {
			out["properties"] = v.Properties
		}
	case IdentifyAction:
		if v.Properties != nil {
			out["properties"] = v.Properties
		}
	case StreamAction:
		for k, val := range v.Extra {
			out[k] = val
		}
		out["message"] = v.Message
		if v.Properties != nil {
			out["properties"] = v.Properties
		}
	case URLAction:
		out["url"] = v.URL
	case TallyAction:
		out["answer"] = v.Answer
	case InvalidAction:
		for k, val := range v.Raw {
			out[k] = val
		}
		if t, ok := v.Raw[KeyType]; ok {
			out[KeyType] = t
		} else {
			delete(out, KeyType)
		}
	}
	return out
}

// Actions is an ordered action pipeline.
type Actions []Action

// UnmarshalJSON decodes each element independently. Elements that cannot be
// decoded become InvalidAction entries instead of failing the whole document.
func (as *Actions) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	if raws == nil {
		*as = nil
		return nil
	}

	out := make(Actions, 0, len(raws))
	for _, r := range raws {
		var m map[string]any
		if err := json.Unmarshal(r, &m); err != nil {
			out = append(out, InvalidAction{Err: fmt.Errorf("action is not an object: %w", err)})
			continue
		}
		a, err := DecodeAction(m)
		if err != nil {
			out = append(out, InvalidAction{Raw: m, Err: err})
			continue
		}
		out = append(out, a)
	}
	*as = out
	return nil
}

// MarshalJSON encodes each action with its discriminant.
func (as Actions) MarshalJSON() ([]byte, error) {
	if as == nil {
		return []byte("null"), nil
	}
	out := make([]map[string]any, 0, len(as))
	for _, a := range as {
		out = append(out, EncodeAction(a))
	}
	return json.Marshal(out)
}
