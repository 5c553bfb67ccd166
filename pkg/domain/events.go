package domain

import (
	"context"
	"time"
)

// TimestampLayout is the wire format of ResponseEvent.Timestamp.
const TimestampLayout = time.RFC3339Nano

// ResponseEvent is one message on a presentation's response stream.
// Events are appended once and never mutated.
type ResponseEvent struct {
	SID       string     `json:"sid,omitempty"`
	Type      ActionType `json:"type"`
	Answer    string     `json:"answer,omitempty"`
	Message   string     `json:"message,omitempty"`
	ClientID  string     `json:"client_id"`
	Timestamp string     `json:"timestamp"`
}

// Time parses Timestamp, returning the zero time when it is missing or malformed.
func (e ResponseEvent) Time() time.Time {
	t, err := time.Parse(TimestampLayout, e.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

// TransitionEvent describes a phase change.
type TransitionEvent struct {
	From    Phase
	To      Phase
	SlideID string
	// Source is "shared" for Current-State updates, "local" for Slide actions
	// and "connection" for connectivity changes.
	Source string
}

// ActionEvent describes the outcome of one pipeline action.
type ActionEvent struct {
	Index int
	Type  ActionType
	Err   error
}

// LifecycleHooks defines callbacks for runtime observability.
type LifecycleHooks struct {
	OnTransition func(context.Context, *TransitionEvent)
	OnAction     func(context.Context, *ActionEvent)
	OnPublish    func(context.Context, *ResponseEvent)
}
