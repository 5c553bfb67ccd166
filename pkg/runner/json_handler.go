package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/aretw0/liveslides/internal/runtime"
	"github.com/aretw0/liveslides/pkg/domain"
)

// ViewMessage is the JSON-Lines form of a view.
type ViewMessage struct {
	Phase domain.Phase  `json:"phase"`
	Slide *domain.Slide `json:"slide,omitempty"`
}

// SystemMessage is the JSON-Lines form of a meta-message.
type SystemMessage struct {
	System string `json:"system"`
}

// JSONHandler implements the IOHandler interface for structured JSON-Lines communication.
type JSONHandler struct {
	Reader  *bufio.Reader
	Encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Encoder: json.NewEncoder(w),
	}
}

// Output emits the view as a single JSON line.
func (h *JSONHandler) Output(ctx context.Context, view runtime.View) error {
	return h.Encoder.Encode(ViewMessage{Phase: view.Phase, Slide: view.Slide})
}

// Input reads one line. A JSON string is unquoted; anything else is returned
// as sent.
func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	text, err := h.Reader.ReadString('\n')
	if err != nil && (err != io.EOF || text == "") {
		return "", err
	}
	text = strings.TrimSpace(text)

	var val string
	if json.Unmarshal([]byte(text), &val) == nil {
		text = val
	}
	return SanitizeInput(text)
}

// SystemOutput emits msg as a system message line.
func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.Encoder.Encode(SystemMessage{System: msg})
}
