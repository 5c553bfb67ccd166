package runtime

import (
	"errors"
	"fmt"

	"github.com/aretw0/liveslides/pkg/domain"
)

// ErrHalted is returned when a transition is requested while the machine sits
// in an error phase.
var ErrHalted = errors.New("runtime halted in error phase")

// ActionError records the failure of one pipeline action.
// It never aborts the pipeline.
type ActionError struct {
	Index int
	Type  domain.ActionType
	Err   error
	// Panicked is set when the handler panicked instead of returning an error.
	Panicked bool
}

func (e *ActionError) Error() string {
	if e.Panicked {
		return fmt.Sprintf("action %d (%s) panicked: %v", e.Index, e.Type, e.Err)
	}
	return fmt.Sprintf("action %d (%s) failed: %v", e.Index, e.Type, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }
