package runner

import (
	"os"

	"github.com/google/uuid"
	"golang.org/x/term"
)

// IdentityPrefix marks identities created by terminal participants.
const IdentityPrefix = "participant"

// NewIdentity returns a fresh participant identity. The client id published
// with responses is the segment after the last colon.
func NewIdentity() string {
	return IdentityPrefix + ":" + uuid.NewString()
}

// IsTerminal reports whether f is attached to a terminal. The CLI switches
// to headless mode when stdin is piped.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
