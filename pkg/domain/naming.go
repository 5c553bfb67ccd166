package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Naming convention shared with external editors and generators.
const (
	StateDocPrefix  = "STATE-"
	StreamPrefix    = "STREAM-"
	DefaultCatalog  = "Presentations"
	CodeAlphabet    = "2346789ABCDEFGHJKLMNPQRTUVWXYZ"
	MinCodeLength   = 4
	MaxCodeLength   = 5
	DefaultCodeSize = MaxCodeLength
)

// StateDocName returns the Current-State document name for a presentation code.
func StateDocName(code string) string { return StateDocPrefix + code }

// StreamName returns the response stream name for a presentation code.
func StreamName(code string) string { return StreamPrefix + code }

// NewCode draws a random presentation code of length n from CodeAlphabet.
func NewCode(n int) (string, error) {
	if n < MinCodeLength || n > MaxCodeLength {
		return "", fmt.Errorf("%w: length %d outside %d..%d", ErrInvalidCode, n, MinCodeLength, MaxCodeLength)
	}
	size := big.NewInt(int64(len(CodeAlphabet)))
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		b.WriteByte(CodeAlphabet[idx.Int64()])
	}
	return b.String(), nil
}

// ValidCode reports whether code has an allowed length and uses only CodeAlphabet.
// Lower-case input is accepted; callers should pass it through NormalizeCode.
func ValidCode(code string) bool {
	code = NormalizeCode(code)
	if len(code) < MinCodeLength || len(code) > MaxCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(CodeAlphabet, code[i]) < 0 {
			return false
		}
	}
	return true
}

// NormalizeCode trims and upper-cases a code typed by a person.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NextSlideID returns the first "PREFIX-n" id (n >= 1) not used by slides.
func NextSlideID(slides []Slide, prefix string) string {
	if prefix == "" {
		prefix = "SLIDE"
	}
	used := make(map[string]struct{}, len(slides))
	for _, s := range slides {
		used[s.ID] = struct{}{}
	}
	for n := 1; ; n++ {
		id := prefix + "-" + strconv.Itoa(n)
		if _, ok := used[id]; !ok {
			return id
		}
	}
}
