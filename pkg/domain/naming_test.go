package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCode(t *testing.T) {
	for _, n := range []int{4, 5} {
		code, err := NewCode(n)
		require.NoError(t, err)
		assert.Len(t, code, n)
		assert.True(t, ValidCode(code), code)
	}

	_, err := NewCode(3)
	assert.ErrorIs(t, err, ErrInvalidCode)
	_, err = NewCode(6)
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestCodeAlphabet_NoConfusables(t *testing.T) {
	for _, c := range "0O1IS5" {
		assert.False(t, strings.ContainsRune(CodeAlphabet, c), string(c))
	}
}

func TestValidCode(t *testing.T) {
	assert.True(t, ValidCode("AB23"))
	assert.True(t, ValidCode(" ab23c "))
	assert.False(t, ValidCode("AB0C"))
	assert.False(t, ValidCode("ABC"))
	assert.False(t, ValidCode("ABCDEF"))
	assert.False(t, ValidCode(""))
}

func TestDocNames(t *testing.T) {
	assert.Equal(t, "STATE-AB23", StateDocName("AB23"))
	assert.Equal(t, "STREAM-AB23", StreamName("AB23"))
}

func TestNextSlideID(t *testing.T) {
	slides := []Slide{{ID: "SLIDE-1"}, {ID: "SLIDE-3"}}
	assert.Equal(t, "SLIDE-2", NextSlideID(slides, ""))
	assert.Equal(t, "Q-1", NextSlideID(slides, "Q"))
	assert.Equal(t, "SLIDE-1", NextSlideID(nil, "SLIDE"))
}

func TestClientID(t *testing.T) {
	assert.Equal(t, "abc", ClientID("participant:abc"))
	assert.Equal(t, "c", ClientID("a:b:c"))
	assert.Equal(t, "plain", ClientID("plain"))
	assert.Equal(t, "trailing:", ClientID("trailing:"))
	assert.Equal(t, "", ClientID(""))
}

func TestUserData_Merge(t *testing.T) {
	base := UserData{"name": "Ada", "phone": "1"}
	merged := base.Merge(map[string]any{"phone": "2", "email": "a@b"})

	assert.Equal(t, UserData{"name": "Ada", "phone": "2", "email": "a@b"}, merged)
	assert.Equal(t, "1", base.String("phone"))
	assert.Equal(t, "", merged.String("missing"))
}

func TestPhase(t *testing.T) {
	assert.Equal(t, PhaseQuestion, PhaseOf(KindQuestion))
	assert.True(t, PhaseErrorSync.IsError())
	assert.True(t, PhaseEnded.IsTerminal())
	assert.False(t, PhaseQuestion.IsTerminal())
	assert.False(t, PhaseWelcome.IsError())
}
