package control

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Role is the capability of a caller.
type Role string

const (
	RoleAudience  Role = "audience"
	RoleModerator Role = "moderator"
	RolePresenter Role = "presenter"
)

// CanWriteState reports whether r may change the current slide.
func (r Role) CanWriteState() bool {
	return r == RolePresenter
}

// TokenAuth maps a bearer token to a role. The configured secret is either a
// bcrypt hash or a plain token.
type TokenAuth struct {
	secret string
}

// NewTokenAuth creates an authenticator. An empty secret disables the check
// and grants the presenter role to everyone.
func NewTokenAuth(secret string) *TokenAuth {
	return &TokenAuth{secret: strings.TrimSpace(secret)}
}

// Open reports whether no secret is configured.
func (a *TokenAuth) Open() bool {
	return a == nil || a.secret == ""
}

// Role returns RolePresenter for a matching token and RoleAudience otherwise.
func (a *TokenAuth) Role(token string) Role {
	if a.Open() {
		return RolePresenter
	}
	if token == "" {
		return RoleAudience
	}
	if isBcrypt(a.secret) {
		if bcrypt.CompareHashAndPassword([]byte(a.secret), []byte(token)) == nil {
			return RolePresenter
		}
		return RoleAudience
	}
	if subtle.ConstantTimeCompare([]byte(a.secret), []byte(token)) == 1 {
		return RolePresenter
	}
	return RoleAudience
}

// HashToken returns a bcrypt hash suitable as a configured secret.
func HashToken(token string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func isBcrypt(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" header value.
func BearerToken(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
