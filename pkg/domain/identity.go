package domain

import "strings"

// ClientID derives the client_id tag from a participant identity:
// the last segment after a colon, or the identity itself when unstructured.
func ClientID(identity string) string {
	i := strings.LastIndex(identity, ":")
	if i < 0 || i == len(identity)-1 {
		return identity
	}
	return identity[i+1:]
}

// UserData is the participant's accumulated identity fields (name, phone, email).
// The pipeline receives it explicitly and returns the updated copy.
type UserData map[string]any

// Merge returns a new UserData with src layered over d.
func (d UserData) Merge(src map[string]any) UserData {
	out := make(UserData, len(d)+len(src))
	for k, v := range d {
		out[k] = v
	}
	for k, v := range src {
		out[k] = v
	}
	return out
}

// String returns the value of key when it is a non-empty string.
func (d UserData) String(key string) string {
	if s, ok := d[key].(string); ok {
		return s
	}
	return ""
}
