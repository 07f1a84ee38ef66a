package game

import (
	"crypto/rand"
	"encoding/hex"
)

// RandomToken returns an unguessable opaque string, used for session
// tokens (spec.md §4.10) and auto-allocated base ids (spec.md §4.3).
func RandomToken() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand on a sane OS does not fail; fall back defensively
		// to a fixed-length zero token rather than panic the caller.
		return hex.EncodeToString(make([]byte, 16))
	}
	return hex.EncodeToString(b)
}

func randomToken() string { return RandomToken() }
