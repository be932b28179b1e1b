package token

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

const opaqueTokenRawSize = 32

// NewOpaqueToken generates a cryptographically random bearer token encoded
// as an unpadded base64url string. The token carries no structure; its only
// relationship to a session record is through [HashToken].
func NewOpaqueToken() (string, error) {
	var raw [opaqueTokenRawSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

// HashToken computes the one-way hash of a bearer token. The result is the
// session record ID; it is safe to persist and useless as a credential.
func HashToken(t string) string {
	sum := sha256.Sum256([]byte(t))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// ConstantTimeEqual compares two token strings without leaking a timing
// oracle on the matching prefix length.
func ConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
