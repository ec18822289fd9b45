// Package token generates unguessable opaque tokens and the one-way digests
// stored in their place. The store never holds a usable secret.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
)

// NewOpaque returns a random url-safe token of nBytes entropy
// (base64url, no padding).
func NewOpaque(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Digest returns sha256(s) in base64url without padding, the storable
// fingerprint of an opaque token.
func Digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
