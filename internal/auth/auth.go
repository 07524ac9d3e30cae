package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

func HashToken(tok string) string {
	sum := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(sum[:])
}

// NewToken returns a fresh participant token. Only its hash is stored.
func NewToken() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}

// Matches reports whether tok hashes to hash, in constant time.
func Matches(tok, hash string) bool {
	return subtle.ConstantTimeCompare([]byte(HashToken(tok)), []byte(hash)) == 1
}

// Bearer extracts the token from an "Authorization: Bearer <token>" header.
func Bearer(header string) (string, bool) {
	const p = "Bearer "
	if len(header) <= len(p) || header[:len(p)] != p {
		return "", false
	}
	return header[len(p):], true
}
