// Package hasher derives and checks salted password hashes.
package hasher

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// Iterations is the PBKDF2 round count.
	Iterations = 1000

	// KeyLength is the derived key length in bytes.
	KeyLength = 256

	// SaltLength is the raw salt length in bytes, before hex encoding.
	SaltLength = 16
)

// Hash derives a hex encoded PBKDF2-HMAC-SHA256 key from password and salt.
// The same inputs always produce the same output.
func Hash(password, salt string) string {
	return hex.EncodeToString(pbkdf2.Key([]byte(password), []byte(salt), Iterations, KeyLength, sha256.New))
}

// NewSalt returns a fresh hex encoded random salt.
func NewSalt() (string, error) {
	buf := make([]byte, SaltLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("in internal/hasher/hasher.go/NewSalt(): error while `rand.Read()` calling: %w", err)
	}

	return hex.EncodeToString(buf), nil
}

// Verify reports whether password hashes to hash under salt.
func Verify(password, salt, hash string) bool {
	return subtle.ConstantTimeCompare([]byte(Hash(password, salt)), []byte(hash)) == 1
}
