package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/scrypt"
)

const (
	keyLength = 64
	scryptN   = 1 << 14
	scryptR   = 8
	scryptP   = 1
)

// HashPassword derives a key from the password with a fresh random salt and
// returns it as "salt:hex(key)". Two hashes of the same password differ.
func HashPassword(password string) (string, error) {
	saltBytes := make([]byte, 16)
	if _, err := rand.Read(saltBytes); err != nil {
		return "", errors.Wrap(err, "generate salt")
	}
	salt := hex.EncodeToString(saltBytes)

	key, err := scrypt.Key([]byte(password), []byte(salt), scryptN, scryptR, scryptP, keyLength)
	if err != nil {
		return "", errors.Wrap(err, "derive key")
	}
	return salt + ":" + hex.EncodeToString(key), nil
}

// VerifyPassword re-derives the key with the stored salt and compares it to
// the stored key in constant time. Any malformed stored hash verifies false.
func VerifyPassword(password, storedHash string) bool {
	salt, hashHex, found := strings.Cut(storedHash, ":")
	if !found || salt == "" || hashHex == "" {
		return false
	}
	stored, err := hex.DecodeString(hashHex)
	if err != nil {
		return false
	}

	key, err := scrypt.Key([]byte(password), []byte(salt), scryptN, scryptR, scryptP, keyLength)
	if err != nil {
		return false
	}
	if len(key) != len(stored) {
		return false
	}
	return subtle.ConstantTimeCompare(key, stored) == 1
}
