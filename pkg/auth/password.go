package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"
)

// scrypt parameters. N=16384 keeps stored hashes compatible with the
// original credential store; the cost is still high enough to make offline
// brute force expensive.
const (
	scryptN      = 16384
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 64
	saltLen      = 16

	formatVersion = "1"
)

// HashPassword derives a key from the password with a fresh random salt and
// returns a self-describing stored form: "scrypt$1$<salt-hex>$<key-hex>".
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}

	saltBytes := make([]byte, saltLen)
	if _, err := rand.Read(saltBytes); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	salt := hex.EncodeToString(saltBytes)

	key, err := scrypt.Key([]byte(password), []byte(salt), scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return "", fmt.Errorf("failed to derive key: %w", err)
	}

	return fmt.Sprintf("scrypt$%s$%s$%s", formatVersion, salt, hex.EncodeToString(key)), nil
}

// VerifyPassword re-derives the key using the salt embedded in the stored
// form and compares in constant time. It returns false on any malformed
// stored form; it never panics or returns an error.
func VerifyPassword(password, stored string) bool {
	parts := strings.Split(stored, "$")
	if len(parts) != 4 {
		return false
	}
	algo, _, salt, storedKeyHex := parts[0], parts[1], parts[2], parts[3]
	if algo != "scrypt" || salt == "" {
		return false
	}

	storedKey, err := hex.DecodeString(storedKeyHex)
	if err != nil || len(storedKey) != scryptKeyLen {
		return false
	}

	key, err := scrypt.Key([]byte(password), []byte(salt), scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare(storedKey, key) == 1
}
