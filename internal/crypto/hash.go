// Package crypto provides cryptographic utilities for password hashing.
package crypto

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/scrypt"
)

// Scrypt parameters matching the frontend implementation.
// N=16384 (2^14), r=8, p=1 are recommended for interactive logins.
const (
	scryptN      = 16384
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
)

// HashWithScrypt hashes an input string using scrypt with the given salt.
// The salt is lowercased before use. Returns hex-encoded hash.
// Parameters match the frontend: N=16384, r=8, p=1, keyLen=32.
func HashWithScrypt(input, salt string) (string, error) {
	saltBytes := []byte(strings.ToLower(salt))
	dk, err := scrypt.Key([]byte(input), saltBytes, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return "", fmt.Errorf("scrypt key derivation failed: %w", err)
	}
	return hex.EncodeToString(dk), nil
}

// HashDJPassword hashes the DJ portal password for comparison with the
// client-provided hash. The UTC day is used as salt so captured hashes go
// stale within a day.
func HashDJPassword(password string) (string, error) {
	utcDay := strconv.Itoa(time.Now().UTC().Day())
	return HashWithScrypt(password, utcDay)
}
