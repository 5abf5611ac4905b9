package crypto

import (
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"
)

// Key derivation and cipher framing constants, version 1.
//
// These are a compatibility contract with the wallet service that will
// decrypt the migrated data. A mismatched iteration count produces the
// wrong key with no error signal until GCM tag verification fails, so
// never change these without bumping the scheme version on both sides.
const (
	SchemeVersion = 1

	Iterations = 100_000
	KeyLen     = 32
	SaltLen    = 16
	NonceLen   = 12
)

// DeriveKey derives a 256-bit AES key from a master secret and salt using
// PBKDF2-HMAC-SHA256. Deterministic: identical inputs yield identical key
// material. Callers must treat the result as single-use and wipe it after
// the one encrypt or decrypt it was derived for.
func DeriveKey(master, salt []byte) []byte {
	return pbkdf2.Key(master, salt, Iterations, KeyLen, sha256.New)
}
