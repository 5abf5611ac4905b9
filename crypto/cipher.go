// Package crypto implements the symmetric scheme protecting wallet key
// material at rest: PBKDF2-HMAC-SHA256 key derivation and AES-256-GCM with
// a nonce-prefixed ciphertext blob, both carried as base64 text.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/custodia/walletmigrate/internal/util"
)

var (
	// ErrAuthentication indicates the GCM tag did not verify: either the
	// master secret is wrong or the ciphertext was tampered with.
	ErrAuthentication = errors.New("crypto: authentication failed")

	// ErrMalformedInput indicates the blob or salt could not even be
	// decoded into cipher input (bad base64, blob shorter than the nonce).
	ErrMalformedInput = errors.New("crypto: malformed input")
)

// Encrypt seals plaintext under a key derived from the master secret and a
// fresh random salt. It returns base64(nonce ‖ ciphertext+tag) and
// base64(salt); the salt is not secret and is persisted alongside the blob
// so decryption is self-contained given the master secret.
func Encrypt(plaintext, master []byte) (blobB64, saltB64 string, err error) {
	salt, err := util.RandomBytes(SaltLen)
	if err != nil {
		return "", "", fmt.Errorf("generating salt: %w", err)
	}
	nonce, err := util.RandomBytes(NonceLen)
	if err != nil {
		return "", "", fmt.Errorf("generating nonce: %w", err)
	}

	key := DeriveKey(master, salt)
	defer util.WipeBytes(key)

	gcm, err := newGCM(key)
	if err != nil {
		return "", "", err
	}

	blob := gcm.Seal(nonce, nonce, plaintext, nil)

	return base64.StdEncoding.EncodeToString(blob),
		base64.StdEncoding.EncodeToString(salt),
		nil
}

// Decrypt reverses Encrypt. It returns ErrAuthentication when the tag does
// not verify and ErrMalformedInput when the inputs cannot be decoded into
// cipher input at all.
func Decrypt(blobB64, saltB64 string, master []byte) ([]byte, error) {
	blob, err := base64.StdEncoding.DecodeString(blobB64)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding blob: %v", ErrMalformedInput, err)
	}
	salt, err := base64.StdEncoding.DecodeString(saltB64)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding salt: %v", ErrMalformedInput, err)
	}
	if len(blob) < NonceLen {
		return nil, fmt.Errorf("%w: blob shorter than nonce (%d bytes)", ErrMalformedInput, len(blob))
	}

	nonce, ciphertext := blob[:NonceLen], blob[NonceLen:]

	key := DeriveKey(master, salt)
	defer util.WipeBytes(key)

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrAuthentication
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}
	return gcm, nil
}
