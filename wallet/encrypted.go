package wallet

import (
	"encoding/json"
	"fmt"

	"github.com/custodia/walletmigrate/crypto"
	"github.com/custodia/walletmigrate/internal/util"
)

// Encrypted is the only form of a wallet secret that is ever persisted:
// base64(nonce ‖ ciphertext+tag) plus the base64 salt it was derived under.
type Encrypted struct {
	Blob string
	Salt string
}

// EncryptSecret serializes the secret to canonical UTF-8 JSON and seals it
// under the master secret.
func EncryptSecret(s *Secret, master []byte) (*Encrypted, error) {
	plaintext, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshaling wallet secret: %w", err)
	}
	defer util.WipeBytes(plaintext)

	blob, salt, err := crypto.Encrypt(plaintext, master)
	if err != nil {
		return nil, err
	}
	return &Encrypted{Blob: blob, Salt: salt}, nil
}

// DecryptSecret opens an encrypted blob and parses the JWK inside.
// Cipher-level failures surface as crypto.ErrAuthentication or
// crypto.ErrMalformedInput so callers can tell a wrong key apart from a
// damaged payload.
func DecryptSecret(blobB64, saltB64 string, master []byte) (*Secret, error) {
	plaintext, err := crypto.Decrypt(blobB64, saltB64, master)
	if err != nil {
		return nil, err
	}
	defer util.WipeBytes(plaintext)

	return ParseSecret(plaintext)
}
