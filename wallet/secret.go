// Package wallet defines the wallet key material moved by the migration:
// an RSA keypair in JSON Web Key form, in plaintext only transiently in
// memory and otherwise as an encrypted blob + salt pair.
package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Secret is the JSON Web Key representation of a custodial wallet keypair.
// Only the fields the wallet service reads are required; the CRT hint
// fields are carried through when the legacy row has them.
type Secret struct {
	Kty string `json:"kty,omitempty"`
	N   string `json:"n"`
	E   string `json:"e"`
	D   string `json:"d"`
	P   string `json:"p,omitempty"`
	Q   string `json:"q,omitempty"`
	Dp  string `json:"dp,omitempty"`
	Dq  string `json:"dq,omitempty"`
	Qi  string `json:"qi,omitempty"`
}

// ErrIncomplete indicates a parsed JWK is missing one of the required
// keypair components.
var ErrIncomplete = errors.New("wallet: incomplete key material")

// Validate checks the components without which the keypair is unusable:
// modulus, public exponent and private exponent.
func (s *Secret) Validate() error {
	switch {
	case s.N == "":
		return fmt.Errorf("%w: missing modulus (n)", ErrIncomplete)
	case s.E == "":
		return fmt.Errorf("%w: missing public exponent (e)", ErrIncomplete)
	case s.D == "":
		return fmt.Errorf("%w: missing private exponent (d)", ErrIncomplete)
	}
	return nil
}

// Equal reports field-for-field equality. Used by the cipher self-test.
func (s *Secret) Equal(other *Secret) bool {
	return *s == *other
}

// ParseSecret decodes a JWK from its JSON encoding. It does not validate
// completeness; callers decide whether a partial key is an error.
func ParseSecret(data []byte) (*Secret, error) {
	var s Secret
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing wallet secret: %w", err)
	}
	return &s, nil
}
