// Package migrate implements the migration pipeline core: the key
// validation gate, the per-row transformer and the guarded-statement
// artifact generator.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/custodia/walletmigrate/storage"
	"github.com/custodia/walletmigrate/wallet"
)

var (
	// ErrSelfTest indicates the encrypt/decrypt pipeline could not round-trip
	// a known fixture. This is an implementation fault, never a key problem.
	ErrSelfTest = errors.New("migrate: cipher self-test failed")

	// ErrKeyMismatch indicates the supplied master secret was positively
	// proven not to decrypt production data. Retrying with the same secret
	// cannot succeed.
	ErrKeyMismatch = errors.New("migrate: master secret does not match production data")
)

// selfTestFixture is a fixed wallet secret used only to prove the cipher
// pipeline is internally consistent before any real key material is touched.
var selfTestFixture = wallet.Secret{
	Kty: "RSA",
	N:   "self-test-modulus-not-a-real-key",
	E:   "AQAB",
	D:   "self-test-private-exponent",
	P:   "self-test-prime-1",
	Q:   "self-test-prime-2",
}

// Validator gates all write-side work on proof that the supplied master
// secret is the one protecting production data.
type Validator struct {
	dest   storage.Destination
	logger *slog.Logger
}

// NewValidator returns a validator that samples the given destination store.
func NewValidator(dest storage.Destination, logger *slog.Logger) *Validator {
	return &Validator{dest: dest, logger: logger}
}

// SelfTest encrypts a fixed fixture, decrypts it and asserts field-for-field
// equality. Any failure is fatal to the run: a pipeline that cannot
// round-trip its own fixture must not touch real key material.
func (v *Validator) SelfTest(master []byte) error {
	enc, err := wallet.EncryptSecret(&selfTestFixture, master)
	if err != nil {
		return fmt.Errorf("%w: encrypting fixture: %v", ErrSelfTest, err)
	}
	got, err := wallet.DecryptSecret(enc.Blob, enc.Salt, master)
	if err != nil {
		return fmt.Errorf("%w: decrypting fixture: %v", ErrSelfTest, err)
	}
	if !got.Equal(&selfTestFixture) {
		return fmt.Errorf("%w: fixture round trip altered fields", ErrSelfTest)
	}

	v.logger.Info("cipher self-test passed")
	return nil
}

// LiveValidate fetches one encrypted wallet from the destination store and
// attempts to decrypt it with the supplied master secret.
//
// An empty destination or an unreachable destination degrades to a warning
// and the run proceeds on the self-test alone. A decryption failure of any
// kind is a hard stop: it either proves the key wrong (authentication
// failure) or leaves the evidence too ambiguous to proceed on (malformed
// sample), and writing wallets under an unproven key risks data nobody can
// ever recover.
func (v *Validator) LiveValidate(ctx context.Context, master []byte) error {
	sample, err := v.dest.SampleEncryptedWallet(ctx)
	if errors.Is(err, storage.ErrNoRows) {
		v.logger.Warn("destination has no encrypted wallets yet, skipping live key validation")
		return nil
	}
	if err != nil {
		v.logger.Warn("destination unreachable, proceeding on self-test alone", "error", err)
		return nil
	}

	secret, err := wallet.DecryptSecret(sample.EncryptedJWK, sample.Salt, master)
	if err != nil {
		return fmt.Errorf("%w: sample wallet %s: %v", ErrKeyMismatch, sample.Address, err)
	}
	if err := secret.Validate(); err != nil {
		return fmt.Errorf("%w: sample wallet %s decrypted but is not a usable key: %v", ErrKeyMismatch, sample.Address, err)
	}

	v.logger.Info("master secret confirmed against production data", "sample_address", sample.Address)
	return nil
}
