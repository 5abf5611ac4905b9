// Package storage defines the repository interfaces the migration core
// uses to talk to the legacy and destination stores. The core never sees a
// database handle; it reads LegacyRecords in and hands guarded statements
// out.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNoRows indicates the destination store holds no encrypted wallet yet.
// The key validator treats this as a vacuous pass, not a failure.
var ErrNoRows = errors.New("storage: no rows")

// LegacyRecord is one (user, wallet) row from the legacy store, read-only
// source of truth. PrivateJWK is the plaintext key payload exactly as the
// legacy store kept it; it is parsed and re-encrypted during transform and
// never persisted as-is.
type LegacyRecord struct {
	LegacyUserID string
	Email        string
	Name         string
	CreatedAt    time.Time

	Address    string
	PrivateJWK string

	// Provider identifiers from the external_identities join. GoogleID is
	// numeric upstream but arrives as text; GithubLogin is a plain string.
	// Either may be empty.
	GoogleID    string
	GithubLogin string
}

// LegacySource reads the rows to migrate. Implementations must be
// read-only and must return rows ordered by user creation time ascending.
type LegacySource interface {
	FetchUnencryptedWallets(ctx context.Context) ([]LegacyRecord, error)
	Close()
}

// EncryptedSample is one already-migrated wallet fetched from the
// destination store, used to prove the supplied master secret matches
// production.
type EncryptedSample struct {
	EncryptedJWK string
	Salt         string
	Address      string
}

// Destination is the write-side store. The migration itself goes through
// the generated artifact, so the only live call the core needs is the
// validation sample.
type Destination interface {
	SampleEncryptedWallet(ctx context.Context) (*EncryptedSample, error)
}
