package migrate

import (
	"log/slog"
	"strconv"

	"github.com/custodia/walletmigrate/internal/util"
	"github.com/custodia/walletmigrate/internal/uuid"
	"github.com/custodia/walletmigrate/storage"
	"github.com/custodia/walletmigrate/wallet"
)

// SkipReason classifies why a legacy row was excluded from the artifact.
type SkipReason string

const (
	SkipInvalidJSON   SkipReason = "invalid_json"
	SkipIncompleteKey SkipReason = "incomplete_key"
)

// Skip reports one excluded row. Skips are row-local: they are logged and
// counted but never abort the batch.
type Skip struct {
	LegacyUserID string
	Address      string
	Reason       SkipReason
}

// Transformer maps one legacy (user, wallet) record into a guarded
// migration statement, re-encrypting the wallet secret on the way through.
type Transformer struct {
	logger *slog.Logger
}

// NewTransformer returns a row transformer.
func NewTransformer(logger *slog.Logger) *Transformer {
	return &Transformer{logger: logger}
}

// Transform converts a legacy record into a Statement. A malformed or
// incomplete key payload yields a Skip instead. A non-nil error is reserved
// for cryptographically fatal conditions (RNG unavailable) and aborts the
// run.
func (t *Transformer) Transform(rec storage.LegacyRecord, master []byte) (*Statement, *Skip, error) {
	secret, err := wallet.ParseSecret([]byte(rec.PrivateJWK))
	if err != nil {
		t.logger.Warn("skipping row: key payload is not valid JSON",
			"legacy_user_id", rec.LegacyUserID, "address", rec.Address)
		return nil, &Skip{LegacyUserID: rec.LegacyUserID, Address: rec.Address, Reason: SkipInvalidJSON}, nil
	}
	if err := secret.Validate(); err != nil {
		t.logger.Warn("skipping row: key payload incomplete",
			"legacy_user_id", rec.LegacyUserID, "address", rec.Address, "error", err)
		return nil, &Skip{LegacyUserID: rec.LegacyUserID, Address: rec.Address, Reason: SkipIncompleteKey}, nil
	}

	enc, err := wallet.EncryptSecret(secret, master)
	if err != nil {
		return nil, nil, err
	}

	stmt := &Statement{
		UserID:       uuid.New(),
		WalletID:     uuid.New(),
		LegacyUserID: rec.LegacyUserID,
		Email:        util.NormalizeEmail(rec.Email),
		Name:         rec.Name,
		CreatedAt:    rec.CreatedAt.UTC(),
		Address:      rec.Address,
		EncryptedJWK: enc.Blob,
		Salt:         enc.Salt,
		GoogleID:     t.normalizeGoogleID(rec),
		GithubLogin:  normalizeGithubLogin(rec.GithubLogin),
	}
	return stmt, nil, nil
}

// normalizeGoogleID coerces the numeric provider identifier to integer
// form. Absence, or a value that is not numeric at all, maps to SQL NULL
// rather than an empty string.
func (t *Transformer) normalizeGoogleID(rec storage.LegacyRecord) *int64 {
	if rec.GoogleID == "" {
		return nil
	}
	id, err := strconv.ParseInt(rec.GoogleID, 10, 64)
	if err != nil {
		t.logger.Warn("non-numeric google identifier, storing NULL",
			"legacy_user_id", rec.LegacyUserID, "google_id", rec.GoogleID)
		return nil
	}
	return &id
}

// normalizeGithubLogin passes the string provider identifier through
// unchanged, mapping absence to NULL.
func normalizeGithubLogin(login string) *string {
	if login == "" {
		return nil
	}
	return &login
}
