package migrate

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Statement is one migrated (user, wallet) pair: two conditional inserts
// whose guards make re-application a no-op on already-migrated rows.
type Statement struct {
	UserID       string
	WalletID     string
	LegacyUserID string
	Email        string
	Name         string
	CreatedAt    time.Time
	Address      string
	EncryptedJWK string
	Salt         string
	GoogleID     *int64
	GithubLogin  *string
}

// SQL renders the guarded insert pair.
//
// The user insert is keyed on email uniqueness. The wallet insert resolves
// its user by email at apply time (the minted UserID is only used if the
// user guard actually inserted) and is guarded on both user linkage and
// address uniqueness. The two guards compose so the artifact can be
// applied zero, one or many times, including after a partial failure, and
// already-present rows stay untouched.
func (s *Statement) SQL() string {
	var b strings.Builder

	fmt.Fprintf(&b, "INSERT INTO users (id, email, name, google_id, github_login, created_at)\n")
	fmt.Fprintf(&b, "SELECT %s, %s, %s, %s, %s, %s\n",
		quote(s.UserID), quote(s.Email), quote(s.Name),
		nullableInt(s.GoogleID), nullableString(s.GithubLogin),
		quote(s.CreatedAt.Format(time.RFC3339)))
	fmt.Fprintf(&b, "WHERE NOT EXISTS (SELECT 1 FROM users WHERE email = %s);\n", quote(s.Email))

	fmt.Fprintf(&b, "INSERT INTO wallets (id, user_id, address, encrypted_jwk, salt, encrypted, created_at)\n")
	fmt.Fprintf(&b, "SELECT %s, (SELECT id FROM users WHERE email = %s), %s, %s, %s, 1, %s\n",
		quote(s.WalletID), quote(s.Email), quote(s.Address),
		quote(s.EncryptedJWK), quote(s.Salt),
		quote(s.CreatedAt.Format(time.RFC3339)))
	fmt.Fprintf(&b, "WHERE NOT EXISTS (SELECT 1 FROM wallets WHERE user_id = (SELECT id FROM users WHERE email = %s))\n", quote(s.Email))
	fmt.Fprintf(&b, "  AND NOT EXISTS (SELECT 1 FROM wallets WHERE address = %s);\n", quote(s.Address))

	return b.String()
}

// WriteArtifact writes the ordered statement sequence preceded by an
// informational header. Statement order is the legacy read order
// (oldest-created user first); the header is not semantically load-bearing.
func WriteArtifact(w io.Writer, stmts []Statement, generatedAt time.Time) error {
	header := fmt.Sprintf(
		"-- walletmigrate artifact\n-- generated: %s\n-- statement pairs: %d\n-- Every insert is guarded on its uniqueness keys; re-applying this file is a no-op\n-- for rows that already exist. Delete this file after successful application.\n\n",
		generatedAt.UTC().Format(time.RFC3339), len(stmts))
	if _, err := io.WriteString(w, header); err != nil {
		return fmt.Errorf("writing artifact header: %w", err)
	}

	for i := range stmts {
		if _, err := io.WriteString(w, stmts[i].SQL()); err != nil {
			return fmt.Errorf("writing statement %d: %w", i, err)
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return fmt.Errorf("writing statement %d: %w", i, err)
		}
	}
	return nil
}

// quote returns a single-quoted SQL string literal with embedded quotes
// doubled.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func nullableInt(v *int64) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%d", *v)
}

func nullableString(v *string) string {
	if v == nil {
		return "NULL"
	}
	return quote(*v)
}
