// Package postgres implements storage.LegacySource against the legacy
// PostgreSQL store. The connection is used strictly read-only: one fixed
// join, no schema management, no writes.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/custodia/walletmigrate/storage"
)

// Source implements storage.LegacySource backed by PostgreSQL.
type Source struct {
	pool *pgxpool.Pool
}

var _ storage.LegacySource = (*Source)(nil)

// NewSource returns a LegacySource backed by the given pgx connection pool.
func NewSource(pool *pgxpool.Pool) *Source {
	return &Source{pool: pool}
}

// NewSourceFromDSN creates a connection pool from a DSN string and returns
// a new Source.
func NewSourceFromDSN(ctx context.Context, dsn string) (*Source, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to legacy store: %w", err)
	}
	return NewSource(pool), nil
}

// fetchQuery is the one query this tool runs against the legacy store:
// every wallet that has not been encrypted yet and still carries a key
// payload, joined to its user and external identity, oldest user first.
const fetchQuery = `
SELECT u.id, u.email, u.name, u.created_at,
       w.address, w.private_jwk,
       COALESCE(ei.google_id, ''), COALESCE(ei.github_login, '')
FROM users u
JOIN wallets w ON w.user_id = u.id
LEFT JOIN external_identities ei ON ei.user_id = u.id
WHERE w.encrypted = 0
  AND w.private_jwk <> ''
ORDER BY u.created_at ASC`

// FetchUnencryptedWallets returns the full migration work list in one read.
func (s *Source) FetchUnencryptedWallets(ctx context.Context) ([]storage.LegacyRecord, error) {
	rows, err := s.pool.Query(ctx, fetchQuery)
	if err != nil {
		return nil, fmt.Errorf("querying legacy wallets: %w", err)
	}
	defer rows.Close()

	var records []storage.LegacyRecord
	for rows.Next() {
		var rec storage.LegacyRecord
		if err := rows.Scan(
			&rec.LegacyUserID, &rec.Email, &rec.Name, &rec.CreatedAt,
			&rec.Address, &rec.PrivateJWK,
			&rec.GoogleID, &rec.GithubLogin,
		); err != nil {
			return nil, fmt.Errorf("scanning legacy row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading legacy rows: %w", err)
	}

	return records, nil
}

// Close closes the underlying connection pool.
func (s *Source) Close() {
	s.pool.Close()
}
