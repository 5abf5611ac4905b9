package migrate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia/walletmigrate/storage"
)

type fakeSource struct {
	records []storage.LegacyRecord
	err     error
}

func (f *fakeSource) FetchUnencryptedWallets(ctx context.Context) ([]storage.LegacyRecord, error) {
	return f.records, f.err
}

func (f *fakeSource) Close() {}

type journalEntry struct {
	legacyUserID, address, outcome, detail string
}

type fakeJournal struct {
	rows    []journalEntry
	summary bool
}

func (f *fakeJournal) RecordRow(legacyUserID, address, outcome, detail string) error {
	f.rows = append(f.rows, journalEntry{legacyUserID, address, outcome, detail})
	return nil
}

func (f *fakeJournal) RecordSummary(migrated, skipped, anomalies int, outputPath string) error {
	f.summary = true
	return nil
}

func record(id, email, address, jwk string, created time.Time) storage.LegacyRecord {
	return storage.LegacyRecord{
		LegacyUserID: id,
		Email:        email,
		Name:         "User " + id,
		CreatedAt:    created,
		Address:      address,
		PrivateJWK:   jwk,
	}
}

func TestRunEndToEnd(t *testing.T) {
	master := []byte("production-master-secret")
	base := time.Date(2018, 5, 1, 0, 0, 0, 0, time.UTC)

	// Three legacy rows: one valid, one with an empty key payload, one whose
	// email already exists in the destination (still emitted, guarded).
	source := &fakeSource{records: []storage.LegacyRecord{
		record("1", "first@example.com", "0x001", validJWK, base),
		record("2", "second@example.com", "0x002", "", base.Add(time.Hour)),
		record("3", "existing@example.com", "0x003", validJWK, base.Add(2*time.Hour)),
	}}

	out := filepath.Join(t.TempDir(), "migration.sql")
	journal := &fakeJournal{}
	r := NewRunner(source, &fakeDestination{sample: productionSample(t, master)}, out, testLogger(),
		WithJournal(journal))

	res, err := r.Run(context.Background(), master)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Migrated)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 0, res.Anomalies)
	assert.Equal(t, out, res.OutputPath)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	artifact := string(data)

	assert.Contains(t, artifact, "-- statement pairs: 2")
	assert.Equal(t, 4, strings.Count(artifact, "INSERT INTO"), "two guarded pairs")
	assert.Contains(t, artifact, "first@example.com")
	assert.Contains(t, artifact, "existing@example.com")
	assert.NotContains(t, artifact, "second@example.com", "skipped row must be absent")
	assert.NotContains(t, artifact, "legacy-modulus", "plaintext key material must never reach the artifact")

	// Oldest-created-first ordering.
	assert.Less(t, strings.Index(artifact, "first@example.com"), strings.Index(artifact, "existing@example.com"))

	require.Len(t, journal.rows, 3)
	assert.Equal(t, "migrated", journal.rows[0].outcome)
	assert.Equal(t, "skipped", journal.rows[1].outcome)
	assert.Equal(t, string(SkipInvalidJSON), journal.rows[1].detail)
	assert.True(t, journal.summary)
}

func TestRunAbortsOnKeyMismatch(t *testing.T) {
	master := []byte("wrong-master-secret")
	source := &fakeSource{records: []storage.LegacyRecord{
		record("1", "first@example.com", "0x001", validJWK, time.Now()),
	}}

	out := filepath.Join(t.TempDir(), "migration.sql")
	r := NewRunner(source, &fakeDestination{sample: productionSample(t, []byte("production-master-secret"))}, out, testLogger())

	_, err := r.Run(context.Background(), master)
	require.ErrorIs(t, err, ErrKeyMismatch)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no artifact may be written on abort")
}

func TestRunRequiresMasterSecret(t *testing.T) {
	out := filepath.Join(t.TempDir(), "migration.sql")
	r := NewRunner(&fakeSource{}, &fakeDestination{err: storage.ErrNoRows}, out, testLogger())

	_, err := r.Run(context.Background(), nil)
	require.ErrorIs(t, err, ErrNoMasterSecret)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunEmptyLegacyStore(t *testing.T) {
	out := filepath.Join(t.TempDir(), "migration.sql")
	r := NewRunner(&fakeSource{}, &fakeDestination{err: storage.ErrNoRows}, out, testLogger())

	res, err := r.Run(context.Background(), []byte("master"))
	require.NoError(t, err, "nothing to migrate is a success")
	assert.Equal(t, 0, res.Migrated)
	assert.Equal(t, 0, res.Skipped)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "-- statement pairs: 0")
}

func TestRunWriteOnceArtifact(t *testing.T) {
	out := filepath.Join(t.TempDir(), "migration.sql")
	require.NoError(t, os.WriteFile(out, []byte("leftover"), 0o600))

	r := NewRunner(&fakeSource{}, &fakeDestination{err: storage.ErrNoRows}, out, testLogger())
	_, err := r.Run(context.Background(), []byte("master"))
	require.Error(t, err, "existing artifact must not be overwritten")
	assert.Contains(t, err.Error(), "creating artifact")
}

func TestRunFlagsDuplicateAddresses(t *testing.T) {
	base := time.Date(2018, 5, 1, 0, 0, 0, 0, time.UTC)
	source := &fakeSource{records: []storage.LegacyRecord{
		record("1", "first@example.com", "0xsame", validJWK, base),
		record("2", "second@example.com", "0xsame", validJWK, base.Add(time.Hour)),
	}}

	out := filepath.Join(t.TempDir(), "migration.sql")
	journal := &fakeJournal{}
	r := NewRunner(source, &fakeDestination{err: storage.ErrNoRows}, out, testLogger(), WithJournal(journal))

	res, err := r.Run(context.Background(), []byte("master"))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Migrated, "both rows still emitted; the address guard resolves at apply time")
	assert.Equal(t, 1, res.Anomalies)

	var anomalies int
	for _, row := range journal.rows {
		if row.outcome == "anomaly" {
			anomalies++
		}
	}
	assert.Equal(t, 1, anomalies)
}

func TestRunSourceFailure(t *testing.T) {
	out := filepath.Join(t.TempDir(), "migration.sql")
	r := NewRunner(&fakeSource{err: errors.New("legacy store offline")},
		&fakeDestination{err: storage.ErrNoRows}, out, testLogger())

	_, err := r.Run(context.Background(), []byte("master"))
	require.Error(t, err)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}
