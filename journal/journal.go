// Package journal persists per-row migration outcomes to a local bbolt
// file. The SQL artifact is deleted after a successful apply; the journal
// is what the operator keeps, so skipped rows and anomalies can still be
// audited afterwards. Wallet key material never enters the journal.
package journal

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/custodia/walletmigrate/internal/uuid"
)

var (
	rowsBucket = []byte("rows")
	runsBucket = []byte("runs")
)

// Journal is a bbolt-backed run journal.
type Journal struct {
	db *bolt.DB
}

// rowEntry is one processed legacy row.
type rowEntry struct {
	Seq          uint64 `json:"seq"`
	LegacyUserID string `json:"legacy_user_id"`
	Address      string `json:"address"`
	Outcome      string `json:"outcome"`
	Detail       string `json:"detail,omitempty"`
	RecordedAt   string `json:"recorded_at"`
}

// runEntry is the summary of one run.
type runEntry struct {
	ID         string `json:"id"`
	Migrated   int    `json:"migrated"`
	Skipped    int    `json:"skipped"`
	Anomalies  int    `json:"anomalies"`
	OutputPath string `json:"output_path"`
	RecordedAt string `json:"recorded_at"`
}

// Open opens (or creates) a journal file.
func Open(path string) (*Journal, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{rowsBucket, runsBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing journal buckets: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// RecordRow appends one row outcome.
func (j *Journal) RecordRow(legacyUserID, address, outcome, detail string) error {
	return j.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(rowsBucket)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		entry := rowEntry{
			Seq:          seq,
			LegacyUserID: legacyUserID,
			Address:      address,
			Outcome:      outcome,
			Detail:       detail,
			RecordedAt:   time.Now().UTC().Format(time.RFC3339),
		}
		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		return b.Put(seqKey(seq), data)
	})
}

// RecordSummary appends the run summary.
func (j *Journal) RecordSummary(migrated, skipped, anomalies int, outputPath string) error {
	return j.db.Update(func(tx *bolt.Tx) error {
		entry := runEntry{
			ID:         uuid.New(),
			Migrated:   migrated,
			Skipped:    skipped,
			Anomalies:  anomalies,
			OutputPath: outputPath,
			RecordedAt: time.Now().UTC().Format(time.RFC3339),
		}
		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		return tx.Bucket(runsBucket).Put([]byte(entry.ID), data)
	})
}

// Rows returns all row entries in insertion order.
func (j *Journal) Rows() ([]map[string]any, error) {
	var rows []map[string]any
	err := j.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(rowsBucket).ForEach(func(k, v []byte) error {
			var entry map[string]any
			if err := json.Unmarshal(v, &entry); err != nil {
				return err
			}
			rows = append(rows, entry)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("reading journal rows: %w", err)
	}
	return rows, nil
}

func seqKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}
