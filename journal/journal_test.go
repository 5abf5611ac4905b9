package journal

import (
	"path/filepath"
	"testing"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestRecordRowOrder(t *testing.T) {
	j := openTestJournal(t)

	if err := j.RecordRow("1", "0x001", "migrated", ""); err != nil {
		t.Fatalf("RecordRow failed: %v", err)
	}
	if err := j.RecordRow("2", "0x002", "skipped", "invalid_json"); err != nil {
		t.Fatalf("RecordRow failed: %v", err)
	}

	rows, err := j.Rows()
	if err != nil {
		t.Fatalf("Rows failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["legacy_user_id"] != "1" || rows[1]["legacy_user_id"] != "2" {
		t.Errorf("rows out of insertion order: %v", rows)
	}
	if rows[1]["detail"] != "invalid_json" {
		t.Errorf("skip detail not recorded: %v", rows[1])
	}
}

func TestRecordSummary(t *testing.T) {
	j := openTestJournal(t)

	if err := j.RecordSummary(10, 2, 1, "/tmp/migration.sql"); err != nil {
		t.Fatalf("RecordSummary failed: %v", err)
	}
}
