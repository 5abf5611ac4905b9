package migrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/custodia/walletmigrate/storage"
)

// ErrNoMasterSecret indicates the run was started without a master secret.
var ErrNoMasterSecret = errors.New("migrate: no master secret supplied")

// Journal receives per-row outcomes and the run summary. Implementations
// must tolerate being called once per row; journal failures must not be
// able to fail a run, so the runner downgrades them to warnings itself.
type Journal interface {
	RecordRow(legacyUserID, address, outcome, detail string) error
	RecordSummary(migrated, skipped, anomalies int, outputPath string) error
}

// Result summarizes a completed run.
type Result struct {
	Migrated   int
	Skipped    int
	Anomalies  int
	OutputPath string
}

// Runner drives the sequential pipeline: validation gate, row transform
// loop, write-once artifact.
type Runner struct {
	source      storage.LegacySource
	validator   *Validator
	transformer *Transformer
	journal     Journal
	logger      *slog.Logger
	outputPath  string
	now         func() time.Time
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithJournal attaches a run journal. Without one, outcomes are only logged.
func WithJournal(j Journal) RunnerOption {
	return func(r *Runner) { r.journal = j }
}

// WithClock overrides the timestamp source. Used in tests.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

// NewRunner wires the pipeline together.
func NewRunner(source storage.LegacySource, dest storage.Destination, outputPath string, logger *slog.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		source:      source,
		validator:   NewValidator(dest, logger),
		transformer: NewTransformer(logger),
		logger:      logger,
		outputPath:  outputPath,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Validate runs only the validation gate: self-test first, then the live
// round-trip check. Exposed for operator pre-flight checks.
func (r *Runner) Validate(ctx context.Context, master []byte) error {
	if len(master) == 0 {
		return ErrNoMasterSecret
	}
	if err := r.validator.SelfTest(master); err != nil {
		return err
	}
	return r.validator.LiveValidate(ctx, master)
}

// Run executes the full migration. No artifact is written on any abort
// path; on success the artifact at OutputPath is the only persisted result.
func (r *Runner) Run(ctx context.Context, master []byte) (*Result, error) {
	if err := r.Validate(ctx, master); err != nil {
		return nil, err
	}

	records, err := r.source.FetchUnencryptedWallets(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching legacy rows: %w", err)
	}
	r.logger.Info("fetched legacy rows", "count", len(records))

	var (
		stmts       []Statement
		skipped     int
		anomalies   int
		seenAddress = make(map[string]string) // address -> legacy user ID
	)
	for _, rec := range records {
		stmt, skip, err := r.transformer.Transform(rec, master)
		if err != nil {
			return nil, fmt.Errorf("transforming row for legacy user %s: %w", rec.LegacyUserID, err)
		}
		if skip != nil {
			skipped++
			r.journalRow(rec, "skipped", string(skip.Reason))
			continue
		}

		// A wallet address shared by two legacy users is surfaced rather
		// than silently resolved: the address guard makes the second
		// insert a no-op at apply time, but the operator should know.
		if firstUser, dup := seenAddress[rec.Address]; dup {
			anomalies++
			r.logger.Warn("wallet address appears under two legacy users",
				"address", rec.Address, "first_legacy_user_id", firstUser,
				"second_legacy_user_id", rec.LegacyUserID)
			r.journalRow(rec, "anomaly", "duplicate_address with legacy user "+firstUser)
		} else {
			seenAddress[rec.Address] = rec.LegacyUserID
		}

		stmts = append(stmts, *stmt)
		r.journalRow(rec, "migrated", "")
	}

	if err := r.writeArtifact(stmts); err != nil {
		return nil, err
	}

	res := &Result{
		Migrated:   len(stmts),
		Skipped:    skipped,
		Anomalies:  anomalies,
		OutputPath: r.outputPath,
	}
	if r.journal != nil {
		if err := r.journal.RecordSummary(res.Migrated, res.Skipped, res.Anomalies, res.OutputPath); err != nil {
			r.logger.Warn("recording journal summary", "error", err)
		}
	}
	r.logger.Info("migration artifact generated",
		"migrated", res.Migrated, "skipped", res.Skipped,
		"anomalies", res.Anomalies, "output", res.OutputPath)
	return res, nil
}

func (r *Runner) writeArtifact(stmts []Statement) error {
	f, err := os.OpenFile(r.outputPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("creating artifact: %w", err)
	}
	defer f.Close()

	if err := WriteArtifact(f, stmts, r.now()); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing artifact: %w", err)
	}
	return nil
}

func (r *Runner) journalRow(rec storage.LegacyRecord, outcome, detail string) {
	if r.journal == nil {
		return
	}
	if err := r.journal.RecordRow(rec.LegacyUserID, rec.Address, outcome, detail); err != nil {
		r.logger.Warn("recording journal row", "error", err, "legacy_user_id", rec.LegacyUserID)
	}
}
