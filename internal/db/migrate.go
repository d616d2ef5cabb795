package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"tradeSite/internal/logging"
)

// Migration is one schema change. Up runs inside the same transaction that
// records the ledger row, so both land or neither does. Up bodies should
// still guard their DDL with existence checks.
type Migration struct {
	ID          string
	Description string
	Up          func(ctx context.Context, tx *sql.Tx) error
}

// Record is one row of the schema_migrations ledger.
type Record struct {
	ID          string
	Description string
	AppliedAt   time.Time
}

// ErrInvalidMigrations is returned when the migration list itself is malformed.
var ErrInvalidMigrations = errors.New("invalid migration list")

// Runner applies migrations in list order, each at most once per database.
// It is meant to run once at startup, before the store is shared.
type Runner struct {
	db  *sql.DB
	log logging.Logger
	now func() time.Time
}

func NewRunner(d *sql.DB, log logging.Logger) *Runner {
	return &Runner{db: d, log: log.With("component", "migrations"), now: time.Now}
}

// Run applies every migration whose id is not yet in the ledger, strictly in
// slice order, and returns the ids it applied. The first failure stops the
// run; earlier migrations stay committed.
func (r *Runner) Run(ctx context.Context, migrations []Migration) ([]string, error) {
	if r.db == nil {
		return nil, errors.New("nil db")
	}
	if err := validateMigrations(migrations); err != nil {
		return nil, err
	}
	if err := ensureMigrationsTable(ctx, r.db); err != nil {
		return nil, fmt.Errorf("create migrations ledger: %w", err)
	}
	applied, err := r.appliedIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("read migrations ledger: %w", err)
	}

	var done []string
	for _, m := range migrations {
		if applied[m.ID] {
			continue
		}
		if err := r.apply(ctx, m); err != nil {
			return done, fmt.Errorf("migration %s failed: %w", m.ID, err)
		}
		r.log.Info(ctx, "migration applied", "id", m.ID, "description", m.Description)
		done = append(done, m.ID)
	}
	return done, nil
}

// Applied lists ledger rows in the order they were applied.
func (r *Runner) Applied(ctx context.Context) ([]Record, error) {
	if err := ensureMigrationsTable(ctx, r.db); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, `SELECT id, description, applied_at FROM schema_migrations ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Description, &rec.AppliedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *Runner) apply(ctx context.Context, m Migration) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := m.Up(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (id, description, applied_at) VALUES (?, ?, ?)`,
		m.ID, m.Description, r.now().UTC()); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record ledger entry: %w", err)
	}
	return tx.Commit()
}

func (r *Runner) appliedIDs(ctx context.Context) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	got := map[string]bool{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		got[id] = true
	}
	return got, rows.Err()
}

func ensureMigrationsTable(ctx context.Context, d *sql.DB) error {
	_, err := d.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
        id TEXT PRIMARY KEY,
        description TEXT NOT NULL,
        applied_at TIMESTAMP NOT NULL
    )`)
	return err
}

func validateMigrations(migrations []Migration) error {
	seen := make(map[string]struct{}, len(migrations))
	for i, m := range migrations {
		id := strings.TrimSpace(m.ID)
		if id == "" {
			return fmt.Errorf("%w: migration #%d has no id", ErrInvalidMigrations, i)
		}
		if id != m.ID {
			return fmt.Errorf("%w: migration id %q has surrounding whitespace", ErrInvalidMigrations, m.ID)
		}
		if m.Up == nil {
			return fmt.Errorf("%w: migration %s has no operation", ErrInvalidMigrations, m.ID)
		}
		if _, dup := seen[m.ID]; dup {
			return fmt.Errorf("%w: duplicate migration id %s", ErrInvalidMigrations, m.ID)
		}
		seen[m.ID] = struct{}{}
	}
	return nil
}
