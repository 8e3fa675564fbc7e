// Package migration tracks and applies schema versions. Each migration runs
// inside its own transaction together with its schema_migrations bookkeeping
// row, so a failed migration leaves no trace of having run.
package migration

import (
	"context"
	"database/sql"
	"sort"

	"github.com/rs/zerolog"

	"orgdir/internal/database"
	"orgdir/internal/metrics"
)

// Migration is a reversible schema change. Versions are zero-padded strings
// ("001", "002") so lexicographic order is application order.
type Migration struct {
	Version     string
	Description string
	Up          func(ctx context.Context, tx *sql.Tx) error
	Down        func(ctx context.Context, tx *sql.Tx) error
}

// Status reports where the schema stands relative to the known migrations.
type Status struct {
	Applied []string
	Pending []string
	Current string
}

// Runner applies registered migrations in version order against one database.
type Runner struct {
	db         *sql.DB
	log        zerolog.Logger
	migrations []Migration
}

// NewRunner creates a runner over the registered migrations and ensures the
// schema_migrations bookkeeping table exists.
func NewRunner(ctx context.Context, db *sql.DB, log zerolog.Logger) (*Runner, error) {
	r := &Runner{
		db:         db,
		log:        log.With().Str("component", "migration").Logger(),
		migrations: All(),
	}
	if err := r.ensureTable(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Runner) ensureTable(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			id SERIAL PRIMARY KEY,
			version VARCHAR(50) NOT NULL UNIQUE,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			description TEXT
		)`)
	return err
}

// Applied returns the applied migration versions in ascending order.
func (r *Runner) Applied(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT version FROM schema_migrations
		ORDER BY version`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// Pending returns the registered migrations not yet applied, in order.
func (r *Runner) Pending(ctx context.Context) ([]Migration, error) {
	applied, err := r.Applied(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(applied))
	for _, v := range applied {
		seen[v] = true
	}

	var pending []Migration
	for _, m := range r.migrations {
		if !seen[m.Version] {
			pending = append(pending, m)
		}
	}
	return pending, nil
}

// MigrateUp applies pending migrations in version order. With a non-empty
// target only versions up to and including it are applied.
func (r *Runner) MigrateUp(ctx context.Context, targetVersion string) error {
	pending, err := r.Pending(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		r.log.Info().Msg("no pending migrations")
		return nil
	}

	for _, m := range pending {
		if targetVersion != "" && m.Version > targetVersion {
			break
		}
		if err := r.apply(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// MigrateDown rolls back applied migrations in reverse order, down to but not
// including the target version. An empty target rolls back everything. An
// applied version with no registered migration is logged and skipped.
func (r *Runner) MigrateDown(ctx context.Context, targetVersion string) error {
	applied, err := r.Applied(ctx)
	if err != nil {
		return err
	}
	byVersion := make(map[string]Migration, len(r.migrations))
	for _, m := range r.migrations {
		byVersion[m.Version] = m
	}

	for i := len(applied) - 1; i >= 0; i-- {
		version := applied[i]
		if targetVersion != "" && version <= targetVersion {
			break
		}
		m, ok := byVersion[version]
		if !ok {
			r.log.Warn().Str("version", version).Msg("no registered migration for applied version, skipping rollback")
			continue
		}
		if err := r.rollback(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// Status reports applied and pending versions and the current schema version.
func (r *Runner) Status(ctx context.Context) (Status, error) {
	applied, err := r.Applied(ctx)
	if err != nil {
		return Status{}, err
	}
	pending, err := r.Pending(ctx)
	if err != nil {
		return Status{}, err
	}

	s := Status{Applied: applied}
	for _, m := range pending {
		s.Pending = append(s.Pending, m.Version)
	}
	if len(applied) > 0 {
		s.Current = applied[len(applied)-1]
	}
	return s, nil
}

func (r *Runner) apply(ctx context.Context, m Migration) error {
	r.log.Info().Str("version", m.Version).Str("description", m.Description).Msg("applying migration")

	err := database.WithinTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := m.Up(ctx, tx); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO schema_migrations (version, description)
			VALUES ($1, $2)
			ON CONFLICT (version) DO NOTHING`, m.Version, m.Description)
		return err
	})
	if err != nil {
		r.log.Error().Err(err).Str("version", m.Version).Msg("migration failed")
		return &database.MigrationError{Version: m.Version, Direction: "up", Err: err}
	}

	metrics.MigrationsApplied.WithLabelValues("up").Inc()
	r.log.Info().Str("version", m.Version).Msg("migration applied")
	return nil
}

func (r *Runner) rollback(ctx context.Context, m Migration) error {
	r.log.Info().Str("version", m.Version).Msg("rolling back migration")

	err := database.WithinTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := m.Down(ctx, tx); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			DELETE FROM schema_migrations
			WHERE version = $1`, m.Version)
		return err
	})
	if err != nil {
		r.log.Error().Err(err).Str("version", m.Version).Msg("rollback failed")
		return &database.MigrationError{Version: m.Version, Direction: "down", Err: err}
	}

	metrics.MigrationsApplied.WithLabelValues("down").Inc()
	r.log.Info().Str("version", m.Version).Msg("migration rolled back")
	return nil
}

// All returns the registered migrations sorted by version.
func All() []Migration {
	out := make([]Migration, len(all))
	copy(out, all)
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out
}
