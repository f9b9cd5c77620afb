package postgres

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/uptrace/bun"

	"vetclinic/backend/migrations"
)

const migrationLockKey = "vetclinic-schema-migrations"

type rawExecutor interface {
	NewRaw(query string, args ...any) *bun.RawQuery
}

type migration struct {
	version    string
	statements []string
}

// Migrate applies every embedded migration that is not yet recorded in
// schema_migrations and returns the versions it applied. All work runs in
// one transaction serialized by an advisory lock, so concurrent callers
// apply each migration at most once.
func Migrate(ctx context.Context, db bun.IDB) ([]string, error) {
	migs, err := loadMigrations(migrations.FS)
	if err != nil {
		return nil, err
	}

	var applied []string
	err = db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", migrationLockKey).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewRaw(`CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`).Exec(ctx); err != nil {
			return err
		}

		var done []string
		if err := tx.NewRaw("SELECT version FROM schema_migrations").Scan(ctx, &done); err != nil {
			return err
		}
		seen := make(map[string]struct{}, len(done))
		for _, v := range done {
			seen[v] = struct{}{}
		}

		for _, m := range migs {
			if _, ok := seen[m.version]; ok {
				continue
			}
			if err := applyStatements(ctx, tx, m.statements); err != nil {
				return fmt.Errorf("migration %s: %w", m.version, err)
			}
			if _, err := tx.NewRaw("INSERT INTO schema_migrations (version) VALUES (?)", m.version).Exec(ctx); err != nil {
				return err
			}
			applied = append(applied, m.version)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return applied, nil
}

// applyMigrations runs every embedded migration without bookkeeping. Used
// to build throwaway schemas.
func applyMigrations(ctx context.Context, exec rawExecutor) error {
	migs, err := loadMigrations(migrations.FS)
	if err != nil {
		return err
	}
	for _, m := range migs {
		if err := applyStatements(ctx, exec, m.statements); err != nil {
			return fmt.Errorf("migration %s: %w", m.version, err)
		}
	}
	return nil
}

func applyStatements(ctx context.Context, exec rawExecutor, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := exec.NewRaw(stmt).Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

func loadMigrations(fsys fs.FS) ([]migration, error) {
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	out := make([]migration, 0, len(names))
	for _, name := range names {
		b, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, err
		}
		upSQL, err := extractGooseUp(string(b))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out = append(out, migration{
			version:    strings.TrimSuffix(name, ".sql"),
			statements: splitSQLStatements(upSQL),
		})
	}
	return out, nil
}

func extractGooseUp(sql string) (string, error) {
	upMarker := "-- +goose Up"
	downMarker := "-- +goose Down"

	upIdx := strings.Index(sql, upMarker)
	if upIdx < 0 {
		return "", fmt.Errorf("missing goose up marker")
	}
	afterUp := sql[upIdx+len(upMarker):]
	afterUp = strings.TrimLeft(afterUp, "\r\n")

	downIdx := strings.Index(afterUp, downMarker)
	if downIdx < 0 {
		return strings.TrimSpace(afterUp), nil
	}
	return strings.TrimSpace(afterUp[:downIdx]), nil
}

// splitSQLStatements splits on semicolons. Migration bodies must not
// contain semicolons inside literals or function bodies.
func splitSQLStatements(sql string) []string {
	parts := strings.Split(sql, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
