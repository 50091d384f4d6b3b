package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// Migration is one SQL file and whether it has been applied.
type Migration struct {
	Filename  string
	Applied   bool
	AppliedAt time.Time
}

// Run applies every migration in FS that is not yet recorded in the
// schema_migrations table. Each file runs in its own transaction.
func Run(ctx context.Context, db *sql.DB) error {
	return RunFS(ctx, db, FS)
}

// RunFS is Run with an explicit set of migration files.
func RunFS(ctx context.Context, db *sql.DB, fsys fs.FS) error {
	status, err := StatusFS(ctx, db, fsys)
	if err != nil {
		return err
	}

	applied := 0
	for _, m := range status {
		if m.Applied {
			slog.Debug("migration already applied", "file", m.Filename)
			continue
		}
		if err := apply(ctx, db, fsys, m.Filename); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.Filename, err)
		}
		applied++
		slog.Info("migration applied", "file", m.Filename)
	}
	if applied == 0 {
		slog.Debug("schema up to date", "migrations", len(status))
	}
	return nil
}

// Status lists the migrations in FS with their applied state.
func Status(ctx context.Context, db *sql.DB) ([]Migration, error) {
	return StatusFS(ctx, db, FS)
}

// StatusFS is Status with an explicit set of migration files.
func StatusFS(ctx context.Context, db *sql.DB, fsys fs.FS) ([]Migration, error) {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename TEXT PRIMARY KEY,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return nil, fmt.Errorf("ensure migrations table: %w", err)
	}

	applied, err := appliedAt(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("get applied migrations: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("list migration files: %w", err)
	}

	var out []Migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		at, ok := applied[entry.Name()]
		out = append(out, Migration{Filename: entry.Name(), Applied: ok, AppliedAt: at})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Filename < out[j].Filename })
	return out, nil
}

func appliedAt(ctx context.Context, db *sql.DB) (map[string]time.Time, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT filename, strftime('%Y-%m-%dT%H:%M:%SZ', applied_at) FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]time.Time)
	for rows.Next() {
		var filename, at string
		if err := rows.Scan(&filename, &at); err != nil {
			return nil, err
		}
		parsed, _ := time.Parse(time.RFC3339, at)
		applied[filename] = parsed
	}
	return applied, rows.Err()
}

func apply(ctx context.Context, db *sql.DB, fsys fs.FS, filename string) error {
	content, err := fs.ReadFile(fsys, filename)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("execute sql: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", filename); err != nil {
		return fmt.Errorf("record migration: %w", err)
	}
	return tx.Commit()
}
