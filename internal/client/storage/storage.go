// Package storage opens the device database and keeps its schema current.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/possync/internal/logging"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// DestructiveVersion is the first schema version that drops owner-partitioned
// tables when applied to an older database.
const DestructiveVersion = 2

var pragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"foreign_keys(1)",
}

// DSN appends connection pragmas to a database path.
func DSN(path string) string {
	q := url.Values{}
	for _, p := range pragmas {
		q.Add("_pragma", p)
	}
	if strings.HasPrefix(path, "file:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + q.Encode()
	}
	return "file:" + path + "?" + q.Encode()
}

// Open opens (creating if needed) the database at path and migrates it to
// the latest schema version. A migration failure is returned as is; callers
// treat it as fatal.
func Open(ctx context.Context, path string, logger logging.Logger) (*sql.DB, error) {
	db, err := sql.Open("sqlite", DSN(path))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps :memory:
	// databases coherent.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := Migrate(ctx, db, logger); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func newProvider(db *sql.DB) (*goose.Provider, error) {
	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return nil, err
	}
	return goose.NewProvider(goose.DialectSQLite3, db, fsys)
}

// Migrate applies pending migrations. When the upgrade crosses
// DestructiveVersion from an existing database, the loss of local rows is
// logged so that a restore is expected afterwards.
func Migrate(ctx context.Context, db *sql.DB, logger logging.Logger) error {
	p, err := newProvider(db)
	if err != nil {
		return fmt.Errorf("migration setup: %w", err)
	}

	before, err := p.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	results, err := p.Up(ctx)
	if err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}

	after, err := p.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if before > 0 && before < DestructiveVersion && after >= DestructiveVersion {
		logger.Warn(ctx, "schema migration recreated owner-partitioned tables; local data will be re-populated from the remote store",
			"from_version", before, "to_version", after)
	}
	if len(results) > 0 {
		logger.Info(ctx, "schema migrated", "from_version", before, "to_version", after, "applied", len(results))
	}
	return nil
}

// MigrateTo applies migrations up to and including version.
func MigrateTo(ctx context.Context, db *sql.DB, version int64) error {
	p, err := newProvider(db)
	if err != nil {
		return fmt.Errorf("migration setup: %w", err)
	}
	if _, err := p.UpTo(ctx, version); err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}
	return nil
}

// Version reports the current schema version.
func Version(ctx context.Context, db *sql.DB) (int64, error) {
	p, err := newProvider(db)
	if err != nil {
		return 0, err
	}
	return p.GetDBVersion(ctx)
}
