package store

import (
	"database/sql"
	"embed"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dotcommander/relay/internal/mutex"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// MigrateDB runs all pending migrations with an advisory file lock to prevent
// concurrent migration races between agent processes sharing the database.
// For in-memory databases (tests), the lock is skipped.
func MigrateDB(db *sql.DB, dbPath string) error {
	if dbPath != ":memory:" && !strings.Contains(dbPath, ":memory:") {
		locks := mutex.NewService(filepath.Dir(dbPath), 0)
		return locks.WithExclusive(filepath.Base(dbPath)+".migrate", func() error {
			return RunMigrations(db)
		})
	}
	return RunMigrations(db)
}

// RunMigrations applies all pending migrations using goose. The goose version
// ledger (goose_db_version) is the schema_version record: it is checked on
// every connection open and decides whether schema statements (re-)apply.
func RunMigrations(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetVerbose(false) // Suppress migration logs for clean JSON output
	goose.SetLogger(goose.NopLogger())

	// goose uses "sqlite3" as its dialect name regardless of the underlying driver.
	// We use modernc.org/sqlite (registered as "sqlite"), but goose's dialect
	// controls SQL generation, not the driver name.
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}

	return goose.Up(db, "migrations")
}

// SchemaVersion returns the current and latest migration versions.
// current comes from goose_db_version; latest is the highest version
// in the embedded migration files. Returns (0, latest, nil) for a fresh DB.
func SchemaVersion(db *sql.DB) (current int64, latest int64, err error) {
	goose.SetBaseFS(embedMigrations)
	goose.SetVerbose(false)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return 0, 0, fmt.Errorf("set dialect: %w", err)
	}

	current, err = goose.GetDBVersion(db)
	if err != nil {
		// Fresh DB with no goose_db_version table: treat as version 0
		current = 0
	}

	latest, err = latestMigrationVersion()
	if err != nil {
		return current, 0, fmt.Errorf("determine latest version: %w", err)
	}
	return current, latest, nil
}

// latestMigrationVersion reads the embedded migrations directory and returns
// the highest version number found.
func latestMigrationVersion() (int64, error) {
	entries, err := embedMigrations.ReadDir("migrations")
	if err != nil {
		return 0, fmt.Errorf("read migrations dir: %w", err)
	}
	var max int64
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		// Parse version from filename prefix "00002_name.sql" -> 2
		idx := strings.IndexByte(name, '_')
		if idx <= 0 {
			continue
		}
		v, err := strconv.ParseInt(name[:idx], 10, 64)
		if err != nil {
			continue
		}
		if v > max {
			max = v
		}
	}
	return max, nil
}
