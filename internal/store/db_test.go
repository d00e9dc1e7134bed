package store

import (
	"database/sql"
	"os"
	"testing"
)

func setupTestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	tempDir := t.TempDir()
	testDBPath := tempDir + "/test.db"

	db, err := InitDBWithPath(testDBPath)
	if err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}

	cleanup := func() {
		_ = db.Close()
	}

	return db, cleanup
}

func TestInitDB(t *testing.T) {
	tempDir := t.TempDir()
	testDBPath := tempDir + "/test.db"

	db, err := InitDBWithPath(testDBPath)
	if err != nil {
		t.Fatalf("InitDBWithPath failed: %v", err)
	}
	defer db.Close()

	// Verify database file exists
	_, statErr := os.Stat(testDBPath)
	if os.IsNotExist(statErr) {
		t.Fatalf("Database file was not created at %s", testDBPath)
	}

	// Verify tables were created
	tables := []string{"agents", "tasks", "locks", "session_events", "messages"}
	for _, table := range tables {
		var name string
		scanErr := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if scanErr != nil {
			t.Errorf("Table %s was not created: %v", table, scanErr)
		}
	}

	// Verify WAL mode is enabled
	var journalMode string
	err = db.QueryRow("PRAGMA journal_mode").Scan(&journalMode)
	if err != nil {
		t.Fatalf("Failed to query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("Expected journal_mode=wal, got %s", journalMode)
	}

	// Verify foreign keys are enabled
	var foreignKeys int
	err = db.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys)
	if err != nil {
		t.Fatalf("Failed to query foreign_keys: %v", err)
	}
	if foreignKeys != 1 {
		t.Errorf("Expected foreign_keys=1, got %d", foreignKeys)
	}
}

func TestMigrationsAddSessionColumn(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	// The session_id column is added by a later migration with a default, so
	// rows written by older binaries read back as empty string, not NULL.
	var count int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM pragma_table_info('agents') WHERE name = 'session_id'
	`).Scan(&count)
	if err != nil {
		t.Fatalf("Failed to inspect agents schema: %v", err)
	}
	if count != 1 {
		t.Fatalf("Expected agents.session_id column to exist, found %d", count)
	}

	current, latest, err := SchemaVersion(db)
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if current != latest {
		t.Errorf("Expected schema at latest version, got current=%d latest=%d", current, latest)
	}
	if latest < 2 {
		t.Errorf("Expected at least 2 migrations, got latest=%d", latest)
	}
}
