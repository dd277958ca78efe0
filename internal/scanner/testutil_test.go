package scanner

import (
	"database/sql"
	_ "embed"
	"os"
	"path/filepath"
	"testing"

	"github.com/vmunix/arrgo/internal/catalog"
	_ "modernc.org/sqlite"
)

//go:embed testdata/schema.sql
var testSchema string

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.Exec(testSchema); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return db
}

func newTestScanner(t *testing.T) (*Scanner, *catalog.Store) {
	t.Helper()
	db := setupTestDB(t)
	store := catalog.NewStore(db)
	return New(store, nil, nil, nil), store
}

// writeFile creates a file of the given size (content padded with zero
// bytes) at root/relPath, creating parent directories as needed.
func writeFile(t *testing.T, root, relPath string, size int64) string {
	t.Helper()
	full := filepath.Join(root, relPath)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	data := make([]byte, size)
	if err := os.WriteFile(full, data, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return full
}
