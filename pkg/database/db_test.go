package database

import (
	"path/filepath"
	"testing"
)

func TestOpenCreatesDirAndMigrateIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data.db")
	db, err := Open(Config{Path: path})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer db.Close()

	for i := 0; i < 2; i++ {
		if err := Migrate(db); err != nil {
			t.Fatalf("Migrate #%d returned error: %v", i+1, err)
		}
	}

	var name string
	if err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'manga'`).Scan(&name); err != nil {
		t.Fatalf("manga table missing: %v", err)
	}
}
