package database

import (
	"database/sql"
	"path/filepath"
	"testing"

	"sportscast-proxy/work/resolver"
)

func writeCatalogue(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "channels.db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("failed to create catalogue db: %v", err)
	}
	defer db.Close()

	stmts := []string{
		`CREATE TABLE channels (
			id TEXT PRIMARY KEY,
			display_order INTEGER NOT NULL,
			logo TEXT NOT NULL DEFAULT '',
			allowed INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE aliases (
			alias TEXT PRIMARY KEY,
			channel_id TEXT NOT NULL REFERENCES channels(id)
		)`,
		`INSERT INTO channels VALUES ('alpha sports', 1, 'http://logos/a.png', 1)`,
		`INSERT INTO channels VALUES ('beta sports', 2, '', 0)`,
		`INSERT INTO aliases VALUES ('alpha hd', 'alpha sports')`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("failed to execute %q: %v", stmt, err)
		}
	}

	return path
}

func TestLoadCatalogue(t *testing.T) {
	table, err := LoadCatalogue(writeCatalogue(t))
	if err != nil {
		t.Fatalf("LoadCatalogue failed: %v", err)
	}

	if id, ok := table.Resolve("Alpha HD"); !ok || id != "alpha sports" {
		t.Errorf("Resolve(Alpha HD) = %q, %v", id, ok)
	}
	if table.DefaultLogo("alpha sports") != "http://logos/a.png" {
		t.Error("alpha logo not loaded")
	}
	if table.DisplayOrder("beta sports") != 2 {
		t.Error("beta display order not loaded")
	}
	if !table.IsAllowed("alpha sports") || table.IsAllowed("beta sports") {
		t.Error("allow flags not loaded")
	}

	var _ resolver.Resolver = table
}

func TestLoadCatalogueMissingFile(t *testing.T) {
	if _, err := LoadCatalogue(filepath.Join(t.TempDir(), "missing.db")); err == nil {
		t.Error("expected error for missing catalogue file")
	}
}

func TestLoadCatalogueEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("failed to create db: %v", err)
	}
	if _, err := db.Exec(`CREATE TABLE channels (id TEXT PRIMARY KEY, display_order INTEGER NOT NULL, logo TEXT NOT NULL DEFAULT '', allowed INTEGER NOT NULL DEFAULT 1)`); err != nil {
		t.Fatalf("failed to create table: %v", err)
	}
	if _, err := db.Exec(`CREATE TABLE aliases (alias TEXT PRIMARY KEY, channel_id TEXT NOT NULL)`); err != nil {
		t.Fatalf("failed to create table: %v", err)
	}
	db.Close()

	if _, err := LoadCatalogue(path); err == nil {
		t.Error("expected error for catalogue with no channels")
	}
}
