package db

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := New(filepath.Join(t.TempDir(), "trail.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func TestNew(t *testing.T) {
	database := newTestDB(t)

	// Verify schema initialized
	var count int
	err := database.conn.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='kv'").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to query schema: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected kv table, got %d tables", count)
	}

	version, err := database.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion() error = %v", err)
	}
	if version != len(migrations) {
		t.Errorf("SchemaVersion() = %d, want %d", version, len(migrations))
	}
}

func TestNew_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "trail.db")
	database, err := New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = database.Close() }()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

func TestNew_WALMode(t *testing.T) {
	database := newTestDB(t)

	var journalMode string
	err := database.conn.QueryRow("PRAGMA journal_mode").Scan(&journalMode)
	if err != nil {
		t.Fatalf("Failed to query journal mode: %v", err)
	}

	if journalMode != "wal" {
		t.Errorf("Expected WAL mode, got %s", journalMode)
	}
}

func TestNew_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trail.db")
	ctx := context.Background()

	first, err := New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := first.Set(ctx, map[string][]byte{"currentSession": []byte(`{"id":"a"}`)}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	_ = first.Close()

	// Migrations must be idempotent across restarts
	second, err := New(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer func() { _ = second.Close() }()

	got, err := second.Get(ctx, "currentSession")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got["currentSession"]) != `{"id":"a"}` {
		t.Errorf("value after reopen = %q", got["currentSession"])
	}
}

func TestGetSet(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	got, err := database.Get(ctx, "sessions", "notes")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Get() on empty store = %v, want empty", got)
	}

	err = database.Set(ctx, map[string][]byte{
		"sessions": []byte(`[]`),
		"notes":    []byte(`{"a":"hello"}`),
	})
	if err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err = database.Get(ctx, "sessions", "notes", "missing")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !bytes.Equal(got["notes"], []byte(`{"a":"hello"}`)) {
		t.Errorf("notes = %q", got["notes"])
	}
	if _, ok := got["missing"]; ok {
		t.Errorf("missing key should be absent")
	}

	// Overwrite
	if err := database.Set(ctx, map[string][]byte{"notes": []byte(`{}`)}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, _ = database.Get(ctx, "notes")
	if string(got["notes"]) != `{}` {
		t.Errorf("notes after overwrite = %q", got["notes"])
	}
}

func TestSet_NilDeletes(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	if err := database.Set(ctx, map[string][]byte{"currentSession": []byte(`{}`)}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := database.Set(ctx, map[string][]byte{"currentSession": nil, "sessions": []byte(`[1]`)}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := database.Get(ctx, "currentSession", "sessions")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if _, ok := got["currentSession"]; ok {
		t.Errorf("currentSession should be deleted")
	}
	if string(got["sessions"]) != `[1]` {
		t.Errorf("sessions = %q", got["sessions"])
	}
}

func TestKeys(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	if err := database.Set(ctx, map[string][]byte{"b": []byte("22"), "a": []byte("1")}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	keys, err := database.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	if len(keys) != 2 || keys[0].Key != "a" || keys[1].Size != 2 {
		t.Errorf("Keys() = %+v", keys)
	}
}
