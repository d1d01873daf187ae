package db

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestOpenSQLite_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "snapshots.db")

	conn, err := OpenSQLite(context.Background(), path, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenSQLite() error: %v", err)
	}
	defer conn.Close()

	var mode string
	if err := conn.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("query journal mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("expected wal journal mode, got %s", mode)
	}
}

func TestMigrateSQLite(t *testing.T) {
	ctx := context.Background()
	conn, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "m.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenSQLite() error: %v", err)
	}
	defer conn.Close()

	fsys := fstest.MapFS{
		"001_items.sql": {Data: []byte("CREATE TABLE items (id TEXT PRIMARY KEY);")},
		"002_index.sql": {Data: []byte("CREATE INDEX idx_items ON items (id);")},
	}

	n, err := MigrateSQLite(ctx, conn, fsys)
	if err != nil {
		t.Fatalf("MigrateSQLite() error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 applied, got %d", n)
	}

	n, err = MigrateSQLite(ctx, conn, fsys)
	if err != nil {
		t.Fatalf("second MigrateSQLite() error: %v", err)
	}
	if n != 0 {
		t.Errorf("expected migrations to be idempotent, applied %d", n)
	}

	fsys["003_broken.sql"] = &fstest.MapFile{Data: []byte("CREATE TABLE items (id TEXT);")}
	if _, err := MigrateSQLite(ctx, conn, fsys); err == nil {
		t.Error("expected error for failing migration")
	}
	var count int
	conn.QueryRow("SELECT COUNT(*) FROM _migrations").Scan(&count)
	if count != 2 {
		t.Errorf("failed migration must not be recorded, got %d rows", count)
	}
}

func TestSQLHealthHandler(t *testing.T) {
	conn, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "h.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenSQLite() error: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health/db", nil)
	rec := httptest.NewRecorder()
	if err := SQLHealthHandler(conn)(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	conn.Close()
	rec = httptest.NewRecorder()
	if err := SQLHealthHandler(conn)(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 after close, got %d", rec.Code)
	}
}

func TestTxFromContext_Nil(t *testing.T) {
	if tx := TxFromContext(context.Background()); tx != nil {
		t.Error("expected nil tx from empty context")
	}
}

func TestWithTx_NoConnection(t *testing.T) {
	err := WithTx(context.Background(), nil, func(context.Context) error { return nil })
	if err == nil || err.Error() != "no database connection" {
		t.Errorf("unexpected error: %v", err)
	}
}
