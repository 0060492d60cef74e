package db

import (
	"path/filepath"
	"testing"
)

func TestOpen_SetsBusyTimeout(t *testing.T) {
	gdb, err := Open(filepath.Join(t.TempDir(), "artiq.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer func() { _ = Close(gdb) }()

	var timeout int
	if err := gdb.Raw(`PRAGMA busy_timeout;`).Scan(&timeout).Error; err != nil {
		t.Fatalf("query busy_timeout failed: %v", err)
	}
	if timeout < 5000 {
		t.Fatalf("expected busy_timeout >= 5000, got %d", timeout)
	}
}
