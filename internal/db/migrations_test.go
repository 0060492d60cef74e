package db

import (
	"path/filepath"
	"testing"
)

func TestOpen_CreatesActionHistoryTable(t *testing.T) {
	gdb, err := Open(filepath.Join(t.TempDir(), "artiq.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer func() { _ = Close(gdb) }()

	var got string
	if err := gdb.Raw(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, "action_history").Scan(&got).Error; err != nil {
		t.Fatalf("query sqlite_master failed: %v", err)
	}
	if got != "action_history" {
		t.Fatalf("missing table action_history")
	}
	var index string
	if err := gdb.Raw(`SELECT name FROM sqlite_master WHERE type='index' AND name=?`, "idx_action_history_character_finished_at").Scan(&index).Error; err != nil {
		t.Fatalf("query index failed: %v", err)
	}
	if index == "" {
		t.Fatalf("missing history index")
	}
}

func TestSyncSchema_RequiresDB(t *testing.T) {
	if err := SyncSchema(nil); err == nil {
		t.Fatal("expected error for nil db")
	}
}
