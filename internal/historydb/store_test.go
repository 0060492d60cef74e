package historydb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	dbmodel "artiq/cli/internal/db"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	gdb, err := dbmodel.Open(filepath.Join(t.TempDir(), "artiq.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = dbmodel.Close(gdb) })
	st, err := NewStore(gdb)
	if err != nil {
		t.Fatalf("new store failed: %v", err)
	}
	return st
}

func TestStore_RecordAndListNewestFirst(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	for i, label := range []string{"Move to 1,2", "Fight", "Rest"} {
		err := st.Record(ctx, Entry{
			Character:  "alice",
			Label:      label,
			Outcome:    OutcomeDone,
			StartedAt:  base.Add(time.Duration(i) * time.Second),
			FinishedAt: base.Add(time.Duration(i)*time.Second + 500*time.Millisecond),
		})
		if err != nil {
			t.Fatalf("record %s: %v", label, err)
		}
	}
	if err := st.Record(ctx, Entry{Character: "bob", Label: "Gathering", Outcome: OutcomeFailed, Error: "not here", FinishedAt: base}); err != nil {
		t.Fatalf("record bob: %v", err)
	}

	rows, err := st.List(ctx, "alice", 2)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Label != "Rest" || rows[1].Label != "Fight" {
		t.Fatalf("unexpected order: %+v", rows)
	}
	if !rows[0].FinishedAt.Equal(base.Add(2500 * time.Millisecond)) {
		t.Fatalf("unexpected finished_at: %v", rows[0].FinishedAt)
	}

	all, err := st.List(ctx, "", 10)
	if err != nil {
		t.Fatalf("list all failed: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(all))
	}

	if err := st.Clear(ctx, "alice"); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	all, err = st.List(ctx, "", 10)
	if err != nil {
		t.Fatalf("list after clear failed: %v", err)
	}
	if len(all) != 1 || all[0].Character != "bob" || all[0].Error != "not here" {
		t.Fatalf("unexpected rows after clear: %+v", all)
	}
}

func TestStore_RecordRequiresCharacter(t *testing.T) {
	st := newTestStore(t)
	if err := st.Record(context.Background(), Entry{Label: "Rest"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestStore_NilStore(t *testing.T) {
	var st *Store
	if _, err := st.List(context.Background(), "", 1); err == nil {
		t.Fatal("expected error")
	}
}
