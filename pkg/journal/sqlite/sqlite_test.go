package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "journal", "tags.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.Init(context.Background(), "WAL", "normal"); err != nil {
		t.Fatalf("init: %v", err)
	}
	return store
}

func TestStoreAppendAndStats(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	st, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st != (Stats{}) {
		t.Fatalf("empty journal stats = %+v", st)
	}

	base := time.UnixMilli(1_700_000_000_000)
	entries := []Entry{
		{SessionID: "s1", EPC: "E2000001", RSSI: 60, Antenna: 1, SeenAt: base},
		{SessionID: "s1", EPC: "E2000002", RSSI: 58, Antenna: 2, MemID: "ABCD", SeenAt: base.Add(time.Millisecond)},
		{SessionID: "s2", EPC: "E2000001", RSSI: 61, Antenna: 1, DevName: "dock", SeenAt: base.Add(2 * time.Millisecond)},
	}
	for _, e := range entries {
		if err := store.Append(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	st, err = store.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	want := Stats{Count: 3, Distinct: 2, LastEPC: "E2000001"}
	if st != want {
		t.Fatalf("stats = %+v, want %+v", st, want)
	}
}

func TestStoreSessionCount(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	for _, sid := range []string{"s1", "s1", "s2"} {
		if err := store.Append(ctx, Entry{SessionID: sid, EPC: "E2000001", FreqKhz: 902750}); err != nil {
			t.Fatal(err)
		}
	}
	n, err := store.SessionCount(ctx, "s1")
	if err != nil {
		t.Fatalf("session count: %v", err)
	}
	if n != 2 {
		t.Fatalf("session count = %d, want 2", n)
	}
	if n, _ := store.SessionCount(ctx, "nope"); n != 0 {
		t.Fatalf("unknown session count = %d", n)
	}
}

func TestInitRejectsNilStore(t *testing.T) {
	var s *Store
	if err := s.Init(context.Background(), "", ""); err == nil {
		t.Fatal("expected error")
	}
}
