package database

import (
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(Config{Path: "file::memory:?cache=shared"}, nil)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStatsRepositoryCounters(t *testing.T) {
	db := openTestDB(t)
	repo := NewStatsRepository(db.GetDB())

	for i := 0; i < 3; i++ {
		if err := repo.IncrementKeyup("N1"); err != nil {
			t.Fatalf("IncrementKeyup: %v", err)
		}
	}
	if err := repo.IncrementKerchunk("N1"); err != nil {
		t.Fatalf("IncrementKerchunk: %v", err)
	}
	if err := repo.IncrementTimeout("N1"); err != nil {
		t.Fatalf("IncrementTimeout: %v", err)
	}
	if err := repo.IncrementExecutedCommand("N1"); err != nil {
		t.Fatalf("IncrementExecutedCommand: %v", err)
	}
	if err := repo.AddTXSeconds("N1", 12.5); err != nil {
		t.Fatalf("AddTXSeconds: %v", err)
	}

	s, err := repo.Get("N1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s.TotalKeyups != 3 || s.DailyKeyups != 3 {
		t.Fatalf("unexpected keyup counts: %+v", s)
	}
	if s.TotalKerchunks != 1 || s.TotalTimeouts != 1 || s.TotalExecutedCommands != 1 {
		t.Fatalf("unexpected counters: %+v", s)
	}
	if s.TXAccumulatedSeconds != 12.5 {
		t.Fatalf("unexpected TX seconds: %v", s.TXAccumulatedSeconds)
	}
}

func TestStatsRepositoryResetDaily(t *testing.T) {
	db := openTestDB(t)
	repo := NewStatsRepository(db.GetDB())

	_ = repo.IncrementKeyup("N2")
	_ = repo.IncrementKerchunk("N2")

	if err := repo.ResetDaily("N2"); err != nil {
		t.Fatalf("ResetDaily: %v", err)
	}
	s, err := repo.Get("N2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s.DailyKeyups != 0 || s.DailyKerchunks != 0 {
		t.Fatalf("expected daily counters reset, got %+v", s)
	}
	if s.TotalKeyups != 1 || s.TotalKerchunks != 1 {
		t.Fatalf("expected totals to survive reset, got %+v", s)
	}
}

func TestMemoryRepositoryUpsertAndList(t *testing.T) {
	db := openTestDB(t)
	repo := NewMemoryRepository(db.GetDB())

	ch := MemoryChannel{
		NodeName: "N1", Index: 1, FreqHz: 146_520_000, OffsetChar: "S",
		Mode: "FM", Power: 5, PLOn: true, TXPL: "67.0", RXPL: "67.0",
	}
	if err := repo.Upsert(ch); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := repo.Get("N1", 1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.FreqHz != 146_520_000 {
		t.Fatalf("unexpected freq: %d", got.FreqHz)
	}

	ch.Power = 10
	if err := repo.Upsert(ch); err != nil {
		t.Fatalf("Upsert (update): %v", err)
	}
	list, err := repo.List("N1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].Power != 10 {
		t.Fatalf("expected single updated row, got %+v", list)
	}

	if err := repo.Delete("N1", 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	list, err = repo.List("N1")
	if err != nil {
		t.Fatalf("List after delete: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list after delete, got %+v", list)
	}
}

func TestLinkHistoryRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewLinkHistoryRepository(db.GetDB())

	if err := repo.Record("N1", "31234", true, LinkEventConnect); err != nil {
		t.Fatalf("Record connect: %v", err)
	}
	if err := repo.Record("N1", "31234", true, LinkEventDisconnect); err != nil {
		t.Fatalf("Record disconnect: %v", err)
	}

	recent, err := repo.Recent("N1", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 events, got %d", len(recent))
	}

	count, err := repo.CountByPeer("N1", "31234")
	if err != nil {
		t.Fatalf("CountByPeer: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 connect event, got %d", count)
	}
}

func TestLinkHistoryPrune(t *testing.T) {
	db := openTestDB(t)
	repo := NewLinkHistoryRepository(db.GetDB())
	_ = repo.Record("N1", "31234", true, LinkEventConnect)

	if err := repo.Prune(time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Prune: %v", err)
	}
	recent, err := repo.Recent("N1", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 0 {
		t.Fatalf("expected events pruned, got %+v", recent)
	}
}

func TestDBHealth(t *testing.T) {
	db := openTestDB(t)
	if err := db.Health(); err != nil {
		t.Fatalf("Health: %v", err)
	}
}
