package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pigeonworks-llc/club-billing/pkg/store"
)

func openTestDB(t *testing.T) *Connection {
	t.Helper()
	conn, err := Open(filepath.Join(t.TempDir(), "nested", "club.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestCollectionStore(t *testing.T) {
	ctx := context.Background()
	s := NewCollectionStore(openTestDB(t))

	var got []string
	if found, err := s.Load(ctx, store.KeyStudents, &got); err != nil || found {
		t.Fatalf("Load() on empty table = %v, %v", found, err)
	}

	for _, v := range [][]string{{"a"}, {"a", "b"}} {
		if err := s.Save(ctx, store.KeyStudents, v); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	if found, err := s.Load(ctx, store.KeyStudents, &got); err != nil || !found {
		t.Fatalf("Load() = %v, %v", found, err)
	}
	if len(got) != 2 || got[1] != "b" {
		t.Errorf("Load() = %v, expected [a b]", got)
	}

	rev, err := s.Revision(ctx, store.KeyStudents)
	if err != nil || rev != 2 {
		t.Errorf("Revision() = %d, %v, expected 2", rev, err)
	}

	if err := s.Save(ctx, "nope", got); !errors.Is(err, store.ErrUnknownKey) {
		t.Errorf("Save(unknown) error = %v", err)
	}
}

func TestCollectionStoreSaveAll(t *testing.T) {
	ctx := context.Background()
	s := NewCollectionStore(openTestDB(t))

	err := s.SaveAll(ctx, map[string]any{
		store.KeyStudents: []string{"s1"},
		store.KeyClasses:  []string{"c1", "c2"},
	})
	if err != nil {
		t.Fatalf("SaveAll() error = %v", err)
	}

	var classes []string
	if found, err := s.Load(ctx, store.KeyClasses, &classes); err != nil || !found || len(classes) != 2 {
		t.Errorf("Load(classes) = %v, %v, %v", classes, found, err)
	}

	err = s.SaveAll(ctx, map[string]any{store.KeyReceipts: []string{}, "bogus": 1})
	if !errors.Is(err, store.ErrUnknownKey) {
		t.Errorf("SaveAll() error = %v, expected %v", err, store.ErrUnknownKey)
	}
	if rev, _ := s.Revision(ctx, store.KeyReceipts); rev != 0 {
		t.Errorf("receipts revision = %d after rejected SaveAll, expected 0", rev)
	}
}

func TestActivityLog(t *testing.T) {
	ctx := context.Background()
	log := NewActivityLog(openTestDB(t))
	base := time.Date(2024, 5, 7, 20, 0, 0, 0, time.UTC)

	activities := []Activity{
		{Command: "record-attendance", Summary: "c1: 2 marks", OccurredAt: base},
		{Command: "settle-charges", StudentID: "s1", Amount: decimal.NewNullDecimal(decimal.NewFromInt(4000)), Summary: "r1", OccurredAt: base.Add(time.Minute)},
		{Command: "apply-discount", StudentID: "s2", Amount: decimal.NewNullDecimal(decimal.RequireFromString("1900.50")), Summary: "r2", OccurredAt: base.Add(2 * time.Minute)},
	}
	for _, a := range activities {
		if err := log.Record(ctx, a); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	recent, err := log.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(recent) != 2 || recent[0].Command != "apply-discount" || recent[1].StudentID != "s1" {
		t.Errorf("Recent() = %+v", recent)
	}
	if !recent[0].Amount.Valid || !recent[0].Amount.Decimal.Equal(decimal.RequireFromString("1900.5")) {
		t.Errorf("amount = %+v", recent[0].Amount)
	}

	stats, err := log.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	if stats.TotalActivities != 3 || stats.ByCommand["settle-charges"] != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if !stats.Collected.Equal(decimal.RequireFromString("5900.5")) {
		t.Errorf("collected = %s, expected 5900.5", stats.Collected)
	}
	if !stats.LastActivity.Valid || !stats.LastActivity.Time.Equal(base.Add(2*time.Minute)) {
		t.Errorf("last activity = %+v", stats.LastActivity)
	}
}

func TestMetadata(t *testing.T) {
	ctx := context.Background()
	log := NewActivityLog(openTestDB(t))

	if v, err := log.GetMetadata(ctx, "last_backup"); err != nil || v != "" {
		t.Errorf("GetMetadata() on empty = %q, %v", v, err)
	}
	for _, v := range []string{"a.json", "b.json"} {
		if err := log.SetMetadata(ctx, "last_backup", v); err != nil {
			t.Fatalf("SetMetadata() error = %v", err)
		}
	}
	if v, err := log.GetMetadata(ctx, "last_backup"); err != nil || v != "b.json" {
		t.Errorf("GetMetadata() = %q, %v, expected b.json", v, err)
	}
}

func TestRecordBackup(t *testing.T) {
	ctx := context.Background()
	log := NewActivityLog(openTestDB(t))

	stats, err := log.GetStats(ctx)
	if err != nil || stats.LastBackup != "" {
		t.Fatalf("GetStats() before backup = %+v, %v", stats, err)
	}

	at := time.Date(2024, 5, 1, 12, 30, 0, 0, time.FixedZone("ART", -3*60*60))
	if err := log.RecordBackup(ctx, at); err != nil {
		t.Fatalf("RecordBackup() error = %v", err)
	}
	stats, err = log.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	if stats.LastBackup != "2024-05-01T15:30:00Z" {
		t.Errorf("LastBackup = %q, expected %q", stats.LastBackup, "2024-05-01T15:30:00Z")
	}
}
