package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/pigeonworks-llc/club-billing/pkg/db"
	"github.com/pigeonworks-llc/club-billing/pkg/domain"
	"github.com/pigeonworks-llc/club-billing/pkg/store"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type failingStore struct {
	*store.Memory
	failKey string
}

func (f failingStore) Save(ctx context.Context, key string, v any) error {
	if key == f.failKey {
		return errors.New("disk full")
	}
	return f.Memory.Save(ctx, key, v)
}

func TestServiceLoadNormalizes(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	txns := []domain.Transaction{
		{ID: "zero", StudentID: "s1", Amount: decimal.Zero, Status: domain.StatusPending},
		{ID: "t1", StudentID: "s1", Amount: dec("1000"), Status: domain.StatusPending},
	}
	students := []domain.Student{{
		ID:   "s1",
		Name: "Ana",
		AccountHistory: []domain.AccountEntry{
			{ID: "e1", AttendanceStatus: domain.AttendancePresent, Amount: dec("1000")},
			{ID: "e2", Amount: dec("-200")},
		},
	}}
	if err := mem.Save(ctx, store.KeyTransactions, txns); err != nil {
		t.Fatal(err)
	}
	if err := mem.Save(ctx, store.KeyStudents, students); err != nil {
		t.Fatal(err)
	}

	svc := NewService(mem, WithLogger(quiet))
	if err := svc.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	s := svc.State()
	if len(s.Transactions) != 1 || s.Transactions[0].ID != "t1" {
		t.Errorf("transactions = %+v", s.Transactions)
	}
	kinds := []domain.EntryKind{s.Students[0].AccountHistory[0].Kind, s.Students[0].AccountHistory[1].Kind}
	if kinds[0] != domain.EntryClassAttendance || kinds[1] != domain.EntryDiscount {
		t.Errorf("kinds = %v", kinds)
	}
	if s.CurrentUser != domain.DefaultUser() {
		t.Errorf("current user = %+v", s.CurrentUser)
	}
	if s.Receipts == nil {
		t.Error("receipts nil after load")
	}
}

func TestServiceApplyPersists(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	svc := NewService(mem, WithLogger(quiet), WithReducer(newTestReducer()))

	eff, err := svc.Apply(ctx, AddStudent{Student: domain.Student{Name: "Ana", Condition: domain.ConditionTitular}})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	var saved []domain.Student
	found, err := mem.Load(ctx, store.KeyStudents, &saved)
	if err != nil || !found {
		t.Fatalf("Load() = %v, %v", found, err)
	}
	if len(saved) != 1 || saved[0].ID != eff.Student.ID {
		t.Errorf("saved = %+v", saved)
	}

	var classes []domain.Class
	if found, _ := mem.Load(ctx, store.KeyClasses, &classes); found {
		t.Error("untouched collection was written")
	}
}

func TestServiceFailedWriteKeepsState(t *testing.T) {
	ctx := context.Background()
	svc := NewService(failingStore{Memory: store.NewMemory(), failKey: store.KeyStudents}, WithLogger(quiet))

	_, err := svc.Apply(ctx, AddStudent{Student: domain.Student{Name: "Ana", Condition: domain.ConditionTitular}})
	if err == nil {
		t.Fatal("Apply() succeeded with a failing store")
	}
	if len(svc.State().Students) != 0 {
		t.Errorf("state replaced after failed write: %+v", svc.State().Students)
	}
}

func TestServiceRecordsActivity(t *testing.T) {
	ctx := context.Background()
	conn, err := db.Open(filepath.Join(t.TempDir(), "club.db"))
	if err != nil {
		t.Fatalf("db.Open() error = %v", err)
	}
	defer conn.Close()

	activity := db.NewActivityLog(conn)
	svc := NewService(db.NewCollectionStore(conn),
		WithLogger(quiet),
		WithReducer(newTestReducer()),
		WithRecorder(activity),
	)
	if err := svc.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if _, err := svc.Apply(ctx, Restore{Students: seed().Students, Transactions: seed().Transactions}); err != nil {
		t.Fatalf("restore error = %v", err)
	}
	eff, err := svc.Apply(ctx, SettleCharges{StudentID: "s1", TransactionIDs: []string{"t1"}})
	if err != nil {
		t.Fatalf("settle error = %v", err)
	}

	recent, err := activity.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("activities = %d, expected 2", len(recent))
	}

	stats, err := activity.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	if !stats.Collected.Equal(dec("1000")) || stats.ByCommand["settle-charges"] != 1 {
		t.Errorf("stats = %+v", stats)
	}

	// A second service over the same database sees the settlement.
	reloaded := NewService(db.NewCollectionStore(conn), WithLogger(quiet))
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("reload error = %v", err)
	}
	if _, ok := reloaded.State().Receipt(eff.Receipt.ID); !ok {
		t.Error("receipt not persisted")
	}
	if tx, _ := reloaded.State().Transaction("t1"); tx.Status != domain.StatusPaid {
		t.Errorf("t1 status after reload = %s", tx.Status)
	}
}
