package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/query"
	"expensetracker/internal/storage"
	"expensetracker/internal/storage/storetest"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestRepositoryBehaviour(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storage.Store { return newTestRepository(t) })
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")
	first, err := NewRepository(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	ctx := context.Background()
	tx := storetest.Transaction("keep", "u1", core.KindIncome, "10.10", core.CategorySalary, time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC))
	if err := first.Create(ctx, tx); err != nil {
		t.Fatalf("Create: %v", err)
	}
	first.Close()

	second, err := NewRepository(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer second.Close()
	got, err := second.Get(ctx, "keep")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got.Amount.String() != "10.1" {
		t.Fatalf("amount = %s", got.Amount)
	}
}

func TestAmountSortIsNumeric(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	on := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	for id, amount := range map[string]string{"nine": "9", "ten": "10", "hundred": "100.5"} {
		if err := repo.Create(ctx, storetest.Transaction(id, "u1", core.KindExpense, amount, core.CategoryFood, on)); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	got, err := repo.List(ctx, queryAll("u1"), sortAmountAsc, 0, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 3 || got[0].ID != "nine" || got[1].ID != "ten" || got[2].ID != "hundred" {
		t.Fatalf("amounts sorted as text: %v", got)
	}
}

var sortAmountAsc = query.Sort{Field: query.SortByAmount}

func queryAll(owner string) query.Filter { return query.Filter{OwnerID: owner} }
