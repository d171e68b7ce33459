// Package storetest holds behaviour tests shared by every storage.Store.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
	"expensetracker/internal/query"
	"expensetracker/internal/storage"
)

// Factory returns an empty store. It is called once per subtest.
type Factory func(t *testing.T) storage.Store

// Transaction builds a valid record for tests.
func Transaction(id, owner string, kind core.Kind, amount string, cat core.Category, on time.Time) core.Transaction {
	created := time.Date(2024, 11, 1, 9, 0, 0, 0, time.UTC)
	return core.Transaction{
		ID:          id,
		OwnerID:     owner,
		Kind:        kind,
		Amount:      decimal.RequireFromString(amount),
		Category:    cat,
		Description: "desc " + id,
		OccurredOn:  on.UTC(),
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func day(month time.Month, d int) time.Time {
	return time.Date(2024, month, d, 12, 0, 0, 0, time.UTC)
}

func fixture() []core.Transaction {
	return []core.Transaction{
		Transaction("t1", "u1", core.KindIncome, "5000", core.CategorySalary, day(10, 1)),
		Transaction("t2", "u1", core.KindExpense, "150", core.CategoryFood, day(10, 5)),
		Transaction("t3", "u1", core.KindExpense, "1200", core.CategoryBills, day(10, 2)),
		Transaction("t4", "u1", core.KindExpense, "80.25", core.CategoryTravel, day(9, 12)),
		Transaction("t5", "u1", core.KindIncome, "500", core.CategoryFreelance, day(3, 15)),
		Transaction("t6", "u2", core.KindExpense, "99", core.CategoryFood, day(10, 6)),
	}
}

// Run exercises CRUD, filtering, sorting and pagination against new stores.
func Run(t *testing.T, newStore Factory) {
	t.Run("create and get", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		want := fixture()[3]
		if err := s.Create(ctx, want); err != nil {
			t.Fatalf("Create: %v", err)
		}
		got, err := s.Get(ctx, want.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		assertSame(t, got, want)
	})

	t.Run("missing id", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		if _, err := s.Get(ctx, "nope"); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("Get missing = %v, want ErrNotFound", err)
		}
		if err := s.Delete(ctx, "nope"); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("Delete missing = %v, want ErrNotFound", err)
		}
		ghost := fixture()[0]
		ghost.ID = "nope"
		if err := s.Update(ctx, ghost); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("Update missing = %v, want ErrNotFound", err)
		}
	})

	t.Run("update and delete", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		tx := fixture()[1]
		if err := s.Create(ctx, tx); err != nil {
			t.Fatalf("Create: %v", err)
		}
		tx.Description = `He said "hi"`
		tx.Amount = decimal.RequireFromString("175.40")
		tx.UpdatedAt = tx.UpdatedAt.Add(time.Hour)
		if err := s.Update(ctx, tx); err != nil {
			t.Fatalf("Update: %v", err)
		}
		got, err := s.Get(ctx, tx.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		assertSame(t, got, tx)

		if err := s.Delete(ctx, tx.ID); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := s.Get(ctx, tx.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("Get after delete = %v", err)
		}
	})

	t.Run("filter sort paginate", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		for _, tx := range fixture() {
			if err := s.Create(ctx, tx); err != nil {
				t.Fatalf("Create %s: %v", tx.ID, err)
			}
		}

		from, to := query.MonthRange(2024, time.October, time.UTC)
		yearFrom, yearTo := query.YearRange(2024, time.UTC)
		tests := []struct {
			name   string
			filter query.Filter
			sort   query.Sort
			offset int
			limit  int
			want   []string
			total  int
		}{
			{"owner by date desc", query.Filter{OwnerID: "u1"}, query.DefaultSort(), 0, 0, []string{"t2", "t3", "t1", "t4", "t5"}, 5},
			{"first page", query.Filter{OwnerID: "u1"}, query.DefaultSort(), 0, 2, []string{"t2", "t3"}, 5},
			{"last page", query.Filter{OwnerID: "u1"}, query.DefaultSort(), 4, 2, []string{"t5"}, 5},
			{"past the end", query.Filter{OwnerID: "u1"}, query.DefaultSort(), 10, 2, nil, 5},
			{"amount asc", query.Filter{OwnerID: "u1"}, query.Sort{Field: query.SortByAmount}, 0, 0, []string{"t4", "t2", "t5", "t3", "t1"}, 5},
			{"amount desc", query.Filter{OwnerID: "u1", Kind: core.KindExpense}, query.Sort{Field: query.SortByAmount, Desc: true}, 0, 0, []string{"t3", "t2", "t4"}, 3},
			{"october", query.Filter{OwnerID: "u1", From: from, To: to}, query.Sort{Field: query.SortByDate}, 0, 0, []string{"t1", "t3", "t2"}, 3},
			{"year", query.Filter{OwnerID: "u1", From: yearFrom, To: yearTo}, query.DefaultSort(), 0, 0, []string{"t2", "t3", "t1", "t4", "t5"}, 5},
			{"category", query.Filter{OwnerID: "u1", Category: core.CategoryFood}, query.DefaultSort(), 0, 0, []string{"t2"}, 1},
			{"other owner", query.Filter{OwnerID: "u2"}, query.DefaultSort(), 0, 0, []string{"t6"}, 1},
			{"nobody", query.Filter{OwnerID: "u3"}, query.DefaultSort(), 0, 0, nil, 0},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := s.List(ctx, tt.filter, tt.sort, tt.offset, tt.limit)
				if err != nil {
					t.Fatalf("List: %v", err)
				}
				if ids := idsOf(got); !equalIDs(ids, tt.want) {
					t.Fatalf("ids = %v, want %v", ids, tt.want)
				}
				total, err := s.Count(ctx, tt.filter)
				if err != nil {
					t.Fatalf("Count: %v", err)
				}
				if total != tt.total {
					t.Fatalf("Count = %d, want %d", total, tt.total)
				}
			})
		}
	})

	t.Run("stable order on ties", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		on := day(10, 1)
		for _, id := range []string{"b", "c", "a"} {
			if err := s.Create(ctx, Transaction(id, "u1", core.KindExpense, "10", core.CategoryFood, on)); err != nil {
				t.Fatalf("Create: %v", err)
			}
		}
		got, err := s.List(ctx, query.Filter{OwnerID: "u1"}, query.Sort{Field: query.SortByDate}, 0, 0)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if ids := idsOf(got); !equalIDs(ids, []string{"a", "b", "c"}) {
			t.Fatalf("ids = %v", ids)
		}
	})
}

func assertSame(t *testing.T, got, want core.Transaction) {
	t.Helper()
	if got.ID != want.ID || got.OwnerID != want.OwnerID || got.Kind != want.Kind ||
		got.Category != want.Category || got.Description != want.Description {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	if !got.Amount.Equal(want.Amount) {
		t.Fatalf("amount = %s, want %s", got.Amount, want.Amount)
	}
	if !got.OccurredOn.Equal(want.OccurredOn) || !got.CreatedAt.Equal(want.CreatedAt) || !got.UpdatedAt.Equal(want.UpdatedAt) {
		t.Fatalf("timestamps differ: got %v/%v/%v want %v/%v/%v",
			got.OccurredOn, got.CreatedAt, got.UpdatedAt, want.OccurredOn, want.CreatedAt, want.UpdatedAt)
	}
}

func idsOf(txs []core.Transaction) []string {
	var ids []string
	for _, t := range txs {
		ids = append(ids, t.ID)
	}
	return ids
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
