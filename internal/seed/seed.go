// Package seed loads a fixed month of sample transactions.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
	"expensetracker/internal/query"
	"expensetracker/internal/storage"
)

type sample struct {
	kind        core.Kind
	amount      int64
	category    core.Category
	description string
	day         int
}

var october2024 = []sample{
	{core.KindIncome, 5000, core.CategorySalary, "Monthly salary", 1},
	{core.KindExpense, 150, core.CategoryFood, "Groceries", 5},
	{core.KindExpense, 50, core.CategoryEntertainment, "Movie tickets", 10},
	{core.KindExpense, 1200, core.CategoryBills, "Rent payment", 1},
	{core.KindIncome, 500, core.CategoryFreelance, "Web design project", 15},
	{core.KindExpense, 80, core.CategoryTravel, "Gas", 12},
	{core.KindExpense, 200, core.CategoryShopping, "Clothes", 20},
	{core.KindExpense, 100, core.CategoryHealthcare, "Doctor visit", 18},
}

// Transactions returns the sample set for owner. Dates are midnight in loc;
// IDs and timestamps are left for Run to fill in.
func Transactions(owner string, loc *time.Location) []core.Transaction {
	if loc == nil {
		loc = time.Local
	}
	out := make([]core.Transaction, 0, len(october2024))
	for _, s := range october2024 {
		out = append(out, core.Transaction{
			OwnerID:     owner,
			Kind:        s.kind,
			Amount:      decimal.NewFromInt(s.amount),
			Category:    s.category,
			Description: s.description,
			OccurredOn:  time.Date(2024, time.October, s.day, 0, 0, 0, 0, loc).UTC(),
		})
	}
	return out
}

// Run replaces every transaction owner has with the sample set and returns
// how many were inserted.
func Run(ctx context.Context, store storage.Store, owner string, loc *time.Location, now time.Time) (int, error) {
	existing, err := store.List(ctx, query.Filter{OwnerID: owner}, query.DefaultSort(), 0, 0)
	if err != nil {
		return 0, fmt.Errorf("list existing transactions: %w", err)
	}
	for _, t := range existing {
		if err := store.Delete(ctx, t.ID); err != nil {
			return 0, fmt.Errorf("delete transaction %s: %w", t.ID, err)
		}
	}
	slog.InfoContext(ctx, "Cleared existing transactions", "owner", owner, "count", len(existing))

	stamp := now.UTC()
	txs := Transactions(owner, loc)
	for _, t := range txs {
		t.ID = uuid.NewString()
		t.CreatedAt = stamp
		t.UpdatedAt = stamp
		if err := store.Create(ctx, t); err != nil {
			return 0, fmt.Errorf("create sample transaction %q: %w", t.Description, err)
		}
	}

	slog.InfoContext(ctx, "Seeded sample transactions", "owner", owner, "count", len(txs))
	return len(txs), nil
}
