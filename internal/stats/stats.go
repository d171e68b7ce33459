// Package stats reduces a set of transactions into totals, a per-category
// breakdown and a short monthly series. Every function is pure and its output
// does not depend on input order.
package stats

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
)

// MonthlyWindow is how many of the most recent months Monthly keeps.
const MonthlyWindow = 6

// CategoryAmount is the summed amount of one (category, kind) pair.
type CategoryAmount struct {
	Category core.Category   `json:"category"`
	Kind     core.Kind       `json:"type"`
	Amount   decimal.Decimal `json:"amount"`
}

type Summary struct {
	TotalIncome       decimal.Decimal  `json:"totalIncome"`
	TotalExpense      decimal.Decimal  `json:"totalExpense"`
	Balance           decimal.Decimal  `json:"balance"`
	CategoryBreakdown []CategoryAmount `json:"categoryBreakdown"`
}

// MonthlyStat aggregates one calendar month.
type MonthlyStat struct {
	Month   string          `json:"month"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Balance decimal.Decimal `json:"balance"`
}

type categoryKey struct {
	category core.Category
	kind     core.Kind
}

// Summarize computes totals and the (category, kind) breakdown. A category
// holding both income and expense appears once per kind. The breakdown is
// ordered by category rank, then income before expense.
func Summarize(txs []core.Transaction) Summary {
	s := Summary{
		TotalIncome:       decimal.Zero,
		TotalExpense:      decimal.Zero,
		Balance:           decimal.Zero,
		CategoryBreakdown: []CategoryAmount{},
	}
	groups := make(map[categoryKey]decimal.Decimal)

	for _, t := range txs {
		switch t.Kind {
		case core.KindIncome:
			s.TotalIncome = s.TotalIncome.Add(t.Amount)
		case core.KindExpense:
			s.TotalExpense = s.TotalExpense.Add(t.Amount)
		default:
			continue
		}
		s.Balance = s.Balance.Add(t.Signed())
		key := categoryKey{t.Category, t.Kind}
		groups[key] = groups[key].Add(t.Amount)
	}

	for key, amount := range groups {
		s.CategoryBreakdown = append(s.CategoryBreakdown, CategoryAmount{
			Category: key.category,
			Kind:     key.kind,
			Amount:   amount,
		})
	}
	sort.Slice(s.CategoryBreakdown, func(i, j int) bool {
		a, b := s.CategoryBreakdown[i], s.CategoryBreakdown[j]
		if ra, rb := a.Category.Rank(), b.Category.Rank(); ra != rb {
			return ra < rb
		}
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.Kind.Rank() < b.Kind.Rank()
	})

	return s
}

type monthKey struct {
	year  int
	month time.Month
}

func (k monthKey) before(o monthKey) bool {
	if k.year != o.year {
		return k.year < o.year
	}
	return k.month < o.month
}

// label renders a month as "Oct 2024".
func (k monthKey) label() string {
	return time.Date(k.year, k.month, 1, 0, 0, 0, 0, time.UTC).Format("Jan 2006")
}

// Monthly groups transactions by the calendar month of OccurredOn in loc and
// returns the last MonthlyWindow months present, oldest first. Months with no
// transactions are absent.
func Monthly(txs []core.Transaction, loc *time.Location) []MonthlyStat {
	if loc == nil {
		loc = time.Local
	}
	type bucket struct {
		income, expense, balance decimal.Decimal
	}
	buckets := make(map[monthKey]*bucket)

	for _, t := range txs {
		if !t.Kind.IsValid() {
			continue
		}
		local := t.OccurredOn.In(loc)
		key := monthKey{local.Year(), local.Month()}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{income: decimal.Zero, expense: decimal.Zero, balance: decimal.Zero}
			buckets[key] = b
		}
		if t.Kind == core.KindIncome {
			b.income = b.income.Add(t.Amount)
		} else {
			b.expense = b.expense.Add(t.Amount)
		}
		b.balance = b.balance.Add(t.Signed())
	}

	keys := make([]monthKey, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].before(keys[j]) })
	if len(keys) > MonthlyWindow {
		keys = keys[len(keys)-MonthlyWindow:]
	}

	out := make([]MonthlyStat, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		out = append(out, MonthlyStat{
			Month:   k.label(),
			Income:  b.income,
			Expense: b.expense,
			Balance: b.balance,
		})
	}
	return out
}
