package query

import (
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
)

func TestParseDefaults(t *testing.T) {
	spec, msgs := Parse(Params{}, time.UTC)
	if len(msgs) != 0 {
		t.Fatalf("unexpected messages %q", msgs)
	}
	if spec.Page != 1 || spec.Limit != 10 || spec.Offset() != 0 {
		t.Fatalf("unexpected window %+v", spec)
	}
	if spec.Sort != (Sort{Field: SortByDate, Desc: true}) {
		t.Fatalf("unexpected sort %+v", spec.Sort)
	}
	if spec.Filter.From != nil || spec.Filter.To != nil {
		t.Fatal("no date filter expected")
	}
}

func TestParseRejectsBadInput(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		want   []string
	}{
		{"non-numeric page", Params{Page: "abc"}, []string{"Page must be a positive integer"}},
		{"zero page", Params{Page: "0"}, []string{"Page must be a positive integer"}},
		{"negative limit", Params{Limit: "-2"}, []string{"Limit must be a positive integer"}},
		{"limit too large", Params{Limit: "500"}, []string{"Limit must not exceed 100"}},
		{"bad category", Params{Category: "Pets"}, []string{"Invalid category"}},
		{"bad type", Params{Type: "refund"}, []string{"Type must be income or expense"}},
		{"bad month", Params{Month: "13", Year: "2024"}, []string{"Month must be between 1 and 12"}},
		{"non-numeric year", Params{Year: "20x4"}, []string{"Year must be a number"}},
		{"bad sort", Params{SortBy: "category", SortOrder: "up"}, []string{"Sort field must be date or amount", "Sort order must be asc or desc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, msgs := Parse(tt.params, time.UTC)
			if !reflect.DeepEqual(msgs, tt.want) {
				t.Fatalf("messages = %q, want %q", msgs, tt.want)
			}
		})
	}
}

func TestParseWindowAndSort(t *testing.T) {
	spec, msgs := Parse(Params{Page: "3", Limit: "25", SortBy: "amount", SortOrder: "asc", Category: "Food", Type: "expense"}, time.UTC)
	if len(msgs) != 0 {
		t.Fatalf("unexpected messages %q", msgs)
	}
	if spec.Offset() != 50 {
		t.Fatalf("offset = %d, want 50", spec.Offset())
	}
	if spec.Sort != (Sort{Field: SortByAmount}) {
		t.Fatalf("unexpected sort %+v", spec.Sort)
	}
	if spec.Filter.Category != core.CategoryFood || spec.Filter.Kind != core.KindExpense {
		t.Fatalf("unexpected filter %+v", spec.Filter)
	}
}

func TestDateRanges(t *testing.T) {
	tests := []struct {
		name     string
		params   Params
		from, to time.Time
		none     bool
	}{
		{
			name:   "month and year",
			params: Params{Month: "10", Year: "2024"},
			from:   time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC),
			to:     time.Date(2024, 10, 31, 23, 59, 59, 0, time.UTC),
		},
		{
			name:   "leap february",
			params: Params{Month: "2", Year: "2024"},
			from:   time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			to:     time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC),
		},
		{
			name:   "plain february",
			params: Params{Month: "2", Year: "2023"},
			from:   time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC),
			to:     time.Date(2023, 2, 28, 23, 59, 59, 0, time.UTC),
		},
		{
			name:   "december",
			params: Params{Month: "12", Year: "2024"},
			from:   time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
			to:     time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC),
		},
		{
			name:   "year only",
			params: Params{Year: "2024"},
			from:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			to:     time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC),
		},
		{
			name:   "month without year is ignored",
			params: Params{Month: "10"},
			none:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, msgs := Parse(tt.params, time.UTC)
			if len(msgs) != 0 {
				t.Fatalf("unexpected messages %q", msgs)
			}
			f := spec.Filter
			if tt.none {
				if f.From != nil || f.To != nil {
					t.Fatalf("expected no date filter, got %v..%v", f.From, f.To)
				}
				return
			}
			if !f.From.Equal(tt.from) || !f.To.Equal(tt.to) {
				t.Fatalf("range = %s..%s, want %s..%s", f.From, f.To, tt.from, tt.to)
			}
		})
	}
}

func TestMonthRangeUsesLocation(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	from, to := MonthRange(2024, time.October, ny)
	if !from.Equal(time.Date(2024, 10, 1, 4, 0, 0, 0, time.UTC)) {
		t.Fatalf("from = %s", from.UTC())
	}
	if !to.Equal(time.Date(2024, 11, 1, 3, 59, 59, 0, time.UTC)) {
		t.Fatalf("to = %s", to.UTC())
	}
}

func tx(id string, owner string, kind core.Kind, amount string, cat core.Category, on time.Time) core.Transaction {
	return core.Transaction{
		ID:          id,
		OwnerID:     owner,
		Kind:        kind,
		Amount:      decimal.RequireFromString(amount),
		Category:    cat,
		Description: id,
		OccurredOn:  on,
		CreatedAt:   on,
	}
}

func TestFilterMatches(t *testing.T) {
	from, to := MonthRange(2024, time.October, time.UTC)
	f := Filter{OwnerID: "u1", Kind: core.KindExpense, From: from, To: to}

	tests := []struct {
		name string
		tx   core.Transaction
		want bool
	}{
		{"inside", tx("a", "u1", core.KindExpense, "1", core.CategoryFood, time.Date(2024, 10, 15, 0, 0, 0, 0, time.UTC)), true},
		{"first second", tx("b", "u1", core.KindExpense, "1", core.CategoryFood, *from), true},
		{"last second", tx("c", "u1", core.KindExpense, "1", core.CategoryFood, *to), true},
		{"after end", tx("d", "u1", core.KindExpense, "1", core.CategoryFood, to.Add(time.Second)), false},
		{"other owner", tx("e", "u2", core.KindExpense, "1", core.CategoryFood, *from), false},
		{"other kind", tx("f", "u1", core.KindIncome, "1", core.CategoryFood, *from), false},
	}
	for _, tt := range tests {
		if got := f.Matches(tt.tx); got != tt.want {
			t.Errorf("%s: Matches = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSortLess(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 10, d, 0, 0, 0, 0, time.UTC) }
	txs := []core.Transaction{
		tx("a", "u", core.KindExpense, "50", core.CategoryFood, day(3)),
		tx("b", "u", core.KindExpense, "150", core.CategoryFood, day(1)),
		tx("c", "u", core.KindExpense, "5", core.CategoryFood, day(2)),
	}
	ids := func(s Sort) []string {
		cp := append([]core.Transaction(nil), txs...)
		sort.Slice(cp, func(i, j int) bool { return s.Less(cp[i], cp[j]) })
		out := make([]string, len(cp))
		for i, x := range cp {
			out[i] = x.ID
		}
		return out
	}

	if got := ids(DefaultSort()); !reflect.DeepEqual(got, []string{"a", "c", "b"}) {
		t.Errorf("date desc = %v", got)
	}
	if got := ids(Sort{Field: SortByDate}); !reflect.DeepEqual(got, []string{"b", "c", "a"}) {
		t.Errorf("date asc = %v", got)
	}
	if got := ids(Sort{Field: SortByAmount, Desc: true}); !reflect.DeepEqual(got, []string{"b", "a", "c"}) {
		t.Errorf("amount desc = %v", got)
	}
}

func TestTotalPages(t *testing.T) {
	cases := []struct{ total, limit, want int }{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{8, 3, 3},
	}
	for _, c := range cases {
		if got := TotalPages(c.total, c.limit); got != c.want {
			t.Errorf("TotalPages(%d, %d) = %d, want %d", c.total, c.limit, got, c.want)
		}
	}

	page := NewPage(nil, Spec{Page: 2, Limit: 3}, 8)
	if page.Transactions == nil || page.Pagination != (Pagination{Page: 2, Limit: 3, Total: 8, TotalPages: 3}) {
		t.Fatalf("unexpected page %+v", page)
	}
}
