package stats

import (
	"encoding/json"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
)

func tx(kind core.Kind, amount string, cat core.Category, on time.Time) core.Transaction {
	return core.Transaction{
		OwnerID:     core.DefaultOwnerID,
		Kind:        kind,
		Amount:      decimal.RequireFromString(amount),
		Category:    cat,
		Description: string(cat),
		OccurredOn:  on,
	}
}

func oct(day int) time.Time { return time.Date(2024, 10, day, 0, 0, 0, 0, time.UTC) }

func sampleSet() []core.Transaction {
	return []core.Transaction{
		tx(core.KindIncome, "5000", core.CategorySalary, oct(1)),
		tx(core.KindExpense, "150", core.CategoryFood, oct(5)),
		tx(core.KindExpense, "50", core.CategoryEntertainment, oct(10)),
		tx(core.KindExpense, "1200", core.CategoryBills, oct(1)),
		tx(core.KindIncome, "500", core.CategoryFreelance, oct(15)),
		tx(core.KindExpense, "80", core.CategoryTravel, oct(12)),
		tx(core.KindExpense, "200", core.CategoryShopping, oct(20)),
		tx(core.KindExpense, "100", core.CategoryHealthcare, oct(18)),
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSummarizeSampleSet(t *testing.T) {
	s := Summarize(sampleSet())

	if !s.TotalIncome.Equal(dec("5500")) || !s.TotalExpense.Equal(dec("1780")) || !s.Balance.Equal(dec("3720")) {
		t.Fatalf("totals = %s/%s/%s, want 5500/1780/3720", s.TotalIncome, s.TotalExpense, s.Balance)
	}
	if len(s.CategoryBreakdown) != 8 {
		t.Fatalf("expected 8 groups, got %d", len(s.CategoryBreakdown))
	}
	first := s.CategoryBreakdown[0]
	if first.Category != core.CategoryFood || first.Kind != core.KindExpense || !first.Amount.Equal(dec("150")) {
		t.Fatalf("breakdown should start with Food, got %+v", first)
	}
}

func TestSummarizeInvariants(t *testing.T) {
	txs := append(sampleSet(),
		tx(core.KindIncome, "20.10", core.CategoryOther, oct(2)),
		tx(core.KindExpense, "0.20", core.CategoryOther, oct(3)),
		tx(core.KindExpense, "0.10", core.CategoryOther, oct(4)),
	)
	s := Summarize(txs)

	if !s.TotalIncome.Sub(s.TotalExpense).Equal(s.Balance) {
		t.Fatal("balance must equal income minus expense")
	}
	signed := decimal.Zero
	for _, x := range txs {
		signed = signed.Add(x.Signed())
	}
	if !signed.Equal(s.Balance) {
		t.Fatalf("signed sum %s != balance %s", signed, s.Balance)
	}

	groups := decimal.Zero
	others := 0
	for _, g := range s.CategoryBreakdown {
		groups = groups.Add(g.Amount)
		if g.Category == core.CategoryOther {
			others++
		}
	}
	if !groups.Equal(s.TotalIncome.Add(s.TotalExpense)) {
		t.Fatalf("breakdown sums to %s, want %s", groups, s.TotalIncome.Add(s.TotalExpense))
	}
	if others != 2 {
		t.Fatalf("Other should appear once per kind, got %d", others)
	}
	last := s.CategoryBreakdown[len(s.CategoryBreakdown)-1]
	if last.Category != core.CategoryOther || last.Kind != core.KindExpense || !last.Amount.Equal(dec("0.3")) {
		t.Fatalf("unexpected last group %+v", last)
	}
}

func TestBalanceSkipsUnknownKinds(t *testing.T) {
	txs := []core.Transaction{
		tx(core.KindIncome, "100", core.CategorySalary, oct(1)),
		tx(core.KindExpense, "30.25", core.CategoryFood, oct(2)),
		tx(core.Kind("transfer"), "999", core.CategoryOther, oct(3)),
	}

	if got := Summarize(txs).Balance; !got.Equal(dec("69.75")) {
		t.Errorf("Summarize balance = %s, want 69.75", got)
	}
	months := Monthly(txs, time.UTC)
	if len(months) != 1 || !months[0].Balance.Equal(dec("69.75")) {
		t.Errorf("Monthly = %+v", months)
	}
}

func TestSummarizeIsOrderIndependent(t *testing.T) {
	txs := sampleSet()
	want := Summarize(txs)

	r := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]core.Transaction(nil), txs...)
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got := Summarize(shuffled)
		gb, _ := json.Marshal(got)
		wb, _ := json.Marshal(want)
		if string(gb) != string(wb) {
			t.Fatalf("shuffle %d changed output:\n%s\n%s", i, gb, wb)
		}
	}
}

func TestSummarizeEmpty(t *testing.T) {
	b, err := json.Marshal(Summarize(nil))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"totalIncome":0,"totalExpense":0,"balance":0,"categoryBreakdown":[]}`
	if string(b) != want {
		t.Fatalf("got %s, want %s", b, want)
	}
}

func TestMonthly(t *testing.T) {
	var txs []core.Transaction
	// Eight months, March to October 2024, plus a gap in June.
	for m := time.March; m <= time.October; m++ {
		if m == time.June {
			continue
		}
		on := time.Date(2024, m, 15, 0, 0, 0, 0, time.UTC)
		txs = append(txs,
			tx(core.KindIncome, "100", core.CategorySalary, on),
			tx(core.KindExpense, "30.5", core.CategoryFood, on),
		)
	}
	txs = append(txs, tx(core.KindIncome, "1", core.CategoryOther, time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)))

	series := Monthly(txs, time.UTC)

	var labels []string
	for _, m := range series {
		labels = append(labels, m.Month)
		if !m.Income.Sub(m.Expense).Equal(m.Balance) {
			t.Errorf("%s balance mismatch", m.Month)
		}
	}
	want := []string{"Apr 2024", "May 2024", "Jul 2024", "Aug 2024", "Sep 2024", "Oct 2024"}
	if !reflect.DeepEqual(labels, want) {
		t.Fatalf("labels = %v, want %v", labels, want)
	}
	if !series[0].Income.Equal(dec("100")) || !series[0].Expense.Equal(dec("30.5")) || !series[0].Balance.Equal(dec("69.5")) {
		t.Fatalf("unexpected April stat %+v", series[0])
	}
}

func TestMonthlyShortSeriesSumsToTotals(t *testing.T) {
	txs := append(sampleSet(), tx(core.KindIncome, "10", core.CategoryOther, time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC)))
	series := Monthly(txs, time.UTC)
	if len(series) != 2 || series[0].Month != "Sep 2024" || series[1].Month != "Oct 2024" {
		t.Fatalf("unexpected series %+v", series)
	}
	income := decimal.Zero
	for _, m := range series {
		income = income.Add(m.Income)
	}
	if !income.Equal(Summarize(txs).TotalIncome) {
		t.Fatalf("monthly income %s != total", income)
	}
}

func TestMonthlyUsesLocation(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	late := time.Date(2024, 9, 30, 20, 0, 0, 0, time.UTC) // Oct 1 in Tokyo
	series := Monthly([]core.Transaction{tx(core.KindExpense, "5", core.CategoryFood, late)}, tokyo)
	if len(series) != 1 || series[0].Month != "Oct 2024" {
		t.Fatalf("unexpected series %+v", series)
	}
}
