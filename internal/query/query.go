// Package query turns raw list parameters into a filter, a sort order and a
// page window that any record store can apply.
package query

import (
	"strconv"
	"strings"
	"time"

	"expensetracker/internal/core"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Params holds list parameters exactly as they arrived. Empty means absent.
type Params struct {
	Page      string
	Limit     string
	Category  string
	Type      string
	Month     string
	Year      string
	SortBy    string
	SortOrder string
}

type SortField string

const (
	SortByDate   SortField = "date"
	SortByAmount SortField = "amount"
)

// Filter selects the transactions of one owner. Zero-valued fields match anything.
// From and To are inclusive.
type Filter struct {
	OwnerID  string
	Category core.Category
	Kind     core.Kind
	From     *time.Time
	To       *time.Time
}

type Sort struct {
	Field SortField
	Desc  bool
}

// Spec is a fully resolved list request.
type Spec struct {
	Filter Filter
	Sort   Sort
	Page   int
	Limit  int
}

// DefaultSort orders newest first.
func DefaultSort() Sort {
	return Sort{Field: SortByDate, Desc: true}
}

// Parse validates p and resolves it. Month and year boundaries are computed
// in loc. On failure the returned messages are non-empty.
func Parse(p Params, loc *time.Location) (Spec, []string) {
	var msgs []string
	spec := Spec{Page: DefaultPage, Limit: DefaultLimit}

	if p.Page != "" {
		n, err := strconv.Atoi(strings.TrimSpace(p.Page))
		if err != nil || n < 1 {
			msgs = append(msgs, "Page must be a positive integer")
		} else {
			spec.Page = n
		}
	}
	if p.Limit != "" {
		n, err := strconv.Atoi(strings.TrimSpace(p.Limit))
		switch {
		case err != nil || n < 1:
			msgs = append(msgs, "Limit must be a positive integer")
		case n > MaxLimit:
			msgs = append(msgs, "Limit must not exceed 100")
		default:
			spec.Limit = n
		}
	}

	filter, sort, filterMsgs := ParseFilter(p, loc)
	spec.Filter = filter
	spec.Sort = sort
	msgs = append(msgs, filterMsgs...)

	return spec, msgs
}

// ParseFilter resolves everything except the page window. Export uses it
// directly since it is never paginated.
func ParseFilter(p Params, loc *time.Location) (Filter, Sort, []string) {
	var (
		f    Filter
		msgs []string
	)
	sort := DefaultSort()

	if p.Category != "" {
		c := core.Category(p.Category)
		if !c.IsValid() {
			msgs = append(msgs, "Invalid category")
		} else {
			f.Category = c
		}
	}
	if p.Type != "" {
		k := core.Kind(p.Type)
		if !k.IsValid() {
			msgs = append(msgs, "Type must be income or expense")
		} else {
			f.Kind = k
		}
	}

	month, monthOK := 0, false
	if p.Month != "" {
		n, err := strconv.Atoi(strings.TrimSpace(p.Month))
		switch {
		case err != nil:
			msgs = append(msgs, "Month must be a number")
		case n < 1 || n > 12:
			msgs = append(msgs, "Month must be between 1 and 12")
		default:
			month, monthOK = n, true
		}
	}
	year, yearOK := 0, false
	if p.Year != "" {
		n, err := strconv.Atoi(strings.TrimSpace(p.Year))
		switch {
		case err != nil:
			msgs = append(msgs, "Year must be a number")
		case n < 1 || n > 9999:
			msgs = append(msgs, "Year must be between 1 and 9999")
		default:
			year, yearOK = n, true
		}
	}
	// A month without a year applies no date filter.
	if yearOK {
		if monthOK {
			f.From, f.To = MonthRange(year, time.Month(month), loc)
		} else {
			f.From, f.To = YearRange(year, loc)
		}
	}

	switch SortField(p.SortBy) {
	case "":
	case SortByDate, SortByAmount:
		sort.Field = SortField(p.SortBy)
	default:
		msgs = append(msgs, "Sort field must be date or amount")
	}
	switch p.SortOrder {
	case "":
	case "asc":
		sort.Desc = false
	case "desc":
		sort.Desc = true
	default:
		msgs = append(msgs, "Sort order must be asc or desc")
	}

	return f, sort, msgs
}

// MonthRange returns the first and last second of a calendar month in loc.
func MonthRange(year int, month time.Month, loc *time.Location) (*time.Time, *time.Time) {
	if loc == nil {
		loc = time.Local
	}
	from := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	// Day 0 of the next month is the last day of this one.
	to := time.Date(year, month+1, 0, 23, 59, 59, 0, loc)
	return &from, &to
}

// YearRange returns the first and last second of a calendar year in loc.
func YearRange(year int, loc *time.Location) (*time.Time, *time.Time) {
	if loc == nil {
		loc = time.Local
	}
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	to := time.Date(year, time.December, 31, 23, 59, 59, 0, loc)
	return &from, &to
}

func (s Spec) Offset() int {
	return (s.Page - 1) * s.Limit
}

// Matches reports whether t passes every set criterion.
func (f Filter) Matches(t core.Transaction) bool {
	if f.OwnerID != "" && t.OwnerID != f.OwnerID {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if f.Kind != "" && t.Kind != f.Kind {
		return false
	}
	if f.From != nil && t.OccurredOn.Before(*f.From) {
		return false
	}
	if f.To != nil && t.OccurredOn.After(*f.To) {
		return false
	}
	return true
}

// Less orders a before b. Ties on the sort field fall back to creation time
// and then id, in the same direction, so that pages are stable.
func (s Sort) Less(a, b core.Transaction) bool {
	c := s.compare(a, b)
	if s.Desc {
		return c > 0
	}
	return c < 0
}

func (s Sort) compare(a, b core.Transaction) int {
	var c int
	if s.Field == SortByAmount {
		c = a.Amount.Cmp(b.Amount)
	} else {
		c = a.OccurredOn.Compare(b.OccurredOn)
	}
	if c != 0 {
		return c
	}
	if c = a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Page is one window of a filtered, sorted result.
type Page struct {
	Transactions []core.Transaction `json:"transactions"`
	Pagination   Pagination         `json:"pagination"`
}

// NewPage wraps a window of results with its pagination metadata.
func NewPage(txs []core.Transaction, spec Spec, total int) Page {
	if txs == nil {
		txs = []core.Transaction{}
	}
	return Page{
		Transactions: txs,
		Pagination: Pagination{
			Page:       spec.Page,
			Limit:      spec.Limit,
			Total:      total,
			TotalPages: TotalPages(total, spec.Limit),
		},
	}
}

// TotalPages is ceil(total/limit).
func TotalPages(total, limit int) int {
	if limit < 1 {
		return 0
	}
	return (total + limit - 1) / limit
}
