package storage

import (
	"fmt"
	"strings"
	"time"

	"expensetracker/internal/query"
)

// Dialect adapts the shared WHERE and ORDER BY clauses to one SQL database.
type Dialect struct {
	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string
	// Time converts a filter bound into the column's storage form.
	Time func(time.Time) any
	// AmountExpr is the expression sorted on for SortByAmount.
	AmountExpr string
}

// Where renders f as a WHERE clause (empty when f is empty) plus its arguments.
func (d Dialect) Where(f query.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(expr string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(expr, d.Placeholder(len(args))))
	}

	if f.OwnerID != "" {
		add("user_id = %s", f.OwnerID)
	}
	if f.Category != "" {
		add("category = %s", string(f.Category))
	}
	if f.Kind != "" {
		add("type = %s", string(f.Kind))
	}
	if f.From != nil {
		add("occurred_on >= %s", d.Time(*f.From))
	}
	if f.To != nil {
		add("occurred_on <= %s", d.Time(*f.To))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// OrderBy renders s with created_at and id as tie breakers.
func (d Dialect) OrderBy(s query.Sort) string {
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	field := "occurred_on"
	if s.Field == query.SortByAmount {
		field = d.AmountExpr
	}
	return fmt.Sprintf(" ORDER BY %s %s, created_at %s, id %s", field, dir, dir, dir)
}
