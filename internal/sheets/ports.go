package sheets

import (
	"context"

	"expensetracker/internal/core"
)

// Ports for outbound adapters.
type (
	// Mirror keeps an external copy of transactions keyed by id.
	Mirror interface {
		// Upsert writes t, replacing any existing copy with the same id.
		Upsert(ctx context.Context, t core.Transaction) error
		// Remove deletes the copy of id. Absent ids are not an error.
		Remove(ctx context.Context, id string) error
	}
)
