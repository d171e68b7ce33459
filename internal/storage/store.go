// Package storage defines the record store boundary. Implementations live in
// the memory, sqlite and postgres subpackages and are interchangeable.
package storage

import (
	"context"
	"errors"

	"expensetracker/internal/core"
	"expensetracker/internal/query"
)

// ErrNotFound is returned when no record has the requested id.
var ErrNotFound = errors.New("transaction not found")

// Store persists transactions keyed by id. It does not check ownership;
// callers filter on OwnerID or compare it after Get.
type Store interface {
	Create(ctx context.Context, t core.Transaction) error
	Get(ctx context.Context, id string) (core.Transaction, error)
	Update(ctx context.Context, t core.Transaction) error
	Delete(ctx context.Context, id string) error
	// List returns matching records in sort order. A limit <= 0 returns
	// everything from offset on.
	List(ctx context.Context, f query.Filter, s query.Sort, offset, limit int) ([]core.Transaction, error)
	Count(ctx context.Context, f query.Filter) (int, error)
	Close() error
}
