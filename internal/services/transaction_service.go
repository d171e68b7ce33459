package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	"expensetracker/internal/errs"
	"expensetracker/internal/log"
	"expensetracker/internal/query"
	"expensetracker/internal/stats"
	"expensetracker/internal/storage"
)

const msgNotFound = "Transaction not found"

// EventPublisher announces committed changes. *amqp.Client implements it.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, ev *amqp.TransactionEvent) error
}

// TransactionService applies ownership, identity and timestamps on top of a
// store, maps store failures onto the errs taxonomy and publishes change
// events.
type TransactionService struct {
	store     storage.Store
	publisher EventPublisher
	now       func() time.Time
	loc       *time.Location
}

type Option func(*TransactionService)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *TransactionService) { s.now = now }
}

// WithLocation sets the zone used for monthly grouping.
func WithLocation(loc *time.Location) Option {
	return func(s *TransactionService) { s.loc = loc }
}

// NewTransactionService wires a store with an optional publisher; pass nil
// to run without change events.
func NewTransactionService(store storage.Store, publisher EventPublisher, opts ...Option) *TransactionService {
	s := &TransactionService{
		store:     store,
		publisher: publisher,
		now:       time.Now,
		loc:       time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location is the zone month and year filters are resolved in.
func (s *TransactionService) Location() *time.Location { return s.loc }

// List returns one page of the caller's transactions.
func (s *TransactionService) List(ctx context.Context, spec query.Spec) (query.Page, error) {
	spec.Filter.OwnerID = core.OwnerFromContext(ctx)

	var (
		total int
		txs   []core.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.store.Count(gctx, spec.Filter)
		total = n
		return err
	})
	g.Go(func() error {
		page, err := s.store.List(gctx, spec.Filter, spec.Sort, spec.Offset(), spec.Limit)
		txs = page
		return err
	})
	if err := g.Wait(); err != nil {
		return query.Page{}, s.dbError(ctx, log.OpList, "Failed to fetch transactions", err)
	}

	return query.NewPage(txs, spec, total), nil
}

// Get returns the caller's transaction with id.
func (s *TransactionService) Get(ctx context.Context, id string) (core.Transaction, error) {
	return s.owned(ctx, id, log.OpRead, "Failed to fetch transactions")
}

func (s *TransactionService) Create(ctx context.Context, d core.Draft) (core.Transaction, error) {
	now := stamp(s.now())
	t := core.Transaction{
		ID:          uuid.NewString(),
		OwnerID:     core.OwnerFromContext(ctx),
		Kind:        d.Kind,
		Amount:      d.Amount,
		Category:    d.Category,
		Description: d.Description,
		OccurredOn:  stamp(d.OccurredOn),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, errs.NewValidationError(err.Error())
	}

	if err := s.store.Create(ctx, t); err != nil {
		return core.Transaction{}, s.dbError(ctx, log.OpCreate, "Failed to create transaction", err)
	}

	slog.InfoContext(ctx, "Transaction created",
		"id", t.ID,
		"type", t.Kind,
		"amount", t.Amount.String(),
		"category", t.Category)

	s.publish(ctx, amqp.ActionCreated, t)
	return t, nil
}

// stamp normalises a time to UTC at millisecond precision, the finest every
// store keeps.
func stamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// Update applies p to the caller's transaction. Concurrent updates are last
// write wins.
func (s *TransactionService) Update(ctx context.Context, id string, p core.Patch) (core.Transaction, error) {
	t, err := s.owned(ctx, id, log.OpUpdate, "Failed to update transaction")
	if err != nil {
		return core.Transaction{}, err
	}

	p.Apply(&t)
	t.OccurredOn = stamp(t.OccurredOn)
	t.UpdatedAt = stamp(s.now())
	if err := t.Validate(); err != nil {
		return core.Transaction{}, errs.NewValidationError(err.Error())
	}

	if err := s.store.Update(ctx, t); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.Transaction{}, errs.NewNotFoundError(msgNotFound)
		}
		return core.Transaction{}, s.dbError(ctx, log.OpUpdate, "Failed to update transaction", err)
	}

	slog.InfoContext(ctx, "Transaction updated", "id", t.ID)
	s.publish(ctx, amqp.ActionUpdated, t)
	return t, nil
}

func (s *TransactionService) Delete(ctx context.Context, id string) error {
	t, err := s.owned(ctx, id, log.OpDelete, "Failed to delete transaction")
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return errs.NewNotFoundError(msgNotFound)
		}
		return s.dbError(ctx, log.OpDelete, "Failed to delete transaction", err)
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	s.publish(ctx, amqp.ActionDeleted, t)
	return nil
}

// Stats aggregates every transaction the caller owns.
func (s *TransactionService) Stats(ctx context.Context) (stats.Summary, error) {
	txs, err := s.all(ctx, query.Filter{}, query.DefaultSort())
	if err != nil {
		return stats.Summary{}, s.dbError(ctx, log.OpStats, "Failed to fetch transaction statistics", err)
	}
	return stats.Summarize(txs), nil
}

// Monthly returns the caller's last six active months.
func (s *TransactionService) Monthly(ctx context.Context) ([]stats.MonthlyStat, error) {
	txs, err := s.all(ctx, query.Filter{}, query.DefaultSort())
	if err != nil {
		return nil, s.dbError(ctx, log.OpMonthly, "Failed to fetch monthly statistics", err)
	}
	return stats.Monthly(txs, s.loc), nil
}

// Export returns every matching transaction in order, without paging.
func (s *TransactionService) Export(ctx context.Context, f query.Filter, srt query.Sort) ([]core.Transaction, error) {
	txs, err := s.all(ctx, f, srt)
	if err != nil {
		return nil, s.dbError(ctx, log.OpExport, "Failed to export transactions", err)
	}
	return txs, nil
}

func (s *TransactionService) all(ctx context.Context, f query.Filter, srt query.Sort) ([]core.Transaction, error) {
	f.OwnerID = core.OwnerFromContext(ctx)
	return s.store.List(ctx, f, srt, 0, 0)
}

// owned loads id and hides records belonging to someone else.
func (s *TransactionService) owned(ctx context.Context, id, op, failMsg string) (core.Transaction, error) {
	t, err := s.store.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return core.Transaction{}, errs.NewNotFoundError(msgNotFound)
	}
	if err != nil {
		return core.Transaction{}, s.dbError(ctx, op, failMsg, err)
	}
	if t.OwnerID != core.OwnerFromContext(ctx) {
		return core.Transaction{}, errs.NewNotFoundError(msgNotFound)
	}
	return t, nil
}

func (s *TransactionService) dbError(ctx context.Context, op, msg string, err error) error {
	slog.ErrorContext(ctx, "Store operation failed", log.FieldOperation, op, log.FieldError, err)
	return errs.NewDatabaseError(op, msg, fmt.Errorf("%s transaction: %w", op, err))
}

// publish never fails the request; the record is already committed.
func (s *TransactionService) publish(ctx context.Context, action amqp.Action, t core.Transaction) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Event publisher not available, skipping transaction event",
			"id", t.ID, "action", action)
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, amqp.NewTransactionEvent(action, t)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"id", t.ID, "action", action, "error", err)
	}
}
