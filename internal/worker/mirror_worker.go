package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	"expensetracker/internal/query"
	"expensetracker/internal/sheets"
	"expensetracker/internal/storage"
)

// MirrorWorker copies transaction changes into an external mirror.
type MirrorWorker struct {
	store     storage.Store
	mirror    sheets.Mirror
	batchSize int
}

func NewMirrorWorker(store storage.Store, mirror sheets.Mirror, batchSize int) *MirrorWorker {
	if batchSize < 1 {
		batchSize = 100
	}
	return &MirrorWorker{
		store:     store,
		mirror:    mirror,
		batchSize: batchSize,
	}
}

// HandleEvent applies one change event. A returned error requeues the event.
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	slog.InfoContext(ctx, "Processing transaction event",
		"id", ev.ID,
		"action", ev.Action)

	switch ev.Action {
	case amqp.ActionCreated, amqp.ActionUpdated:
		t, err := w.current(ctx, ev)
		if errors.Is(err, storage.ErrNotFound) {
			// Deleted before we got here; the delete event will follow.
			return w.remove(ctx, ev.ID)
		}
		if err != nil {
			return err
		}
		if err := w.mirror.Upsert(ctx, t); err != nil {
			return fmt.Errorf("upsert %s: %w", ev.ID, err)
		}
		slog.InfoContext(ctx, "Mirrored transaction", "id", ev.ID, "action", ev.Action)
		return nil

	case amqp.ActionDeleted:
		return w.remove(ctx, ev.ID)

	default:
		slog.WarnContext(ctx, "Ignoring event with unknown action",
			"id", ev.ID,
			"action", ev.Action)
		return nil
	}
}

// current prefers the stored record over the event snapshot so that late
// or reordered events never write stale data.
func (w *MirrorWorker) current(ctx context.Context, ev *amqp.TransactionEvent) (core.Transaction, error) {
	if w.store == nil {
		if ev.Transaction == nil {
			return core.Transaction{}, fmt.Errorf("event %s has no snapshot and no store is configured", ev.ID)
		}
		return *ev.Transaction, nil
	}

	t, err := w.store.Get(ctx, ev.ID)
	if err == nil {
		return t, nil
	}
	if errors.Is(err, storage.ErrNotFound) {
		return core.Transaction{}, err
	}
	if ev.Transaction != nil {
		slog.WarnContext(ctx, "Store unavailable, using event snapshot", "id", ev.ID, "error", err)
		return *ev.Transaction, nil
	}
	return core.Transaction{}, fmt.Errorf("get transaction from storage: %w", err)
}

func (w *MirrorWorker) remove(ctx context.Context, id string) error {
	if err := w.mirror.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove %s: %w", id, err)
	}
	slog.InfoContext(ctx, "Removed mirrored transaction", "id", id)
	return nil
}

// Reconcile upserts every stored transaction, batchSize at a time. It is
// the backstop for events lost while the worker was down. Individual
// mirror failures are logged and counted, not returned.
func (w *MirrorWorker) Reconcile(ctx context.Context) error {
	if w.store == nil {
		return errors.New("reconcile needs a store")
	}

	order := query.Sort{Field: query.SortByDate}
	synced, failed := 0, 0
	for offset := 0; ; offset += w.batchSize {
		batch, err := w.store.List(ctx, query.Filter{}, order, offset, w.batchSize)
		if err != nil {
			return fmt.Errorf("list transactions for reconcile: %w", err)
		}

		for _, t := range batch {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := w.mirror.Upsert(ctx, t); err != nil {
				slog.ErrorContext(ctx, "Failed to mirror transaction during reconcile",
					"id", t.ID, "error", err)
				failed++
				continue
			}
			synced++
		}

		if len(batch) < w.batchSize {
			break
		}
	}

	slog.InfoContext(ctx, "Reconcile completed",
		"synced", synced,
		"errors", failed)
	return nil
}
