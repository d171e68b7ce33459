// Package postgres stores transactions in PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
	"expensetracker/internal/query"
	"expensetracker/internal/storage"
)

var dialect = storage.Dialect{
	Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	Time:        func(t time.Time) any { return t.UTC() },
	AmountExpr:  "amount",
}

const selectColumns = `SELECT id, user_id, type, amount::text, category, description, occurred_on, created_at, updated_at FROM transactions`

type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Store = (*Store)(nil)

// Connect migrates the schema and opens a pool against databaseURL.
func Connect(ctx context.Context, databaseURL string) (*Store, error) {
	if err := RunMigrations(databaseURL); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Create(ctx context.Context, t core.Transaction) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO transactions (id, user_id, type, amount, category, description, occurred_on, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.OwnerID, string(t.Kind), t.Amount.String(), string(t.Category), t.Description,
		t.OccurredOn.UTC(), t.CreatedAt.UTC(), t.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	slog.InfoContext(ctx, "Transaction saved to PostgreSQL", "id", t.ID, "type", t.Kind, "amount", t.Amount.String())
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (core.Transaction, error) {
	t, err := scanTransaction(s.pool.QueryRow(ctx, selectColumns+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Transaction{}, storage.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction by id: %w", err)
	}
	return t, nil
}

func (s *Store) Update(ctx context.Context, t core.Transaction) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE transactions
		SET type = $1, amount = $2, category = $3, description = $4, occurred_on = $5, updated_at = $6
		WHERE id = $7`,
		string(t.Kind), t.Amount.String(), string(t.Category), t.Description,
		t.OccurredOn.UTC(), t.UpdatedAt.UTC(), t.ID,
	)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return requireRow(tag)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireRow(tag)
}

func (s *Store) List(ctx context.Context, f query.Filter, srt query.Sort, offset, limit int) ([]core.Transaction, error) {
	where, args := dialect.Where(f)
	stmt := selectColumns + where + dialect.OrderBy(srt)
	if limit > 0 {
		args = append(args, limit)
		stmt += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if offset > 0 {
		args = append(args, offset)
		stmt += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context, f query.Filter) (int, error) {
	where, args := dialect.Where(f)
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

// truncate empties the table; tests only.
func (s *Store) truncate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `TRUNCATE transactions`)
	return err
}

func scanTransaction(row pgx.Row) (core.Transaction, error) {
	var (
		t                      core.Transaction
		kind, amount, category string
	)
	err := row.Scan(&t.ID, &t.OwnerID, &kind, &amount, &category, &t.Description, &t.OccurredOn, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return core.Transaction{}, err
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	t.Kind = core.Kind(kind)
	t.Amount = d
	t.Category = core.Category(category)
	t.OccurredOn = t.OccurredOn.UTC()
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return t, nil
}

func requireRow(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
