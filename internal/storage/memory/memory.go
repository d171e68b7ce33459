package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"expensetracker/internal/core"
	"expensetracker/internal/query"
	"expensetracker/internal/storage"
)

// Store keeps transactions in a map guarded by a mutex. Reads return copies.
type Store struct {
	mu    sync.RWMutex
	items map[string]core.Transaction
}

var _ storage.Store = (*Store)(nil)

func New(seed ...core.Transaction) *Store {
	s := &Store{items: make(map[string]core.Transaction, len(seed))}
	for _, t := range seed {
		s.items[t.ID] = t
	}
	return s
}

func (s *Store) Create(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[t.ID]; exists {
		return fmt.Errorf("create transaction: duplicate id %q", t.ID)
	}
	s.items[t.ID] = t

	slog.DebugContext(ctx, "Transaction stored in memory", "id", t.ID, "count", len(s.items))
	return nil
}

func (s *Store) Get(_ context.Context, id string) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.items[id]
	if !ok {
		return core.Transaction{}, storage.ErrNotFound
	}
	return t, nil
}

func (s *Store) Update(_ context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[t.ID]; !ok {
		return storage.ErrNotFound
	}
	s.items[t.ID] = t
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *Store) List(_ context.Context, f query.Filter, order query.Sort, offset, limit int) ([]core.Transaction, error) {
	matched := s.matching(f)
	sort.Slice(matched, func(i, j int) bool { return order.Less(matched[i], matched[j]) })

	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return []core.Transaction{}, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *Store) Count(_ context.Context, f query.Filter) (int, error) {
	return len(s.matching(f)), nil
}

func (s *Store) Close() error { return nil }

// Len reports how many records the store holds across all owners.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store) matching(f query.Filter) []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Transaction, 0, len(s.items))
	for _, t := range s.items {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}
