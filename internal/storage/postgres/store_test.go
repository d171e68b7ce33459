package postgres

import (
	"context"
	"os"
	"testing"

	"expensetracker/internal/storage"
	"expensetracker/internal/storage/storetest"
)

// Set TEST_DATABASE_URL to a disposable database to run these.
func TestStoreBehaviour(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	s, err := Connect(ctx, url)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	storetest.Run(t, func(t *testing.T) storage.Store {
		if err := s.truncate(ctx); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		return nopClose{s}
	})
}

// nopClose keeps the shared pool open across subtests.
type nopClose struct{ *Store }

func (nopClose) Close() error { return nil }
