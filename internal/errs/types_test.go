package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationErrorJoinsMessages(t *testing.T) {
	err := NewValidationError("Amount must be positive", "Invalid category")
	if err.Error() != "Amount must be positive, Invalid category" {
		t.Fatalf("Error() = %q", err.Error())
	}
	if len(err.Messages) != 2 {
		t.Fatalf("messages = %v", err.Messages)
	}
}

func TestDatabaseErrorUnwraps(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("handler: %w", NewDatabaseError("create", "Failed to create transaction", cause))

	var dbErr *DatabaseError
	if !errors.As(err, &dbErr) {
		t.Fatal("expected DatabaseError in chain")
	}
	if dbErr.Error() != "Failed to create transaction" || dbErr.Operation != "create" {
		t.Fatalf("unexpected error %+v", dbErr)
	}
	if !errors.Is(err, cause) {
		t.Fatal("cause should be reachable")
	}
}
