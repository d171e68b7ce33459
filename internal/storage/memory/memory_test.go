package memory

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/storage"
	"expensetracker/internal/storage/storetest"
)

func TestStoreBehaviour(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storage.Store { return New() })
}

func TestCreateRejectsInvalidAndDuplicates(t *testing.T) {
	s := New()
	ctx := context.Background()
	tx := storetest.Transaction("a", "u1", core.KindExpense, "5", core.CategoryFood, time.Now())

	if err := s.Create(ctx, tx); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Create(ctx, tx); err == nil {
		t.Fatal("duplicate id should fail")
	}
	bad := tx
	bad.ID = "b"
	bad.Category = "Pets"
	if err := s.Create(ctx, bad); err == nil {
		t.Fatal("invalid category should fail")
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
}

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		raw  string
		want core.Category
	}{
		{`"Food"`, core.CategoryFood},
		{`{"name":"Travel","color":"#f00"}`, core.CategoryTravel},
		{`{"color":"#f00"}`, core.CategoryOther},
		{`{"name":""}`, core.CategoryOther},
		{`"Pets"`, core.CategoryOther},
		{`null`, core.CategoryOther},
		{`42`, core.CategoryOther},
	}
	for _, tt := range tests {
		if got := NormalizeCategory(json.RawMessage(tt.raw)); got != tt.want {
			t.Errorf("NormalizeCategory(%s) = %s, want %s", tt.raw, got, tt.want)
		}
	}
}

const legacyExport = `[
  {"id":"l1","type":"expense","amount":12.5,"category":{"name":"Food","icon":"utensils"},"description":"Lunch","date":"2024-10-05T00:00:00.000Z","createdAt":"2024-10-05T12:00:00.000Z"},
  {"id":"l2","type":"income","amount":"300","category":"Freelance","description":"Logo","date":"2024-09-30"},
  {"type":"expense","amount":8,"category":{},"description":"Misc","date":"2024-10-07T10:00:00Z"}
]`

func TestDecodeLegacy(t *testing.T) {
	now := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)
	txs, rejected, err := DecodeLegacy(strings.NewReader(legacyExport), "owner-1", time.UTC, now)
	if err != nil {
		t.Fatalf("DecodeLegacy: %v", err)
	}
	if rejected != 0 || len(txs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(txs))
	}

	first := txs[0]
	if first.Category != core.CategoryFood || first.OwnerID != "owner-1" || first.Amount.String() != "12.5" {
		t.Fatalf("unexpected first record %+v", first)
	}
	if !first.CreatedAt.Equal(time.Date(2024, 10, 5, 12, 0, 0, 0, time.UTC)) || !first.UpdatedAt.Equal(first.CreatedAt) {
		t.Fatalf("timestamps not carried over: %+v", first)
	}
	if !txs[1].CreatedAt.Equal(now) || !txs[1].OccurredOn.Equal(time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected second record %+v", txs[1])
	}
	if txs[2].ID == "" || txs[2].Category != core.CategoryOther {
		t.Fatalf("missing id and category should be filled: %+v", txs[2])
	}
}

func TestDecodeLegacySkipsBadRecords(t *testing.T) {
	export := `[
	  {"id":"neg","type":"expense","amount":-4,"category":"Food","description":"n","date":"2024-10-05"},
	  {"id":"ok","type":"expense","amount":4,"category":"Food","description":"n","date":"2024-10-05"},
	  {"id":"nodate","type":"expense","amount":4,"category":"Food","description":"n","date":"soon"},
	  {"id":"dust","type":"expense","amount":0.004,"category":"Food","description":"n","date":"2024-10-05"}
	]`
	txs, rejected, err := DecodeLegacy(strings.NewReader(export), "o", time.UTC, time.Now())
	if err != nil {
		t.Fatalf("DecodeLegacy: %v", err)
	}
	if rejected != 3 || len(txs) != 1 || txs[0].ID != "ok" {
		t.Fatalf("rejected = %d, txs = %+v", rejected, txs)
	}

	if _, _, err := DecodeLegacy(strings.NewReader(`{"not":"an array"}`), "o", time.UTC, time.Now()); err == nil {
		t.Fatal("non-array input should be rejected")
	}
}

func TestDecodeLegacyRoundsSubCentAmounts(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{`12.345`, "12.35"},
		{`"7.001"`, "7"},
		{`0.005`, "0.01"},
	}
	for _, tt := range tests {
		export := `[{"id":"r","type":"expense","amount":` + tt.amount + `,"category":"Food","description":"n","date":"2024-10-05"}]`
		txs, rejected, err := DecodeLegacy(strings.NewReader(export), "o", time.UTC, time.Now())
		if err != nil || rejected != 0 || len(txs) != 1 {
			t.Fatalf("DecodeLegacy(%s) = %+v, %d, %v", tt.amount, txs, rejected, err)
		}
		if got := txs[0].Amount.String(); got != tt.want {
			t.Errorf("amount %s = %s, want %s", tt.amount, got, tt.want)
		}
	}
}

func TestNewFromLegacyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.json")
	if err := os.WriteFile(path, []byte(legacyExport), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err := NewFromLegacyFile(path, core.DefaultOwnerID, time.UTC)
	if err != nil {
		t.Fatalf("NewFromLegacyFile: %v", err)
	}
	got, err := s.Get(context.Background(), "l2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Kind != core.KindIncome || got.Category != core.CategoryFreelance {
		t.Fatalf("unexpected record %+v", got)
	}
}
