package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
)

// legacyRecord is the shape of transactions exported by the browser-only
// version of the tracker. Category may be a plain string or an object with a
// name, and updatedAt and userId may be missing.
type legacyRecord struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Type        string          `json:"type"`
	Amount      json.Number     `json:"amount"`
	Category    json.RawMessage `json:"category"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
	CreatedAt   string          `json:"createdAt"`
	UpdatedAt   string          `json:"updatedAt"`
}

// NormalizeCategory maps a legacy category value onto the closed set. An
// object contributes its name. Missing, empty or unknown values become Other.
func NormalizeCategory(raw json.RawMessage) core.Category {
	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return core.CategoryOther
		}
		name = obj.Name
	}
	c := core.Category(strings.TrimSpace(name))
	if !c.IsValid() {
		return core.CategoryOther
	}
	return c
}

// DecodeLegacy reads a JSON array of legacy transactions. Records owned by
// nobody are assigned to owner. Timestamps default to now. Amounts with more
// than two decimals are rounded to cents. Records that still fail
// validation are logged and skipped; rejected counts them. Only input that
// is not a JSON array of records is an error.
func DecodeLegacy(r io.Reader, owner string, loc *time.Location, now time.Time) (txs []core.Transaction, rejected int, err error) {
	var records []legacyRecord
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&records); err != nil {
		return nil, 0, fmt.Errorf("decode legacy export: %w", err)
	}

	txs = make([]core.Transaction, 0, len(records))
	for i, rec := range records {
		t, err := rec.toTransaction(owner, loc, now.UTC())
		if err != nil {
			slog.Warn("Skipping legacy record",
				"index", i,
				"id", rec.ID,
				"error", err)
			rejected++
			continue
		}
		txs = append(txs, t)
	}
	return txs, rejected, nil
}

// legacyAmount parses a legacy amount, rounding sub-cent values.
func legacyAmount(raw string) (decimal.Decimal, error) {
	d, err := core.ParseAmount(raw)
	if errors.Is(err, core.ErrAmountPrecision) {
		d = d.Round(2)
		err = core.CheckAmount(d)
	}
	return d, err
}

func (rec legacyRecord) toTransaction(owner string, loc *time.Location, now time.Time) (core.Transaction, error) {
	amount, err := legacyAmount(rec.Amount.String())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("amount %q: %w", rec.Amount, err)
	}
	occurred, err := core.ParseDate(rec.Date, loc)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("date %q: %w", rec.Date, err)
	}

	t := core.Transaction{
		ID:          rec.ID,
		OwnerID:     rec.UserID,
		Kind:        core.Kind(rec.Type),
		Amount:      amount,
		Category:    NormalizeCategory(rec.Category),
		Description: rec.Description,
		OccurredOn:  occurred,
		CreatedAt:   now,
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.OwnerID == "" {
		t.OwnerID = owner
	}
	if created, err := core.ParseDate(rec.CreatedAt, loc); err == nil {
		t.CreatedAt = created
	}
	t.UpdatedAt = t.CreatedAt
	if updated, err := core.ParseDate(rec.UpdatedAt, loc); err == nil {
		t.UpdatedAt = updated
	}

	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// NewFromLegacyFile loads a legacy export into a fresh store.
func NewFromLegacyFile(path, owner string, loc *time.Location) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open legacy file: %w", err)
	}
	defer f.Close()

	txs, _, err := DecodeLegacy(f, owner, loc, time.Now())
	if err != nil {
		return nil, err
	}
	return New(txs...), nil
}
