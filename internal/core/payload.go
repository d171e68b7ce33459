package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// CreatePayload is the JSON body of a create request. Pointer fields
// distinguish an absent field from a zero value.
type CreatePayload struct {
	Type        *string         `json:"type"`
	Amount      json.RawMessage `json:"amount"`
	Category    *string         `json:"category"`
	Description *string         `json:"description"`
	Date        *string         `json:"date"`
}

// UpdatePayload is the JSON body of a partial update.
type UpdatePayload CreatePayload

// Validate checks a create payload. On success the message list is empty.
// Date-only values are read as midnight in loc.
func (p CreatePayload) Validate(loc *time.Location) (Draft, []string) {
	var (
		d    Draft
		msgs []string
	)

	if p.Type == nil {
		msgs = append(msgs, "Type is required")
	} else if k, msg := validateKind(*p.Type); msg != "" {
		msgs = append(msgs, msg)
	} else {
		d.Kind = k
	}

	if isAbsent(p.Amount) {
		msgs = append(msgs, "Amount is required")
	} else if a, msg := validateAmount(p.Amount); msg != "" {
		msgs = append(msgs, msg)
	} else {
		d.Amount = a
	}

	if p.Category == nil {
		msgs = append(msgs, "Category is required")
	} else if c, msg := validateCategory(*p.Category); msg != "" {
		msgs = append(msgs, msg)
	} else {
		d.Category = c
	}

	if p.Description == nil {
		msgs = append(msgs, "Description is required")
	} else if desc, msg := validateDescription(*p.Description); msg != "" {
		msgs = append(msgs, msg)
	} else {
		d.Description = desc
	}

	if p.Date == nil {
		msgs = append(msgs, "Date is required")
	} else if t, msg := validateDate(*p.Date, loc); msg != "" {
		msgs = append(msgs, msg)
	} else {
		d.OccurredOn = t
	}

	return d, msgs
}

// Validate checks an update payload. Every field is optional.
func (p UpdatePayload) Validate(loc *time.Location) (Patch, []string) {
	var (
		patch Patch
		msgs  []string
	)

	if p.Type != nil {
		if k, msg := validateKind(*p.Type); msg != "" {
			msgs = append(msgs, msg)
		} else {
			patch.Kind = &k
		}
	}
	if !isAbsent(p.Amount) {
		if a, msg := validateAmount(p.Amount); msg != "" {
			msgs = append(msgs, msg)
		} else {
			patch.Amount = &a
		}
	}
	if p.Category != nil {
		if c, msg := validateCategory(*p.Category); msg != "" {
			msgs = append(msgs, msg)
		} else {
			patch.Category = &c
		}
	}
	if p.Description != nil {
		if desc, msg := validateDescription(*p.Description); msg != "" {
			msgs = append(msgs, msg)
		} else {
			patch.Description = &desc
		}
	}
	if p.Date != nil {
		if t, msg := validateDate(*p.Date, loc); msg != "" {
			msgs = append(msgs, msg)
		} else {
			patch.OccurredOn = &t
		}
	}

	return patch, msgs
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func validateKind(s string) (Kind, string) {
	k := Kind(s)
	if !k.IsValid() {
		return "", "Type must be income or expense"
	}
	return k, ""
}

func validateCategory(s string) (Category, string) {
	c := Category(s)
	if !c.IsValid() {
		return "", "Invalid category"
	}
	return c, ""
}

func validateDescription(s string) (string, string) {
	if strings.TrimSpace(s) == "" {
		return "", "Description is required"
	}
	if utf8.RuneCountInString(s) > MaxDescriptionLength {
		return "", "Description must be at most 100 characters"
	}
	return s, ""
}

// validateAmount accepts only JSON number literals.
func validateAmount(raw json.RawMessage) (decimal.Decimal, string) {
	trimmed := bytes.TrimSpace(raw)
	if c := trimmed[0]; c != '-' && (c < '0' || c > '9') {
		return decimal.Zero, "Amount must be a number"
	}
	d, err := decimal.NewFromString(string(trimmed))
	if err != nil {
		return decimal.Zero, "Amount must be a number"
	}
	return d, amountMessage(CheckAmount(d))
}

func amountMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAmountPrecision):
		return "Amount must have at most 2 decimal places"
	case errors.Is(err, ErrAmountTooLarge):
		return "Amount is too large"
	default:
		return "Amount must be positive"
	}
}

func validateDate(s string, loc *time.Location) (time.Time, string) {
	t, err := ParseDate(s, loc)
	if err != nil {
		return time.Time{}, "Invalid date"
	}
	return t, ""
}

var zonelessLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDate reads an RFC 3339 timestamp, or a zoneless date or date-time
// interpreted in loc. The result is in UTC.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrMissingDate
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range zonelessLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.New("unrecognized date format")
}
