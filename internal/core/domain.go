package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Kind tags a transaction as money coming in or going out.
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

// Category is one of a closed set of spending and earning buckets.
type Category string

const (
	CategoryFood          Category = "Food"
	CategoryTravel        Category = "Travel"
	CategoryBills         Category = "Bills"
	CategoryShopping      Category = "Shopping"
	CategoryEntertainment Category = "Entertainment"
	CategoryHealthcare    Category = "Healthcare"
	CategorySalary        Category = "Salary"
	CategoryFreelance     Category = "Freelance"
	CategoryInvestment    Category = "Investment"
	CategoryOther         Category = "Other"
)

// MaxDescriptionLength bounds descriptions, counted in runes.
const MaxDescriptionLength = 100

var categories = []Category{
	CategoryFood,
	CategoryTravel,
	CategoryBills,
	CategoryShopping,
	CategoryEntertainment,
	CategoryHealthcare,
	CategorySalary,
	CategoryFreelance,
	CategoryInvestment,
	CategoryOther,
}

type Transaction struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"userId"`
	Kind        Kind            `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Category    Category        `json:"category"`
	Description string          `json:"description"`
	OccurredOn  time.Time       `json:"date"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

var (
	ErrInvalidKind      = errors.New("invalid kind")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrEmptyDescription = errors.New("empty description")
	ErrLongDescription  = errors.New("description too long (max 100 characters)")
	ErrMissingDate      = errors.New("missing date")
	ErrMissingOwner     = errors.New("missing owner")
)

// Categories returns the closed category set in its canonical order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

func (k Kind) IsValid() bool {
	return k == KindIncome || k == KindExpense
}

func (k Kind) String() string { return string(k) }

// Rank orders income before expense.
func (k Kind) Rank() int {
	if k == KindIncome {
		return 0
	}
	return 1
}

func (c Category) IsValid() bool {
	return c.Rank() >= 0
}

func (c Category) String() string { return string(c) }

// Rank is the position of c in the canonical category order, or -1.
func (c Category) Rank() int {
	for i, known := range categories {
		if c == known {
			return i
		}
	}
	return -1
}

// Validate checks the invariants every stored transaction must hold.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.OwnerID) == "" {
		return ErrMissingOwner
	}
	if !t.Kind.IsValid() {
		return ErrInvalidKind
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !t.Category.IsValid() {
		return ErrInvalidCategory
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if utf8.RuneCountInString(t.Description) > MaxDescriptionLength {
		return ErrLongDescription
	}
	if t.OccurredOn.IsZero() {
		return ErrMissingDate
	}
	return nil
}

// Signed returns the amount with income positive and expense negative.
func (t Transaction) Signed() decimal.Decimal {
	if t.Kind == KindExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Draft is a validated create request, before the store assigns identity.
type Draft struct {
	Kind        Kind
	Amount      decimal.Decimal
	Category    Category
	Description string
	OccurredOn  time.Time
}

// Patch carries the fields of a partial update. Nil means unchanged.
type Patch struct {
	Kind        *Kind
	Amount      *decimal.Decimal
	Category    *Category
	Description *string
	OccurredOn  *time.Time
}

// Apply copies the supplied fields onto t.
func (p Patch) Apply(t *Transaction) {
	if p.Kind != nil {
		t.Kind = *p.Kind
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.OccurredOn != nil {
		t.OccurredOn = *p.OccurredOn
	}
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Kind == nil && p.Amount == nil && p.Category == nil && p.Description == nil && p.OccurredOn == nil
}
