package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind distinguishes the two transaction directions.
type Kind string

const (
	// KindIncome marks a transaction that increases the balance.
	KindIncome Kind = "income"
	// KindExpense marks a transaction that decreases the balance.
	KindExpense Kind = "expense"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// Transaction is one ledger entry. Amount is always signed: positive for
// income, negative for expense. All balance arithmetic elsewhere relies on
// this convention and never re-derives the sign from Kind.
type Transaction struct {
	// ID is the authoritative identifier assigned by the remote store.
	// Before remote confirmation it holds a local id (see NewLocalID).
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id"`
	Kind        Kind            `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    Category        `json:"category"`

	// Date is the calendar date of the entry. The time part is always
	// midnight UTC.
	Date time.Time `json:"date"`

	CreatedAt time.Time `json:"created_at"`
}

// SignedAmount derives the signed amount from a kind and a positive magnitude.
func SignedAmount(kind Kind, amount decimal.Decimal) decimal.Decimal {
	if kind == KindExpense {
		return amount.Neg()
	}
	return amount
}

// Validate checks the transaction invariants: a known kind and category, a
// non-zero amount whose sign matches the kind, and a set date.
func (t Transaction) Validate() error {
	if !t.Kind.Valid() {
		return fmt.Errorf("transaction %s: unknown kind %q", t.ID, t.Kind)
	}
	if !t.Category.Valid() {
		return fmt.Errorf("transaction %s: unknown category %q", t.ID, t.Category)
	}
	if t.Amount.IsZero() {
		return fmt.Errorf("transaction %s: zero amount", t.ID)
	}
	if t.Kind == KindIncome && t.Amount.IsNegative() {
		return fmt.Errorf("transaction %s: income amount must be positive, got %s", t.ID, t.Amount)
	}
	if t.Kind == KindExpense && t.Amount.IsPositive() {
		return fmt.Errorf("transaction %s: expense amount must be negative, got %s", t.ID, t.Amount)
	}
	if t.Date.IsZero() {
		return fmt.Errorf("transaction %s: date is not set", t.ID)
	}
	return nil
}

const localIDPrefix = "local-"

// NewLocalID returns a temporary transaction identifier in a namespace
// distinct from authoritative remote ids.
func NewLocalID() string {
	return localIDPrefix + uuid.New().String()
}

// IsLocalID reports whether id was generated locally and is still awaiting
// reconciliation with an authoritative remote id.
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, localIDPrefix)
}

// DateOnly truncates t to its calendar date in UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
