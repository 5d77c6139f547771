package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Frequency is the interval of a recurring payment.
type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// Valid reports whether f is one of the known frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}

// RecurringPayment is a periodic obligation. Processing it creates an expense
// transaction and moves NextDate forward by one interval; NextDate never moves
// backward past the last processed occurrence.
type RecurringPayment struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id"`
	Amount      decimal.Decimal `json:"amount"` // positive magnitude
	Description string          `json:"description"`
	Category    Category        `json:"category"`
	Frequency   Frequency       `json:"frequency"`
	NextDate    time.Time       `json:"next_date"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Validate checks the recurring payment invariants.
func (p RecurringPayment) Validate() error {
	if !p.Amount.IsPositive() {
		return fmt.Errorf("recurring payment %s: amount must be positive, got %s", p.ID, p.Amount)
	}
	if !p.Category.Valid() {
		return fmt.Errorf("recurring payment %s: unknown category %q", p.ID, p.Category)
	}
	if !p.Frequency.Valid() {
		return fmt.Errorf("recurring payment %s: unknown frequency %q", p.ID, p.Frequency)
	}
	if p.NextDate.IsZero() {
		return fmt.Errorf("recurring payment %s: next date is not set", p.ID)
	}
	return nil
}

// BillReminder is a one-time payable obligation. Paid is monotonic: once a
// bill is marked paid it is never un-paid.
type BillReminder struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"` // positive magnitude
	DueDate     time.Time       `json:"due_date"`
	Category    Category        `json:"category"`
	Paid        bool            `json:"paid"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Validate checks the bill reminder invariants.
func (b BillReminder) Validate() error {
	if !b.Amount.IsPositive() {
		return fmt.Errorf("bill %s: amount must be positive, got %s", b.ID, b.Amount)
	}
	if !b.Category.Valid() {
		return fmt.Errorf("bill %s: unknown category %q", b.ID, b.Category)
	}
	if b.DueDate.IsZero() {
		return fmt.Errorf("bill %s: due date is not set", b.ID)
	}
	return nil
}

// Profile is the owner's user record as stored remotely. PasswordHash is
// stripped from every export.
type Profile struct {
	OwnerID      string    `json:"owner_id"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"password_hash,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
