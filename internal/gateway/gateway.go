// Package gateway defines the contract for the remote ledger store: four
// owner-scoped collections with list/create/update/delete semantics. All
// operations are fallible and return an error when the remote state is
// unchanged; callers must never assume partial application. No retry policy
// is implemented at this layer.
package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/dvloznov/ledgerboard/internal/domain"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when an id does not exist in the remote store.
var ErrNotFound = errors.New("gateway: not found")

// Accounts manages the per-owner account record.
type Accounts interface {
	// ByOwner returns the owner's account, or ErrNotFound when none exists.
	ByOwner(ctx context.Context, ownerID string) (*domain.Account, error)

	// Create inserts a new account and returns the stored record with its
	// authoritative id and timestamps.
	Create(ctx context.Context, account domain.Account) (*domain.Account, error)

	// Update applies the non-nil fields of patch and returns the updated record.
	Update(ctx context.Context, id string, patch AccountPatch) (*domain.Account, error)
}

// Transactions manages the ledger entries of an owner.
type Transactions interface {
	// ListByOwner returns the owner's transactions ordered by date descending.
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Transaction, error)

	// Create inserts a transaction and returns the stored record with its
	// authoritative id. The caller's local id is not persisted.
	Create(ctx context.Context, tx domain.Transaction) (*domain.Transaction, error)

	// Update applies the non-nil fields of patch and returns the updated record.
	Update(ctx context.Context, id string, patch TransactionPatch) (*domain.Transaction, error)

	// Delete removes the transaction by id.
	Delete(ctx context.Context, id string) error
}

// RecurringPayments manages the periodic obligations of an owner.
type RecurringPayments interface {
	// ListByOwner returns recurring payments ordered by next occurrence ascending.
	ListByOwner(ctx context.Context, ownerID string) ([]domain.RecurringPayment, error)

	Create(ctx context.Context, p domain.RecurringPayment) (*domain.RecurringPayment, error)

	// Update applies the non-nil fields of patch and returns the updated record.
	Update(ctx context.Context, id string, patch RecurringPatch) (*domain.RecurringPayment, error)

	Delete(ctx context.Context, id string) error
}

// BillReminders manages the payable obligations of an owner.
type BillReminders interface {
	// ListByOwner returns bill reminders ordered by due date ascending.
	ListByOwner(ctx context.Context, ownerID string) ([]domain.BillReminder, error)

	Create(ctx context.Context, b domain.BillReminder) (*domain.BillReminder, error)

	// Update applies the non-nil fields of patch and returns the updated record.
	Update(ctx context.Context, id string, patch BillPatch) (*domain.BillReminder, error)

	Delete(ctx context.Context, id string) error
}

// Ledger aggregates the four collection gateways.
type Ledger struct {
	Accounts  Accounts
	Txs       Transactions
	Recurring RecurringPayments
	Bills     BillReminders
}

// AccountPatch is a partial account update; nil fields are left unchanged.
type AccountPatch struct {
	AccountNumber *string
	Balance       *decimal.Decimal
}

// TransactionPatch is a partial transaction update; nil fields are left
// unchanged. Amount, when set, is the signed amount.
type TransactionPatch struct {
	Kind        *domain.Kind
	Amount      *decimal.Decimal
	Description *string
	Category    *domain.Category
	Date        *time.Time
}

// RecurringPatch is a partial recurring payment update.
type RecurringPatch struct {
	Amount      *decimal.Decimal
	Description *string
	Category    *domain.Category
	Frequency   *domain.Frequency
	NextDate    *time.Time
}

// BillPatch is a partial bill reminder update.
type BillPatch struct {
	Description *string
	Amount      *decimal.Decimal
	DueDate     *time.Time
	Category    *domain.Category
	Paid        *bool
}
