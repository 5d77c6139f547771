package ledger_test

import (
	"context"
	"errors"
	"sync"

	"github.com/dvloznov/ledgerboard/internal/domain"
	"github.com/dvloznov/ledgerboard/internal/gateway"
	"github.com/google/uuid"
)

var errRemote = errors.New("remote unavailable")

// MockAccounts is a mock implementation of gateway.Accounts.
type MockAccounts struct {
	mu sync.Mutex

	ByOwnerFunc func(ctx context.Context, ownerID string) (*domain.Account, error)
	CreateFunc  func(ctx context.Context, account domain.Account) (*domain.Account, error)
	UpdateFunc  func(ctx context.Context, id string, patch gateway.AccountPatch) (*domain.Account, error)

	UpdateCalls []gateway.AccountPatch
}

func (m *MockAccounts) ByOwner(ctx context.Context, ownerID string) (*domain.Account, error) {
	if m.ByOwnerFunc != nil {
		return m.ByOwnerFunc(ctx, ownerID)
	}
	return nil, gateway.ErrNotFound
}

func (m *MockAccounts) Create(ctx context.Context, account domain.Account) (*domain.Account, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	account.ID = uuid.New().String()
	return &account, nil
}

func (m *MockAccounts) Update(ctx context.Context, id string, patch gateway.AccountPatch) (*domain.Account, error) {
	m.mu.Lock()
	m.UpdateCalls = append(m.UpdateCalls, patch)
	m.mu.Unlock()
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, patch)
	}
	return &domain.Account{ID: id}, nil
}

// MockTransactions is a mock implementation of gateway.Transactions.
type MockTransactions struct {
	ListByOwnerFunc func(ctx context.Context, ownerID string) ([]domain.Transaction, error)
	CreateFunc      func(ctx context.Context, tx domain.Transaction) (*domain.Transaction, error)
	UpdateFunc      func(ctx context.Context, id string, patch gateway.TransactionPatch) (*domain.Transaction, error)
	DeleteFunc      func(ctx context.Context, id string) error
}

func (m *MockTransactions) ListByOwner(ctx context.Context, ownerID string) ([]domain.Transaction, error) {
	if m.ListByOwnerFunc != nil {
		return m.ListByOwnerFunc(ctx, ownerID)
	}
	return nil, nil
}

func (m *MockTransactions) Create(ctx context.Context, tx domain.Transaction) (*domain.Transaction, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx)
	}
	tx.ID = uuid.New().String()
	return &tx, nil
}

func (m *MockTransactions) Update(ctx context.Context, id string, patch gateway.TransactionPatch) (*domain.Transaction, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, patch)
	}
	updated := domain.Transaction{ID: id}
	if patch.Kind != nil {
		updated.Kind = *patch.Kind
	}
	if patch.Amount != nil {
		updated.Amount = *patch.Amount
	}
	if patch.Description != nil {
		updated.Description = *patch.Description
	}
	if patch.Category != nil {
		updated.Category = *patch.Category
	}
	return &updated, nil
}

func (m *MockTransactions) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockRecurring is a mock implementation of gateway.RecurringPayments.
type MockRecurring struct {
	ListByOwnerFunc func(ctx context.Context, ownerID string) ([]domain.RecurringPayment, error)
	CreateFunc      func(ctx context.Context, p domain.RecurringPayment) (*domain.RecurringPayment, error)
	UpdateFunc      func(ctx context.Context, id string, patch gateway.RecurringPatch) (*domain.RecurringPayment, error)
	DeleteFunc      func(ctx context.Context, id string) error
}

func (m *MockRecurring) ListByOwner(ctx context.Context, ownerID string) ([]domain.RecurringPayment, error) {
	if m.ListByOwnerFunc != nil {
		return m.ListByOwnerFunc(ctx, ownerID)
	}
	return nil, nil
}

func (m *MockRecurring) Create(ctx context.Context, p domain.RecurringPayment) (*domain.RecurringPayment, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, p)
	}
	p.ID = uuid.New().String()
	return &p, nil
}

func (m *MockRecurring) Update(ctx context.Context, id string, patch gateway.RecurringPatch) (*domain.RecurringPayment, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, patch)
	}
	return &domain.RecurringPayment{ID: id}, nil
}

func (m *MockRecurring) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockBills is a mock implementation of gateway.BillReminders.
type MockBills struct {
	ListByOwnerFunc func(ctx context.Context, ownerID string) ([]domain.BillReminder, error)
	CreateFunc      func(ctx context.Context, b domain.BillReminder) (*domain.BillReminder, error)
	UpdateFunc      func(ctx context.Context, id string, patch gateway.BillPatch) (*domain.BillReminder, error)
	DeleteFunc      func(ctx context.Context, id string) error
}

func (m *MockBills) ListByOwner(ctx context.Context, ownerID string) ([]domain.BillReminder, error) {
	if m.ListByOwnerFunc != nil {
		return m.ListByOwnerFunc(ctx, ownerID)
	}
	return nil, nil
}

func (m *MockBills) Create(ctx context.Context, b domain.BillReminder) (*domain.BillReminder, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, b)
	}
	b.ID = uuid.New().String()
	return &b, nil
}

func (m *MockBills) Update(ctx context.Context, id string, patch gateway.BillPatch) (*domain.BillReminder, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, patch)
	}
	return &domain.BillReminder{ID: id}, nil
}

func (m *MockBills) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func newMockLedger() (gateway.Ledger, *MockAccounts, *MockTransactions) {
	accounts := &MockAccounts{}
	txs := &MockTransactions{}
	return gateway.Ledger{
		Accounts:  accounts,
		Txs:       txs,
		Recurring: &MockRecurring{},
		Bills:     &MockBills{},
	}, accounts, txs
}
