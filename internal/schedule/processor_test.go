package schedule_test

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/ledgerboard/internal/domain"
	"github.com/dvloznov/ledgerboard/internal/gateway"
	"github.com/dvloznov/ledgerboard/internal/ledger"
	"github.com/dvloznov/ledgerboard/internal/schedule"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const testOwner = "owner-1"

var errRemote = errors.New("remote unavailable")

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// MockAccounts is a mock implementation of gateway.Accounts.
type MockAccounts struct {
	balance decimal.Decimal
}

func (m *MockAccounts) ByOwner(ctx context.Context, ownerID string) (*domain.Account, error) {
	return &domain.Account{ID: "acct-1", OwnerID: ownerID, Balance: m.balance}, nil
}

func (m *MockAccounts) Create(ctx context.Context, account domain.Account) (*domain.Account, error) {
	account.ID = "acct-1"
	return &account, nil
}

func (m *MockAccounts) Update(ctx context.Context, id string, patch gateway.AccountPatch) (*domain.Account, error) {
	if patch.Balance != nil {
		m.balance = *patch.Balance
	}
	return &domain.Account{ID: id, Balance: m.balance}, nil
}

// MockTransactions records creates and deletes so compensation is observable.
type MockTransactions struct {
	nextID  int
	Created []domain.Transaction
	Deleted []string
}

func (m *MockTransactions) ListByOwner(ctx context.Context, ownerID string) ([]domain.Transaction, error) {
	return nil, nil
}

func (m *MockTransactions) Create(ctx context.Context, tx domain.Transaction) (*domain.Transaction, error) {
	m.nextID++
	created := tx
	created.ID = "remote-" + strconv.Itoa(m.nextID)
	m.Created = append(m.Created, created)
	return &created, nil
}

func (m *MockTransactions) Update(ctx context.Context, id string, patch gateway.TransactionPatch) (*domain.Transaction, error) {
	return &domain.Transaction{ID: id}, nil
}

func (m *MockTransactions) Delete(ctx context.Context, id string) error {
	m.Deleted = append(m.Deleted, id)
	return nil
}

// MockRecurring is a mock implementation of gateway.RecurringPayments.
type MockRecurring struct {
	Payments    []domain.RecurringPayment
	UpdateFunc  func(ctx context.Context, id string, patch gateway.RecurringPatch) (*domain.RecurringPayment, error)
	LastPatch   *gateway.RecurringPatch
	UpdateCalls int
}

func (m *MockRecurring) ListByOwner(ctx context.Context, ownerID string) ([]domain.RecurringPayment, error) {
	return m.Payments, nil
}

func (m *MockRecurring) Create(ctx context.Context, p domain.RecurringPayment) (*domain.RecurringPayment, error) {
	return &p, nil
}

func (m *MockRecurring) Update(ctx context.Context, id string, patch gateway.RecurringPatch) (*domain.RecurringPayment, error) {
	m.UpdateCalls++
	m.LastPatch = &patch
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, patch)
	}
	for i := range m.Payments {
		if m.Payments[i].ID == id {
			if patch.NextDate != nil {
				m.Payments[i].NextDate = *patch.NextDate
			}
			updated := m.Payments[i]
			return &updated, nil
		}
	}
	return nil, gateway.ErrNotFound
}

func (m *MockRecurring) Delete(ctx context.Context, id string) error { return nil }

// MockBills is a mock implementation of gateway.BillReminders.
type MockBills struct {
	Bills      []domain.BillReminder
	UpdateFunc func(ctx context.Context, id string, patch gateway.BillPatch) (*domain.BillReminder, error)
	LastPatch  *gateway.BillPatch
}

func (m *MockBills) ListByOwner(ctx context.Context, ownerID string) ([]domain.BillReminder, error) {
	return m.Bills, nil
}

func (m *MockBills) Create(ctx context.Context, b domain.BillReminder) (*domain.BillReminder, error) {
	return &b, nil
}

func (m *MockBills) Update(ctx context.Context, id string, patch gateway.BillPatch) (*domain.BillReminder, error) {
	m.LastPatch = &patch
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, patch)
	}
	for _, b := range m.Bills {
		if b.ID == id {
			updated := b
			if patch.Paid != nil {
				updated.Paid = *patch.Paid
			}
			return &updated, nil
		}
	}
	return nil, gateway.ErrNotFound
}

func (m *MockBills) Delete(ctx context.Context, id string) error { return nil }

type fixture struct {
	engine    *ledger.Engine
	processor *schedule.Processor
	accounts  *MockAccounts
	txs       *MockTransactions
	recurring *MockRecurring
	bills     *MockBills
}

func newFixture(t *testing.T, balance string) *fixture {
	t.Helper()

	f := &fixture{
		accounts:  &MockAccounts{balance: dec(balance)},
		txs:       &MockTransactions{},
		recurring: &MockRecurring{},
		bills:     &MockBills{},
	}
	gw := gateway.Ledger{
		Accounts:  f.accounts,
		Txs:       f.txs,
		Recurring: f.recurring,
		Bills:     f.bills,
	}
	f.engine = ledger.New(gw, zerolog.Nop())
	if err := f.engine.Load(context.Background(), testOwner); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	f.processor = schedule.NewProcessor(f.engine, gw, zerolog.Nop())
	return f
}

func TestProcessRecurringPayment(t *testing.T) {
	payment := domain.RecurringPayment{
		ID:          "rec-1",
		OwnerID:     testOwner,
		Amount:      dec("50.00"),
		Description: "Gym membership",
		Category:    domain.CategoryEntertainment,
		Frequency:   domain.FrequencyMonthly,
		NextDate:    time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC),
	}

	t.Run("RecordsExpenseAndAdvancesSchedule", func(t *testing.T) {
		f := newFixture(t, "1000.00")
		f.recurring.Payments = []domain.RecurringPayment{payment}

		updated, err := f.processor.ProcessRecurringPayment(context.Background(), payment)
		if err != nil {
			t.Fatalf("ProcessRecurringPayment failed: %v", err)
		}

		if len(f.txs.Created) != 1 {
			t.Fatalf("Expected 1 created transaction, got %d", len(f.txs.Created))
		}
		tx := f.txs.Created[0]
		if !strings.HasSuffix(tx.Description, " (recurring)") {
			t.Errorf("Expected the recurring suffix, got %q", tx.Description)
		}
		if !tx.Amount.Equal(dec("-50.00")) {
			t.Errorf("Expected signed amount -50.00, got %s", tx.Amount)
		}
		if want := payment.NextDate; !tx.Date.Equal(want) {
			t.Errorf("Expected occurrence dated %s, got %s", want, tx.Date)
		}

		// Jan 31 monthly advances to the clamped Feb 28.
		want := time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC)
		if !updated.NextDate.Equal(want) {
			t.Errorf("Expected next date %s, got %s", want, updated.NextDate)
		}
		if snap := f.engine.Snapshot(testOwner); !snap.Balance.Equal(dec("950.00")) {
			t.Errorf("Expected balance 950.00, got %s", snap.Balance)
		}
	})

	t.Run("ScheduleAdvanceFailureCompensatesTransaction", func(t *testing.T) {
		f := newFixture(t, "1000.00")
		f.recurring.UpdateFunc = func(ctx context.Context, id string, patch gateway.RecurringPatch) (*domain.RecurringPayment, error) {
			return nil, errRemote
		}

		_, err := f.processor.ProcessRecurringPayment(context.Background(), payment)
		if !errors.Is(err, errRemote) {
			t.Fatalf("Expected the remote error, got %v", err)
		}

		if len(f.txs.Created) != 1 || len(f.txs.Deleted) != 1 {
			t.Fatalf("Expected the created transaction to be compensated, created=%d deleted=%d",
				len(f.txs.Created), len(f.txs.Deleted))
		}
		if f.txs.Deleted[0] != f.txs.Created[0].ID {
			t.Errorf("Compensation deleted %q, expected %q", f.txs.Deleted[0], f.txs.Created[0].ID)
		}

		snap := f.engine.Snapshot(testOwner)
		if !snap.Balance.Equal(dec("1000.00")) {
			t.Errorf("Expected balance restored to 1000.00, got %s", snap.Balance)
		}
		if len(snap.Transactions) != 0 {
			t.Errorf("Expected no transactions after compensation, got %+v", snap.Transactions)
		}
	})

	t.Run("InsufficientBalanceLeavesScheduleAlone", func(t *testing.T) {
		f := newFixture(t, "10.00")

		_, err := f.processor.ProcessRecurringPayment(context.Background(), payment)
		if !errors.Is(err, ledger.ErrInsufficientBalance) {
			t.Fatalf("Expected ErrInsufficientBalance, got %v", err)
		}
		if f.recurring.UpdateCalls != 0 {
			t.Error("Schedule must not advance when the transaction step fails")
		}
	})

	t.Run("InvalidPaymentRejected", func(t *testing.T) {
		f := newFixture(t, "1000.00")

		bad := payment
		bad.Frequency = "daily"
		if _, err := f.processor.ProcessRecurringPayment(context.Background(), bad); err == nil {
			t.Fatal("Expected a validation error")
		}
		if len(f.txs.Created) != 0 {
			t.Error("No transaction may be created for an invalid payment")
		}
	})
}

func TestProcessRecurringByID(t *testing.T) {
	payment := domain.RecurringPayment{
		ID:          "rec-1",
		OwnerID:     testOwner,
		Amount:      dec("25.00"),
		Description: "Streaming",
		Category:    domain.CategoryEntertainment,
		Frequency:   domain.FrequencyWeekly,
		NextDate:    time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC),
	}

	t.Run("ResolvesAndProcesses", func(t *testing.T) {
		f := newFixture(t, "100.00")
		f.recurring.Payments = []domain.RecurringPayment{payment}

		updated, err := f.processor.ProcessRecurringByID(context.Background(), testOwner, "rec-1")
		if err != nil {
			t.Fatalf("ProcessRecurringByID failed: %v", err)
		}
		want := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
		if !updated.NextDate.Equal(want) {
			t.Errorf("Expected next date %s, got %s", want, updated.NextDate)
		}
	})

	t.Run("UnknownID", func(t *testing.T) {
		f := newFixture(t, "100.00")
		f.recurring.Payments = []domain.RecurringPayment{payment}

		_, err := f.processor.ProcessRecurringByID(context.Background(), testOwner, "rec-9")
		if !errors.Is(err, schedule.ErrRecurringNotFound) {
			t.Errorf("Expected ErrRecurringNotFound, got %v", err)
		}
	})
}

func TestProcessRecurringOccurrence(t *testing.T) {
	payment := domain.RecurringPayment{
		ID:          "rec-1",
		OwnerID:     testOwner,
		Amount:      dec("25.00"),
		Description: "Streaming",
		Category:    domain.CategoryEntertainment,
		Frequency:   domain.FrequencyWeekly,
		NextDate:    time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC),
	}

	t.Run("DuplicateEnqueueRecordsOneExpense", func(t *testing.T) {
		f := newFixture(t, "100.00")
		f.recurring.Payments = []domain.RecurringPayment{payment}

		// Two scan ticks can both see the same occurrence as due and
		// enqueue it twice with the same due date.
		dueDate := payment.NextDate
		if _, err := f.processor.ProcessRecurringOccurrence(context.Background(), testOwner, "rec-1", dueDate); err != nil {
			t.Fatalf("First occurrence failed: %v", err)
		}
		second, err := f.processor.ProcessRecurringOccurrence(context.Background(), testOwner, "rec-1", dueDate)
		if err != nil {
			t.Fatalf("Duplicate occurrence failed: %v", err)
		}

		if len(f.txs.Created) != 1 {
			t.Fatalf("Expected 1 created transaction, got %d", len(f.txs.Created))
		}
		if f.recurring.UpdateCalls != 1 {
			t.Errorf("Expected the schedule advanced once, got %d updates", f.recurring.UpdateCalls)
		}
		want := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
		if !second.NextDate.Equal(want) {
			t.Errorf("Expected the advanced payment back, got next date %s", second.NextDate)
		}
		if snap := f.engine.Snapshot(testOwner); !snap.Balance.Equal(dec("75.00")) {
			t.Errorf("Expected balance 75.00, got %s", snap.Balance)
		}
	})

	t.Run("ZeroDueDateProcessesUnconditionally", func(t *testing.T) {
		f := newFixture(t, "100.00")
		f.recurring.Payments = []domain.RecurringPayment{payment}

		if _, err := f.processor.ProcessRecurringOccurrence(context.Background(), testOwner, "rec-1", time.Time{}); err != nil {
			t.Fatalf("First occurrence failed: %v", err)
		}
		if _, err := f.processor.ProcessRecurringOccurrence(context.Background(), testOwner, "rec-1", time.Time{}); err != nil {
			t.Fatalf("Second occurrence failed: %v", err)
		}
		if len(f.txs.Created) != 2 {
			t.Fatalf("Expected 2 created transactions, got %d", len(f.txs.Created))
		}
	})
}

func TestMarkBillAsPaid(t *testing.T) {
	bill := domain.BillReminder{
		ID:          "bill-1",
		OwnerID:     testOwner,
		Description: "Electricity",
		Amount:      dec("250.00"),
		DueDate:     time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC),
		Category:    domain.CategoryUtilities,
	}

	t.Run("RecordsExpenseAndFlipsFlag", func(t *testing.T) {
		f := newFixture(t, "1000.00")
		f.bills.Bills = []domain.BillReminder{bill}

		updated, err := f.processor.MarkBillAsPaid(context.Background(), testOwner, "bill-1")
		if err != nil {
			t.Fatalf("MarkBillAsPaid failed: %v", err)
		}
		if !updated.Paid {
			t.Error("Expected the bill marked paid")
		}
		if f.bills.LastPatch == nil || f.bills.LastPatch.Paid == nil || !*f.bills.LastPatch.Paid {
			t.Error("Expected a paid=true patch")
		}

		if len(f.txs.Created) != 1 {
			t.Fatalf("Expected 1 created transaction, got %d", len(f.txs.Created))
		}
		tx := f.txs.Created[0]
		if !strings.HasSuffix(tx.Description, " (bill payment)") {
			t.Errorf("Expected the bill payment suffix, got %q", tx.Description)
		}
		if !tx.Amount.Equal(dec("-250.00")) {
			t.Errorf("Expected signed amount -250.00, got %s", tx.Amount)
		}
		if snap := f.engine.Snapshot(testOwner); !snap.Balance.Equal(dec("750.00")) {
			t.Errorf("Expected balance 750.00, got %s", snap.Balance)
		}
	})

	t.Run("AlreadyPaid", func(t *testing.T) {
		f := newFixture(t, "1000.00")
		paid := bill
		paid.Paid = true
		f.bills.Bills = []domain.BillReminder{paid}

		_, err := f.processor.MarkBillAsPaid(context.Background(), testOwner, "bill-1")
		if !errors.Is(err, schedule.ErrAlreadyPaid) {
			t.Fatalf("Expected ErrAlreadyPaid, got %v", err)
		}
		if len(f.txs.Created) != 0 {
			t.Error("No transaction may be created for an already paid bill")
		}
	})

	t.Run("UnknownBill", func(t *testing.T) {
		f := newFixture(t, "1000.00")
		f.bills.Bills = []domain.BillReminder{bill}

		_, err := f.processor.MarkBillAsPaid(context.Background(), testOwner, "bill-9")
		if !errors.Is(err, schedule.ErrBillNotFound) {
			t.Errorf("Expected ErrBillNotFound, got %v", err)
		}
	})

	t.Run("FlagFlipFailureCompensatesTransaction", func(t *testing.T) {
		f := newFixture(t, "1000.00")
		f.bills.Bills = []domain.BillReminder{bill}
		f.bills.UpdateFunc = func(ctx context.Context, id string, patch gateway.BillPatch) (*domain.BillReminder, error) {
			return nil, errRemote
		}

		_, err := f.processor.MarkBillAsPaid(context.Background(), testOwner, "bill-1")
		if !errors.Is(err, errRemote) {
			t.Fatalf("Expected the remote error, got %v", err)
		}
		if len(f.txs.Deleted) != 1 {
			t.Fatalf("Expected the created transaction to be compensated, deleted=%d", len(f.txs.Deleted))
		}
		if snap := f.engine.Snapshot(testOwner); !snap.Balance.Equal(dec("1000.00")) {
			t.Errorf("Expected balance restored to 1000.00, got %s", snap.Balance)
		}
	})
}

func TestDueRecurring(t *testing.T) {
	f := newFixture(t, "1000.00")
	f.recurring.Payments = []domain.RecurringPayment{
		{ID: "past", NextDate: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "today", NextDate: time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)},
		{ID: "future", NextDate: time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC)},
	}

	asOf := time.Date(2025, time.March, 10, 14, 30, 0, 0, time.UTC)
	due, err := f.processor.DueRecurring(context.Background(), testOwner, asOf)
	if err != nil {
		t.Fatalf("DueRecurring failed: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("Expected 2 due payments, got %d", len(due))
	}
	if due[0].ID != "past" || due[1].ID != "today" {
		t.Errorf("Unexpected due set: %+v", due)
	}
}
