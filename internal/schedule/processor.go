package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/ledgerboard/internal/domain"
	"github.com/dvloznov/ledgerboard/internal/gateway"
	"github.com/dvloznov/ledgerboard/internal/ledger"
	"github.com/rs/zerolog"
)

const (
	// recurringSuffix marks transactions originating from recurring payment
	// processing.
	recurringSuffix = " (recurring)"
	// billSuffix marks transactions originating from bill payments.
	billSuffix = " (bill payment)"
)

var (
	// ErrAlreadyPaid is returned when marking a bill that is already paid.
	// The paid flag is monotonic.
	ErrAlreadyPaid = errors.New("schedule: bill already paid")
	// ErrBillNotFound is returned when the bill id is not among the owner's
	// reminders.
	ErrBillNotFound = errors.New("schedule: bill not found")
	// ErrRecurringNotFound is returned when the payment id is not among the
	// owner's recurring payments.
	ErrRecurringNotFound = errors.New("schedule: recurring payment not found")
)

// Processor turns due obligations into ledger transactions. Each obligation
// operation is one saga: the transaction creation and the secondary update
// (schedule advance, paid-flag flip) succeed together, or the already-created
// transaction is compensated away.
type Processor struct {
	engine    *ledger.Engine
	recurring gateway.RecurringPayments
	bills     gateway.BillReminders
	log       zerolog.Logger
}

// NewProcessor creates a processor over the engine and gateway.
func NewProcessor(engine *ledger.Engine, gw gateway.Ledger, log zerolog.Logger) *Processor {
	return &Processor{
		engine:    engine,
		recurring: gw.Recurring,
		bills:     gw.Bills,
		log:       log,
	}
}

// ProcessRecurringPayment records one occurrence of the payment as an expense
// transaction and advances the next-occurrence date by one interval. When the
// transaction step fails the schedule is not advanced; when the schedule
// advance fails the transaction is deleted again, so the payment can be
// reprocessed cleanly.
func (p *Processor) ProcessRecurringPayment(ctx context.Context, payment domain.RecurringPayment) (*domain.RecurringPayment, error) {
	if err := payment.Validate(); err != nil {
		return nil, fmt.Errorf("ProcessRecurringPayment: %w", err)
	}

	tx, err := p.engine.AddTransaction(ctx, payment.OwnerID, ledger.AddInput{
		Kind:        domain.KindExpense,
		Amount:      payment.Amount,
		Description: payment.Description + recurringSuffix,
		Category:    payment.Category,
		Date:        payment.NextDate,
	})
	if err != nil {
		return nil, fmt.Errorf("ProcessRecurringPayment: recording occurrence: %w", err)
	}

	next := NextOccurrence(payment.NextDate, payment.Frequency)
	updated, err := p.recurring.Update(ctx, payment.ID, gateway.RecurringPatch{NextDate: &next})
	if err != nil {
		p.compensate(ctx, payment.OwnerID, tx.ID, "recurring schedule advance failed")
		return nil, fmt.Errorf("ProcessRecurringPayment: advancing schedule: %w", err)
	}

	p.log.Info().
		Str("owner_id", payment.OwnerID).
		Str("payment_id", payment.ID).
		Str("transaction_id", tx.ID).
		Time("next_date", next).
		Msg("Recurring payment processed")
	return updated, nil
}

// ProcessRecurringByID resolves the payment id within the owner's recurring
// payments and processes it unconditionally.
func (p *Processor) ProcessRecurringByID(ctx context.Context, ownerID, paymentID string) (*domain.RecurringPayment, error) {
	return p.ProcessRecurringOccurrence(ctx, ownerID, paymentID, time.Time{})
}

// ProcessRecurringOccurrence processes the payment's occurrence dated dueDate.
// A payment whose current NextDate is already past dueDate was processed by an
// earlier request for the same occurrence and is returned unchanged, so a
// duplicate enqueue never records a second transaction or advances the
// schedule twice. A zero dueDate processes unconditionally.
func (p *Processor) ProcessRecurringOccurrence(ctx context.Context, ownerID, paymentID string, dueDate time.Time) (*domain.RecurringPayment, error) {
	payments, err := p.recurring.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ProcessRecurringOccurrence: listing payments: %w", err)
	}
	for i := range payments {
		payment := payments[i]
		if payment.ID != paymentID {
			continue
		}
		if !dueDate.IsZero() && payment.NextDate.After(dueDate) {
			p.log.Info().
				Str("owner_id", ownerID).
				Str("payment_id", paymentID).
				Time("due_date", dueDate).
				Time("next_date", payment.NextDate).
				Msg("Occurrence already recorded, skipping")
			return &payment, nil
		}
		return p.ProcessRecurringPayment(ctx, payment)
	}
	return nil, fmt.Errorf("ProcessRecurringOccurrence: %w: %s", ErrRecurringNotFound, paymentID)
}

// MarkBillAsPaid records the bill's amount as an expense transaction and flips
// the paid flag. Paid bills are never un-paid; marking one again returns
// ErrAlreadyPaid. When the flag flip fails the transaction is deleted again.
func (p *Processor) MarkBillAsPaid(ctx context.Context, ownerID, billID string) (*domain.BillReminder, error) {
	bills, err := p.bills.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("MarkBillAsPaid: listing bills: %w", err)
	}

	var bill *domain.BillReminder
	for i := range bills {
		if bills[i].ID == billID {
			bill = &bills[i]
			break
		}
	}
	if bill == nil {
		return nil, fmt.Errorf("MarkBillAsPaid: %w: %s", ErrBillNotFound, billID)
	}
	if bill.Paid {
		return nil, fmt.Errorf("MarkBillAsPaid: %w: %s", ErrAlreadyPaid, billID)
	}

	tx, err := p.engine.AddTransaction(ctx, ownerID, ledger.AddInput{
		Kind:        domain.KindExpense,
		Amount:      bill.Amount,
		Description: bill.Description + billSuffix,
		Category:    bill.Category,
	})
	if err != nil {
		return nil, fmt.Errorf("MarkBillAsPaid: recording payment: %w", err)
	}

	paid := true
	updated, err := p.bills.Update(ctx, billID, gateway.BillPatch{Paid: &paid})
	if err != nil {
		p.compensate(ctx, ownerID, tx.ID, "bill paid-flag flip failed")
		return nil, fmt.Errorf("MarkBillAsPaid: flipping paid flag: %w", err)
	}

	p.log.Info().
		Str("owner_id", ownerID).
		Str("bill_id", billID).
		Str("transaction_id", tx.ID).
		Msg("Bill marked as paid")
	return updated, nil
}

// DueRecurring returns the owner's recurring payments whose next occurrence is
// on or before asOf, in next-occurrence order.
func (p *Processor) DueRecurring(ctx context.Context, ownerID string, asOf time.Time) ([]domain.RecurringPayment, error) {
	payments, err := p.recurring.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("DueRecurring: %w", err)
	}

	cutoff := domain.DateOnly(asOf)
	var due []domain.RecurringPayment
	for _, payment := range payments {
		if !payment.NextDate.After(cutoff) {
			due = append(due, payment)
		}
	}
	return due, nil
}

// compensate deletes the transaction created by a saga whose secondary step
// failed. A failed compensation leaves the transaction standing and is logged
// loudly; the obligation itself was not advanced, so reprocessing is safe to
// attempt only after manual review.
func (p *Processor) compensate(ctx context.Context, ownerID, txID, reason string) {
	if err := p.engine.DeleteTransaction(ctx, ownerID, txID); err != nil {
		p.log.Error().
			Err(err).
			Str("owner_id", ownerID).
			Str("transaction_id", txID).
			Str("reason", reason).
			Msg("Saga compensation failed, transaction left in ledger")
		return
	}
	p.log.Warn().
		Str("owner_id", ownerID).
		Str("transaction_id", txID).
		Str("reason", reason).
		Msg("Saga compensated, transaction rolled back")
}
