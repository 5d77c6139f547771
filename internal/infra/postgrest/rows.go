package postgrest

import (
	"fmt"
	"time"

	"github.com/dvloznov/ledgerboard/internal/domain"
	"github.com/shopspring/decimal"
)

// Wire rows mirror the remote table schemas. Dates are date-only strings;
// identifiers and timestamps are assigned by the remote store, so inserts are
// built as plain field maps that omit them.

type accountRow struct {
	ID            string          `json:"id"`
	OwnerID       string          `json:"owner_id"`
	AccountNumber string          `json:"account_number"`
	Balance       decimal.Decimal `json:"balance"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (r accountRow) toDomain() domain.Account {
	return domain.Account{
		ID:            r.ID,
		OwnerID:       r.OwnerID,
		AccountNumber: r.AccountNumber,
		Balance:       r.Balance,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func accountInsert(a domain.Account) map[string]interface{} {
	return map[string]interface{}{
		"owner_id":       a.OwnerID,
		"account_number": a.AccountNumber,
		"balance":        a.Balance,
	}
}

type transactionRow struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id"`
	Kind        string          `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (r transactionRow) toDomain() (domain.Transaction, error) {
	date, err := time.Parse(dateFormat, r.Date)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("transaction %s: parsing date %q: %w", r.ID, r.Date, err)
	}
	return domain.Transaction{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		Kind:        domain.Kind(r.Kind),
		Amount:      r.Amount,
		Description: r.Description,
		Category:    domain.Category(r.Category),
		Date:        date,
		CreatedAt:   r.CreatedAt,
	}, nil
}

func transactionInsert(t domain.Transaction) map[string]interface{} {
	fields := map[string]interface{}{
		"owner_id":    t.OwnerID,
		"kind":        string(t.Kind),
		"amount":      t.Amount,
		"description": t.Description,
		"category":    string(t.Category),
		"date":        t.Date.Format(dateFormat),
	}
	// The local id rides along as a client reference so a re-sent create
	// (ambiguous failure, staged flush retry) dedupes remotely instead of
	// double-applying.
	if domain.IsLocalID(t.ID) {
		fields["client_ref"] = t.ID
	}
	return fields
}

type recurringRow struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Frequency   string          `json:"frequency"`
	NextDate    string          `json:"next_date"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (r recurringRow) toDomain() (domain.RecurringPayment, error) {
	next, err := time.Parse(dateFormat, r.NextDate)
	if err != nil {
		return domain.RecurringPayment{}, fmt.Errorf("recurring payment %s: parsing next_date %q: %w", r.ID, r.NextDate, err)
	}
	return domain.RecurringPayment{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		Amount:      r.Amount,
		Description: r.Description,
		Category:    domain.Category(r.Category),
		Frequency:   domain.Frequency(r.Frequency),
		NextDate:    next,
		CreatedAt:   r.CreatedAt,
	}, nil
}

func recurringInsert(p domain.RecurringPayment) map[string]interface{} {
	return map[string]interface{}{
		"owner_id":    p.OwnerID,
		"amount":      p.Amount,
		"description": p.Description,
		"category":    string(p.Category),
		"frequency":   string(p.Frequency),
		"next_date":   p.NextDate.Format(dateFormat),
	}
}

type billRow struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     string          `json:"due_date"`
	Category    string          `json:"category"`
	Paid        bool            `json:"paid"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (r billRow) toDomain() (domain.BillReminder, error) {
	due, err := time.Parse(dateFormat, r.DueDate)
	if err != nil {
		return domain.BillReminder{}, fmt.Errorf("bill %s: parsing due_date %q: %w", r.ID, r.DueDate, err)
	}
	return domain.BillReminder{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		Description: r.Description,
		Amount:      r.Amount,
		DueDate:     due,
		Category:    domain.Category(r.Category),
		Paid:        r.Paid,
		CreatedAt:   r.CreatedAt,
	}, nil
}

func billInsert(b domain.BillReminder) map[string]interface{} {
	return map[string]interface{}{
		"owner_id":    b.OwnerID,
		"description": b.Description,
		"amount":      b.Amount,
		"due_date":    b.DueDate.Format(dateFormat),
		"category":    string(b.Category),
		"paid":        b.Paid,
	}
}
