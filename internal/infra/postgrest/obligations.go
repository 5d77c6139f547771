package postgrest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dvloznov/ledgerboard/internal/domain"
	"github.com/dvloznov/ledgerboard/internal/gateway"
)

// recurringGateway implements gateway.RecurringPayments. Listing is ordered by
// next occurrence ascending at the store.
type recurringGateway struct {
	c *Client
}

func (g *recurringGateway) ListByOwner(ctx context.Context, ownerID string) ([]domain.RecurringPayment, error) {
	q := ownerFilter(ownerID)
	q.Set("order", "next_date.asc")

	var rows []recurringRow
	if err := g.c.do(ctx, http.MethodGet, recurringPath, q, nil, &rows); err != nil {
		return nil, fmt.Errorf("ListByOwner: %w", err)
	}

	payments := make([]domain.RecurringPayment, 0, len(rows))
	for _, row := range rows {
		p, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("ListByOwner: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, nil
}

func (g *recurringGateway) Create(ctx context.Context, p domain.RecurringPayment) (*domain.RecurringPayment, error) {
	var rows []recurringRow
	if err := g.c.do(ctx, http.MethodPost, recurringPath, nil, recurringInsert(p), &rows); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}
	row, err := one(rows)
	if err != nil {
		return nil, err
	}
	created, err := row.toDomain()
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}
	return &created, nil
}

func (g *recurringGateway) Update(ctx context.Context, id string, patch gateway.RecurringPatch) (*domain.RecurringPayment, error) {
	fields := map[string]interface{}{}
	if patch.Amount != nil {
		fields["amount"] = *patch.Amount
	}
	if patch.Description != nil {
		fields["description"] = *patch.Description
	}
	if patch.Category != nil {
		fields["category"] = string(*patch.Category)
	}
	if patch.Frequency != nil {
		fields["frequency"] = string(*patch.Frequency)
	}
	if patch.NextDate != nil {
		fields["next_date"] = patch.NextDate.Format(dateFormat)
	}

	var rows []recurringRow
	if err := g.c.do(ctx, http.MethodPatch, recurringPath, idFilter(id), fields, &rows); err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}
	row, err := one(rows)
	if err != nil {
		return nil, err
	}
	updated, err := row.toDomain()
	if err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}
	return &updated, nil
}

func (g *recurringGateway) Delete(ctx context.Context, id string) error {
	var rows []recurringRow
	if err := g.c.do(ctx, http.MethodDelete, recurringPath, idFilter(id), nil, &rows); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if len(rows) == 0 {
		return gateway.ErrNotFound
	}
	return nil
}

var _ gateway.RecurringPayments = (*recurringGateway)(nil)

// billsGateway implements gateway.BillReminders. Listing is ordered by due
// date ascending at the store.
type billsGateway struct {
	c *Client
}

func (g *billsGateway) ListByOwner(ctx context.Context, ownerID string) ([]domain.BillReminder, error) {
	q := ownerFilter(ownerID)
	q.Set("order", "due_date.asc")

	var rows []billRow
	if err := g.c.do(ctx, http.MethodGet, billsPath, q, nil, &rows); err != nil {
		return nil, fmt.Errorf("ListByOwner: %w", err)
	}

	bills := make([]domain.BillReminder, 0, len(rows))
	for _, row := range rows {
		b, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("ListByOwner: %w", err)
		}
		bills = append(bills, b)
	}
	return bills, nil
}

func (g *billsGateway) Create(ctx context.Context, b domain.BillReminder) (*domain.BillReminder, error) {
	var rows []billRow
	if err := g.c.do(ctx, http.MethodPost, billsPath, nil, billInsert(b), &rows); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}
	row, err := one(rows)
	if err != nil {
		return nil, err
	}
	created, err := row.toDomain()
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}
	return &created, nil
}

func (g *billsGateway) Update(ctx context.Context, id string, patch gateway.BillPatch) (*domain.BillReminder, error) {
	fields := map[string]interface{}{}
	if patch.Description != nil {
		fields["description"] = *patch.Description
	}
	if patch.Amount != nil {
		fields["amount"] = *patch.Amount
	}
	if patch.DueDate != nil {
		fields["due_date"] = patch.DueDate.Format(dateFormat)
	}
	if patch.Category != nil {
		fields["category"] = string(*patch.Category)
	}
	if patch.Paid != nil {
		fields["paid"] = *patch.Paid
	}

	var rows []billRow
	if err := g.c.do(ctx, http.MethodPatch, billsPath, idFilter(id), fields, &rows); err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}
	row, err := one(rows)
	if err != nil {
		return nil, err
	}
	updated, err := row.toDomain()
	if err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}
	return &updated, nil
}

func (g *billsGateway) Delete(ctx context.Context, id string) error {
	var rows []billRow
	if err := g.c.do(ctx, http.MethodDelete, billsPath, idFilter(id), nil, &rows); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if len(rows) == 0 {
		return gateway.ErrNotFound
	}
	return nil
}

var _ gateway.BillReminders = (*billsGateway)(nil)
