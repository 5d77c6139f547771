package postgrest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dvloznov/ledgerboard/internal/domain"
	"github.com/dvloznov/ledgerboard/internal/gateway"
)

// transactionsGateway implements gateway.Transactions over the transactions
// collection. Listing is ordered by date descending at the store.
type transactionsGateway struct {
	c *Client
}

func (g *transactionsGateway) ListByOwner(ctx context.Context, ownerID string) ([]domain.Transaction, error) {
	q := ownerFilter(ownerID)
	q.Set("order", "date.desc,created_at.desc")

	var rows []transactionRow
	if err := g.c.do(ctx, http.MethodGet, transactionsPath, q, nil, &rows); err != nil {
		return nil, fmt.Errorf("ListByOwner: %w", err)
	}

	txs := make([]domain.Transaction, 0, len(rows))
	for _, row := range rows {
		tx, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("ListByOwner: %w", err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func (g *transactionsGateway) Create(ctx context.Context, tx domain.Transaction) (*domain.Transaction, error) {
	var rows []transactionRow
	if err := g.c.do(ctx, http.MethodPost, transactionsPath, nil, transactionInsert(tx), &rows); err != nil {
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

func (g *transactionsGateway) Update(ctx context.Context, id string, patch gateway.TransactionPatch) (*domain.Transaction, error) {
	fields := map[string]interface{}{}
	if patch.Kind != nil {
		fields["kind"] = string(*patch.Kind)
	}
	if patch.Amount != nil {
		fields["amount"] = *patch.Amount
	}
	if patch.Description != nil {
		fields["description"] = *patch.Description
	}
	if patch.Category != nil {
		fields["category"] = string(*patch.Category)
	}
	if patch.Date != nil {
		fields["date"] = patch.Date.Format(dateFormat)
	}

	var rows []transactionRow
	if err := g.c.do(ctx, http.MethodPatch, transactionsPath, idFilter(id), fields, &rows); err != nil {
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

func (g *transactionsGateway) Delete(ctx context.Context, id string) error {
	var rows []transactionRow
	if err := g.c.do(ctx, http.MethodDelete, transactionsPath, idFilter(id), nil, &rows); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if len(rows) == 0 {
		return gateway.ErrNotFound
	}
	return nil
}

var _ gateway.Transactions = (*transactionsGateway)(nil)
