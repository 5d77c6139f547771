package postgrest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dvloznov/ledgerboard/internal/domain"
	"github.com/dvloznov/ledgerboard/internal/gateway"
)

// accountsGateway implements gateway.Accounts over the accounts collection.
type accountsGateway struct {
	c *Client
}

func (g *accountsGateway) ByOwner(ctx context.Context, ownerID string) (*domain.Account, error) {
	var rows []accountRow
	if err := g.c.do(ctx, http.MethodGet, accountsPath, ownerFilter(ownerID), nil, &rows); err != nil {
		return nil, fmt.Errorf("ByOwner: %w", err)
	}
	row, err := one(rows)
	if err != nil {
		return nil, err
	}
	acc := row.toDomain()
	return &acc, nil
}

func (g *accountsGateway) Create(ctx context.Context, account domain.Account) (*domain.Account, error) {
	var rows []accountRow
	if err := g.c.do(ctx, http.MethodPost, accountsPath, nil, accountInsert(account), &rows); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}
	row, err := one(rows)
	if err != nil {
		return nil, err
	}
	acc := row.toDomain()
	return &acc, nil
}

func (g *accountsGateway) Update(ctx context.Context, id string, patch gateway.AccountPatch) (*domain.Account, error) {
	fields := map[string]interface{}{}
	if patch.AccountNumber != nil {
		fields["account_number"] = *patch.AccountNumber
	}
	if patch.Balance != nil {
		fields["balance"] = *patch.Balance
	}

	var rows []accountRow
	if err := g.c.do(ctx, http.MethodPatch, accountsPath, idFilter(id), fields, &rows); err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}
	row, err := one(rows)
	if err != nil {
		return nil, err
	}
	acc := row.toDomain()
	return &acc, nil
}

var _ gateway.Accounts = (*accountsGateway)(nil)
