package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is the single per-owner balance record. Its Balance equals the sum
// of all confirmed transaction amounts for the owner whenever no
// reconciliation is in flight.
type Account struct {
	ID            string          `json:"id"`
	OwnerID       string          `json:"owner_id"`
	AccountNumber string          `json:"account_number"`
	Balance       decimal.Decimal `json:"balance"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Sum returns the sum of the signed amounts of txs.
func Sum(txs []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		total = total.Add(t.Amount)
	}
	return total
}
