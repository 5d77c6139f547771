package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/ledgerboard/internal/domain"
	"github.com/dvloznov/ledgerboard/internal/gateway"
	"github.com/shopspring/decimal"
)

// AddInput describes a transaction to be added. Amount is the positive
// magnitude; the engine derives the sign from Kind.
type AddInput struct {
	Kind        domain.Kind
	Amount      decimal.Decimal
	Description string
	Category    domain.Category

	// Date is the calendar date of the entry; the current date is used when
	// zero.
	Date time.Time
}

// EditInput describes a full replacement of a transaction's mutable fields.
// Amount is the positive magnitude.
type EditInput struct {
	Kind        domain.Kind
	Amount      decimal.Decimal
	Description string
	Category    domain.Category
}

func validateInput(kind domain.Kind, amount decimal.Decimal, category domain.Category) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("%w: got %s", ErrInvalidAmount, amount)
	}
	if !category.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	return nil
}

// AddTransaction validates the input, applies the optimistic mutation
// (temporary record prepended, balance bumped), then issues the remote create.
// On success the temporary record is reconciled with the authoritative one and
// the account balance is pushed to the remote store; on failure the optimistic
// mutation is fully reversed and the error returned.
//
// Insufficient balance for an expense is rejected before any mutation.
func (e *Engine) AddTransaction(ctx context.Context, ownerID string, in AddInput) (*domain.Transaction, error) {
	if err := validateInput(in.Kind, in.Amount, in.Category); err != nil {
		return nil, fmt.Errorf("AddTransaction: %w", err)
	}
	signed := domain.SignedAmount(in.Kind, in.Amount)

	date := in.Date
	if date.IsZero() {
		date = time.Now()
	}

	if err := e.EnsureLoaded(ctx, ownerID); err != nil {
		return nil, fmt.Errorf("AddTransaction: %w", err)
	}

	st := e.owner(ownerID)
	st.opMu.Lock()
	defer st.opMu.Unlock()

	st.mu.Lock()
	if in.Kind == domain.KindExpense && st.displayedBalance().LessThan(in.Amount) {
		st.mu.Unlock()
		return nil, fmt.Errorf("AddTransaction: %w", ErrInsufficientBalance)
	}

	temp := domain.Transaction{
		ID:          domain.NewLocalID(),
		OwnerID:     ownerID,
		Kind:        in.Kind,
		Amount:      signed,
		Description: in.Description,
		Category:    in.Category,
		Date:        domain.DateOnly(date),
		CreatedAt:   time.Now(),
	}

	var prevBalance, optimisticBalance decimal.Decimal
	var accountID string
	// Prepend: recency is defined by insertion order, so same-day entries
	// keep their addition order at the head of the list.
	st.insertAt(0, temp)
	if st.account != nil {
		prevBalance = st.account.Balance
		optimisticBalance = prevBalance.Add(signed)
		st.account.Balance = optimisticBalance
		accountID = st.account.ID
	}
	st.mu.Unlock()

	created, err := e.gw.Txs.Create(ctx, temp)
	if err != nil {
		st.mu.Lock()
		if i := st.indexOf(temp.ID); i >= 0 {
			st.removeAt(i)
		}
		if st.account != nil {
			st.account.Balance = prevBalance
		}
		st.mu.Unlock()
		e.log.Warn().
			Err(err).
			Str("owner_id", ownerID).
			Str("local_id", temp.ID).
			Msg("Remote create failed, optimistic transaction rolled back")
		return nil, fmt.Errorf("AddTransaction: creating remote transaction: %w", err)
	}

	st.mu.Lock()
	if i := st.indexOf(temp.ID); i >= 0 {
		st.removeAt(i)
	}
	st.insertAt(0, *created)
	st.mu.Unlock()

	if accountID != "" {
		e.pushBalance(ctx, ownerID, accountID, optimisticBalance)
	}
	return created, nil
}

// EditTransaction replaces a transaction's mutable fields, applying the
// balance delta (new signed amount minus old) optimistically. On remote
// failure both the old record and the old balance are restored.
func (e *Engine) EditTransaction(ctx context.Context, ownerID, id string, in EditInput) (*domain.Transaction, error) {
	if err := validateInput(in.Kind, in.Amount, in.Category); err != nil {
		return nil, fmt.Errorf("EditTransaction: %w", err)
	}
	newSigned := domain.SignedAmount(in.Kind, in.Amount)

	if err := e.EnsureLoaded(ctx, ownerID); err != nil {
		return nil, fmt.Errorf("EditTransaction: %w", err)
	}

	st := e.owner(ownerID)
	st.opMu.Lock()
	defer st.opMu.Unlock()

	st.mu.Lock()
	i := st.indexOf(id)
	if i < 0 {
		st.mu.Unlock()
		return nil, fmt.Errorf("EditTransaction: %w: %s", ErrTransactionNotFound, id)
	}
	old := st.txs[i]
	delta := newSigned.Sub(old.Amount)

	replacement := old
	replacement.Kind = in.Kind
	replacement.Amount = newSigned
	replacement.Description = in.Description
	replacement.Category = in.Category
	st.txs[i] = replacement

	var prevBalance, optimisticBalance decimal.Decimal
	var accountID string
	if st.account != nil {
		prevBalance = st.account.Balance
		optimisticBalance = prevBalance.Add(delta)
		st.account.Balance = optimisticBalance
		accountID = st.account.ID
	}
	st.mu.Unlock()

	patch := gateway.TransactionPatch{
		Kind:        &in.Kind,
		Amount:      &newSigned,
		Description: &in.Description,
		Category:    &in.Category,
	}
	updated, err := e.gw.Txs.Update(ctx, id, patch)
	if err != nil {
		st.mu.Lock()
		if j := st.indexOf(id); j >= 0 {
			st.txs[j] = old
		}
		if st.account != nil {
			st.account.Balance = prevBalance
		}
		st.mu.Unlock()
		e.log.Warn().
			Err(err).
			Str("owner_id", ownerID).
			Str("transaction_id", id).
			Msg("Remote update failed, optimistic edit rolled back")
		return nil, fmt.Errorf("EditTransaction: updating remote transaction: %w", err)
	}

	st.mu.Lock()
	if j := st.indexOf(id); j >= 0 {
		st.txs[j] = *updated
	}
	st.mu.Unlock()

	if accountID != "" {
		e.pushBalance(ctx, ownerID, accountID, optimisticBalance)
	}
	return updated, nil
}

// DeleteTransaction removes a transaction optimistically, applying the
// negated signed amount to the balance. On remote failure the record is
// re-inserted at its prior position and the balance restored.
func (e *Engine) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	if err := e.EnsureLoaded(ctx, ownerID); err != nil {
		return fmt.Errorf("DeleteTransaction: %w", err)
	}

	st := e.owner(ownerID)
	st.opMu.Lock()
	defer st.opMu.Unlock()

	st.mu.Lock()
	i := st.indexOf(id)
	if i < 0 {
		st.mu.Unlock()
		return fmt.Errorf("DeleteTransaction: %w: %s", ErrTransactionNotFound, id)
	}
	removed := st.removeAt(i)

	var prevBalance, optimisticBalance decimal.Decimal
	var accountID string
	if st.account != nil {
		prevBalance = st.account.Balance
		optimisticBalance = prevBalance.Sub(removed.Amount)
		st.account.Balance = optimisticBalance
		accountID = st.account.ID
	}
	st.mu.Unlock()

	if err := e.gw.Txs.Delete(ctx, id); err != nil {
		st.mu.Lock()
		st.insertAt(i, removed)
		if st.account != nil {
			st.account.Balance = prevBalance
		}
		st.mu.Unlock()
		e.log.Warn().
			Err(err).
			Str("owner_id", ownerID).
			Str("transaction_id", id).
			Msg("Remote delete failed, optimistic removal rolled back")
		return fmt.Errorf("DeleteTransaction: deleting remote transaction: %w", err)
	}

	if accountID != "" {
		e.pushBalance(ctx, ownerID, accountID, optimisticBalance)
	}
	return nil
}

// SetOrCreateAccount creates the owner's account record if none exists, or
// updates its balance and account number otherwise. This is the only path by
// which an account record comes into existence.
func (e *Engine) SetOrCreateAccount(ctx context.Context, ownerID, accountNumber string, balance decimal.Decimal) (*domain.Account, error) {
	if err := e.EnsureLoaded(ctx, ownerID); err != nil {
		return nil, fmt.Errorf("SetOrCreateAccount: %w", err)
	}

	st := e.owner(ownerID)
	st.opMu.Lock()
	defer st.opMu.Unlock()

	st.mu.RLock()
	existing := st.account
	st.mu.RUnlock()

	if existing == nil {
		// The hydrated state may be stale; consult the remote store
		// before creating a duplicate.
		remote, err := e.gw.Accounts.ByOwner(ctx, ownerID)
		switch {
		case err == nil:
			existing = remote
		case errors.Is(err, gateway.ErrNotFound):
		default:
			return nil, fmt.Errorf("SetOrCreateAccount: fetching account: %w", err)
		}
	}

	var account *domain.Account
	var err error
	if existing == nil {
		account, err = e.gw.Accounts.Create(ctx, domain.Account{
			OwnerID:       ownerID,
			AccountNumber: accountNumber,
			Balance:       balance,
		})
		if err != nil {
			return nil, fmt.Errorf("SetOrCreateAccount: creating account: %w", err)
		}
		e.log.Info().Str("owner_id", ownerID).Str("account_id", account.ID).Msg("Account created")
	} else {
		account, err = e.gw.Accounts.Update(ctx, existing.ID, gateway.AccountPatch{
			AccountNumber: &accountNumber,
			Balance:       &balance,
		})
		if err != nil {
			return nil, fmt.Errorf("SetOrCreateAccount: updating account: %w", err)
		}
	}

	st.mu.Lock()
	accountCopy := *account
	st.account = &accountCopy
	st.mu.Unlock()
	return account, nil
}

// ImportTransactions replaces the owner's in-memory transaction set with the
// imported one and adds the sum of the imported amounts to the current
// displayed balance. The records are not pushed to the remote store here; the
// caller stages them for a later flush. Validation failure aborts the import
// before any mutation.
func (e *Engine) ImportTransactions(ownerID string, imported []domain.Transaction) (Snapshot, error) {
	for _, tx := range imported {
		if err := tx.Validate(); err != nil {
			return Snapshot{}, fmt.Errorf("ImportTransactions: %w", err)
		}
	}

	st := e.owner(ownerID)
	st.opMu.Lock()
	defer st.opMu.Unlock()

	sum := domain.Sum(imported)

	st.mu.Lock()
	st.txs = make([]domain.Transaction, len(imported))
	copy(st.txs, imported)
	if st.account != nil {
		st.account.Balance = st.account.Balance.Add(sum)
	}
	st.mu.Unlock()

	e.log.Info().
		Str("owner_id", ownerID).
		Int("transactions", len(imported)).
		Str("amount_sum", sum.String()).
		Msg("Imported transaction set")
	return e.Snapshot(ownerID), nil
}

// pushBalance propagates a confirmed optimistic balance to the remote account
// record. The local transaction already stands, so a failure here is logged
// and not compensated: the derived balance stays correct and the remote
// account row catches up on the next successful push.
func (e *Engine) pushBalance(ctx context.Context, ownerID, accountID string, balance decimal.Decimal) {
	if _, err := e.gw.Accounts.Update(ctx, accountID, gateway.AccountPatch{Balance: &balance}); err != nil {
		e.log.Warn().
			Err(err).
			Str("owner_id", ownerID).
			Str("account_id", accountID).
			Str("balance", balance.String()).
			Msg("Failed to push account balance to remote store")
	}
}
