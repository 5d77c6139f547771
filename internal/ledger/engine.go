// Package ledger holds the balance reconciliation engine: one aggregate per
// owner (account record plus most-recent-first transaction list), mutated only
// through the engine's operations. Mutations are applied optimistically to the
// aggregate before the remote store confirms, and compensated with an explicit
// rollback when the remote call fails, so that after any failed operation the
// aggregate is exactly in its pre-operation state.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dvloznov/ledgerboard/internal/domain"
	"github.com/dvloznov/ledgerboard/internal/gateway"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount is returned when an operation amount is not positive.
	ErrInvalidAmount = errors.New("ledger: amount must be positive")
	// ErrUnknownKind is returned for a kind outside income/expense.
	ErrUnknownKind = errors.New("ledger: unknown transaction kind")
	// ErrUnknownCategory is returned for a category outside the fixed set.
	ErrUnknownCategory = errors.New("ledger: unknown category")
	// ErrInsufficientBalance is returned when an expense exceeds the
	// displayed balance. The check runs before any optimistic mutation.
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")
	// ErrTransactionNotFound is returned when an id is not in the aggregate.
	ErrTransactionNotFound = errors.New("ledger: transaction not found")
)

// Engine coordinates optimistic updates against the remote ledger gateway.
// Balance-affecting operations are serialized per owner, so overlapping
// submissions cannot produce lost updates.
type Engine struct {
	gw  gateway.Ledger
	log zerolog.Logger

	mu     sync.Mutex
	owners map[string]*ownerState
}

// ownerState is the aggregate for one owner. opMu serializes whole operations
// end-to-end (including the remote call); mu guards the fields so snapshot
// readers can observe the optimistic intermediate state without blocking on
// the network.
type ownerState struct {
	opMu sync.Mutex

	mu      sync.RWMutex
	loaded  bool
	account *domain.Account
	txs     []domain.Transaction
}

// New creates an engine over the given gateway.
func New(gw gateway.Ledger, log zerolog.Logger) *Engine {
	return &Engine{
		gw:     gw,
		log:    log,
		owners: make(map[string]*ownerState),
	}
}

func (e *Engine) owner(ownerID string) *ownerState {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.owners[ownerID]
	if !ok {
		st = &ownerState{}
		e.owners[ownerID] = st
	}
	return st
}

// Load hydrates the owner's aggregate from the remote store: the account
// record (absence is not an error) and the transaction list, most recent
// first.
func (e *Engine) Load(ctx context.Context, ownerID string) error {
	st := e.owner(ownerID)
	st.opMu.Lock()
	defer st.opMu.Unlock()

	account, err := e.gw.Accounts.ByOwner(ctx, ownerID)
	if err != nil && !errors.Is(err, gateway.ErrNotFound) {
		return fmt.Errorf("Load: fetching account: %w", err)
	}

	txs, err := e.gw.Txs.ListByOwner(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("Load: fetching transactions: %w", err)
	}

	st.mu.Lock()
	st.loaded = true
	st.account = account
	st.txs = txs
	st.mu.Unlock()

	e.log.Info().
		Str("owner_id", ownerID).
		Bool("has_account", account != nil).
		Int("transactions", len(txs)).
		Msg("Loaded owner aggregate")
	return nil
}

// EnsureLoaded hydrates the owner's aggregate if no Load has happened yet.
// Operations and snapshot-backed reads call this first, so an owner's first
// request after startup sees the remote state instead of an empty aggregate.
func (e *Engine) EnsureLoaded(ctx context.Context, ownerID string) error {
	st := e.owner(ownerID)
	st.mu.RLock()
	loaded := st.loaded
	st.mu.RUnlock()
	if loaded {
		return nil
	}
	return e.Load(ctx, ownerID)
}

// Snapshot is a read-only copy of an owner's aggregate. The displayed balance
// is the account balance when an account exists, otherwise the sum of the
// in-memory transaction amounts.
type Snapshot struct {
	OwnerID      string
	HasAccount   bool
	Account      *domain.Account
	Balance      decimal.Decimal
	Transactions []domain.Transaction
}

// Snapshot returns a copy of the owner's current aggregate. Callers may hold
// it indefinitely; it never aliases engine-internal state.
func (e *Engine) Snapshot(ownerID string) Snapshot {
	st := e.owner(ownerID)
	st.mu.RLock()
	defer st.mu.RUnlock()

	snap := Snapshot{
		OwnerID:      ownerID,
		Transactions: make([]domain.Transaction, len(st.txs)),
	}
	copy(snap.Transactions, st.txs)

	if st.account != nil {
		accountCopy := *st.account
		snap.Account = &accountCopy
		snap.HasAccount = true
		snap.Balance = st.account.Balance
	} else {
		snap.Balance = domain.Sum(st.txs)
	}
	return snap
}

// displayedBalance must be called with st.mu held (read or write).
func (st *ownerState) displayedBalance() decimal.Decimal {
	if st.account != nil {
		return st.account.Balance
	}
	return domain.Sum(st.txs)
}

// indexOf must be called with st.mu held.
func (st *ownerState) indexOf(id string) int {
	for i, tx := range st.txs {
		if tx.ID == id {
			return i
		}
	}
	return -1
}

// removeAt must be called with st.mu held.
func (st *ownerState) removeAt(i int) domain.Transaction {
	tx := st.txs[i]
	st.txs = append(st.txs[:i], st.txs[i+1:]...)
	return tx
}

// insertAt must be called with st.mu held.
func (st *ownerState) insertAt(i int, tx domain.Transaction) {
	if i < 0 {
		i = 0
	}
	if i > len(st.txs) {
		i = len(st.txs)
	}
	st.txs = append(st.txs, domain.Transaction{})
	copy(st.txs[i+1:], st.txs[i:])
	st.txs[i] = tx
}
