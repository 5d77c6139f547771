package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dvloznov/ledgerboard/internal/api/middleware"
	"github.com/dvloznov/ledgerboard/internal/domain"
	"github.com/dvloznov/ledgerboard/internal/ledger"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// LedgerHandler exposes the balance reconciliation engine over HTTP. It only
// ever hands out read-only snapshots; all mutation goes through the engine's
// operations.
type LedgerHandler struct {
	engine *ledger.Engine
	log    zerolog.Logger
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(engine *ledger.Engine, log zerolog.Logger) *LedgerHandler {
	return &LedgerHandler{engine: engine, log: log}
}

// GetBalance handles GET /api/balance
func (h *LedgerHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.OwnerFromContext(r.Context())
	if err := h.engine.EnsureLoaded(r.Context(), ownerID); err != nil {
		h.log.Error().Err(err).Msg("Failed to load owner aggregate")
		middleware.WriteError(w, http.StatusBadGateway, "Failed to load ledger state")
		return
	}
	snap := h.engine.Snapshot(ownerID)

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"balance":     snap.Balance,
		"has_account": snap.HasAccount,
		"account":     snap.Account,
	})
}

// ListTransactions handles GET /api/transactions
func (h *LedgerHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.OwnerFromContext(r.Context())
	if err := h.engine.EnsureLoaded(r.Context(), ownerID); err != nil {
		h.log.Error().Err(err).Msg("Failed to load owner aggregate")
		middleware.WriteError(w, http.StatusBadGateway, "Failed to load ledger state")
		return
	}
	snap := h.engine.Snapshot(ownerID)

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": snap.Transactions,
		"count":        len(snap.Transactions),
	})
}

type transactionRequest struct {
	Kind        domain.Kind     `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    domain.Category `json:"category"`
	Date        string          `json:"date,omitempty"`
}

// AddTransaction handles POST /api/transactions
func (h *LedgerHandler) AddTransaction(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.OwnerFromContext(r.Context())

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	in := ledger.AddInput{
		Kind:        req.Kind,
		Amount:      req.Amount,
		Description: req.Description,
		Category:    req.Category,
	}
	if req.Date != "" {
		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid date format, want YYYY-MM-DD")
			return
		}
		in.Date = date
	}

	tx, err := h.engine.AddTransaction(r.Context(), ownerID, in)
	if err != nil {
		h.writeEngineError(w, err, "Failed to add transaction")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, tx)
}

// EditTransaction handles PUT /api/transactions/{id}
func (h *LedgerHandler) EditTransaction(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.OwnerFromContext(r.Context())
	id := r.PathValue("id")

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tx, err := h.engine.EditTransaction(r.Context(), ownerID, id, ledger.EditInput{
		Kind:        req.Kind,
		Amount:      req.Amount,
		Description: req.Description,
		Category:    req.Category,
	})
	if err != nil {
		h.writeEngineError(w, err, "Failed to edit transaction")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, tx)
}

// DeleteTransaction handles DELETE /api/transactions/{id}
func (h *LedgerHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.OwnerFromContext(r.Context())
	id := r.PathValue("id")

	if err := h.engine.DeleteTransaction(r.Context(), ownerID, id); err != nil {
		h.writeEngineError(w, err, "Failed to delete transaction")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

type accountRequest struct {
	AccountNumber string          `json:"account_number"`
	Balance       decimal.Decimal `json:"balance"`
}

// SetAccount handles POST /api/account
func (h *LedgerHandler) SetAccount(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.OwnerFromContext(r.Context())

	var req accountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.AccountNumber == "" {
		middleware.WriteError(w, http.StatusBadRequest, "account_number is required")
		return
	}

	account, err := h.engine.SetOrCreateAccount(r.Context(), ownerID, req.AccountNumber, req.Balance)
	if err != nil {
		h.writeEngineError(w, err, "Failed to set account")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, account)
}

// writeEngineError maps engine errors onto HTTP statuses: validation problems
// are client errors, unknown ids are 404, anything else means the remote
// ledger did not confirm the operation and the optimistic state was rolled
// back.
func (h *LedgerHandler) writeEngineError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrUnknownKind),
		errors.Is(err, ledger.ErrUnknownCategory):
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrInsufficientBalance):
		middleware.WriteError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ledger.ErrTransactionNotFound):
		middleware.WriteError(w, http.StatusNotFound, err.Error())
	default:
		h.log.Error().Err(err).Msg(msg)
		middleware.WriteError(w, http.StatusBadGateway, msg)
	}
}
