package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/dvloznov/ledgerboard/internal/api/middleware"
	"github.com/dvloznov/ledgerboard/internal/backup"
	"github.com/dvloznov/ledgerboard/internal/domain"
	"github.com/dvloznov/ledgerboard/internal/gateway"
	"github.com/dvloznov/ledgerboard/internal/ledger"
	"github.com/dvloznov/ledgerboard/internal/staging"
	"github.com/rs/zerolog"
)

// maxImportSize bounds the accepted import document.
const maxImportSize = 8 << 20

// BackupHandler serves the export download and the import upload, and exposes
// the staging flush.
type BackupHandler struct {
	engine   *ledger.Engine
	importer *backup.Importer
	store    *staging.Store
	txs      gateway.Transactions
	log      zerolog.Logger
}

// NewBackupHandler creates a new backup handler.
func NewBackupHandler(engine *ledger.Engine, importer *backup.Importer, store *staging.Store, txs gateway.Transactions, log zerolog.Logger) *BackupHandler {
	return &BackupHandler{
		engine:   engine,
		importer: importer,
		store:    store,
		txs:      txs,
		log:      log,
	}
}

// Export handles GET /api/export
func (h *BackupHandler) Export(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.OwnerFromContext(r.Context())
	if err := h.engine.EnsureLoaded(r.Context(), ownerID); err != nil {
		h.log.Error().Err(err).Msg("Failed to load owner aggregate")
		middleware.WriteError(w, http.StatusBadGateway, "Failed to load ledger state")
		return
	}

	profile := domain.Profile{OwnerID: ownerID}
	if cached, err := h.store.Profile(ownerID); err == nil && cached != nil {
		profile = *cached
	}

	snap := h.engine.Snapshot(ownerID)
	data, filename, err := backup.Export(snap, profile)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build export document")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to build export")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Import handles POST /api/import
func (h *BackupHandler) Import(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.OwnerFromContext(r.Context())
	if err := h.engine.EnsureLoaded(r.Context(), ownerID); err != nil {
		h.log.Error().Err(err).Msg("Failed to load owner aggregate")
		middleware.WriteError(w, http.StatusBadGateway, "Failed to load ledger state")
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportSize))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	snap, err := h.importer.Import(ownerID, data)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": len(snap.Transactions),
		"balance":      snap.Balance,
	})
}

// Flush handles POST /api/flush
// It pushes the owner's staged transactions to the remote store, keeping any
// record that was not confirmed.
func (h *BackupHandler) Flush(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.OwnerFromContext(r.Context())

	result, err := h.store.FlushOwner(r.Context(), ownerID, h.txs)
	if err != nil {
		h.log.Error().Err(err).Msg("Staging flush failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Staging flush failed")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]int{
		"synced": result.Synced,
		"failed": result.Failed,
	})
}
