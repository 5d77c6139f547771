// Package backup implements the JSON export/import of an owner's ledger: the
// profile (password stripped) plus the full transaction list, written to a
// timestamped file and restorable via a full replace of the local set.
package backup

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dvloznov/ledgerboard/internal/domain"
	"github.com/dvloznov/ledgerboard/internal/ledger"
	"github.com/dvloznov/ledgerboard/internal/staging"
	"github.com/rs/zerolog"
)

// Document is the export file format.
type Document struct {
	ExportedAt   time.Time            `json:"exported_at"`
	Profile      domain.Profile       `json:"profile"`
	Transactions []domain.Transaction `json:"transactions"`
}

// Export serializes the owner's snapshot and profile into the export document
// and returns the encoded bytes plus the timestamped download filename. The
// profile's password hash is always stripped.
func Export(snap ledger.Snapshot, profile domain.Profile) ([]byte, string, error) {
	profile.PasswordHash = ""
	now := time.Now()

	doc := Document{
		ExportedAt:   now,
		Profile:      profile,
		Transactions: snap.Transactions,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, "", fmt.Errorf("Export: encoding document: %w", err)
	}

	filename := fmt.Sprintf("ledgerboard-export-%s.json", now.Format("20060102-150405"))
	return data, filename, nil
}

// Importer restores an owner's transaction set from an export document.
type Importer struct {
	engine *ledger.Engine
	store  *staging.Store
	log    zerolog.Logger
}

// NewImporter creates an importer over the engine and staging store.
func NewImporter(engine *ledger.Engine, store *staging.Store, log zerolog.Logger) *Importer {
	return &Importer{engine: engine, store: store, log: log}
}

// Import parses the document, replaces the owner's entire local transaction
// set with its transactions array, and stages the imported records for the
// next flush to the remote store. The displayed balance becomes the current
// balance plus the sum of the imported amounts. Malformed input aborts before
// any mutation.
func (i *Importer) Import(ownerID string, data []byte) (ledger.Snapshot, error) {
	var doc struct {
		Transactions []domain.Transaction `json:"transactions"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return ledger.Snapshot{}, fmt.Errorf("Import: malformed document: %w", err)
	}

	// Imported records are new to this owner's store: they get fresh local
	// ids and are re-owned, regardless of what the document claims.
	txs := make([]domain.Transaction, len(doc.Transactions))
	for n, tx := range doc.Transactions {
		tx.ID = domain.NewLocalID()
		tx.OwnerID = ownerID
		tx.Date = domain.DateOnly(tx.Date)
		if err := tx.Validate(); err != nil {
			return ledger.Snapshot{}, fmt.Errorf("Import: record %d: %w", n, err)
		}
		txs[n] = tx
	}

	// Stage first, swap the aggregate last: a staging failure leaves the
	// owner's ledger untouched.
	if err := i.store.ClearOwner(ownerID); err != nil {
		return ledger.Snapshot{}, fmt.Errorf("Import: clearing staged records: %w", err)
	}
	for _, tx := range txs {
		if _, err := i.store.PutTransaction(tx); err != nil {
			return ledger.Snapshot{}, fmt.Errorf("Import: staging record: %w", err)
		}
	}

	snap, err := i.engine.ImportTransactions(ownerID, txs)
	if err != nil {
		return ledger.Snapshot{}, fmt.Errorf("Import: %w", err)
	}

	i.log.Info().
		Str("owner_id", ownerID).
		Int("transactions", len(txs)).
		Msg("Import completed, records staged for flush")
	return snap, nil
}
