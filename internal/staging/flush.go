package staging

import (
	"context"
	"fmt"

	"github.com/dvloznov/ledgerboard/internal/gateway"
)

// FlushResult reports the per-item outcome of a flush.
type FlushResult struct {
	// Synced counts records confirmed by the remote store and removed from
	// the buffer.
	Synced int
	// Failed counts records the remote store did not confirm; they stay
	// buffered for the next flush.
	Failed int
}

// FlushOwner pushes every buffered transaction of the owner to the remote
// gateway. Each record is tracked individually: only confirmed records are
// removed from the buffer, so a partial failure never discards unsynced data.
func (s *Store) FlushOwner(ctx context.Context, ownerID string, txs gateway.Transactions) (FlushResult, error) {
	staged, err := s.TransactionsByOwner(ownerID)
	if err != nil {
		return FlushResult{}, fmt.Errorf("FlushOwner: %w", err)
	}

	var result FlushResult
	for _, item := range staged {
		if _, err := txs.Create(ctx, item.Tx); err != nil {
			result.Failed++
			s.log.Warn().
				Err(err).
				Str("owner_id", ownerID).
				Uint64("key", item.Key).
				Msg("Staged transaction not confirmed, keeping in buffer")
			continue
		}

		if err := s.DeleteTransaction(ownerID, item.Key); err != nil {
			// The record reached the remote store but is still buffered
			// and will be re-sent; the remote store dedupes on the
			// record's local id.
			result.Failed++
			s.log.Error().
				Err(err).
				Str("owner_id", ownerID).
				Uint64("key", item.Key).
				Msg("Failed to remove synced record from buffer")
			continue
		}
		result.Synced++
	}

	s.log.Info().
		Str("owner_id", ownerID).
		Int("synced", result.Synced).
		Int("failed", result.Failed).
		Msg("Staging flush completed")
	return result, nil
}
