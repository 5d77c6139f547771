// Package staging is the local embedded staging store: a write-ahead buffer
// for ledger entries created while the remote store is unreachable, plus the
// owner profile cache. It is never a source of truth once a flush confirms
// the remote write.
package staging

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dvloznov/ledgerboard/internal/domain"
	"github.com/rs/zerolog"
	bolt "go.etcd.io/bbolt"
)

// Container buckets. Each record bucket pairs with an owner index bucket so
// scoped retrieval and scoped deletion never scan the whole store.
var (
	bucketTransactions   = []byte("transactions")
	bucketTransactionIdx = []byte("transactions_by_owner")
	bucketRecurring      = []byte("recurringPayments")
	bucketRecurringIdx   = []byte("recurringPayments_by_owner")
	bucketBills          = []byte("billReminders")
	bucketBillsIdx       = []byte("billReminders_by_owner")
	bucketUsers          = []byte("users")
)

// Store is the bbolt-backed staging store. Safe for concurrent use.
type Store struct {
	db  *bolt.DB
	log zerolog.Logger
}

// Open opens (creating if needed) the staging database at path.
func Open(path string, log zerolog.Logger) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("Open: opening staging db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{
			bucketTransactions, bucketTransactionIdx,
			bucketRecurring, bucketRecurringIdx,
			bucketBills, bucketBillsIdx,
			bucketUsers,
		} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("Open: %w", err)
	}

	return &Store{db: db, log: log}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// StagedTransaction is one buffered ledger entry with its auto-assigned local
// key.
type StagedTransaction struct {
	Key uint64
	Tx  domain.Transaction
}

// PutTransaction buffers a transaction under a fresh auto-assigned key and
// indexes it by owner. The transaction's own id (usually a local id) is kept
// inside the record.
func (s *Store) PutTransaction(tx domain.Transaction) (uint64, error) {
	if tx.OwnerID == "" {
		return 0, fmt.Errorf("PutTransaction: owner id is required")
	}

	var key uint64
	err := s.db.Update(func(btx *bolt.Tx) error {
		records := btx.Bucket(bucketTransactions)
		seq, err := records.NextSequence()
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}
		key = seq

		encoded, err := json.Marshal(tx)
		if err != nil {
			return fmt.Errorf("encoding record: %w", err)
		}
		if err := records.Put(itob(key), encoded); err != nil {
			return fmt.Errorf("writing record: %w", err)
		}

		idx, err := btx.Bucket(bucketTransactionIdx).CreateBucketIfNotExists([]byte(tx.OwnerID))
		if err != nil {
			return fmt.Errorf("creating owner index: %w", err)
		}
		return idx.Put(itob(key), nil)
	})
	if err != nil {
		return 0, fmt.Errorf("PutTransaction: %w", err)
	}
	return key, nil
}

// TransactionsByOwner returns the owner's buffered transactions in key order
// (insertion order).
func (s *Store) TransactionsByOwner(ownerID string) ([]StagedTransaction, error) {
	var staged []StagedTransaction
	err := s.db.View(func(btx *bolt.Tx) error {
		idx := btx.Bucket(bucketTransactionIdx).Bucket([]byte(ownerID))
		if idx == nil {
			return nil
		}
		records := btx.Bucket(bucketTransactions)
		return idx.ForEach(func(k, _ []byte) error {
			raw := records.Get(k)
			if raw == nil {
				return nil
			}
			var tx domain.Transaction
			if err := json.Unmarshal(raw, &tx); err != nil {
				return fmt.Errorf("decoding record %d: %w", btoi(k), err)
			}
			staged = append(staged, StagedTransaction{Key: btoi(k), Tx: tx})
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("TransactionsByOwner: %w", err)
	}
	return staged, nil
}

// DeleteTransaction removes one buffered transaction by key.
func (s *Store) DeleteTransaction(ownerID string, key uint64) error {
	err := s.db.Update(func(btx *bolt.Tx) error {
		if err := btx.Bucket(bucketTransactions).Delete(itob(key)); err != nil {
			return err
		}
		if idx := btx.Bucket(bucketTransactionIdx).Bucket([]byte(ownerID)); idx != nil {
			return idx.Delete(itob(key))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("DeleteTransaction: %w", err)
	}
	return nil
}

// ClearOwner removes every buffered transaction of the owner.
func (s *Store) ClearOwner(ownerID string) error {
	err := s.db.Update(func(btx *bolt.Tx) error {
		idxRoot := btx.Bucket(bucketTransactionIdx)
		idx := idxRoot.Bucket([]byte(ownerID))
		if idx == nil {
			return nil
		}
		records := btx.Bucket(bucketTransactions)
		if err := idx.ForEach(func(k, _ []byte) error {
			return records.Delete(k)
		}); err != nil {
			return err
		}
		return idxRoot.DeleteBucket([]byte(ownerID))
	})
	if err != nil {
		return fmt.Errorf("ClearOwner: %w", err)
	}
	return nil
}

// PutProfile caches the owner's profile record.
func (s *Store) PutProfile(p domain.Profile) error {
	err := s.db.Update(func(btx *bolt.Tx) error {
		encoded, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encoding profile: %w", err)
		}
		return btx.Bucket(bucketUsers).Put([]byte(p.OwnerID), encoded)
	})
	if err != nil {
		return fmt.Errorf("PutProfile: %w", err)
	}
	return nil
}

// Profile returns the cached profile for the owner, or nil when absent.
func (s *Store) Profile(ownerID string) (*domain.Profile, error) {
	var profile *domain.Profile
	err := s.db.View(func(btx *bolt.Tx) error {
		raw := btx.Bucket(bucketUsers).Get([]byte(ownerID))
		if raw == nil {
			return nil
		}
		var p domain.Profile
		if err := json.Unmarshal(raw, &p); err != nil {
			return fmt.Errorf("decoding profile: %w", err)
		}
		profile = &p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("Profile: %w", err)
	}
	return profile, nil
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func btoi(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}
