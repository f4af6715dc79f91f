package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/listenupapp/exhibit-server/internal/domain"
)

// maxMergeAttempts bounds retries when concurrent merges touch the same sidecar.
const maxMergeAttempts = 5

// MergeSidecar applies delta to the stored sidecar, creating it if needed.
// Keys in the delta overwrite stored values, other keys are kept, and Private never
// reverts to false. Returns the sidecar as stored after the merge.
//
// Badger transactions are optimistic; a merge that loses a race is retried and
// returns ErrConflict if it keeps losing.
func (s *Store) MergeSidecar(ctx context.Context, delta domain.SidecarDelta) (*domain.Sidecar, error) {
	if delta.DocumentID == "" {
		return nil, ErrInvalidInput.withCause(errors.New("sidecar delta has no document id"))
	}

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		merged, err := s.mergeOnce(delta)
		if err == nil {
			return merged, nil
		}
		if !errors.Is(err, badger.ErrConflict) {
			return nil, err
		}
		if attempt == maxMergeAttempts {
			return nil, ErrConflict.withCause(err)
		}
		s.logger.Debug("sidecar merge conflict, retrying",
			"document_id", delta.DocumentID,
			"attempt", attempt,
		)
	}
}

func (s *Store) mergeOnce(delta domain.SidecarDelta) (*domain.Sidecar, error) {
	key := buildKey(sidecarPrefix, delta.DocumentID)
	defer releaseKey(key)

	var result *domain.Sidecar
	err := s.db.Update(func(txn *badger.Txn) error {
		current, err := readSidecar(txn, key)
		now := time.Now().UTC()
		switch {
		case errors.Is(err, ErrNotFound):
			current = &domain.Sidecar{
				DocumentID: delta.DocumentID,
				ExhibitID:  delta.ExhibitID,
				CreatedAt:  now,
			}
		case err != nil:
			return err
		}

		if !current.Apply(delta) && !current.UpdatedAt.IsZero() {
			result = current
			return nil
		}
		current.UpdatedAt = now

		data, err := json.Marshal(current)
		if err != nil {
			return fmt.Errorf("failed to marshal sidecar: %w", err)
		}
		if err := txn.Set(key, data); err != nil {
			return fmt.Errorf("failed to set key: %w", err)
		}

		// Badger holds on to keys until commit, so this one is not pooled.
		idxKey := indexKey(sidecarPrefix, exhibitIndex, current.ExhibitID, current.DocumentID)
		if err := txn.Set(idxKey, []byte(current.DocumentID)); err != nil {
			return fmt.Errorf("failed to set index key: %w", err)
		}

		result = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetSidecar retrieves the sidecar for a document.
// Returns ErrNotFound if none exists.
func (s *Store) GetSidecar(ctx context.Context, documentID string) (*domain.Sidecar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := buildKey(sidecarPrefix, documentID)
	defer releaseKey(key)

	var sidecar *domain.Sidecar
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		sidecar, err = readSidecar(txn, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sidecar, nil
}

// DeleteSidecar removes a document's sidecar. Deleting a missing sidecar is not an error.
func (s *Store) DeleteSidecar(ctx context.Context, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := buildKey(sidecarPrefix, documentID)
	defer releaseKey(key)

	return s.db.Update(func(txn *badger.Txn) error {
		current, err := readSidecar(txn, key)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		idxKey := indexKey(sidecarPrefix, exhibitIndex, current.ExhibitID, documentID)
		if err := txn.Delete(idxKey); err != nil {
			return fmt.Errorf("failed to delete index key: %w", err)
		}
		return txn.Delete(key)
	})
}

// ListSidecars returns the IDs of every document with a sidecar in an exhibit.
func (s *Store) ListSidecars(ctx context.Context, exhibitID string) ([]string, error) {
	prefix := indexPrefix(sidecarPrefix, exhibitIndex, exhibitID)
	ids := []string{}

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			id, err := it.Item().ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("failed to read index value: %w", err)
			}
			ids = append(ids, string(id))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func readSidecar(txn *badger.Txn, key []byte) (*domain.Sidecar, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}

	var sidecar domain.Sidecar
	err = item.Value(func(val []byte) error {
		if err := json.Unmarshal(val, &sidecar); err != nil {
			return fmt.Errorf("failed to unmarshal sidecar: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sidecar, nil
}
