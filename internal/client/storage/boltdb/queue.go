package boltdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/notesync/internal/client/storage"
	"github.com/iudanet/notesync/internal/models"
)

// SaveChange stores or replaces a pending change.
// Вместе с записью обновляется индекс coalesce key → entry id,
// по которому enqueue находит запись для схлопывания.
func (s *Storage) SaveChange(ctx context.Context, change *models.PendingChange) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	data, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to marshal pending change: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		queue := tx.Bucket(bucketQueue)
		index := tx.Bucket(bucketQueueIndex)

		if err := queue.Put([]byte(change.ID), data); err != nil {
			return fmt.Errorf("failed to save change: %w", err)
		}

		if err := index.Put([]byte(change.CoalesceKey()), []byte(change.ID)); err != nil {
			return fmt.Errorf("failed to save change index: %w", err)
		}

		return nil
	})

	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}

// GetChange retrieves a pending change by queue entry id
func (s *Storage) GetChange(ctx context.Context, id string) (*models.PendingChange, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var change *models.PendingChange

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketQueue).Get([]byte(id))
		if data == nil {
			return storage.ErrChangeNotFound
		}

		change = &models.PendingChange{}
		if err := json.Unmarshal(data, change); err != nil {
			return fmt.Errorf("failed to unmarshal pending change: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return change, nil
}

// GetChangeByKey retrieves a pending change by coalesce key
func (s *Storage) GetChangeByKey(ctx context.Context, key string) (*models.PendingChange, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var change *models.PendingChange

	err := s.db.View(func(tx *bbolt.Tx) error {
		id := tx.Bucket(bucketQueueIndex).Get([]byte(key))
		if id == nil {
			return storage.ErrChangeNotFound
		}

		data := tx.Bucket(bucketQueue).Get(id)
		if data == nil {
			// Индекс указывает на несуществующую запись - считаем не найденной
			return storage.ErrChangeNotFound
		}

		change = &models.PendingChange{}
		if err := json.Unmarshal(data, change); err != nil {
			return fmt.Errorf("failed to unmarshal pending change: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return change, nil
}

// ListChanges returns pending changes of a workspace.
// Empty workspaceID returns the whole queue.
func (s *Storage) ListChanges(ctx context.Context, workspaceID string) ([]*models.PendingChange, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var changes []*models.PendingChange

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketQueue).ForEach(func(k, v []byte) error {
			var change models.PendingChange
			if err := json.Unmarshal(v, &change); err != nil {
				return fmt.Errorf("failed to unmarshal pending change: %w", err)
			}

			if workspaceID != "" && change.WorkspaceID != workspaceID {
				return nil
			}

			changes = append(changes, &change)
			return nil
		})
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list changes: %w", err)
	}

	return changes, nil
}

// DeleteChange removes a pending change and its index entry
func (s *Storage) DeleteChange(ctx context.Context, id string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		queue := tx.Bucket(bucketQueue)
		index := tx.Bucket(bucketQueueIndex)

		data := queue.Get([]byte(id))
		if data == nil {
			return storage.ErrChangeNotFound
		}

		var change models.PendingChange
		if err := json.Unmarshal(data, &change); err != nil {
			return fmt.Errorf("failed to unmarshal pending change: %w", err)
		}

		// Индекс чистим только если он указывает именно на эту запись
		if indexed := index.Get([]byte(change.CoalesceKey())); indexed != nil && string(indexed) == id {
			if err := index.Delete([]byte(change.CoalesceKey())); err != nil {
				return fmt.Errorf("failed to delete change index: %w", err)
			}
		}

		return queue.Delete([]byte(id))
	})
}

// DeleteChangeIfPayload removes a pending change only if its stored
// payload still matches. Сравнение и удаление идут одной транзакцией:
// между проверкой и удалением не может вклиниться параллельный Enqueue.
func (s *Storage) DeleteChangeIfPayload(ctx context.Context, id string, payload []byte) (bool, error) {
	if s.db == nil {
		return false, storage.ErrStorageClosed
	}

	deleted := false

	err := s.db.Update(func(tx *bbolt.Tx) error {
		queue := tx.Bucket(bucketQueue)
		index := tx.Bucket(bucketQueueIndex)

		data := queue.Get([]byte(id))
		if data == nil {
			return storage.ErrChangeNotFound
		}

		var change models.PendingChange
		if err := json.Unmarshal(data, &change); err != nil {
			return fmt.Errorf("failed to unmarshal pending change: %w", err)
		}

		if !bytes.Equal(change.Payload, payload) {
			return nil
		}

		if indexed := index.Get([]byte(change.CoalesceKey())); indexed != nil && string(indexed) == id {
			if err := index.Delete([]byte(change.CoalesceKey())); err != nil {
				return fmt.Errorf("failed to delete change index: %w", err)
			}
		}

		deleted = true
		return queue.Delete([]byte(id))
	})

	if err != nil {
		return false, err
	}

	return deleted, nil
}

// CountChanges returns the number of queued changes
func (s *Storage) CountChanges(ctx context.Context) (int, error) {
	if s.db == nil {
		return 0, storage.ErrStorageClosed
	}

	count := 0

	err := s.db.View(func(tx *bbolt.Tx) error {
		count = tx.Bucket(bucketQueue).Stats().KeyN
		return nil
	})

	if err != nil {
		return 0, fmt.Errorf("failed to count changes: %w", err)
	}

	return count, nil
}

// ClearQueue removes all pending changes and the coalesce index
func (s *Storage) ClearQueue(ctx context.Context) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketQueue, bucketQueueIndex} {
			if err := tx.DeleteBucket(name); err != nil && err != bbolt.ErrBucketNotFound {
				return fmt.Errorf("failed to delete bucket: %w", err)
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return fmt.Errorf("failed to create bucket: %w", err)
			}
		}
		return nil
	})

	if err != nil {
		return fmt.Errorf("clear transaction failed: %w", err)
	}

	return nil
}
