package boltdb

import (
	"context"
	"strconv"

	"go.etcd.io/bbolt"

	"github.com/iudanet/notesync/internal/client/storage"
)

var (
	// Ключи в bucket sync_meta
	keyLastSyncAt      = []byte("last_sync_at")
	keyNodeID          = []byte("node_id")
	keyActiveWorkspace = []byte("active_workspace")
)

// SaveLastSyncAt saves the unix timestamp of the last successful sync
func (s *Storage) SaveLastSyncAt(ctx context.Context, timestamp int64) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		value := strconv.FormatInt(timestamp, 10)
		return tx.Bucket(bucketSyncMeta).Put(keyLastSyncAt, []byte(value))
	})
}

// GetLastSyncAt retrieves the unix timestamp of the last successful sync.
// Returns 0 if no sync has been performed yet.
func (s *Storage) GetLastSyncAt(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, storage.ErrStorageClosed
	}

	var timestamp int64

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketSyncMeta).Get(keyLastSyncAt)
		if data == nil {
			return nil // синхронизации еще не было
		}

		parsed, err := strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			return err
		}

		timestamp = parsed
		return nil
	})

	if err != nil {
		return 0, err
	}

	return timestamp, nil
}

// SaveNodeID persists the device node id used by the Lamport clock
func (s *Storage) SaveNodeID(ctx context.Context, nodeID string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSyncMeta).Put(keyNodeID, []byte(nodeID))
	})
}

// GetNodeID retrieves the persisted device node id.
// Returns empty string if none was saved.
func (s *Storage) GetNodeID(ctx context.Context) (string, error) {
	if s.db == nil {
		return "", storage.ErrStorageClosed
	}

	var nodeID string

	err := s.db.View(func(tx *bbolt.Tx) error {
		if data := tx.Bucket(bucketSyncMeta).Get(keyNodeID); data != nil {
			nodeID = string(data)
		}
		return nil
	})

	if err != nil {
		return "", err
	}

	return nodeID, nil
}

// SaveActiveWorkspace persists the currently selected workspace
func (s *Storage) SaveActiveWorkspace(ctx context.Context, workspaceID string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSyncMeta).Put(keyActiveWorkspace, []byte(workspaceID))
	})
}

// GetActiveWorkspace retrieves the currently selected workspace
func (s *Storage) GetActiveWorkspace(ctx context.Context) (string, error) {
	if s.db == nil {
		return "", storage.ErrStorageClosed
	}

	var workspaceID string

	err := s.db.View(func(tx *bbolt.Tx) error {
		if data := tx.Bucket(bucketSyncMeta).Get(keyActiveWorkspace); data != nil {
			workspaceID = string(data)
		}
		return nil
	})

	if err != nil {
		return "", err
	}

	return workspaceID, nil
}
