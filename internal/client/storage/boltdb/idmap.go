package boltdb

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/notesync/internal/client/storage"
)

// SaveMapping records a local→remote id pair in both directions
func (s *Storage) SaveMapping(ctx context.Context, localID, remoteID string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketIDMapRemote).Put([]byte(localID), []byte(remoteID)); err != nil {
			return fmt.Errorf("failed to save local->remote mapping: %w", err)
		}

		if err := tx.Bucket(bucketIDMapLocal).Put([]byte(remoteID), []byte(localID)); err != nil {
			return fmt.Errorf("failed to save remote->local mapping: %w", err)
		}

		return nil
	})
}

// GetRemoteID returns the server-assigned id for a local id
func (s *Storage) GetRemoteID(ctx context.Context, localID string) (string, error) {
	if s.db == nil {
		return "", storage.ErrStorageClosed
	}

	var remoteID string

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketIDMapRemote).Get([]byte(localID))
		if data == nil {
			return storage.ErrMappingNotFound
		}

		remoteID = string(data)
		return nil
	})

	if err != nil {
		return "", err
	}

	return remoteID, nil
}

// GetLocalID returns the local id for a server-assigned id
func (s *Storage) GetLocalID(ctx context.Context, remoteID string) (string, error) {
	if s.db == nil {
		return "", storage.ErrStorageClosed
	}

	var localID string

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketIDMapLocal).Get([]byte(remoteID))
		if data == nil {
			return storage.ErrMappingNotFound
		}

		localID = string(data)
		return nil
	})

	if err != nil {
		return "", err
	}

	return localID, nil
}

// DeleteMapping removes a mapping pair by local id
func (s *Storage) DeleteMapping(ctx context.Context, localID string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		remote := tx.Bucket(bucketIDMapRemote)
		local := tx.Bucket(bucketIDMapLocal)

		remoteID := remote.Get([]byte(localID))
		if remoteID == nil {
			return storage.ErrMappingNotFound
		}

		if err := local.Delete(remoteID); err != nil {
			return fmt.Errorf("failed to delete remote->local mapping: %w", err)
		}

		return remote.Delete([]byte(localID))
	})
}
