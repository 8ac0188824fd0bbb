package boltdb

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"
)

var (
	// BoltDB bucket names
	bucketDocuments   = []byte("documents")
	bucketFolders     = []byte("folders")
	bucketWorkspaces  = []byte("workspaces")
	bucketQueue       = []byte("change_queue")
	bucketQueueIndex  = []byte("change_queue_index") // coalesce key -> queue entry id
	bucketIDMapRemote = []byte("id_map_remote")      // local id -> remote id
	bucketIDMapLocal  = []byte("id_map_local")       // remote id -> local id
	bucketConflicts   = []byte("conflicts")
	bucketSyncMeta    = []byte("sync_meta")
	bucketSession     = []byte("session")
)

// Storage represents BoltDB storage implementation for client
type Storage struct {
	db *bbolt.DB
}

// New creates a new BoltDB storage instance
// dbPath is the path to the BoltDB database file
func New(ctx context.Context, dbPath string) (*Storage, error) {
	// Открываем BoltDB
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	storage := &Storage{db: db}

	// Инициализируем buckets
	if err := storage.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return storage, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// initBuckets создает необходимые buckets если они не существуют
func (s *Storage) initBuckets() error {
	buckets := [][]byte{
		bucketDocuments,
		bucketFolders,
		bucketWorkspaces,
		bucketQueue,
		bucketQueueIndex,
		bucketIDMapRemote,
		bucketIDMapLocal,
		bucketConflicts,
		bucketSyncMeta,
		bucketSession,
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range buckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}
		return nil
	})
}
