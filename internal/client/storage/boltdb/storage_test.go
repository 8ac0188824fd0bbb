package boltdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/notesync/internal/client/storage"
	"github.com/iudanet/notesync/internal/models"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "client.db")
	s, err := New(context.Background(), dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func TestStorage_DocumentCRUD(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	doc := &models.DocumentMeta{
		LocalID:     "document_doc-1",
		WorkspaceID: "workspace_ws-1",
		Title:       "Notes",
		SyncStatus:  models.SyncStatusLocal,
	}
	require.NoError(t, s.SaveDocument(ctx, doc))

	got, err := s.GetDocument(ctx, "document_doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Notes", got.Title)

	require.NoError(t, s.DeleteDocument(ctx, "document_doc-1"))

	_, err = s.GetDocument(ctx, "document_doc-1")
	assert.ErrorIs(t, err, storage.ErrDocumentNotFound)

	err = s.DeleteDocument(ctx, "document_doc-1")
	assert.ErrorIs(t, err, storage.ErrDocumentNotFound)
}

func TestStorage_ListDocumentsFiltersByWorkspace(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.SaveDocument(ctx, &models.DocumentMeta{LocalID: "document_a", WorkspaceID: "ws-1"}))
	require.NoError(t, s.SaveDocument(ctx, &models.DocumentMeta{LocalID: "document_b", WorkspaceID: "ws-1"}))
	require.NoError(t, s.SaveDocument(ctx, &models.DocumentMeta{LocalID: "document_c", WorkspaceID: "ws-2"}))

	docs, err := s.ListDocuments(ctx, "ws-1")
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	all, err := s.ListDocuments(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestStorage_QueueSaveAndCoalesceIndex(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	first := &models.PendingChange{
		ID:        "ch-1",
		EntityID:  "document_doc-1",
		Operation: models.OpUpdate,
		Payload:   []byte(`{"title":"v1"}`),
	}
	require.NoError(t, s.SaveChange(ctx, first))

	// Та же пара (entity, operation) находится по coalesce key
	found, err := s.GetChangeByKey(ctx, first.CoalesceKey())
	require.NoError(t, err)
	assert.Equal(t, "ch-1", found.ID)

	// Перезапись той же записи обновляет payload, а не плодит новую
	first.Payload = []byte(`{"title":"v2"}`)
	require.NoError(t, s.SaveChange(ctx, first))

	count, err := s.CountChanges(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	found, err = s.GetChange(ctx, "ch-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"v2"}`, string(found.Payload))
}

func TestStorage_QueueConditionalDelete(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	change := &models.PendingChange{
		ID:        "ch-1",
		EntityID:  "document_doc-1",
		Operation: models.OpUpdate,
		Payload:   []byte(`{"content":"v1"}`),
	}
	require.NoError(t, s.SaveChange(ctx, change))

	// Payload разошелся со свежей правкой: запись и индекс остаются
	deleted, err := s.DeleteChangeIfPayload(ctx, "ch-1", []byte(`{"content":"v2"}`))
	require.NoError(t, err)
	assert.False(t, deleted)

	found, err := s.GetChangeByKey(ctx, change.CoalesceKey())
	require.NoError(t, err)
	assert.Equal(t, "ch-1", found.ID)

	// Payload совпал: запись снята вместе с индексом
	deleted, err = s.DeleteChangeIfPayload(ctx, "ch-1", []byte(`{"content":"v1"}`))
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = s.GetChange(ctx, "ch-1")
	assert.ErrorIs(t, err, storage.ErrChangeNotFound)

	_, err = s.GetChangeByKey(ctx, change.CoalesceKey())
	assert.ErrorIs(t, err, storage.ErrChangeNotFound)

	_, err = s.DeleteChangeIfPayload(ctx, "ch-1", nil)
	assert.ErrorIs(t, err, storage.ErrChangeNotFound)
}

func TestStorage_QueueDeleteCleansIndex(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	change := &models.PendingChange{
		ID:        "ch-1",
		EntityID:  "document_doc-1",
		Operation: models.OpUpdate,
	}
	require.NoError(t, s.SaveChange(ctx, change))
	require.NoError(t, s.DeleteChange(ctx, "ch-1"))

	_, err := s.GetChange(ctx, "ch-1")
	assert.ErrorIs(t, err, storage.ErrChangeNotFound)

	_, err = s.GetChangeByKey(ctx, change.CoalesceKey())
	assert.ErrorIs(t, err, storage.ErrChangeNotFound)

	err = s.DeleteChange(ctx, "ch-1")
	assert.ErrorIs(t, err, storage.ErrChangeNotFound)
}

func TestStorage_QueueDeleteKeepsNewerIndexEntry(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	old := &models.PendingChange{ID: "ch-old", EntityID: "document_doc-1", Operation: models.OpUpdate}
	require.NoError(t, s.SaveChange(ctx, old))

	// Новая запись с тем же coalesce key перенаправляет индекс на себя
	current := &models.PendingChange{ID: "ch-new", EntityID: "document_doc-1", Operation: models.OpUpdate}
	require.NoError(t, s.SaveChange(ctx, current))

	// Удаление старой записи не должно снести индекс новой
	require.NoError(t, s.DeleteChange(ctx, "ch-old"))

	found, err := s.GetChangeByKey(ctx, current.CoalesceKey())
	require.NoError(t, err)
	assert.Equal(t, "ch-new", found.ID)
}

func TestStorage_ListChangesFiltersByWorkspace(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.SaveChange(ctx, &models.PendingChange{
		ID: "ch-1", WorkspaceID: "ws-1", EntityID: "document_a", Operation: models.OpCreate,
	}))
	require.NoError(t, s.SaveChange(ctx, &models.PendingChange{
		ID: "ch-2", WorkspaceID: "ws-2", EntityID: "document_b", Operation: models.OpCreate,
	}))

	changes, err := s.ListChanges(ctx, "ws-1")
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "ch-1", changes[0].ID)
}

func TestStorage_ClearQueue(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	change := &models.PendingChange{ID: "ch-1", EntityID: "document_a", Operation: models.OpUpdate}
	require.NoError(t, s.SaveChange(ctx, change))
	require.NoError(t, s.ClearQueue(ctx))

	count, err := s.CountChanges(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	_, err = s.GetChangeByKey(ctx, change.CoalesceKey())
	assert.ErrorIs(t, err, storage.ErrChangeNotFound)

	// Очередь остается рабочей после очистки
	require.NoError(t, s.SaveChange(ctx, change))
}

func TestStorage_IDMapping(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.SaveMapping(ctx, "document_local-1", "remote-1"))

	remoteID, err := s.GetRemoteID(ctx, "document_local-1")
	require.NoError(t, err)
	assert.Equal(t, "remote-1", remoteID)

	localID, err := s.GetLocalID(ctx, "remote-1")
	require.NoError(t, err)
	assert.Equal(t, "document_local-1", localID)

	require.NoError(t, s.DeleteMapping(ctx, "document_local-1"))

	_, err = s.GetRemoteID(ctx, "document_local-1")
	assert.ErrorIs(t, err, storage.ErrMappingNotFound)
	_, err = s.GetLocalID(ctx, "remote-1")
	assert.ErrorIs(t, err, storage.ErrMappingNotFound)
}

func TestStorage_ConflictLifecycle(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	conflict := &models.Conflict{
		ID:         "conf-1",
		EntityID:   "document_doc-1",
		Kind:       models.ConflictContent,
		DetectedAt: time.Now(),
	}
	require.NoError(t, s.SaveConflict(ctx, conflict))

	got, err := s.GetConflict(ctx, "conf-1")
	require.NoError(t, err)
	assert.Equal(t, "document_doc-1", got.EntityID)

	conflicts, err := s.ListConflicts(ctx)
	require.NoError(t, err)
	assert.Len(t, conflicts, 1)

	require.NoError(t, s.DeleteConflict(ctx, "conf-1"))
	_, err = s.GetConflict(ctx, "conf-1")
	assert.ErrorIs(t, err, storage.ErrConflictNotFound)
}

func TestStorage_SyncMeta(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	// Значения по умолчанию до первой записи
	ts, err := s.GetLastSyncAt(ctx)
	require.NoError(t, err)
	assert.Zero(t, ts)

	nodeID, err := s.GetNodeID(ctx)
	require.NoError(t, err)
	assert.Empty(t, nodeID)

	require.NoError(t, s.SaveLastSyncAt(ctx, 1700000000))
	require.NoError(t, s.SaveNodeID(ctx, "node-abc"))
	require.NoError(t, s.SaveActiveWorkspace(ctx, "workspace_ws-1"))

	ts, err = s.GetLastSyncAt(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), ts)

	nodeID, err = s.GetNodeID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "node-abc", nodeID)

	workspaceID, err := s.GetActiveWorkspace(ctx)
	require.NoError(t, err)
	assert.Equal(t, "workspace_ws-1", workspaceID)
}

func TestStorage_Session(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	_, err := s.GetSession(ctx)
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)

	session := &storage.Session{
		UserID:      "user-1",
		Username:    "alice",
		AccessToken: "token",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	require.NoError(t, s.SaveSession(ctx, session))

	got, err := s.GetSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.False(t, got.IsExpired())

	require.NoError(t, s.DeleteSession(ctx))
	_, err = s.GetSession(ctx)
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
}

func TestStorage_WorkspacesAndFolders(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	ws := &models.Workspace{LocalID: "workspace_ws-1", Name: "Personal"}
	require.NoError(t, s.SaveWorkspace(ctx, ws))

	got, err := s.GetWorkspace(ctx, "workspace_ws-1")
	require.NoError(t, err)
	assert.Equal(t, "Personal", got.Name)

	workspaces, err := s.ListWorkspaces(ctx)
	require.NoError(t, err)
	assert.Len(t, workspaces, 1)

	folder := &models.Folder{LocalID: "folder_f-1", WorkspaceID: "workspace_ws-1", Name: "Inbox"}
	require.NoError(t, s.SaveFolder(ctx, folder))

	folders, err := s.ListFolders(ctx, "workspace_ws-1")
	require.NoError(t, err)
	require.Len(t, folders, 1)
	assert.Equal(t, "Inbox", folders[0].Name)

	require.NoError(t, s.DeleteFolder(ctx, "folder_f-1"))
	_, err = s.GetFolder(ctx, "folder_f-1")
	assert.ErrorIs(t, err, storage.ErrFolderNotFound)
}

func TestStorage_ClosedStorage(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "client.db")
	s, err := New(context.Background(), dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	s.db = nil

	ctx := context.Background()
	assert.ErrorIs(t, s.SaveDocument(ctx, &models.DocumentMeta{LocalID: "x"}), storage.ErrStorageClosed)
	_, err = s.GetChange(ctx, "x")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}
