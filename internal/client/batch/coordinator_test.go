package batch

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apiclient "github.com/iudanet/notesync/internal/client/api"
	"github.com/iudanet/notesync/internal/client/events"
	"github.com/iudanet/notesync/internal/client/idmap"
	"github.com/iudanet/notesync/internal/client/storage/boltdb"
	"github.com/iudanet/notesync/internal/models"
	"github.com/iudanet/notesync/pkg/api"
)

// detectorStub управляемый детектор конфликтов
type detectorStub struct {
	conflict *models.Conflict
	err      error
	calls    int
}

func (d *detectorStub) Detect(ctx context.Context, localID string, resp *api.ConflictResponse) (*models.Conflict, error) {
	d.calls++
	return d.conflict, d.err
}

type batchEnv struct {
	coordinator *Coordinator
	store       *boltdb.Storage
	apiMock     *apiclient.ClientAPIMock
	detector    *detectorStub
}

func newBatchEnv(t *testing.T) *batchEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	env := &batchEnv{
		store:    store,
		apiMock:  &apiclient.ClientAPIMock{},
		detector: &detectorStub{},
	}

	token := func(ctx context.Context) (string, error) { return "test-token", nil }

	env.coordinator = NewCoordinator(
		store, store,
		idmap.New(store, logger),
		env.apiMock,
		env.detector,
		events.NewBus(),
		token,
		logger,
	)

	return env
}

func (e *batchEnv) saveDoc(t *testing.T, doc *models.DocumentMeta) {
	t.Helper()
	require.NoError(t, e.store.SaveDocument(context.Background(), doc))
}

func (e *batchEnv) enqueue(t *testing.T, change *models.PendingChange) {
	t.Helper()
	require.NoError(t, e.store.SaveChange(context.Background(), change))
}

func TestSyncBatch_EmptyQueueSkipsNetwork(t *testing.T) {
	env := newBatchEnv(t)

	require.NoError(t, env.coordinator.SyncBatch(context.Background(), "workspace_ws-1", false))

	assert.Empty(t, env.apiMock.BatchCalls())
}

func TestSyncBatch_SuccessConfirmsAndDequeues(t *testing.T) {
	env := newBatchEnv(t)
	ctx := context.Background()

	env.apiMock.BatchFunc = func(ctx context.Context, token string, req api.BatchRequest) (*api.BatchResponse, error) {
		require.Len(t, req.Operations, 2)
		assert.Equal(t, "ws-1", req.WorkspaceID)

		results := make([]api.BatchResult, 0, len(req.Operations))
		for _, op := range req.Operations {
			docID := op.DocumentID
			if op.Data != nil {
				docID = op.Data.ID
			}
			results = append(results, api.BatchResult{
				ClientID:   op.ClientID,
				Status:     api.BatchStatusSuccess,
				DocumentID: docID,
				Version:    1,
			})
		}
		return &api.BatchResponse{Total: 2, Successful: 2, Results: results}, nil
	}

	for _, id := range []string{"a", "b"} {
		env.saveDoc(t, &models.DocumentMeta{
			LocalID:     "document_" + id,
			WorkspaceID: "workspace_ws-1",
			Title:       "Doc " + id,
			SyncMode:    models.SyncModePendingSync,
		})
		env.enqueue(t, &models.PendingChange{
			ID:          "ch-" + id,
			WorkspaceID: "workspace_ws-1",
			EntityType:  models.EntityDocument,
			EntityID:    "document_" + id,
			Operation:   models.OpCreate,
			Payload:     []byte(`{"title":"Doc ` + id + `"}`),
		})
	}

	require.NoError(t, env.coordinator.SyncBatch(ctx, "workspace_ws-1", false))

	count, err := env.store.CountChanges(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	doc, err := env.store.GetDocument(ctx, "document_a")
	require.NoError(t, err)
	assert.Equal(t, "a", doc.RemoteID)
	assert.Equal(t, models.SyncStatusSynced, doc.SyncStatus)
	assert.Equal(t, models.SyncModeCloud, doc.SyncMode)

	remoteID, err := env.store.GetRemoteID(ctx, "document_a")
	require.NoError(t, err)
	assert.Equal(t, "a", remoteID)
}

func TestSyncBatch_KeepsEditArrivingDuringRequest(t *testing.T) {
	env := newBatchEnv(t)
	ctx := context.Background()

	// Пока пакет в полете, запись успевает схлопнуться со свежей правкой:
	// успех пакета подтверждает только ушедший payload
	env.apiMock.BatchFunc = func(ctx context.Context, token string, req api.BatchRequest) (*api.BatchResponse, error) {
		require.NoError(t, env.store.SaveChange(ctx, &models.PendingChange{
			ID:          "ch-1",
			WorkspaceID: "workspace_ws-1",
			EntityType:  models.EntityDocument,
			EntityID:    "document_doc-1",
			Operation:   models.OpUpdate,
			Payload:     []byte(`{"content":"v2"}`),
		}))
		return &api.BatchResponse{
			Total:      1,
			Successful: 1,
			Results: []api.BatchResult{{
				ClientID: req.Operations[0].ClientID,
				Status:   api.BatchStatusSuccess,
				Version:  2,
			}},
		}, nil
	}

	env.saveDoc(t, &models.DocumentMeta{
		LocalID:     "document_doc-1",
		RemoteID:    "doc-1",
		WorkspaceID: "workspace_ws-1",
		SyncMode:    models.SyncModeCloud,
		SyncStatus:  models.SyncStatusModified,
		Version:     1,
	})
	env.enqueue(t, &models.PendingChange{
		ID:          "ch-1",
		WorkspaceID: "workspace_ws-1",
		EntityType:  models.EntityDocument,
		EntityID:    "document_doc-1",
		Operation:   models.OpUpdate,
		Payload:     []byte(`{"content":"v1"}`),
	})

	require.NoError(t, env.coordinator.SyncBatch(ctx, "workspace_ws-1", false))

	// Свежая правка осталась в очереди и уйдет следующим пакетом
	kept, err := env.store.GetChange(ctx, "ch-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"content":"v2"}`, string(kept.Payload))

	doc, err := env.store.GetDocument(ctx, "document_doc-1")
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusModified, doc.SyncStatus)
	assert.Equal(t, int64(2), doc.Version)
}

func TestSyncBatch_ConflictGoesToDetector(t *testing.T) {
	env := newBatchEnv(t)
	ctx := context.Background()

	env.apiMock.BatchFunc = func(ctx context.Context, token string, req api.BatchRequest) (*api.BatchResponse, error) {
		return &api.BatchResponse{
			Total:  1,
			Failed: 1,
			Results: []api.BatchResult{{
				ClientID: req.Operations[0].ClientID,
				Status:   api.BatchStatusConflict,
				ConflictData: &api.ConflictResponse{
					Message:        "version conflict",
					CurrentVersion: 2,
					Current:        api.Document{ID: "doc-1", Version: 2},
				},
			}},
		}, nil
	}
	env.detector.conflict = &models.Conflict{ID: "conf-1", EntityID: "document_doc-1"}

	env.saveDoc(t, &models.DocumentMeta{
		LocalID:     "document_doc-1",
		RemoteID:    "doc-1",
		WorkspaceID: "workspace_ws-1",
		SyncMode:    models.SyncModeCloud,
		Version:     1,
	})
	env.enqueue(t, &models.PendingChange{
		ID:          "ch-1",
		WorkspaceID: "workspace_ws-1",
		EntityType:  models.EntityDocument,
		EntityID:    "document_doc-1",
		Operation:   models.OpUpdate,
		Payload:     []byte(`{"content":"local"}`),
	})

	require.NoError(t, env.coordinator.SyncBatch(ctx, "workspace_ws-1", false))

	// Конфликт у детектора, запись осталась ждать разрешения
	assert.Equal(t, 1, env.detector.calls)
	count, err := env.store.CountChanges(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSyncBatch_AtomicRejectionKeepsQueue(t *testing.T) {
	env := newBatchEnv(t)
	ctx := context.Background()

	env.apiMock.BatchFunc = func(ctx context.Context, token string, req api.BatchRequest) (*api.BatchResponse, error) {
		assert.True(t, req.Atomic)
		return nil, &apiclient.Error{Kind: apiclient.KindConflict, StatusCode: 409, Message: "batch rejected"}
	}

	env.saveDoc(t, &models.DocumentMeta{
		LocalID:     "document_doc-1",
		RemoteID:    "doc-1",
		WorkspaceID: "workspace_ws-1",
		SyncMode:    models.SyncModeCloud,
		Version:     1,
	})
	env.enqueue(t, &models.PendingChange{
		ID:          "ch-1",
		WorkspaceID: "workspace_ws-1",
		EntityType:  models.EntityDocument,
		EntityID:    "document_doc-1",
		Operation:   models.OpUpdate,
		Payload:     []byte(`{}`),
	})

	err := env.coordinator.SyncBatch(ctx, "workspace_ws-1", true)
	require.Error(t, err)
	assert.True(t, apiclient.IsConflict(err))

	// Откат пакета целиком: очередь не тронута
	count, cerr := env.store.CountChanges(ctx)
	require.NoError(t, cerr)
	assert.Equal(t, 1, count)
}

func TestSyncBatch_SkipsConflictedAndNonDocumentEntries(t *testing.T) {
	env := newBatchEnv(t)
	ctx := context.Background()

	env.apiMock.BatchFunc = func(ctx context.Context, token string, req api.BatchRequest) (*api.BatchResponse, error) {
		require.Len(t, req.Operations, 1)
		return &api.BatchResponse{
			Total:      1,
			Successful: 1,
			Results: []api.BatchResult{{
				ClientID: req.Operations[0].ClientID,
				Status:   api.BatchStatusSuccess,
				Version:  2,
			}},
		}, nil
	}

	env.saveDoc(t, &models.DocumentMeta{
		LocalID:     "document_clean",
		RemoteID:    "clean",
		WorkspaceID: "workspace_ws-1",
		SyncMode:    models.SyncModeCloud,
		Version:     1,
	})
	env.saveDoc(t, &models.DocumentMeta{
		LocalID:     "document_conflicted",
		RemoteID:    "conflicted",
		WorkspaceID: "workspace_ws-1",
		SyncMode:    models.SyncModeCloud,
		SyncStatus:  models.SyncStatusConflict,
		Version:     1,
	})

	env.enqueue(t, &models.PendingChange{
		ID: "ch-clean", WorkspaceID: "workspace_ws-1",
		EntityType: models.EntityDocument, EntityID: "document_clean",
		Operation: models.OpUpdate, Payload: []byte(`{}`),
	})
	// Конфликтный документ ждет Resolve
	env.enqueue(t, &models.PendingChange{
		ID: "ch-conflicted", WorkspaceID: "workspace_ws-1",
		EntityType: models.EntityDocument, EntityID: "document_conflicted",
		Operation: models.OpUpdate, Payload: []byte(`{}`),
	})
	// Папки идут одиночными вызовами, не batch
	env.enqueue(t, &models.PendingChange{
		ID: "ch-folder", WorkspaceID: "workspace_ws-1",
		EntityType: models.EntityFolder, EntityID: "folder_f-1",
		Operation: models.OpUpdate, Payload: []byte(`{}`),
	})

	require.NoError(t, env.coordinator.SyncBatch(ctx, "workspace_ws-1", false))

	// Ушла только чистая документная запись
	count, err := env.store.CountChanges(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSyncBatch_UpdateOfUnsyncedSentAsCreate(t *testing.T) {
	env := newBatchEnv(t)
	ctx := context.Background()

	var captured []api.BatchOperation
	env.apiMock.BatchFunc = func(ctx context.Context, token string, req api.BatchRequest) (*api.BatchResponse, error) {
		captured = req.Operations
		return &api.BatchResponse{
			Total:      1,
			Successful: 1,
			Results: []api.BatchResult{{
				ClientID:   req.Operations[0].ClientID,
				Status:     api.BatchStatusSuccess,
				DocumentID: "doc-1",
				Version:    1,
			}},
		}, nil
	}

	env.saveDoc(t, &models.DocumentMeta{
		LocalID:     "document_doc-1",
		WorkspaceID: "workspace_ws-1",
		Title:       "Draft",
		Content:     "text",
		SyncMode:    models.SyncModeCloud,
	})
	env.enqueue(t, &models.PendingChange{
		ID: "ch-1", WorkspaceID: "workspace_ws-1",
		EntityType: models.EntityDocument, EntityID: "document_doc-1",
		Operation: models.OpUpdate, Payload: []byte(`{}`),
	})

	require.NoError(t, env.coordinator.SyncBatch(ctx, "workspace_ws-1", false))

	require.Len(t, captured, 1)
	assert.Equal(t, api.BatchOpCreate, captured[0].Operation)
	require.NotNil(t, captured[0].Data)
	assert.Equal(t, "Draft", captured[0].Data.Title)
}

func TestReconcileWorkspace_EnqueuesUnsyncedCloudDocs(t *testing.T) {
	env := newBatchEnv(t)
	ctx := context.Background()

	// Кандидат: облачный, без RemoteID
	env.saveDoc(t, &models.DocumentMeta{
		LocalID:     "document_new",
		WorkspaceID: "workspace_ws-1",
		Title:       "New offline doc",
		SyncMode:    models.SyncModePendingSync,
	})
	// Уже синхронизирован
	env.saveDoc(t, &models.DocumentMeta{
		LocalID:     "document_synced",
		RemoteID:    "synced",
		WorkspaceID: "workspace_ws-1",
		SyncMode:    models.SyncModeCloud,
	})
	// LocalOnly в сеть не уходит
	env.saveDoc(t, &models.DocumentMeta{
		LocalID:     "document_private",
		WorkspaceID: "workspace_ws-1",
		SyncMode:    models.SyncModeLocalOnly,
	})

	var enqueued []*models.PendingChange
	n, err := env.coordinator.ReconcileWorkspace(ctx, "workspace_ws-1", func(ctx context.Context, change *models.PendingChange) error {
		enqueued = append(enqueued, change)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, enqueued, 1)
	assert.Equal(t, "document_new", enqueued[0].EntityID)
	assert.Equal(t, models.OpCreate, enqueued[0].Operation)
	assert.Equal(t, models.PriorityHigh, enqueued[0].Priority)
}
