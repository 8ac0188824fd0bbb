package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/notesync/internal/server/storage"
	"github.com/iudanet/notesync/internal/server/storage/sqlite"
	"github.com/iudanet/notesync/pkg/api"
)

func newBatchTestEnv(t *testing.T) (*BatchHandler, *sqlite.Storage) {
	t.Helper()

	store, err := sqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	require.NoError(t, store.CreateUser(ctx, &storage.User{
		ID:           testOwnerID,
		Username:     "alice",
		PasswordHash: "h",
		CreatedAt:    time.Now(),
	}))
	_, err = store.CreateWorkspace(ctx, &storage.Workspace{
		ID:      "ws-1",
		OwnerID: testOwnerID,
		Name:    "Personal",
	})
	require.NoError(t, err)

	return NewBatchHandler(testLogger(), store), store
}

func runBatch(t *testing.T, handler *BatchHandler, req api.BatchRequest) *httptest.ResponseRecorder {
	t.Helper()

	httpReq := authedRequest(t, http.MethodPost, "/api/v1/documents/batch", req)
	rec := httptest.NewRecorder()
	handler.Batch(rec, httpReq)
	return rec
}

func TestBatchHandler_MixedOperations(t *testing.T) {
	handler, store := newBatchTestEnv(t)
	ctx := context.Background()

	_, err := store.CreateDocument(ctx, &storage.Document{
		ID: "existing", OwnerID: testOwnerID, WorkspaceID: "ws-1", Title: "Existing",
	})
	require.NoError(t, err)

	title := "Updated"
	expected := int64(1)
	rec := runBatch(t, handler, api.BatchRequest{
		WorkspaceID: "ws-1",
		Operations: []api.BatchOperation{
			{
				Operation: api.BatchOpCreate,
				ClientID:  "change-1",
				Data: &api.DocumentCreateRequest{
					ID:          "fresh",
					WorkspaceID: "ws-1",
					Title:       "Fresh",
				},
			},
			{
				Operation:  api.BatchOpUpdate,
				ClientID:   "change-2",
				DocumentID: "existing",
				Update: &api.DocumentUpdateRequest{
					Title:           &title,
					ExpectedVersion: &expected,
				},
			},
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.BatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 2, resp.Successful)
	assert.Equal(t, 0, resp.Failed)
	assert.GreaterOrEqual(t, resp.ProcessingTimeMS, int64(0))

	// client_id возвращается без изменений для сопоставления
	ids := []string{resp.Results[0].ClientID, resp.Results[1].ClientID}
	assert.ElementsMatch(t, []string{"change-1", "change-2"}, ids)
}

func TestBatchHandler_ConflictCarriesCurrentState(t *testing.T) {
	handler, store := newBatchTestEnv(t)
	ctx := context.Background()

	_, err := store.CreateDocument(ctx, &storage.Document{
		ID: "existing", OwnerID: testOwnerID, WorkspaceID: "ws-1", Title: "Server title",
	})
	require.NoError(t, err)

	serverRename := "Server rename"
	_, err = store.UpdateDocument(ctx, testOwnerID, "existing", storage.DocumentUpdate{Title: &serverRename}, 1)
	require.NoError(t, err)

	stale := "Client rename"
	expected := int64(1)
	rec := runBatch(t, handler, api.BatchRequest{
		WorkspaceID: "ws-1",
		Operations: []api.BatchOperation{
			{
				Operation:  api.BatchOpUpdate,
				ClientID:   "change-1",
				DocumentID: "existing",
				Update: &api.DocumentUpdateRequest{
					Title:           &stale,
					ExpectedVersion: &expected,
				},
			},
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.BatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)

	result := resp.Results[0]
	assert.Equal(t, api.BatchStatusConflict, result.Status)
	require.NotNil(t, result.ConflictData)
	assert.Equal(t, int64(2), result.ConflictData.CurrentVersion)
	assert.Equal(t, "Server rename", result.ConflictData.Current.Title)
}

func TestBatchHandler_AtomicConflictReturns409(t *testing.T) {
	handler, store := newBatchTestEnv(t)
	ctx := context.Background()

	_, err := store.CreateDocument(ctx, &storage.Document{
		ID: "existing", OwnerID: testOwnerID, WorkspaceID: "ws-1", Title: "Existing",
	})
	require.NoError(t, err)

	stale := "Stale"
	expected := int64(42)
	rec := runBatch(t, handler, api.BatchRequest{
		WorkspaceID: "ws-1",
		Atomic:      true,
		Operations: []api.BatchOperation{
			{
				Operation: api.BatchOpCreate,
				ClientID:  "change-1",
				Data: &api.DocumentCreateRequest{
					ID:          "fresh",
					WorkspaceID: "ws-1",
					Title:       "Fresh",
				},
			},
			{
				Operation:  api.BatchOpUpdate,
				ClientID:   "change-2",
				DocumentID: "existing",
				Update: &api.DocumentUpdateRequest{
					Title:           &stale,
					ExpectedVersion: &expected,
				},
			},
		},
	})

	require.Equal(t, http.StatusConflict, rec.Code)

	// Ничего не применено
	_, err = store.GetDocument(ctx, testOwnerID, "fresh")
	assert.ErrorIs(t, err, storage.ErrDocumentNotFound)
}

func TestBatchHandler_OperationOrdering(t *testing.T) {
	handler, store := newBatchTestEnv(t)
	ctx := context.Background()

	// delete идет в запросе раньше create того же документа,
	// но сервер упорядочивает create -> update -> delete
	title := "Renamed"
	rec := runBatch(t, handler, api.BatchRequest{
		WorkspaceID: "ws-1",
		Operations: []api.BatchOperation{
			{
				Operation:  api.BatchOpUpdate,
				ClientID:   "change-2",
				DocumentID: "doc-1",
				Update:     &api.DocumentUpdateRequest{Title: &title},
			},
			{
				Operation: api.BatchOpCreate,
				ClientID:  "change-1",
				Data: &api.DocumentCreateRequest{
					ID:          "doc-1",
					WorkspaceID: "ws-1",
					Title:       "Original",
				},
			},
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.BatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Successful)

	doc, err := store.GetDocument(ctx, testOwnerID, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", doc.Title)
	assert.Equal(t, int64(2), doc.Version)
}

func TestBatchHandler_RejectsEmptyBatch(t *testing.T) {
	handler, _ := newBatchTestEnv(t)

	rec := runBatch(t, handler, api.BatchRequest{WorkspaceID: "ws-1"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBatchHandler_RejectsOversizedBatch(t *testing.T) {
	handler, _ := newBatchTestEnv(t)

	ops := make([]api.BatchOperation, api.BatchMaxOperations+1)
	for i := range ops {
		ops[i] = api.BatchOperation{
			Operation: api.BatchOpCreate,
			ClientID:  "c",
			Data:      &api.DocumentCreateRequest{WorkspaceID: "ws-1", Title: "t"},
		}
	}

	rec := runBatch(t, handler, api.BatchRequest{WorkspaceID: "ws-1", Operations: ops})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
