package conflict

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apiclient "github.com/iudanet/notesync/internal/client/api"
	"github.com/iudanet/notesync/internal/client/events"
	"github.com/iudanet/notesync/internal/client/idmap"
	"github.com/iudanet/notesync/internal/client/netmon"
	"github.com/iudanet/notesync/internal/client/storage"
	"github.com/iudanet/notesync/internal/client/storage/boltdb"
	"github.com/iudanet/notesync/internal/client/syncqueue"
	"github.com/iudanet/notesync/internal/crdt"
	"github.com/iudanet/notesync/internal/models"
	"github.com/iudanet/notesync/pkg/api"
)

type conflictEnv struct {
	detector *Detector
	resolver *Resolver
	store    *boltdb.Storage
	engine   *crdt.Engine
	bus      *events.Bus
}

func newConflictEnv(t *testing.T) *conflictEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	bus := events.NewBus()
	engine := crdt.NewEngineWithClock(logger, crdt.NewLamportClockWithNodeID("node-test"))
	detector := NewDetector(store, store, bus, logger)

	// Очередь offline: постановка из резолвера копится без отправки
	queue := syncqueue.NewManager(
		store, store, store, store,
		idmap.New(store, logger),
		&apiclient.ClientAPIMock{},
		detector,
		netmon.New(logger),
		bus,
		func(ctx context.Context) (string, error) { return "test-token", nil },
		syncqueue.DefaultConfig(),
		logger,
	)

	return &conflictEnv{
		detector: detector,
		resolver: NewResolver(store, store, store, queue, engine, bus, logger),
		store:    store,
		engine:   engine,
		bus:      bus,
	}
}

func TestDetector_FalseConflictAdoptsRemoteVersion(t *testing.T) {
	env := newConflictEnv(t)
	ctx := context.Background()

	require.NoError(t, env.store.SaveDocument(ctx, &models.DocumentMeta{
		LocalID:     "document_doc-1",
		RemoteID:    "doc-1",
		WorkspaceID: "workspace_ws-1",
		Title:       "Same",
		Content:     "identical content",
		SyncStatus:  models.SyncStatusModified,
		Version:     1,
	}))

	// Контент совпал, разъехались только версии
	conflict, err := env.detector.Detect(ctx, "document_doc-1", &api.ConflictResponse{
		Message:        "version conflict",
		CurrentVersion: 3,
		Current: api.Document{
			ID:      "doc-1",
			Title:   "Same",
			Content: "identical content",
			Version: 3,
		},
	})
	require.NoError(t, err)
	assert.Nil(t, conflict)

	doc, err := env.store.GetDocument(ctx, "document_doc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), doc.Version)
	assert.Equal(t, models.SyncStatusSynced, doc.SyncStatus)

	conflicts, err := env.store.ListConflicts(ctx)
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestDetector_RealConflictPersisted(t *testing.T) {
	env := newConflictEnv(t)
	ctx := context.Background()

	var detectedEvents []events.ConflictDetected
	env.bus.OnConflictDetected(func(ev events.ConflictDetected) {
		detectedEvents = append(detectedEvents, ev)
	})

	require.NoError(t, env.store.SaveDocument(ctx, &models.DocumentMeta{
		LocalID:     "document_doc-1",
		RemoteID:    "doc-1",
		WorkspaceID: "workspace_ws-1",
		Title:       "Local title",
		Content:     "local content",
		SyncStatus:  models.SyncStatusModified,
		Version:     1,
	}))

	conflict, err := env.detector.Detect(ctx, "document_doc-1", &api.ConflictResponse{
		Message:         "version conflict",
		ExpectedVersion: 1,
		CurrentVersion:  2,
		Current: api.Document{
			ID:      "doc-1",
			Title:   "Remote title",
			Content: "remote content",
			Version: 2,
		},
	})
	require.NoError(t, err)
	require.NotNil(t, conflict)

	// Снимок обеих сторон полный: разрешение не потребует сети
	assert.Equal(t, models.ConflictContent, conflict.Kind)
	assert.Equal(t, "local content", conflict.Local.Content)
	assert.Equal(t, "remote content", conflict.Remote.Content)
	assert.Equal(t, int64(1), conflict.Local.Version)
	assert.Equal(t, int64(2), conflict.Remote.Version)

	doc, err := env.store.GetDocument(ctx, "document_doc-1")
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusConflict, doc.SyncStatus)

	require.Len(t, detectedEvents, 1)
	assert.Equal(t, conflict.ID, detectedEvents[0].ConflictID)
}

func TestDetector_DeletionConflictKind(t *testing.T) {
	env := newConflictEnv(t)
	ctx := context.Background()

	require.NoError(t, env.store.SaveDocument(ctx, &models.DocumentMeta{
		LocalID:     "document_doc-1",
		RemoteID:    "doc-1",
		WorkspaceID: "workspace_ws-1",
		Title:       "Edited locally",
		Content:     "still here",
		Version:     1,
	}))

	// Другая сторона удалила, мы изменили
	conflict, err := env.detector.Detect(ctx, "document_doc-1", &api.ConflictResponse{
		Message:        "version conflict",
		CurrentVersion: 2,
		Current: api.Document{
			ID:      "doc-1",
			Title:   "Edited locally",
			Content: "still here",
			Version: 2,
			Deleted: true,
		},
	})
	require.NoError(t, err)
	require.NotNil(t, conflict)
	assert.Equal(t, models.ConflictDeletion, conflict.Kind)
}

func TestResolver_KeepLocalRebasesAndRequeues(t *testing.T) {
	env := newConflictEnv(t)
	ctx := context.Background()

	require.NoError(t, env.store.SaveDocument(ctx, &models.DocumentMeta{
		LocalID:     "document_doc-1",
		RemoteID:    "doc-1",
		WorkspaceID: "workspace_ws-1",
		Title:       "Local title",
		Content:     "local content",
		SyncStatus:  models.SyncStatusConflict,
		Version:     1,
	}))

	// Отложенный автосейв несет конфликтный payload со старой базовой
	// версией — резолвер должен схлопнуться с ним, а не встать рядом
	require.NoError(t, env.store.SaveChange(ctx, &models.PendingChange{
		ID:        "ch-old",
		EntityID:  "document_doc-1",
		Operation: models.OpUpdate,
		Payload:   []byte(`{"content":"local content","expected_version":1}`),
		Priority:  models.PriorityNormal,
	}))

	var enqueued []events.ChangeEnqueued
	env.bus.OnChangeEnqueued(func(ev events.ChangeEnqueued) {
		enqueued = append(enqueued, ev)
	})

	conflict := &models.Conflict{
		ID:       "conf-1",
		EntityID: "document_doc-1",
		Kind:     models.ConflictContent,
		Local:    models.ConflictVersion{Title: "Local title", Content: "local content", Version: 1},
		Remote:   models.ConflictVersion{Title: "Remote title", Content: "remote content", Version: 4},
	}
	require.NoError(t, env.store.SaveConflict(ctx, conflict))

	require.NoError(t, env.resolver.Resolve(ctx, "conf-1", models.ChoiceLocal))

	// Базовая версия теперь серверная, контент остался локальным
	doc, err := env.store.GetDocument(ctx, "document_doc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), doc.Version)
	assert.Equal(t, "local content", doc.Content)
	assert.Equal(t, models.SyncStatusModified, doc.SyncStatus)

	// В очереди критичный update с ожидаемой версией 4, схлопнутый
	// со старым автосейвом
	changes, err := env.store.ListChanges(ctx, "")
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "ch-old", changes[0].ID)
	assert.Equal(t, models.OpUpdate, changes[0].Operation)
	assert.Equal(t, models.PriorityCritical, changes[0].Priority)
	assert.Contains(t, string(changes[0].Payload), `"expected_version":4`)

	// Постановка прошла через общий Enqueue очереди
	require.Len(t, enqueued, 1)
	assert.Equal(t, "document_doc-1", enqueued[0].EntityID)
	assert.Equal(t, models.PriorityCritical, enqueued[0].Priority)

	// Запись конфликта уничтожена
	_, err = env.store.GetConflict(ctx, "conf-1")
	assert.ErrorIs(t, err, storage.ErrConflictNotFound)
}

func TestResolver_KeepRemoteOverwritesLocal(t *testing.T) {
	env := newConflictEnv(t)
	ctx := context.Background()

	require.NoError(t, env.store.SaveDocument(ctx, &models.DocumentMeta{
		LocalID:     "document_doc-1",
		RemoteID:    "doc-1",
		WorkspaceID: "workspace_ws-1",
		Title:       "Local title",
		Content:     "local content",
		SyncStatus:  models.SyncStatusConflict,
		Version:     1,
	}))

	// Отложенное изменение несет отвергаемую локальную версию
	require.NoError(t, env.store.SaveChange(ctx, &models.PendingChange{
		ID:        "ch-1",
		EntityID:  "document_doc-1",
		Operation: models.OpUpdate,
		Payload:   []byte(`{"content":"local content"}`),
	}))

	conflict := &models.Conflict{
		ID:       "conf-1",
		EntityID: "document_doc-1",
		Kind:     models.ConflictContent,
		Local:    models.ConflictVersion{Title: "Local title", Content: "local content", Version: 1},
		Remote:   models.ConflictVersion{Title: "Remote title", Content: "remote content", Version: 4},
	}
	require.NoError(t, env.store.SaveConflict(ctx, conflict))

	require.NoError(t, env.resolver.Resolve(ctx, "conf-1", models.ChoiceRemote))

	doc, err := env.store.GetDocument(ctx, "document_doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Remote title", doc.Title)
	assert.Equal(t, "remote content", doc.Content)
	assert.Equal(t, int64(4), doc.Version)
	assert.Equal(t, models.SyncStatusSynced, doc.SyncStatus)

	// Отложенное изменение снято с очереди
	count, err := env.store.CountChanges(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestResolver_ResolveIsOneShot(t *testing.T) {
	env := newConflictEnv(t)
	ctx := context.Background()

	require.NoError(t, env.store.SaveDocument(ctx, &models.DocumentMeta{
		LocalID:     "document_doc-1",
		WorkspaceID: "workspace_ws-1",
		Version:     1,
	}))
	require.NoError(t, env.store.SaveConflict(ctx, &models.Conflict{
		ID:       "conf-1",
		EntityID: "document_doc-1",
		Remote:   models.ConflictVersion{Version: 2},
	}))

	require.NoError(t, env.resolver.Resolve(ctx, "conf-1", models.ChoiceRemote))

	err := env.resolver.Resolve(ctx, "conf-1", models.ChoiceRemote)
	assert.ErrorIs(t, err, storage.ErrConflictNotFound)
}

func TestResolver_UnknownChoice(t *testing.T) {
	env := newConflictEnv(t)
	ctx := context.Background()

	require.NoError(t, env.store.SaveDocument(ctx, &models.DocumentMeta{
		LocalID:     "document_doc-1",
		WorkspaceID: "workspace_ws-1",
	}))
	require.NoError(t, env.store.SaveConflict(ctx, &models.Conflict{
		ID:       "conf-1",
		EntityID: "document_doc-1",
	}))

	err := env.resolver.Resolve(ctx, "conf-1", models.ConflictChoice("merge"))
	assert.Error(t, err)

	// Конфликт не удален
	_, err = env.store.GetConflict(ctx, "conf-1")
	assert.NoError(t, err)
}

func TestDetector_ListReturnsUnresolved(t *testing.T) {
	env := newConflictEnv(t)
	ctx := context.Background()

	require.NoError(t, env.store.SaveConflict(ctx, &models.Conflict{
		ID: "conf-1", EntityID: "document_a", DetectedAt: time.Now(),
	}))
	require.NoError(t, env.store.SaveConflict(ctx, &models.Conflict{
		ID: "conf-2", EntityID: "document_b", DetectedAt: time.Now(),
	}))

	conflicts, err := env.detector.List(ctx)
	require.NoError(t, err)
	assert.Len(t, conflicts, 2)
}
