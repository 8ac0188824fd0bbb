package workspaces

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
	"github.com/iudanet/notesync/internal/client/netmon"
	"github.com/iudanet/notesync/internal/client/storage/boltdb"
	"github.com/iudanet/notesync/internal/client/syncqueue"
	"github.com/iudanet/notesync/internal/models"
	"github.com/iudanet/notesync/pkg/api"
)

// nopDetector конфликтов workspace в этих тестах не бывает
type nopDetector struct{}

func (nopDetector) Detect(ctx context.Context, localID string, resp *api.ConflictResponse) (*models.Conflict, error) {
	return nil, nil
}

type serviceEnv struct {
	svc     *Service
	store   *boltdb.Storage
	apiMock *apiclient.ClientAPIMock
	monitor *netmon.Monitor
}

func newServiceEnv(t *testing.T) *serviceEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	env := &serviceEnv{
		store:   store,
		apiMock: &apiclient.ClientAPIMock{},
		monitor: netmon.New(logger),
	}

	queue := syncqueue.NewManager(
		store, store, store, store,
		idmap.New(store, logger),
		env.apiMock,
		nopDetector{},
		env.monitor,
		events.NewBus(),
		func(ctx context.Context) (string, error) { return "test-token", nil },
		syncqueue.DefaultConfig(),
		logger,
	)
	env.svc = NewService(store, store, queue, logger)

	return env
}

func TestService_SetActiveDrainsOutgoingWorkspace(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	env.apiMock.CreateWorkspaceFunc = func(ctx context.Context, token string, req api.WorkspaceCreateRequest) (*api.Workspace, error) {
		return &api.Workspace{ID: "srv-" + req.Name, Name: req.Name, Version: 1}, nil
	}

	// Оба workspace созданы offline, их create копятся в очереди
	first, err := env.svc.CreateWorkspace(ctx, "notes")
	require.NoError(t, err)
	second, err := env.svc.CreateWorkspace(ctx, "archive")
	require.NoError(t, err)

	// Первый выбор: уходящего workspace нет, сеть не трогаем
	require.NoError(t, env.svc.SetActive(ctx, first.LocalID))
	assert.Empty(t, env.apiMock.CreateWorkspaceCalls())

	// Переключение выталкивает очередь уходящего workspace
	env.monitor.SetOnline(true)
	require.NoError(t, env.svc.SetActive(ctx, second.LocalID))

	calls := env.apiMock.CreateWorkspaceCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "notes", calls[0].Req.Name)

	// Запись второго workspace осталась ждать фоновых проходов
	count, err := env.store.CountChanges(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	active, err := env.svc.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.LocalID, active)

	// Уходящий workspace подтвержден сервером
	ws, err := env.store.GetWorkspace(ctx, first.LocalID)
	require.NoError(t, err)
	assert.Equal(t, "srv-notes", ws.RemoteID)
	assert.Equal(t, int64(1), ws.Version)
}

func TestService_SetActiveOfflineSwitchKeepsQueue(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	first, err := env.svc.CreateWorkspace(ctx, "notes")
	require.NoError(t, err)
	second, err := env.svc.CreateWorkspace(ctx, "archive")
	require.NoError(t, err)

	require.NoError(t, env.svc.SetActive(ctx, first.LocalID))

	// Offline переключение не блокируется и ничего не теряет
	require.NoError(t, env.svc.SetActive(ctx, second.LocalID))

	count, err := env.store.CountChanges(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	active, err := env.svc.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.LocalID, active)
}
