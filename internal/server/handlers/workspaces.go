package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/iudanet/notesync/internal/server/middleware"
	"github.com/iudanet/notesync/internal/server/storage"
	"github.com/iudanet/notesync/internal/validation"
	"github.com/iudanet/notesync/pkg/api"
)

// WorkspaceHandler обрабатывает запросы workspaces и папок
type WorkspaceHandler struct {
	logger  *slog.Logger
	storage storage.WorkspaceStorage
}

// NewWorkspaceHandler создает новый handler для workspaces
func NewWorkspaceHandler(logger *slog.Logger, wsStorage storage.WorkspaceStorage) *WorkspaceHandler {
	return &WorkspaceHandler{
		logger:  logger,
		storage: wsStorage,
	}
}

// CreateWorkspace обрабатывает POST /api/v1/workspaces
func (h *WorkspaceHandler) CreateWorkspace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID := middleware.UserID(ctx)

	var req api.WorkspaceCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := validation.ValidateName(req.Name); err != nil {
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	id := req.ID
	if id == "" {
		id = uuid.New().String()
	}

	ws, err := h.storage.CreateWorkspace(ctx, &storage.Workspace{
		ID:      id,
		OwnerID: ownerID,
		Name:    req.Name,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create workspace", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(h.logger, w, toAPIWorkspace(ws), http.StatusCreated)
}

// ListWorkspaces обрабатывает GET /api/v1/workspaces
func (h *WorkspaceHandler) ListWorkspaces(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID := middleware.UserID(ctx)

	workspaces, err := h.storage.ListWorkspaces(ctx, ownerID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list workspaces", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := make([]api.Workspace, 0, len(workspaces))
	for _, ws := range workspaces {
		resp = append(resp, toAPIWorkspace(ws))
	}

	sendJSON(h.logger, w, resp, http.StatusOK)
}

// UpdateWorkspace обрабатывает PUT /api/v1/workspaces/{id}
func (h *WorkspaceHandler) UpdateWorkspace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID := middleware.UserID(ctx)
	id := r.PathValue("id")

	var req api.WorkspaceUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Name != nil {
		if err := validation.ValidateName(*req.Name); err != nil {
			sendError(h.logger, w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	var expectedVersion int64
	if req.ExpectedVersion != nil {
		expectedVersion = *req.ExpectedVersion
	}

	ws, err := h.storage.UpdateWorkspace(ctx, ownerID, id, req.Name, expectedVersion)
	switch {
	case err == nil:
		sendJSON(h.logger, w, toAPIWorkspace(ws), http.StatusOK)

	case errors.Is(err, storage.ErrVersionMismatch):
		h.sendWorkspaceConflict(ctx, w, ownerID, id, expectedVersion)

	case errors.Is(err, storage.ErrWorkspaceNotFound):
		sendError(h.logger, w, "workspace not found", http.StatusNotFound)

	default:
		h.logger.ErrorContext(ctx, "failed to update workspace", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
	}
}

// CreateFolder обрабатывает POST /api/v1/folders
func (h *WorkspaceHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID := middleware.UserID(ctx)

	var req api.FolderCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := validation.ValidateName(req.Name); err != nil {
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.WorkspaceID == "" {
		sendError(h.logger, w, "workspace_id is required", http.StatusBadRequest)
		return
	}

	id := req.ID
	if id == "" {
		id = uuid.New().String()
	}

	folder, err := h.storage.CreateFolder(ctx, &storage.Folder{
		ID:          id,
		OwnerID:     ownerID,
		WorkspaceID: req.WorkspaceID,
		ParentID:    req.ParentID,
		Name:        req.Name,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create folder", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(h.logger, w, toAPIFolder(folder), http.StatusCreated)
}

// ListFolders обрабатывает GET /api/v1/folders?workspace_id={id}
func (h *WorkspaceHandler) ListFolders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID := middleware.UserID(ctx)

	workspaceID := r.URL.Query().Get("workspace_id")
	if workspaceID == "" {
		sendError(h.logger, w, "workspace_id is required", http.StatusBadRequest)
		return
	}

	folders, err := h.storage.ListFolders(ctx, ownerID, workspaceID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list folders", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := make([]api.Folder, 0, len(folders))
	for _, folder := range folders {
		resp = append(resp, toAPIFolder(folder))
	}

	sendJSON(h.logger, w, resp, http.StatusOK)
}

// UpdateFolder обрабатывает PUT /api/v1/folders/{id}
func (h *WorkspaceHandler) UpdateFolder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID := middleware.UserID(ctx)
	id := r.PathValue("id")

	var req api.FolderUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Name != nil {
		if err := validation.ValidateName(*req.Name); err != nil {
			sendError(h.logger, w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	var expectedVersion int64
	if req.ExpectedVersion != nil {
		expectedVersion = *req.ExpectedVersion
	}

	folder, err := h.storage.UpdateFolder(ctx, ownerID, id, req.Name, req.ParentID, expectedVersion)
	switch {
	case err == nil:
		sendJSON(h.logger, w, toAPIFolder(folder), http.StatusOK)

	case errors.Is(err, storage.ErrVersionMismatch):
		h.sendFolderConflict(ctx, w, ownerID, id, expectedVersion)

	case errors.Is(err, storage.ErrFolderNotFound):
		sendError(h.logger, w, "folder not found", http.StatusNotFound)

	default:
		h.logger.ErrorContext(ctx, "failed to update folder", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
	}
}

// DeleteFolder обрабатывает DELETE /api/v1/folders/{id}?expected_version=N
func (h *WorkspaceHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID := middleware.UserID(ctx)
	id := r.PathValue("id")

	var expectedVersion int64
	if raw := r.URL.Query().Get("expected_version"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			sendError(h.logger, w, "invalid expected_version", http.StatusBadRequest)
			return
		}
		expectedVersion = parsed
	}

	err := h.storage.DeleteFolder(ctx, ownerID, id, expectedVersion)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)

	case errors.Is(err, storage.ErrVersionMismatch):
		h.sendFolderConflict(ctx, w, ownerID, id, expectedVersion)

	case errors.Is(err, storage.ErrFolderNotFound):
		sendError(h.logger, w, "folder not found", http.StatusNotFound)

	default:
		h.logger.ErrorContext(ctx, "failed to delete folder", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
	}
}

// sendWorkspaceConflict отвечает 409 с текущей версией workspace.
// Метаданные разрешаются по last-write-wins на клиенте, поэтому
// телу достаточно current_version.
func (h *WorkspaceHandler) sendWorkspaceConflict(ctx context.Context, w http.ResponseWriter, ownerID, id string, expectedVersion int64) {
	ws, err := h.storage.GetWorkspace(ctx, ownerID, id)
	if err != nil {
		sendError(h.logger, w, "version conflict", http.StatusConflict)
		return
	}

	sendJSON(h.logger, w, api.ConflictResponse{
		Message:         "version conflict",
		ExpectedVersion: expectedVersion,
		CurrentVersion:  ws.Version,
	}, http.StatusConflict)
}

func (h *WorkspaceHandler) sendFolderConflict(ctx context.Context, w http.ResponseWriter, ownerID, id string, expectedVersion int64) {
	folder, err := h.storage.GetFolder(ctx, ownerID, id)
	if err != nil {
		sendError(h.logger, w, "version conflict", http.StatusConflict)
		return
	}

	sendJSON(h.logger, w, api.ConflictResponse{
		Message:         "version conflict",
		ExpectedVersion: expectedVersion,
		CurrentVersion:  folder.Version,
	}, http.StatusConflict)
}

func toAPIWorkspace(ws *storage.Workspace) api.Workspace {
	return api.Workspace{
		CreatedAt: ws.CreatedAt,
		UpdatedAt: ws.UpdatedAt,
		ID:        ws.ID,
		Name:      ws.Name,
		Version:   ws.Version,
		Deleted:   ws.Deleted,
	}
}

func toAPIFolder(folder *storage.Folder) api.Folder {
	return api.Folder{
		CreatedAt:   folder.CreatedAt,
		UpdatedAt:   folder.UpdatedAt,
		ID:          folder.ID,
		WorkspaceID: folder.WorkspaceID,
		ParentID:    folder.ParentID,
		Name:        folder.Name,
		Version:     folder.Version,
		Deleted:     folder.Deleted,
	}
}
