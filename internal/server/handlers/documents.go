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

// DocumentHandler обрабатывает CRUD запросы документов
type DocumentHandler struct {
	logger  *slog.Logger
	storage storage.DocumentStorage
}

// NewDocumentHandler создает новый handler для документов
func NewDocumentHandler(logger *slog.Logger, docStorage storage.DocumentStorage) *DocumentHandler {
	return &DocumentHandler{
		logger:  logger,
		storage: docStorage,
	}
}

// Create обрабатывает POST /api/v1/documents.
// id в запросе клиентский и служит idempotency key: повторный create
// возвращает существующий документ, а не дубликат.
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID := middleware.UserID(ctx)

	var req api.DocumentCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := validation.ValidateTitle(req.Title); err != nil {
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

	doc, err := h.storage.CreateDocument(ctx, &storage.Document{
		ID:          id,
		OwnerID:     ownerID,
		WorkspaceID: req.WorkspaceID,
		FolderID:    req.FolderID,
		Title:       req.Title,
		Content:     req.Content,
		ContentType: req.ContentType,
		StorageMode: req.StorageMode,
		CRDTState:   req.CRDTState,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create document", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "document created",
		slog.String("document_id", doc.ID),
		slog.String("workspace_id", doc.WorkspaceID))

	sendJSON(h.logger, w, toAPIDocument(doc), http.StatusCreated)
}

// Get обрабатывает GET /api/v1/documents/{id}
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID := middleware.UserID(ctx)
	id := r.PathValue("id")

	doc, err := h.storage.GetDocument(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, storage.ErrDocumentNotFound) {
			sendError(h.logger, w, "document not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get document", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(h.logger, w, toAPIDocument(doc), http.StatusOK)
}

// List обрабатывает GET /api/v1/documents?workspace_id={id}
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID := middleware.UserID(ctx)

	workspaceID := r.URL.Query().Get("workspace_id")
	if workspaceID == "" {
		sendError(h.logger, w, "workspace_id is required", http.StatusBadRequest)
		return
	}

	docs, err := h.storage.ListDocuments(ctx, ownerID, workspaceID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list documents", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := make([]api.Document, 0, len(docs))
	for _, doc := range docs {
		resp = append(resp, toAPIDocument(doc))
	}

	sendJSON(h.logger, w, resp, http.StatusOK)
}

// Update обрабатывает PUT /api/v1/documents/{id}.
// При несовпадении expected_version отвечает 409 с полным текущим
// состоянием документа, чтобы клиент построил конфликт без
// дополнительного запроса.
func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID := middleware.UserID(ctx)
	id := r.PathValue("id")

	var req api.DocumentUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Title != nil {
		if err := validation.ValidateTitle(*req.Title); err != nil {
			sendError(h.logger, w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	var expectedVersion int64
	if req.ExpectedVersion != nil {
		expectedVersion = *req.ExpectedVersion
	}

	doc, err := h.storage.UpdateDocument(ctx, ownerID, id, storage.DocumentUpdate{
		Title:       req.Title,
		Content:     req.Content,
		FolderID:    req.FolderID,
		StorageMode: req.StorageMode,
		CRDTState:   req.CRDTState,
	}, expectedVersion)

	switch {
	case err == nil:
		sendJSON(h.logger, w, toAPIDocument(doc), http.StatusOK)

	case errors.Is(err, storage.ErrVersionMismatch):
		h.sendConflict(ctx, w, ownerID, id, expectedVersion)

	case errors.Is(err, storage.ErrDocumentNotFound):
		sendError(h.logger, w, "document not found", http.StatusNotFound)

	default:
		h.logger.ErrorContext(ctx, "failed to update document", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
	}
}

// Delete обрабатывает DELETE /api/v1/documents/{id}?expected_version=N.
// Soft delete: запись остается, повторный delete идемпотентен.
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	err := h.storage.DeleteDocument(ctx, ownerID, id, expectedVersion)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)

	case errors.Is(err, storage.ErrVersionMismatch):
		h.sendConflict(ctx, w, ownerID, id, expectedVersion)

	case errors.Is(err, storage.ErrDocumentNotFound):
		sendError(h.logger, w, "document not found", http.StatusNotFound)

	default:
		h.logger.ErrorContext(ctx, "failed to delete document", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
	}
}

// sendConflict отвечает 409 с текущим состоянием документа
func (h *DocumentHandler) sendConflict(ctx context.Context, w http.ResponseWriter, ownerID, id string, expectedVersion int64) {
	current, err := h.storage.GetDocument(ctx, ownerID, id)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load document for conflict response", slog.Any("error", err))
		sendError(h.logger, w, "version conflict", http.StatusConflict)
		return
	}

	sendJSON(h.logger, w, api.ConflictResponse{
		Message:         "version conflict",
		ExpectedVersion: expectedVersion,
		CurrentVersion:  current.Version,
		Current:         toAPIDocument(current),
	}, http.StatusConflict)
}

// toAPIDocument конвертирует серверную модель в API формат
func toAPIDocument(doc *storage.Document) api.Document {
	return api.Document{
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
		ID:          doc.ID,
		WorkspaceID: doc.WorkspaceID,
		FolderID:    doc.FolderID,
		Title:       doc.Title,
		Content:     doc.Content,
		ContentType: doc.ContentType,
		StorageMode: doc.StorageMode,
		CRDTState:   doc.CRDTState,
		Version:     doc.Version,
		Deleted:     doc.Deleted,
	}
}
