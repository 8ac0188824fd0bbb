package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/notesync/internal/server/middleware"
	"github.com/iudanet/notesync/internal/server/storage"
	"github.com/iudanet/notesync/pkg/api"
)

// BatchHandler обрабатывает пакетную синхронизацию документов
type BatchHandler struct {
	logger  *slog.Logger
	storage storage.DocumentStorage
}

// NewBatchHandler создает новый handler пакетной синхронизации
func NewBatchHandler(logger *slog.Logger, docStorage storage.DocumentStorage) *BatchHandler {
	return &BatchHandler{
		logger:  logger,
		storage: docStorage,
	}
}

// Batch обрабатывает POST /api/v1/documents/batch.
// Операции применяются в порядке create -> update -> delete независимо
// от порядка во входном списке. В atomic режиме любая ошибка означает
// HTTP 409 и ни одна операция не применяется.
func (h *BatchHandler) Batch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID := middleware.UserID(ctx)
	start := time.Now()

	var req api.BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if len(req.Operations) < api.BatchMinOperations || len(req.Operations) > api.BatchMaxOperations {
		sendError(h.logger, w,
			fmt.Sprintf("batch must contain between %d and %d operations", api.BatchMinOperations, api.BatchMaxOperations),
			http.StatusBadRequest)
		return
	}

	batch, err := h.buildBatch(ownerID, req)
	if err != nil {
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	outcome, err := h.storage.ApplyBatch(ctx, ownerID, *batch)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to apply batch", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := h.buildResponse(outcome, time.Since(start))

	status := http.StatusOK
	if req.Atomic && resp.Failed > 0 {
		status = http.StatusConflict
	}

	h.logger.InfoContext(ctx, "batch processed",
		slog.String("workspace_id", req.WorkspaceID),
		slog.Bool("atomic", req.Atomic),
		slog.Int("total", resp.Total),
		slog.Int("successful", resp.Successful),
		slog.Int("failed", resp.Failed),
		slog.Int64("processing_time_ms", resp.ProcessingTimeMS))

	sendJSON(h.logger, w, resp, status)
}

// buildBatch валидирует операции и переводит их в storage формат,
// упорядочивая create -> update -> delete
func (h *BatchHandler) buildBatch(ownerID string, req api.BatchRequest) (*storage.Batch, error) {
	ops := make([]storage.BatchOp, 0, len(req.Operations))

	for i, op := range req.Operations {
		if op.ClientID == "" {
			return nil, fmt.Errorf("operation %d: client_id is required", i)
		}

		switch op.Operation {
		case api.BatchOpCreate:
			if op.Data == nil {
				return nil, fmt.Errorf("operation %d: create requires data", i)
			}
			id := op.Data.ID
			if id == "" {
				id = uuid.New().String()
			}
			ops = append(ops, storage.BatchOp{
				ClientID:   op.ClientID,
				Kind:       op.Operation,
				DocumentID: id,
				Create: &storage.Document{
					ID:          id,
					OwnerID:     ownerID,
					WorkspaceID: op.Data.WorkspaceID,
					FolderID:    op.Data.FolderID,
					Title:       op.Data.Title,
					Content:     op.Data.Content,
					ContentType: op.Data.ContentType,
					StorageMode: op.Data.StorageMode,
					CRDTState:   op.Data.CRDTState,
				},
			})

		case api.BatchOpUpdate:
			if op.Update == nil || op.DocumentID == "" {
				return nil, fmt.Errorf("operation %d: update requires document_id and update body", i)
			}
			var expected int64
			if op.Update.ExpectedVersion != nil {
				expected = *op.Update.ExpectedVersion
			} else if op.ExpectedVersion != nil {
				expected = *op.ExpectedVersion
			}
			ops = append(ops, storage.BatchOp{
				ClientID:   op.ClientID,
				Kind:       op.Operation,
				DocumentID: op.DocumentID,
				Update: &storage.DocumentUpdate{
					Title:       op.Update.Title,
					Content:     op.Update.Content,
					FolderID:    op.Update.FolderID,
					StorageMode: op.Update.StorageMode,
					CRDTState:   op.Update.CRDTState,
				},
				ExpectedVersion: expected,
			})

		case api.BatchOpDelete:
			if op.DocumentID == "" {
				return nil, fmt.Errorf("operation %d: delete requires document_id", i)
			}
			var expected int64
			if op.ExpectedVersion != nil {
				expected = *op.ExpectedVersion
			}
			ops = append(ops, storage.BatchOp{
				ClientID:        op.ClientID,
				Kind:            op.Operation,
				DocumentID:      op.DocumentID,
				ExpectedVersion: expected,
			})

		default:
			return nil, fmt.Errorf("operation %d: unknown operation %q", i, op.Operation)
		}
	}

	sort.SliceStable(ops, func(i, j int) bool {
		return opOrder(ops[i].Kind) < opOrder(ops[j].Kind)
	})

	return &storage.Batch{
		WorkspaceID: req.WorkspaceID,
		Atomic:      req.Atomic,
		Operations:  ops,
	}, nil
}

func opOrder(kind string) int {
	switch kind {
	case api.BatchOpCreate:
		return 0
	case api.BatchOpUpdate:
		return 1
	default:
		return 2
	}
}

func (h *BatchHandler) buildResponse(outcome *storage.BatchOutcome, elapsed time.Duration) *api.BatchResponse {
	resp := &api.BatchResponse{
		Total:            len(outcome.Results),
		ProcessingTimeMS: elapsed.Milliseconds(),
		Results:          make([]api.BatchResult, 0, len(outcome.Results)),
	}

	for _, result := range outcome.Results {
		br := api.BatchResult{
			ClientID: result.ClientID,
			Status:   result.Status,
			Error:    result.Err,
		}

		switch result.Status {
		case api.BatchStatusSuccess:
			resp.Successful++
			if result.Doc != nil {
				br.DocumentID = result.Doc.ID
				br.Version = result.Doc.Version
			}

		case api.BatchStatusConflict:
			resp.Failed++
			if result.Current != nil {
				br.ConflictData = &api.ConflictResponse{
					Message:        "version conflict",
					CurrentVersion: result.Current.Version,
					Current:        toAPIDocument(result.Current),
				}
			}

		case api.BatchStatusError:
			resp.Failed++
		}

		resp.Results = append(resp.Results, br)
	}

	return resp
}
