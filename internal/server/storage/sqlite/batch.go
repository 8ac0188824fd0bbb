package sqlite

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/notesync/internal/server/storage"
)

// ApplyBatch applies a set of document operations. Операции выполняются
// в порядке, заданном клиентом (очередь клиента уже упорядочена
// create -> update -> delete внутри сущности).
//
// В atomic режиме весь пакет идет в одной транзакции: первая неудачная
// операция откатывает все, успевшие выполниться операции помечаются
// skipped. В обычном режиме каждая операция независима.
func (s *Storage) ApplyBatch(ctx context.Context, ownerID string, batch storage.Batch) (*storage.BatchOutcome, error) {
	if batch.Atomic {
		return s.applyBatchAtomic(ctx, ownerID, batch)
	}

	outcome := &storage.BatchOutcome{
		Results: make([]storage.BatchOpResult, 0, len(batch.Operations)),
	}
	for _, op := range batch.Operations {
		outcome.Results = append(outcome.Results, s.applyBatchOp(ctx, s.db, ownerID, op))
	}

	return outcome, nil
}

func (s *Storage) applyBatchAtomic(ctx context.Context, ownerID string, batch storage.Batch) (*storage.BatchOutcome, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin batch transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	outcome := &storage.BatchOutcome{
		Results: make([]storage.BatchOpResult, 0, len(batch.Operations)),
	}

	failed := false
	for _, op := range batch.Operations {
		if failed {
			outcome.Results = append(outcome.Results, storage.BatchOpResult{
				ClientID: op.ClientID,
				Status:   "skipped",
			})
			continue
		}

		result := s.applyBatchOp(ctx, tx, ownerID, op)
		if result.Status != "success" {
			failed = true
			// Откат обесценивает уже выполненные операции
			for i := range outcome.Results {
				outcome.Results[i] = storage.BatchOpResult{
					ClientID: outcome.Results[i].ClientID,
					Status:   "skipped",
				}
			}
		}
		outcome.Results = append(outcome.Results, result)
	}

	if failed {
		return outcome, nil
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit batch transaction: %w", err)
	}

	return outcome, nil
}

func (s *Storage) applyBatchOp(ctx context.Context, q dbtx, ownerID string, op storage.BatchOp) storage.BatchOpResult {
	result := storage.BatchOpResult{ClientID: op.ClientID}

	var (
		doc *storage.Document
		err error
	)

	switch op.Kind {
	case "create":
		doc, err = createDocument(ctx, q, op.Create)
	case "update":
		doc, err = updateDocument(ctx, q, ownerID, op.DocumentID, *op.Update, op.ExpectedVersion)
	case "delete":
		err = deleteDocument(ctx, q, ownerID, op.DocumentID, op.ExpectedVersion)
	default:
		result.Status = "error"
		result.Err = fmt.Sprintf("unknown operation kind: %s", op.Kind)
		return result
	}

	switch {
	case err == nil:
		result.Status = "success"
		result.Doc = doc
	case errors.Is(err, storage.ErrVersionMismatch):
		result.Status = "conflict"
		result.Err = err.Error()
		// Текущее состояние нужно клиенту для детектора конфликтов
		if current, getErr := getDocument(ctx, q, ownerID, op.DocumentID); getErr == nil {
			result.Current = current
		}
	case errors.Is(err, storage.ErrDocumentNotFound):
		result.Status = "error"
		result.Err = err.Error()
	default:
		result.Status = "error"
		result.Err = err.Error()
	}

	return result
}
