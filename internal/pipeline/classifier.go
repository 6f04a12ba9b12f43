package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/backrunner/skillscat/internal/blob"
	"github.com/backrunner/skillscat/internal/classify"
	"github.com/backrunner/skillscat/internal/db"
	"github.com/backrunner/skillscat/internal/models"
	"github.com/backrunner/skillscat/internal/queue"
)

// ClassifyWorker consumes Classify items: it reads the manifest from the
// blob store, runs the classifier cascade, and atomically replaces the
// skill's category associations.
type ClassifyWorker struct {
	db      *db.DB
	blobs   blob.Store
	cascade *classify.Cascade
}

// NewClassifyWorker creates the classification consumer.
func NewClassifyWorker(database *db.DB, blobs blob.Store, cascade *classify.Cascade) *ClassifyWorker {
	return &ClassifyWorker{db: database, blobs: blobs, cascade: cascade}
}

// Handle processes one Classify item. A missing blob means there is nothing
// to classify; the item is dropped without retry. A cascade failure (remote
// errors on every tier) is retryable.
func (w *ClassifyWorker) Handle(ctx context.Context, item models.WorkItem) queue.Result {
	var task models.Classify
	if err := queue.DecodePayload(item, &task); err != nil {
		return queue.Failed(err, false)
	}

	content, err := w.blobs.Get(ctx, task.BlobPath)
	if err != nil {
		if errors.Is(err, blob.ErrNotExist) {
			return queue.Processed()
		}
		return queue.Failed(fmt.Errorf("read manifest blob: %w", err), true)
	}

	picks, err := w.cascade.Classify(ctx, string(content))
	if err != nil {
		return queue.Failed(err, true)
	}

	if err := w.db.ReplaceSkillCategories(task.SkillID, picks); err != nil {
		return queue.Failed(fmt.Errorf("replace categories: %w", err), true)
	}
	return queue.Processed()
}
