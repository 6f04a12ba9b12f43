package db

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/backrunner/skillscat/internal/models"
)

// EnqueueWorkItem inserts a pending work item with a JSON-encoded payload.
func (db *DB) EnqueueWorkItem(kind string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	item := models.WorkItem{
		ID:      uuid.NewString(),
		Kind:    kind,
		Payload: string(data),
		Status:  models.WorkStatusPending,
	}
	return db.Create(&item).Error
}

// VisibilityTimeout is how long an inflight claim is honored. A consumer
// that neither acks nor retries within it is presumed crashed and the item
// is returned to pending on the next receive.
const VisibilityTimeout = 10 * time.Minute

// ReceiveWorkItems claims up to limit deliverable items, marking them
// inflight. Items whose next attempt time has not arrived are skipped.
// Inflight items whose claim has expired are reclaimed first, so a consumer
// crash cannot strand a message.
func (db *DB) ReceiveWorkItems(limit int) ([]models.WorkItem, error) {
	now := time.Now()
	var items []models.WorkItem

	err := db.Transaction(func(tx *DB) error {
		if err := tx.Model(&models.WorkItem{}).
			Where("status = ? AND updated_at < ?", models.WorkStatusInflight, now.Add(-VisibilityTimeout)).
			Update("status", models.WorkStatusPending).Error; err != nil {
			return err
		}
		if err := tx.Where("status = ? AND (next_attempt_at IS NULL OR next_attempt_at <= ?)",
			models.WorkStatusPending, now).
			Order("created_at ASC").
			Limit(limit).
			Find(&items).Error; err != nil {
			return err
		}
		for i := range items {
			if err := tx.Model(&models.WorkItem{}).Where("id = ?", items[i].ID).
				Update("status", models.WorkStatusInflight).Error; err != nil {
				return err
			}
			items[i].Status = models.WorkStatusInflight
		}
		return nil
	})
	return items, err
}

// AckWorkItem acknowledges successful processing by deleting the item.
func (db *DB) AckWorkItem(id string) error {
	return db.Delete(&models.WorkItem{}, "id = ?", id).Error
}

// RetryWorkItem returns an item to the queue with an incremented attempt
// count and a backoff delay. Items past maxAttempts are marked dead instead
// of redelivering forever.
func (db *DB) RetryWorkItem(id string, maxAttempts int) error {
	var item models.WorkItem
	if err := db.First(&item, "id = ?", id).Error; err != nil {
		return err
	}

	attempts := item.Attempts + 1
	if attempts >= maxAttempts {
		return db.Model(&models.WorkItem{}).Where("id = ?", id).
			Updates(map[string]interface{}{
				"status":   models.WorkStatusDead,
				"attempts": attempts,
			}).Error
	}

	// Linear backoff per attempt
	next := time.Now().Add(time.Duration(attempts) * time.Minute)
	return db.Model(&models.WorkItem{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":          models.WorkStatusPending,
			"attempts":        attempts,
			"next_attempt_at": next,
		}).Error
}

// CountWorkItems returns the number of items in a given status.
func (db *DB) CountWorkItems(status string) (int64, error) {
	var n int64
	err := db.Model(&models.WorkItem{}).Where("status = ?", status).Count(&n).Error
	return n, err
}
