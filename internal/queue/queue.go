// Package queue provides the at-least-once work queue used between pipeline
// stages. Delivery state lives in the work_items table; handlers stay pure
// by returning a Result and leaving ack/retry mechanics to the worker.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/backrunner/skillscat/internal/db"
	"github.com/backrunner/skillscat/internal/log"
	"github.com/backrunner/skillscat/internal/models"
)

// Result reports the outcome of handling one message.
type Result struct {
	Err       error
	Retryable bool
}

// Processed marks a message as successfully handled. Dropped items
// (forks, missing manifests) are Processed too: there is nothing to retry.
func Processed() Result {
	return Result{}
}

// Failed marks a message as failed. Retryable failures are redelivered;
// non-retryable ones are acknowledged and dropped.
func Failed(err error, retryable bool) Result {
	return Result{Err: err, Retryable: retryable}
}

// Handler processes one decoded work item payload.
type Handler func(ctx context.Context, item models.WorkItem) Result

// Queue wraps the database-backed work queue.
type Queue struct {
	db          *db.DB
	maxAttempts int
	handlers    map[string]Handler
}

// New creates a queue with the given redelivery cap.
func New(database *db.DB, maxAttempts int) *Queue {
	return &Queue{
		db:          database,
		maxAttempts: maxAttempts,
		handlers:    make(map[string]Handler),
	}
}

// Send enqueues a payload under the given kind.
func (q *Queue) Send(kind string, payload interface{}) error {
	return q.db.EnqueueWorkItem(kind, payload)
}

// Register binds a handler to a work item kind.
func (q *Queue) Register(kind string, h Handler) {
	q.handlers[kind] = h
}

// ProcessBatch receives up to batchSize messages and dispatches each to its
// registered handler, acknowledging or retrying per the handler's Result.
// Returns the number of messages received.
func (q *Queue) ProcessBatch(ctx context.Context, batchSize int) (int, error) {
	items, err := q.db.ReceiveWorkItems(batchSize)
	if err != nil {
		return 0, fmt.Errorf("receive work items: %w", err)
	}

	for _, item := range items {
		if ctx.Err() != nil {
			// Interrupted: leave the rest inflight for redelivery.
			return len(items), ctx.Err()
		}

		handler, ok := q.handlers[item.Kind]
		if !ok {
			log.Errorf("queue: no handler for kind %s, dropping item %s", item.Kind, item.ID)
			_ = q.db.AckWorkItem(item.ID)
			continue
		}

		res := handler(ctx, item)
		switch {
		case res.Err == nil:
			if err := q.db.AckWorkItem(item.ID); err != nil {
				log.Errorf("queue: ack %s: %v", item.ID, err)
			}
		case res.Retryable:
			log.Errorf("queue: item %s (%s) failed, will retry: %v", item.ID, item.Kind, res.Err)
			if err := q.db.RetryWorkItem(item.ID, q.maxAttempts); err != nil {
				log.Errorf("queue: retry %s: %v", item.ID, err)
			}
		default:
			log.Errorf("queue: item %s (%s) dropped: %v", item.ID, item.Kind, res.Err)
			if err := q.db.AckWorkItem(item.ID); err != nil {
				log.Errorf("queue: ack %s: %v", item.ID, err)
			}
		}
	}
	return len(items), nil
}

// DecodePayload unmarshals a work item payload into dst.
func DecodePayload(item models.WorkItem, dst interface{}) error {
	if err := json.Unmarshal([]byte(item.Payload), dst); err != nil {
		return fmt.Errorf("decode %s payload: %w", item.Kind, err)
	}
	return nil
}
