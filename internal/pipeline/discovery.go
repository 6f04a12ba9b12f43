// Package pipeline contains the asynchronous ingestion, classification, and
// lifecycle-tiering workers.
package pipeline

import (
	"context"
	"fmt"
	"strconv"

	"github.com/backrunner/skillscat/internal/config"
	"github.com/backrunner/skillscat/internal/db"
	"github.com/backrunner/skillscat/internal/log"
	"github.com/backrunner/skillscat/internal/models"
	"github.com/backrunner/skillscat/internal/queue"
	"github.com/backrunner/skillscat/internal/source"
)

// EventFeed is the slice of the source platform the discovery worker needs.
type EventFeed interface {
	ListPublicEvents(ctx context.Context, perPage int) ([]source.Event, error)
}

// TickEvent is one event ProcessTick decided is new. Check is nil for event
// types that do not indicate a content push; those are marked processed
// without enqueueing.
type TickEvent struct {
	EventID string
	Check   *models.CheckSkill
}

// ProcessTick is the pure core of event discovery: given the persisted
// cursor and one page of events (newest first), it returns the new cursor
// and the events newer than the cursor. The caller persists the cursor
// before per-event processing, so a crash mid-batch cannot replay the
// newest id as new; older unprocessed events in the batch are covered by
// the per-event dedup markers.
func ProcessTick(cursor string, events []source.Event) (string, []TickEvent) {
	newCursor := cursor
	if len(events) > 0 && newerThan(events[0].ID, cursor) {
		newCursor = events[0].ID
	}

	var out []TickEvent
	for _, e := range events {
		if !newerThan(e.ID, cursor) {
			continue
		}
		te := TickEvent{EventID: e.ID}
		if e.IsPush() {
			te.Check = &models.CheckSkill{Owner: e.Owner, Repo: e.Repo}
		}
		out = append(out, te)
	}
	return newCursor, out
}

// newerThan compares numeric event ids, falling back to string order for
// non-numeric ids. An empty cursor means everything is new.
func newerThan(id, cursor string) bool {
	if cursor == "" {
		return true
	}
	a, errA := strconv.ParseUint(id, 10, 64)
	b, errB := strconv.ParseUint(cursor, 10, 64)
	if errA == nil && errB == nil {
		return a > b
	}
	return id > cursor
}

// Discovery polls the public event feed and enqueues CheckSkill items for
// pushed repositories.
type Discovery struct {
	db    *db.DB
	feed  EventFeed
	queue *queue.Queue
	cfg   config.DiscoveryConfig
}

// NewDiscovery creates the event discovery worker.
func NewDiscovery(database *db.DB, feed EventFeed, q *queue.Queue, cfg config.DiscoveryConfig) *Discovery {
	return &Discovery{db: database, feed: feed, queue: q, cfg: cfg}
}

// Tick runs one discovery cycle. A fetch failure aborts the tick and is
// retried on the next schedule; it is not fatal to the process.
func (d *Discovery) Tick(ctx context.Context) (int, error) {
	events, err := d.feed.ListPublicEvents(ctx, d.cfg.PageSize)
	if err != nil {
		return 0, fmt.Errorf("fetch events: %w", err)
	}

	cursor, err := d.db.GetSyncMeta(models.SyncMetaLastEventID)
	if err != nil {
		return 0, fmt.Errorf("load event cursor: %w", err)
	}

	newCursor, ticks := ProcessTick(cursor, events)

	// Advance the cursor before per-event processing.
	if newCursor != cursor {
		if err := d.db.SetSyncMeta(models.SyncMetaLastEventID, newCursor); err != nil {
			return 0, fmt.Errorf("persist event cursor: %w", err)
		}
	}

	enqueued := 0
	for _, te := range ticks {
		fresh, err := d.db.MarkEventProcessed(te.EventID, d.cfg.DedupTTL)
		if err != nil {
			log.Errorf("discovery: mark event %s: %v", te.EventID, err)
			continue
		}
		if !fresh || te.Check == nil {
			continue
		}
		if err := d.queue.Send(models.KindCheckSkill, te.Check); err != nil {
			log.Errorf("discovery: enqueue %s/%s: %v", te.Check.Owner, te.Check.Repo, err)
			continue
		}
		enqueued++
	}

	return enqueued, nil
}
