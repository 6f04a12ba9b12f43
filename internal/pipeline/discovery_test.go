package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backrunner/skillscat/internal/config"
	"github.com/backrunner/skillscat/internal/models"
	"github.com/backrunner/skillscat/internal/queue"
	"github.com/backrunner/skillscat/internal/source"
)

func TestProcessTick_EmptyCursorTakesEverything(t *testing.T) {
	events := []source.Event{
		{ID: "300", Type: source.PushEventType, Owner: "alice", Repo: "tools"},
		{ID: "200", Type: "WatchEvent", Owner: "bob", Repo: "misc"},
		{ID: "100", Type: source.PushEventType, Owner: "carol", Repo: "skills"},
	}

	cursor, ticks := ProcessTick("", events)
	assert.Equal(t, "300", cursor)
	require.Len(t, ticks, 3)

	assert.NotNil(t, ticks[0].Check)
	assert.Equal(t, "alice", ticks[0].Check.Owner)
	assert.Nil(t, ticks[1].Check) // non-push events carry no work
	assert.NotNil(t, ticks[2].Check)
}

func TestProcessTick_CursorFiltersOldEvents(t *testing.T) {
	events := []source.Event{
		{ID: "300", Type: source.PushEventType, Owner: "alice", Repo: "tools"},
		{ID: "200", Type: source.PushEventType, Owner: "bob", Repo: "misc"},
		{ID: "100", Type: source.PushEventType, Owner: "carol", Repo: "skills"},
	}

	cursor, ticks := ProcessTick("200", events)
	assert.Equal(t, "300", cursor)
	require.Len(t, ticks, 1)
	assert.Equal(t, "300", ticks[0].EventID)
}

func TestProcessTick_NothingNewKeepsCursor(t *testing.T) {
	events := []source.Event{
		{ID: "300", Type: source.PushEventType, Owner: "alice", Repo: "tools"},
	}

	cursor, ticks := ProcessTick("300", events)
	assert.Equal(t, "300", cursor)
	assert.Empty(t, ticks)
}

func TestProcessTick_EmptyPage(t *testing.T) {
	cursor, ticks := ProcessTick("42", nil)
	assert.Equal(t, "42", cursor)
	assert.Empty(t, ticks)
}

func TestProcessTick_NumericComparison(t *testing.T) {
	// "900" < "1000" numerically even though "900" > "1000" as strings.
	events := []source.Event{
		{ID: "1000", Type: source.PushEventType, Owner: "alice", Repo: "tools"},
	}

	cursor, ticks := ProcessTick("900", events)
	assert.Equal(t, "1000", cursor)
	assert.Len(t, ticks, 1)
}

func discoveryConfig() config.DiscoveryConfig {
	return config.DiscoveryConfig{PageSize: 100, DedupTTL: 24 * time.Hour}
}

func TestDiscovery_TickEnqueuesPushes(t *testing.T) {
	database := testDB(t)
	q := queue.New(database, 5)
	feed := &fakeFeed{events: []source.Event{
		{ID: "300", Type: source.PushEventType, Owner: "alice", Repo: "tools", CreatedAt: time.Now()},
		{ID: "200", Type: "WatchEvent", Owner: "bob", Repo: "misc", CreatedAt: time.Now()},
	}}

	d := NewDiscovery(database, feed, q, discoveryConfig())

	enqueued, err := d.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, enqueued)

	cursor, err := database.GetSyncMeta(models.SyncMetaLastEventID)
	require.NoError(t, err)
	assert.Equal(t, "300", cursor)

	pending, err := database.CountWorkItems(models.WorkStatusPending)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)
}

func TestDiscovery_TickIsIdempotent(t *testing.T) {
	database := testDB(t)
	q := queue.New(database, 5)
	feed := &fakeFeed{events: []source.Event{
		{ID: "300", Type: source.PushEventType, Owner: "alice", Repo: "tools", CreatedAt: time.Now()},
	}}

	d := NewDiscovery(database, feed, q, discoveryConfig())

	enqueued, err := d.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, enqueued)

	// Same page again: cursor filters everything, nothing is re-enqueued.
	enqueued, err = d.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, enqueued)

	pending, err := database.CountWorkItems(models.WorkStatusPending)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)
}

func TestDiscovery_MarkersDedupAcrossCursorReset(t *testing.T) {
	database := testDB(t)
	q := queue.New(database, 5)
	feed := &fakeFeed{events: []source.Event{
		{ID: "300", Type: source.PushEventType, Owner: "alice", Repo: "tools", CreatedAt: time.Now()},
	}}

	d := NewDiscovery(database, feed, q, discoveryConfig())

	_, err := d.Tick(context.Background())
	require.NoError(t, err)

	// A lost cursor must not replay events still covered by dedup markers.
	require.NoError(t, database.SetSyncMeta(models.SyncMetaLastEventID, ""))

	enqueued, err := d.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, enqueued)
}

func TestDiscovery_FetchFailureAbortsTick(t *testing.T) {
	database := testDB(t)
	q := queue.New(database, 5)
	feed := &fakeFeed{err: assert.AnError}

	d := NewDiscovery(database, feed, q, discoveryConfig())

	_, err := d.Tick(context.Background())
	require.Error(t, err)

	cursor, err := database.GetSyncMeta(models.SyncMetaLastEventID)
	require.NoError(t, err)
	assert.Empty(t, cursor)
}
