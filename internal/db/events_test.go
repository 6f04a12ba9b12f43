package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backrunner/skillscat/internal/models"
)

func TestSyncMeta_RoundTrip(t *testing.T) {
	db := testDB(t)

	v, err := db.GetSyncMeta(models.SyncMetaLastEventID)
	require.NoError(t, err)
	assert.Equal(t, "", v)

	require.NoError(t, db.SetSyncMeta(models.SyncMetaLastEventID, "12345"))
	require.NoError(t, db.SetSyncMeta(models.SyncMetaLastEventID, "12346"))

	v, err = db.GetSyncMeta(models.SyncMetaLastEventID)
	require.NoError(t, err)
	assert.Equal(t, "12346", v)
}

func TestMarkEventProcessed_Dedupes(t *testing.T) {
	db := testDB(t)

	fresh, err := db.MarkEventProcessed("ev1", time.Hour)
	require.NoError(t, err)
	assert.True(t, fresh)

	// Second marking within the TTL is a duplicate.
	fresh, err = db.MarkEventProcessed("ev1", time.Hour)
	require.NoError(t, err)
	assert.False(t, fresh)

	fresh, err = db.MarkEventProcessed("ev2", time.Hour)
	require.NoError(t, err)
	assert.True(t, fresh)
}

func TestMarkEventProcessed_ExpiredMarkerRefreshes(t *testing.T) {
	db := testDB(t)

	// Marker with a TTL already in the past.
	fresh, err := db.MarkEventProcessed("ev1", -time.Minute)
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = db.MarkEventProcessed("ev1", time.Hour)
	require.NoError(t, err)
	assert.True(t, fresh)
}

func TestPruneEventMarkers(t *testing.T) {
	db := testDB(t)

	_, err := db.MarkEventProcessed("old", -time.Minute)
	require.NoError(t, err)
	_, err = db.MarkEventProcessed("new", time.Hour)
	require.NoError(t, err)

	require.NoError(t, db.PruneEventMarkers(time.Now()))

	var count int64
	require.NoError(t, db.Model(&models.EventMarker{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
