package db

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backrunner/skillscat/internal/models"
)

func TestQueue_SendReceiveAck(t *testing.T) {
	db := testDB(t)

	require.NoError(t, db.EnqueueWorkItem(models.KindCheckSkill,
		models.CheckSkill{Owner: "octocat", Repo: "hello"}))

	items, err := db.ReceiveWorkItems(10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.KindCheckSkill, items[0].Kind)
	assert.Equal(t, models.WorkStatusInflight, items[0].Status)

	var check models.CheckSkill
	require.NoError(t, json.Unmarshal([]byte(items[0].Payload), &check))
	assert.Equal(t, "octocat", check.Owner)

	// Inflight items are not redelivered.
	again, err := db.ReceiveWorkItems(10)
	require.NoError(t, err)
	assert.Empty(t, again)

	require.NoError(t, db.AckWorkItem(items[0].ID))
	n, err := db.CountWorkItems(models.WorkStatusPending)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestQueue_ReclaimsExpiredClaims(t *testing.T) {
	db := testDB(t)

	require.NoError(t, db.EnqueueWorkItem(models.KindCheckSkill,
		models.CheckSkill{Owner: "octocat", Repo: "hello"}))

	items, err := db.ReceiveWorkItems(1)
	require.NoError(t, err)
	require.Len(t, items, 1)

	// Within the visibility timeout the claim is honored.
	again, err := db.ReceiveWorkItems(1)
	require.NoError(t, err)
	assert.Empty(t, again)

	// Consumer crashed: backdate the claim past the visibility timeout.
	stale := time.Now().Add(-VisibilityTimeout - time.Minute)
	require.NoError(t, db.Model(&models.WorkItem{}).Where("id = ?", items[0].ID).
		Update("updated_at", stale).Error)

	reclaimed, err := db.ReceiveWorkItems(1)
	require.NoError(t, err)
	require.Len(t, reclaimed, 1)
	assert.Equal(t, items[0].ID, reclaimed[0].ID)
	assert.Equal(t, models.WorkStatusInflight, reclaimed[0].Status)

	n, err := db.CountWorkItems(models.WorkStatusInflight)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestQueue_RetryBacksOff(t *testing.T) {
	db := testDB(t)

	require.NoError(t, db.EnqueueWorkItem(models.KindClassify,
		models.Classify{SkillID: "s1"}))
	items, err := db.ReceiveWorkItems(1)
	require.NoError(t, err)
	require.Len(t, items, 1)

	require.NoError(t, db.RetryWorkItem(items[0].ID, 5))

	var item models.WorkItem
	require.NoError(t, db.First(&item, "id = ?", items[0].ID).Error)
	assert.Equal(t, models.WorkStatusPending, item.Status)
	assert.Equal(t, 1, item.Attempts)
	require.NotNil(t, item.NextAttemptAt)

	// Backoff delays redelivery.
	again, err := db.ReceiveWorkItems(1)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestQueue_DeadAfterMaxAttempts(t *testing.T) {
	db := testDB(t)

	require.NoError(t, db.EnqueueWorkItem(models.KindClassify,
		models.Classify{SkillID: "s1"}))
	items, err := db.ReceiveWorkItems(1)
	require.NoError(t, err)
	require.Len(t, items, 1)

	require.NoError(t, db.RetryWorkItem(items[0].ID, 1))

	var item models.WorkItem
	require.NoError(t, db.First(&item, "id = ?", items[0].ID).Error)
	assert.Equal(t, models.WorkStatusDead, item.Status)

	n, err := db.CountWorkItems(models.WorkStatusDead)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
