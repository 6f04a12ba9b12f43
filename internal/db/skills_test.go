package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backrunner/skillscat/internal/models"
)

func testSkill(id, slug string) *models.Skill {
	return &models.Skill{
		ID:         id,
		Slug:       slug,
		Name:       "Test Skill",
		RepoOwner:  "octocat",
		RepoName:   "hello-" + id,
		RepoPath:   "SKILL.md",
		Visibility: models.VisibilityPublic,
		Tier:       models.TierCold,
	}
}

func TestUpsertSkill_Idempotent(t *testing.T) {
	db := testDB(t)

	skill := testSkill("s1", "octocat-test-skill")
	skill.Stars = 10
	require.NoError(t, db.UpsertSkill(skill))

	// Re-running the same upsert must not create a second row.
	again := testSkill("s1", "octocat-test-skill")
	again.Stars = 12
	require.NoError(t, db.UpsertSkill(again))

	var count int64
	require.NoError(t, db.Model(&models.Skill{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	got, err := db.GetSkill("s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 12, got.Stars)
}

func TestUpsertSkill_PreservesLifecycleState(t *testing.T) {
	db := testDB(t)

	skill := testSkill("s1", "octocat-test-skill")
	require.NoError(t, db.UpsertSkill(skill))
	require.NoError(t, db.SetTier("s1", models.TierHot))
	require.NoError(t, db.Model(&models.Skill{}).Where("id = ?", "s1").
		Update("access_7d", 42).Error)

	// A re-index must not reset tier or counters.
	again := testSkill("s1", "octocat-test-skill")
	again.Stars = 99
	require.NoError(t, db.UpsertSkill(again))

	got, err := db.GetSkill("s1")
	require.NoError(t, err)
	assert.Equal(t, models.TierHot, got.Tier)
	assert.Equal(t, 42, got.Access7d)
	assert.Equal(t, 99, got.Stars)
}

func TestGetSkillByRepo(t *testing.T) {
	db := testDB(t)

	require.NoError(t, db.UpsertSkill(testSkill("s1", "slug-1")))

	got, err := db.GetSkillByRepo("octocat", "hello-s1", "SKILL.md")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "s1", got.ID)

	missing, err := db.GetSkillByRepo("octocat", "nope", "SKILL.md")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListSkillsPage_Keyset(t *testing.T) {
	db := testDB(t)

	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, db.UpsertSkill(testSkill(id, "slug-"+id)))
	}
	private := testSkill("e", "slug-e")
	private.Visibility = models.VisibilityPrivate
	require.NoError(t, db.UpsertSkill(private))

	page1, err := db.ListSkillsPage("", 2)
	require.NoError(t, err)
	require.Len(t, page1, 2)
	assert.Equal(t, "a", page1[0].ID)
	assert.Equal(t, "b", page1[1].ID)

	page2, err := db.ListSkillsPage(page1[1].ID, 2)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Equal(t, "c", page2[0].ID)
	assert.Equal(t, "d", page2[1].ID)

	// Private skill is excluded; pagination terminates.
	page3, err := db.ListSkillsPage(page2[1].ID, 2)
	require.NoError(t, err)
	assert.Empty(t, page3)
}

func TestResetStaleAccessCounters(t *testing.T) {
	db := testDB(t)

	now := time.Now()
	recent := now.Add(-time.Hour)
	old := now.Add(-40 * 24 * time.Hour)

	fresh := testSkill("fresh", "slug-fresh")
	fresh.LastAccessedAt = &recent
	fresh.Access7d = 5
	fresh.Access30d = 9
	require.NoError(t, db.UpsertSkill(fresh))
	require.NoError(t, db.Model(&models.Skill{}).Where("id = ?", "fresh").
		Updates(map[string]interface{}{"access_7d": 5, "access_30d": 9, "last_accessed_at": recent}).Error)

	stale := testSkill("stale", "slug-stale")
	require.NoError(t, db.UpsertSkill(stale))
	require.NoError(t, db.Model(&models.Skill{}).Where("id = ?", "stale").
		Updates(map[string]interface{}{"access_7d": 3, "access_30d": 7, "last_accessed_at": old}).Error)

	require.NoError(t, db.ResetStaleAccessCounters(now))

	got, err := db.GetSkill("fresh")
	require.NoError(t, err)
	assert.Equal(t, 5, got.Access7d)
	assert.Equal(t, 9, got.Access30d)

	got, err = db.GetSkill("stale")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Access7d)
	assert.Equal(t, 0, got.Access30d)
}

func TestFindArchiveCandidates(t *testing.T) {
	db := testDB(t)

	now := time.Now()
	longAgo := now.Add(-400 * 24 * time.Hour)
	veryLongAgo := now.Add(-800 * 24 * time.Hour)

	cold := testSkill("cold", "slug-cold")
	require.NoError(t, db.UpsertSkill(cold))
	require.NoError(t, db.Model(&models.Skill{}).Where("id = ?", "cold").
		Updates(map[string]interface{}{
			"stars": 2, "last_accessed_at": longAgo, "last_commit_at": veryLongAgo,
		}).Error)

	popular := testSkill("popular", "slug-popular")
	require.NoError(t, db.UpsertSkill(popular))
	require.NoError(t, db.Model(&models.Skill{}).Where("id = ?", "popular").
		Updates(map[string]interface{}{
			"stars": 500, "last_accessed_at": longAgo, "last_commit_at": veryLongAgo,
		}).Error)

	already := testSkill("already", "slug-already")
	require.NoError(t, db.UpsertSkill(already))
	require.NoError(t, db.Model(&models.Skill{}).Where("id = ?", "already").
		Updates(map[string]interface{}{
			"stars": 1, "tier": models.TierArchived,
			"last_accessed_at": longAgo, "last_commit_at": veryLongAgo,
		}).Error)

	// Never accessed, never committed: NULL timestamps count as stale.
	untouched := testSkill("untouched", "slug-untouched")
	require.NoError(t, db.UpsertSkill(untouched))

	candidates, err := db.FindArchiveCandidates(5, now.Add(-365*24*time.Hour), now.Add(-730*24*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "cold", candidates[0].ID)
	assert.Equal(t, "untouched", candidates[1].ID)
}
