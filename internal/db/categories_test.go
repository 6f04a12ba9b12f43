package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backrunner/skillscat/internal/models"
)

func TestReplaceSkillCategories_FullyReplaces(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.UpsertSkill(testSkill("s1", "slug-1")))

	old := []models.CategoryPick{
		{Slug: "git", Confidence: 0.9, Primary: true},
		{Slug: "testing", Confidence: 0.7},
	}
	require.NoError(t, db.ReplaceSkillCategories("s1", old))

	next := []models.CategoryPick{
		{Slug: "devops", Confidence: 0.8, Primary: true},
	}
	require.NoError(t, db.ReplaceSkillCategories("s1", next))

	edges, err := db.GetCategoriesForSkill("s1")
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, "devops", edges[0].CategorySlug)
	assert.True(t, edges[0].Primary)

	// No leftovers from the previous run.
	for _, e := range edges {
		assert.NotEqual(t, "git", e.CategorySlug)
		assert.NotEqual(t, "testing", e.CategorySlug)
	}
}

func TestReplaceSkillCategories_TouchesSkill(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.UpsertSkill(testSkill("s1", "slug-1")))

	before, err := db.GetSkill("s1")
	require.NoError(t, err)

	require.NoError(t, db.ReplaceSkillCategories("s1", []models.CategoryPick{
		{Slug: "git", Confidence: 1, Primary: true},
	}))

	after, err := db.GetSkill("s1")
	require.NoError(t, err)
	assert.False(t, after.UpdatedAt.Before(before.UpdatedAt))
}

func TestDeleteSkillCategories(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.UpsertSkill(testSkill("s1", "slug-1")))
	require.NoError(t, db.ReplaceSkillCategories("s1", []models.CategoryPick{
		{Slug: "git", Confidence: 1, Primary: true},
	}))

	require.NoError(t, db.DeleteSkillCategories("s1"))

	edges, err := db.GetCategoriesForSkill("s1")
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestKeywordList(t *testing.T) {
	cat := models.Category{Keywords: "git, commit ,rebase,,branch"}
	assert.Equal(t, []string{"git", "commit", "rebase", "branch"}, cat.KeywordList())

	empty := models.Category{}
	assert.Nil(t, empty.KeywordList())
}
