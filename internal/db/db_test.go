package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backrunner/skillscat/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := New(Config{
		Path:        dbPath,
		Debug:       false,
		MaxIdleConn: 1,
		MaxOpenConn: 1,
	})
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Failed to close test database: %v", err)
		}
	})

	return db
}

func TestNew_SeedsCategories(t *testing.T) {
	db := testDB(t)

	cats, err := db.ListCategories()
	require.NoError(t, err)
	assert.NotEmpty(t, cats)

	slugs := make(map[string]bool)
	for _, c := range cats {
		slugs[c.Slug] = true
	}
	assert.True(t, slugs["git"])
	assert.True(t, slugs[models.CatchAllCategory])
}

func TestNew_SeedIsIdempotent(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db1, err := New(DefaultConfig(dbPath))
	require.NoError(t, err)
	cats1, err := db1.ListCategories()
	require.NoError(t, err)
	require.NoError(t, db1.Close())

	// Reopening must not duplicate the vocabulary.
	db2, err := New(DefaultConfig(dbPath))
	require.NoError(t, err)
	defer db2.Close()
	cats2, err := db2.ListCategories()
	require.NoError(t, err)

	assert.Equal(t, len(cats1), len(cats2))
}
