package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/backrunner/skillscat/internal/blob"
	"github.com/backrunner/skillscat/internal/db"
	"github.com/backrunner/skillscat/internal/source"
)

func testDB(t *testing.T) *db.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := db.New(db.Config{
		Path:        dbPath,
		Debug:       false,
		MaxIdleConn: 1,
		MaxOpenConn: 1,
	})
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})
	return database
}

func testBlobs(t *testing.T) blob.Store {
	t.Helper()
	store, err := blob.NewFSStore(t.TempDir())
	require.NoError(t, err)
	return store
}

// fakeSource implements SourceClient over in-memory fixtures.
type fakeSource struct {
	repos map[string]*source.RepoInfo // "owner/repo"
	files map[string]string           // "owner/repo/path"
	trees map[string][]source.ManifestFile

	repoCalls    int
	contentCalls int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		repos: make(map[string]*source.RepoInfo),
		files: make(map[string]string),
		trees: make(map[string][]source.ManifestFile),
	}
}

func (f *fakeSource) GetRepository(_ context.Context, owner, repo string) (*source.RepoInfo, error) {
	f.repoCalls++
	info, ok := f.repos[owner+"/"+repo]
	if !ok {
		return nil, source.ErrNotFound
	}
	return info, nil
}

func (f *fakeSource) GetFileContent(_ context.Context, owner, repo, path, _ string) (string, error) {
	f.contentCalls++
	content, ok := f.files[owner+"/"+repo+"/"+path]
	if !ok {
		return "", source.ErrNotFound
	}
	return content, nil
}

func (f *fakeSource) ListManifestFiles(_ context.Context, owner, repo, _ string) ([]source.ManifestFile, error) {
	return f.trees[owner+"/"+repo], nil
}

// fakeFeed implements EventFeed with a fixed event page.
type fakeFeed struct {
	events []source.Event
	err    error
}

func (f *fakeFeed) ListPublicEvents(context.Context, int) ([]source.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}
