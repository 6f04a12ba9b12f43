package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/backrunner/skillscat/internal/blob"
	"github.com/backrunner/skillscat/internal/db"
	"github.com/backrunner/skillscat/internal/hash"
	"github.com/backrunner/skillscat/internal/manifest"
	"github.com/backrunner/skillscat/internal/models"
	"github.com/backrunner/skillscat/internal/queue"
	"github.com/backrunner/skillscat/internal/source"
)

// SourceClient is the slice of the source platform the indexer needs.
type SourceClient interface {
	GetRepository(ctx context.Context, owner, repo string) (*source.RepoInfo, error)
	GetFileContent(ctx context.Context, owner, repo, path, ref string) (string, error)
	ListManifestFiles(ctx context.Context, owner, repo, pathPrefix string) ([]source.ManifestFile, error)
}

// Indexer consumes CheckSkill items: it fetches repository metadata and
// manifest content, upserts skill and author records, writes the manifest to
// the blob store, and emits a Classify item. Every step is an upsert, so the
// handler is idempotent under at-least-once redelivery.
type Indexer struct {
	db     *db.DB
	blobs  blob.Store
	src    SourceClient
	queue  *queue.Queue
	parser *manifest.Parser
}

// NewIndexer creates the indexing consumer.
func NewIndexer(database *db.DB, blobs blob.Store, src SourceClient, q *queue.Queue) *Indexer {
	return &Indexer{
		db:     database,
		blobs:  blobs,
		src:    src,
		queue:  q,
		parser: manifest.NewParser(),
	}
}

// Handle processes one CheckSkill item.
func (ix *Indexer) Handle(ctx context.Context, item models.WorkItem) queue.Result {
	var check models.CheckSkill
	if err := queue.DecodePayload(item, &check); err != nil {
		return queue.Failed(err, false)
	}

	repo, err := ix.src.GetRepository(ctx, check.Owner, check.Repo)
	if err != nil {
		if source.IsNotFound(err) {
			return queue.Processed() // deleted repo, nothing to index
		}
		return queue.Failed(err, true)
	}
	if repo.Fork {
		return queue.Processed() // forks are not indexed
	}

	manifests, err := ix.locateManifests(ctx, check, repo)
	if err != nil {
		return queue.Failed(err, true)
	}
	if len(manifests) == 0 {
		return queue.Processed() // no manifest, nothing to index
	}

	for _, mf := range manifests {
		if err := ix.indexOne(ctx, check.Owner, check.Repo, mf, repo); err != nil {
			return queue.Failed(fmt.Errorf("index %s/%s:%s: %w", check.Owner, check.Repo, mf, err), true)
		}
	}
	return queue.Processed()
}

// locateManifests resolves which manifest paths to index: the explicit path
// if the item carries one, otherwise the canonical fallbacks, otherwise a
// tree listing.
func (ix *Indexer) locateManifests(ctx context.Context, check models.CheckSkill, repo *source.RepoInfo) ([]string, error) {
	if check.Path != "" {
		return []string{check.Path}, nil
	}
	for _, p := range source.ManifestFallbackPaths() {
		_, err := ix.src.GetFileContent(ctx, check.Owner, check.Repo, p, repo.DefaultBranch)
		if err == nil {
			return []string{p}, nil
		}
		if !source.IsNotFound(err) {
			return nil, err
		}
	}
	files, err := ix.src.ListManifestFiles(ctx, check.Owner, check.Repo, "")
	if err != nil {
		if source.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	return paths, nil
}

// indexOne indexes a single manifest path within a repository.
func (ix *Indexer) indexOne(ctx context.Context, owner, repoName, manifestPath string, repo *source.RepoInfo) error {
	skillID := SkillID(owner, repoName, manifestPath)

	existing, err := ix.db.GetSkillByRepo(owner, repoName, manifestPath)
	if err != nil {
		return fmt.Errorf("lookup skill: %w", err)
	}

	// Unchanged content: refresh counters only, skip the content fetch.
	if existing != nil && existing.CommitSHA == repo.HeadSHA && repo.HeadSHA != "" {
		existing.Stars = repo.Stars
		existing.Forks = repo.Forks
		existing.StarSnapshots = appendStarSnapshot(existing.StarSnapshots, repo.Stars, time.Now())
		existing.TrendingScore = trendingScore(existing.StarSnapshots)
		if !repo.PushedAt.IsZero() {
			t := repo.PushedAt
			existing.LastCommitAt = &t
		}
		if err := ix.db.UpsertSkill(existing); err != nil {
			return fmt.Errorf("refresh skill: %w", err)
		}
		return ix.enqueueClassify(existing)
	}

	content, err := ix.src.GetFileContent(ctx, owner, repoName, manifestPath, repo.DefaultBranch)
	if err != nil {
		if source.IsNotFound(err) {
			return nil // manifest vanished between listing and fetch
		}
		return fmt.Errorf("fetch manifest: %w", err)
	}

	parsed, err := ix.parser.Parse(content)
	if err != nil {
		return fmt.Errorf("parse manifest: %w", err)
	}

	// Prefer front-matter, then markdown heuristics, then repo metadata.
	name := parsed.Name
	if name == "" {
		name = repo.Name
	}
	description := parsed.Description
	if description == "" {
		description = repo.Description
	}

	blobPath := ManifestBlobPath(owner, repoName, manifestPath)

	// Slugs are stable once assigned; new skills get the first free variant
	// of owner-name, so two manifests deriving the same name cannot collide
	// on the unique slug index.
	var slug string
	if existing != nil {
		slug = existing.Slug
	} else {
		slug, err = ix.uniqueSlug(manifest.SkillSlug(owner, name), skillID)
		if err != nil {
			return fmt.Errorf("derive slug: %w", err)
		}
	}

	skill := &models.Skill{
		ID:            skillID,
		Slug:          slug,
		Name:          name,
		Description:   description,
		BlobPath:      blobPath,
		RepoOwner:     owner,
		RepoName:      repoName,
		RepoPath:      manifestPath,
		Stars:         repo.Stars,
		Forks:         repo.Forks,
		CommitSHA:     repo.HeadSHA,
		ContentHash:   hash.TruncatedSHA256(content),
		AuthorName:    owner,
		Visibility:    models.VisibilityPublic,
		SourceType:    models.SourceTypeRepository,
		StarSnapshots: appendStarSnapshot("", repo.Stars, time.Now()),
	}
	if existing != nil {
		skill.StarSnapshots = appendStarSnapshot(existing.StarSnapshots, repo.Stars, time.Now())
	}
	skill.TrendingScore = trendingScore(skill.StarSnapshots)
	if !repo.PushedAt.IsZero() {
		t := repo.PushedAt
		skill.LastCommitAt = &t
	}

	if err := ix.db.UpsertSkill(skill); err != nil {
		return fmt.Errorf("upsert skill: %w", err)
	}

	author := &models.Author{Username: owner, AvatarURL: repo.OwnerAvatar}
	if err := ix.db.UpsertAuthor(author); err != nil {
		return fmt.Errorf("upsert author: %w", err)
	}
	if err := ix.db.RefreshAuthorStats(owner); err != nil {
		return fmt.Errorf("refresh author stats: %w", err)
	}

	if err := ix.blobs.Put(ctx, blobPath, []byte(content), "text/markdown", map[string]string{
		"owner": owner,
		"repo":  repoName,
	}); err != nil {
		return fmt.Errorf("write manifest blob: %w", err)
	}

	return ix.enqueueClassify(skill)
}

// uniqueSlug returns base, or the first numbered variant of base not yet
// taken by another skill. The iteration cap falls back to an id-derived
// suffix, which is unique by construction.
func (ix *Indexer) uniqueSlug(base, skillID string) (string, error) {
	candidate := base
	for i := 2; i <= 50; i++ {
		taken, err := ix.db.GetSkillBySlug(candidate)
		if err != nil {
			return "", err
		}
		if taken == nil || taken.ID == skillID {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return base + "-" + skillID[:8], nil
}

func (ix *Indexer) enqueueClassify(skill *models.Skill) error {
	return ix.queue.Send(models.KindClassify, &models.Classify{
		SkillID:  skill.ID,
		Owner:    skill.RepoOwner,
		Repo:     skill.RepoName,
		BlobPath: skill.BlobPath,
	})
}

// SkillID derives the stable skill id from the manifest's natural key.
func SkillID(owner, repo, manifestPath string) string {
	return hash.TruncatedSHA256(owner + "/" + repo + ":" + manifestPath)
}

// ManifestBlobPath derives the deterministic hot-content key for a manifest.
func ManifestBlobPath(owner, repo, manifestPath string) string {
	return path.Join("skills", owner, repo, hash.TruncatedSHA256(manifestPath)+".md")
}

// maxStarSnapshots bounds the rolling star history.
const maxStarSnapshots = 30

// appendStarSnapshot appends to the JSON-encoded rolling star history,
// keeping the newest maxStarSnapshots entries.
func appendStarSnapshot(encoded string, stars int, at time.Time) string {
	var snaps []models.StarSnapshot
	if encoded != "" {
		_ = json.Unmarshal([]byte(encoded), &snaps)
	}
	snaps = append(snaps, models.StarSnapshot{Stars: stars, At: at})
	if len(snaps) > maxStarSnapshots {
		snaps = snaps[len(snaps)-maxStarSnapshots:]
	}
	out, err := json.Marshal(snaps)
	if err != nil {
		return encoded
	}
	return string(out)
}

// trendingScore is the star gain per day across the rolling history.
func trendingScore(encoded string) float64 {
	var snaps []models.StarSnapshot
	if err := json.Unmarshal([]byte(encoded), &snaps); err != nil || len(snaps) < 2 {
		return 0
	}
	first, last := snaps[0], snaps[len(snaps)-1]
	days := last.At.Sub(first.At).Hours() / 24
	if days <= 0 {
		return 0
	}
	return float64(last.Stars-first.Stars) / days
}
