package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/backrunner/skillscat/internal/blob"
	"github.com/backrunner/skillscat/internal/config"
	"github.com/backrunner/skillscat/internal/db"
	"github.com/backrunner/skillscat/internal/log"
	"github.com/backrunner/skillscat/internal/models"
	"github.com/backrunner/skillscat/internal/telemetry"
)

// ArchiveKey builds the snapshot key for a skill archived at t.
func ArchiveKey(t time.Time, skillID string) string {
	return fmt.Sprintf("archive/%d/%02d/%s.json", t.Year(), int(t.Month()), skillID)
}

// MarshalSnapshot serializes an archive snapshot.
func MarshalSnapshot(snap *models.ArchiveSnapshot) ([]byte, error) {
	return json.Marshal(snap)
}

// UnmarshalSnapshot deserializes an archive snapshot.
func UnmarshalSnapshot(data []byte) (*models.ArchiveSnapshot, error) {
	var snap models.ArchiveSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// ArchiveSummary reports one archive engine run.
type ArchiveSummary struct {
	Total    int `json:"total"`
	Archived int `json:"archived"`
	Failed   int `json:"failed"`
}

// ArchiveEngine snapshots cold skills into archive blobs and removes their
// hot content. Candidates are processed independently: one failure is
// logged and counted, never aborting the batch.
type ArchiveEngine struct {
	db      *db.DB
	blobs   blob.Store
	tier    config.TierConfig
	cfg     config.ArchiveConfig
	metrics telemetry.Recorder
}

// NewArchiveEngine creates the archive batch job.
func NewArchiveEngine(database *db.DB, blobs blob.Store, tier config.TierConfig, cfg config.ArchiveConfig, metrics telemetry.Recorder) *ArchiveEngine {
	return &ArchiveEngine{db: database, blobs: blobs, tier: tier, cfg: cfg, metrics: metrics}
}

// Run executes one archive pass.
func (e *ArchiveEngine) Run(ctx context.Context) (ArchiveSummary, error) {
	now := time.Now()
	var summary ArchiveSummary

	candidates, err := e.db.FindArchiveCandidates(
		e.tier.ArchiveStars,
		now.Add(-e.tier.ArchiveAccessStaleness),
		now.Add(-e.tier.ArchiveCommitStaleness),
		e.cfg.BatchSize,
	)
	if err != nil {
		return summary, fmt.Errorf("find candidates: %w", err)
	}
	summary.Total = len(candidates)

	for i := range candidates {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		if err := e.archiveOne(ctx, &candidates[i], now); err != nil {
			log.Errorf("archive: skill %s: %v", candidates[i].ID, err)
			summary.Failed++
			continue
		}
		summary.Archived++
	}

	e.metrics.RecordJobSummary(ctx, "archive", map[string]interface{}{
		"total":    summary.Total,
		"archived": summary.Archived,
		"failed":   summary.Failed,
	})
	return summary, nil
}

// archiveOne snapshots a single skill. Ordering matters for consistency:
// the snapshot blob is written before anything is removed, so a failure
// partway leaves the skill stale but restorable.
func (e *ArchiveEngine) archiveOne(ctx context.Context, skill *models.Skill, now time.Time) error {
	categories, err := e.db.GetCategoriesForSkill(skill.ID)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}

	content, err := e.blobs.Get(ctx, skill.BlobPath)
	if err != nil && !errors.Is(err, blob.ErrNotExist) {
		return fmt.Errorf("read manifest blob: %w", err)
	}

	snap := &models.ArchiveSnapshot{
		Skill:      *skill,
		Categories: categories,
		Content:    string(content),
		ArchivedAt: now,
	}
	data, err := MarshalSnapshot(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	key := ArchiveKey(now, skill.ID)
	if err := e.blobs.Put(ctx, key, data, "application/json", map[string]string{
		"skill_id": skill.ID,
	}); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	if err := e.blobs.Delete(ctx, skill.BlobPath); err != nil {
		return fmt.Errorf("delete hot blob: %w", err)
	}
	if err := e.db.SetTier(skill.ID, models.TierArchived); err != nil {
		return fmt.Errorf("set tier: %w", err)
	}
	// Category edges are categorization state, not archival content; they
	// are reconstructable from the snapshot.
	if err := e.db.DeleteSkillCategories(skill.ID); err != nil {
		return fmt.Errorf("delete categories: %w", err)
	}
	return nil
}
