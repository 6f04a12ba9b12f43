package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/backrunner/skillscat/internal/blob"
	"github.com/backrunner/skillscat/internal/db"
	"github.com/backrunner/skillscat/internal/log"
	"github.com/backrunner/skillscat/internal/models"
)

// Resurrector restores archived skills. A user resubmission is a sufficient
// signal on its own; no popularity threshold is re-checked.
type Resurrector struct {
	db    *db.DB
	blobs blob.Store
}

// NewResurrector creates the resurrection flow.
func NewResurrector(database *db.DB, blobs blob.Store) *Resurrector {
	return &Resurrector{db: database, blobs: blobs}
}

// Resurrect restores the latest archive snapshot for a skill and flips its
// tier back to cold. Without a snapshot it still restores reachability by
// setting the tier directly; content stays absent until the next index run.
// On error the skill is left archived, never half-restored.
func (r *Resurrector) Resurrect(ctx context.Context, skillID string) error {
	skill, err := r.db.GetSkill(skillID)
	if err != nil {
		return fmt.Errorf("load skill: %w", err)
	}
	if skill == nil {
		return fmt.Errorf("skill %s not found", skillID)
	}
	if skill.Tier != models.TierArchived {
		return nil // nothing to restore
	}

	key, err := r.findSnapshotKey(ctx, skillID)
	if err != nil {
		return err
	}
	if key == "" {
		log.Printf("resurrect: no snapshot for %s, restoring reachability only\n", skillID)
		return r.db.SetTier(skillID, models.TierCold)
	}

	data, err := r.blobs.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	snap, err := UnmarshalSnapshot(data)
	if err != nil {
		return err
	}

	// Restore hot content first; tier flips only after content is back.
	blobPath := skill.BlobPath
	if blobPath == "" {
		blobPath = snap.Skill.BlobPath
	}
	if err := r.blobs.Put(ctx, blobPath, []byte(snap.Content), "text/markdown", map[string]string{
		"skill_id": skillID,
	}); err != nil {
		return fmt.Errorf("restore manifest blob: %w", err)
	}

	if err := r.db.SetTier(skillID, models.TierCold); err != nil {
		return fmt.Errorf("set tier: %w", err)
	}

	picks := make([]models.CategoryPick, 0, len(snap.Categories))
	for _, edge := range snap.Categories {
		picks = append(picks, models.CategoryPick{
			Slug:       edge.CategorySlug,
			Confidence: edge.Confidence,
			Primary:    edge.Primary,
		})
	}
	if err := r.db.ReplaceSkillCategories(skillID, picks); err != nil {
		return fmt.Errorf("restore categories: %w", err)
	}

	if err := r.blobs.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

// findSnapshotKey scans the archive prefix for the skill's snapshot; there
// is no direct index from skill id to archive month.
func (r *Resurrector) findSnapshotKey(ctx context.Context, skillID string) (string, error) {
	keys, err := r.blobs.List(ctx, "archive/")
	if err != nil {
		return "", fmt.Errorf("list archive blobs: %w", err)
	}
	suffix := "/" + skillID + ".json"
	latest := ""
	for _, key := range keys {
		if strings.HasSuffix(key, suffix) && key > latest {
			latest = key
		}
	}
	return latest, nil
}
