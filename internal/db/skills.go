package db

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/backrunner/skillscat/internal/models"
)

// UpsertSkill creates or updates a skill keyed by its stable id.
// Only metadata fields are updated on conflict - lifecycle state
// (tier, access counters, next_update_at) is owned by the tier engine
// and preserved across re-indexing.
func (db *DB) UpsertSkill(skill *models.Skill) error {
	skill.IndexedAt = time.Now()
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"slug", "name", "description", "blob_path",
			"repo_owner", "repo_name", "repo_path",
			"stars", "forks", "star_snapshots", "trending_score",
			"commit_sha", "content_hash",
			"author_name", "last_commit_at",
			"indexed_at", "updated_at",
			// NOT updated: tier, visibility, source_type,
			// last_accessed_at, access_7d, access_30d, next_update_at
		}),
	}).Create(skill).Error
}

// GetSkill retrieves a skill by ID with its category edges.
func (db *DB) GetSkill(id string) (*models.Skill, error) {
	var skill models.Skill
	err := db.Preload("Categories").First(&skill, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &skill, nil
}

// GetSkillBySlug retrieves a skill by its unique slug.
func (db *DB) GetSkillBySlug(slug string) (*models.Skill, error) {
	var skill models.Skill
	err := db.First(&skill, "slug = ?", slug).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &skill, nil
}

// GetSkillByRepo retrieves a skill by its natural key.
func (db *DB) GetSkillByRepo(owner, repo, path string) (*models.Skill, error) {
	var skill models.Skill
	err := db.First(&skill, "repo_owner = ? AND repo_name = ? AND repo_path = ?", owner, repo, path).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &skill, nil
}

// ListSkillsPage returns up to limit public skills with id greater than
// afterID, ordered by id. Keyset pagination: pages never overlap, so batch
// jobs can process them independently.
func (db *DB) ListSkillsPage(afterID string, limit int) ([]models.Skill, error) {
	var skills []models.Skill
	err := db.Where("visibility = ? AND id > ?", models.VisibilityPublic, afterID).
		Order("id ASC").
		Limit(limit).
		Find(&skills).Error
	return skills, err
}

// TierChange is one pending tier write from a tier engine page.
type TierChange struct {
	SkillID      string
	Tier         string
	NextUpdateAt *time.Time
}

// ApplyTierChanges writes a page of tier transitions in one transaction.
func (db *DB) ApplyTierChanges(changes []TierChange) error {
	if len(changes) == 0 {
		return nil
	}
	return db.Transaction(func(tx *DB) error {
		for _, c := range changes {
			updates := map[string]interface{}{
				"tier":           c.Tier,
				"next_update_at": c.NextUpdateAt,
				"updated_at":     time.Now(),
			}
			if err := tx.Model(&models.Skill{}).Where("id = ?", c.SkillID).Updates(updates).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ResetStaleAccessCounters zeroes the 7-day and 30-day access counters for
// skills whose last access falls outside the respective window. This is the
// decay pass that runs before tier recomputation.
func (db *DB) ResetStaleAccessCounters(now time.Time) error {
	cutoff7 := now.Add(-7 * 24 * time.Hour)
	cutoff30 := now.Add(-30 * 24 * time.Hour)

	if err := db.Model(&models.Skill{}).
		Where("access_7d > 0 AND (last_accessed_at IS NULL OR last_accessed_at < ?)", cutoff7).
		Update("access_7d", 0).Error; err != nil {
		return err
	}
	return db.Model(&models.Skill{}).
		Where("access_30d > 0 AND (last_accessed_at IS NULL OR last_accessed_at < ?)", cutoff30).
		Update("access_30d", 0).Error
}

// SetTier updates a single skill's tier and touches updated_at.
func (db *DB) SetTier(skillID, tier string) error {
	return db.Model(&models.Skill{}).Where("id = ?", skillID).
		Updates(map[string]interface{}{"tier": tier, "updated_at": time.Now()}).Error
}

// FindArchiveCandidates returns up to limit public skills matching the
// cold-archive predicate that are not already archived. NULL timestamps
// count as stale, the same way ComputeTier treats them.
func (db *DB) FindArchiveCandidates(maxStars int, accessBefore, commitBefore time.Time, limit int) ([]models.Skill, error) {
	var skills []models.Skill
	err := db.Where("visibility = ? AND tier <> ?", models.VisibilityPublic, models.TierArchived).
		Where("stars < ?", maxStars).
		Where("last_accessed_at IS NULL OR last_accessed_at < ?", accessBefore).
		Where("last_commit_at IS NULL OR last_commit_at < ?", commitBefore).
		Order("id ASC").
		Limit(limit).
		Find(&skills).Error
	return skills, err
}
