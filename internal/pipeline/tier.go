package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/backrunner/skillscat/internal/config"
	"github.com/backrunner/skillscat/internal/db"
	"github.com/backrunner/skillscat/internal/log"
	"github.com/backrunner/skillscat/internal/models"
	"github.com/backrunner/skillscat/internal/telemetry"
)

// ComputeTier evaluates the lifecycle tier for a skill from its stars and
// access/commit recency. Most specific condition wins; the rules are pure,
// so recomputing under fixed inputs always yields the same tier.
func ComputeTier(skill *models.Skill, cfg config.TierConfig, now time.Time) string {
	accessedWithin := func(window time.Duration) bool {
		return skill.LastAccessedAt != nil && now.Sub(*skill.LastAccessedAt) <= window
	}

	accessStale := skill.LastAccessedAt == nil || now.Sub(*skill.LastAccessedAt) > cfg.ArchiveAccessStaleness
	commitStale := skill.LastCommitAt == nil || now.Sub(*skill.LastCommitAt) > cfg.ArchiveCommitStaleness
	if skill.Stars < cfg.ArchiveStars && accessStale && commitStale {
		return models.TierArchived
	}

	switch {
	case skill.Stars >= cfg.HotStars || accessedWithin(cfg.HotAccessWindow):
		return models.TierHot
	case skill.Stars >= cfg.WarmStars || accessedWithin(cfg.WarmAccessWindow):
		return models.TierWarm
	case skill.Stars >= cfg.CoolStars || accessedWithin(cfg.CoolAccessWindow):
		return models.TierCool
	default:
		return models.TierCold
	}
}

// NextUpdateAt returns the next re-index time for a tier, or nil for
// archived skills, which are never re-indexed.
func NextUpdateAt(tier string, cfg config.TierConfig, now time.Time) *time.Time {
	var interval time.Duration
	switch tier {
	case models.TierHot:
		interval = cfg.HotInterval
	case models.TierWarm:
		interval = cfg.WarmInterval
	case models.TierCool:
		interval = cfg.CoolInterval
	case models.TierCold:
		interval = cfg.ColdInterval
	default:
		return nil
	}
	t := now.Add(interval)
	return &t
}

// TierSummary reports one tier engine run.
type TierSummary struct {
	Scanned     int `json:"scanned"`
	Changed     int `json:"changed"`
	FailedPages int `json:"failed_pages"`
}

// TierEngine recomputes lifecycle tiers for all public skills in keyset
// pages. The engine is idempotent and convergent, not transactional across
// the run: a failed page is corrected by the next scheduled run.
type TierEngine struct {
	db      *db.DB
	cfg     config.TierConfig
	metrics telemetry.Recorder
}

// NewTierEngine creates the tier batch job.
func NewTierEngine(database *db.DB, cfg config.TierConfig, metrics telemetry.Recorder) *TierEngine {
	return &TierEngine{db: database, cfg: cfg, metrics: metrics}
}

// Run executes one tier recompute pass.
func (e *TierEngine) Run(ctx context.Context) (TierSummary, error) {
	now := time.Now()
	var summary TierSummary

	// Decay first, so the tier computation sees correctly-decayed counters.
	if err := e.db.ResetStaleAccessCounters(now); err != nil {
		return summary, fmt.Errorf("reset access counters: %w", err)
	}

	afterID := ""
	for page := 0; page < e.cfg.MaxPages; page++ {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}

		skills, err := e.db.ListSkillsPage(afterID, e.cfg.PageSize)
		if err != nil {
			return summary, fmt.Errorf("list skills page: %w", err)
		}
		if len(skills) == 0 {
			break
		}
		afterID = skills[len(skills)-1].ID
		summary.Scanned += len(skills)

		var changes []db.TierChange
		for i := range skills {
			tier := ComputeTier(&skills[i], e.cfg, now)
			if tier == skills[i].Tier {
				continue
			}
			// The archived transition belongs to the archive engine, which
			// snapshots content and categories before flipping the tier.
			// Writing it here would strand the skill without a snapshot.
			if tier == models.TierArchived {
				continue
			}
			changes = append(changes, db.TierChange{
				SkillID:      skills[i].ID,
				Tier:         tier,
				NextUpdateAt: NextUpdateAt(tier, e.cfg, now),
			})
		}

		// A page write failure skips this page only; the next run corrects it.
		if err := e.db.ApplyTierChanges(changes); err != nil {
			log.Errorf("tier: apply page ending at %s: %v", afterID, err)
			summary.FailedPages++
			continue
		}
		summary.Changed += len(changes)
	}

	e.metrics.RecordJobSummary(ctx, "tier", map[string]interface{}{
		"scanned":      summary.Scanned,
		"changed":      summary.Changed,
		"failed_pages": summary.FailedPages,
	})
	return summary, nil
}
