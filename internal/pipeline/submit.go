package pipeline

import (
	"context"
	"fmt"

	"github.com/backrunner/skillscat/internal/db"
	"github.com/backrunner/skillscat/internal/models"
	"github.com/backrunner/skillscat/internal/queue"
)

// Submitter handles user "resubmit this repository" actions from the
// request-handling layer. Archived skills are resurrected synchronously;
// everything else is enqueued for indexing directly, bypassing polling.
type Submitter struct {
	db          *db.DB
	queue       *queue.Queue
	resurrector *Resurrector
}

// NewSubmitter creates the submission entry point.
func NewSubmitter(database *db.DB, q *queue.Queue, r *Resurrector) *Submitter {
	return &Submitter{db: database, queue: q, resurrector: r}
}

// Submit processes a repository submission. The error return is surfaced to
// the caller synchronously; on failure the skill presents as still archived.
func (s *Submitter) Submit(ctx context.Context, owner, repo string) error {
	skills, err := s.skillsForRepo(owner, repo)
	if err != nil {
		return err
	}

	resurrected := false
	for _, skill := range skills {
		if skill.Tier != models.TierArchived {
			continue
		}
		if err := s.resurrector.Resurrect(ctx, skill.ID); err != nil {
			return fmt.Errorf("resurrect %s: %w", skill.ID, err)
		}
		resurrected = true
	}
	if resurrected {
		return nil
	}

	return s.queue.Send(models.KindCheckSkill, &models.CheckSkill{Owner: owner, Repo: repo})
}

func (s *Submitter) skillsForRepo(owner, repo string) ([]models.Skill, error) {
	var skills []models.Skill
	err := s.db.Where("repo_owner = ? AND repo_name = ?", owner, repo).Find(&skills).Error
	if err != nil {
		return nil, fmt.Errorf("lookup skills for %s/%s: %w", owner, repo, err)
	}
	return skills, nil
}
