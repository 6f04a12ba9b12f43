package db

import (
	"fmt"
	"time"

	"gorm.io/gorm/clause"

	"github.com/backrunner/skillscat/internal/models"
)

// seedCategories inserts the controlled vocabulary if not present.
// Keyword hints feed both the classifier prompt and the local heuristic.
func (db *DB) seedCategories() error {
	defaults := []models.Category{
		{Slug: "git", Name: "Git & Version Control", Description: "Git workflows, branching, history management", Keywords: "git,commit,rebase,branch,merge,cherry-pick,stash,bisect"},
		{Slug: "testing", Name: "Testing", Description: "Test authoring, coverage, mocking, TDD", Keywords: "test,testing,mock,coverage,assert,tdd,fixture"},
		{Slug: "devops", Name: "DevOps & Infrastructure", Description: "CI/CD, containers, deployment, infrastructure", Keywords: "docker,kubernetes,terraform,deploy,pipeline,helm,ansible"},
		{Slug: "frontend", Name: "Frontend", Description: "Web UI frameworks and styling", Keywords: "react,vue,css,component,browser,svelte,tailwind"},
		{Slug: "backend", Name: "Backend", Description: "APIs, services, server-side patterns", Keywords: "api,server,http,rest,grpc,endpoint,middleware"},
		{Slug: "data", Name: "Data & Databases", Description: "SQL, schema design, data pipelines", Keywords: "sql,database,schema,query,migration,postgres,sqlite"},
		{Slug: "ai", Name: "AI & LLMs", Description: "Prompting, agents, model integration", Keywords: "llm,prompt,agent,model,embedding,claude,openai"},
		{Slug: "security", Name: "Security", Description: "Secure coding, secrets, auditing", Keywords: "security,vulnerability,secret,auth,encryption,audit"},
		{Slug: "docs", Name: "Documentation", Description: "Writing and maintaining documentation", Keywords: "documentation,readme,changelog,comment,diagram"},
		{Slug: models.CatchAllCategory, Name: "General", Description: "Skills without a more specific category", Keywords: ""},
	}

	for _, cat := range defaults {
		result := db.Where("slug = ?", cat.Slug).FirstOrCreate(&cat)
		if result.Error != nil {
			return result.Error
		}
	}
	return nil
}

// ListCategories returns the controlled vocabulary.
func (db *DB) ListCategories() ([]models.Category, error) {
	var cats []models.Category
	err := db.Order("slug ASC").Find(&cats).Error
	return cats, err
}

// UpsertCategory creates or updates a vocabulary entry.
func (db *DB) UpsertCategory(cat *models.Category) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		UpdateAll: true,
	}).Create(cat).Error
}

// GetCategoriesForSkill returns the category edges for a skill.
func (db *DB) GetCategoriesForSkill(skillID string) ([]models.SkillCategory, error) {
	var edges []models.SkillCategory
	err := db.Where("skill_id = ?", skillID).Order("category_slug ASC").Find(&edges).Error
	return edges, err
}

// ReplaceSkillCategories atomically replaces all category edges for a skill
// and touches its updated timestamp. Delete-all-then-insert inside one
// transaction, so readers never observe a mix of old and new edges.
func (db *DB) ReplaceSkillCategories(skillID string, picks []models.CategoryPick) error {
	return db.Transaction(func(tx *DB) error {
		if err := tx.Where("skill_id = ?", skillID).Delete(&models.SkillCategory{}).Error; err != nil {
			return fmt.Errorf("delete old categories: %w", err)
		}
		for _, pick := range picks {
			edge := models.SkillCategory{
				SkillID:      skillID,
				CategorySlug: pick.Slug,
				Confidence:   pick.Confidence,
				Primary:      pick.Primary,
			}
			if err := tx.Create(&edge).Error; err != nil {
				return fmt.Errorf("insert category %s: %w", pick.Slug, err)
			}
		}
		return tx.Model(&models.Skill{}).Where("id = ?", skillID).
			Update("updated_at", time.Now()).Error
	})
}

// DeleteSkillCategories removes all category edges for a skill.
// Used by the archive engine; edges are reconstructable from the snapshot.
func (db *DB) DeleteSkillCategories(skillID string) error {
	return db.Where("skill_id = ?", skillID).Delete(&models.SkillCategory{}).Error
}
