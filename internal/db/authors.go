package db

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/backrunner/skillscat/internal/models"
)

// UpsertAuthor creates or refreshes an author record.
func (db *DB) UpsertAuthor(author *models.Author) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoUpdates: clause.AssignmentColumns([]string{"avatar_url", "updated_at"}),
	}).Create(author).Error
}

// GetAuthor retrieves an author by username.
func (db *DB) GetAuthor(username string) (*models.Author, error) {
	var author models.Author
	err := db.First(&author, "username = ?", username).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &author, nil
}

// RefreshAuthorStats recomputes the denormalized aggregate counts for an
// author from their non-deleted skills.
func (db *DB) RefreshAuthorStats(username string) error {
	var skillCount int64
	var totalStars int64

	if err := db.Model(&models.Skill{}).Where("repo_owner = ?", username).Count(&skillCount).Error; err != nil {
		return err
	}
	row := db.Model(&models.Skill{}).Where("repo_owner = ?", username).
		Select("COALESCE(SUM(stars), 0)").Row()
	if err := row.Scan(&totalStars); err != nil {
		return err
	}

	return db.Model(&models.Author{}).Where("username = ?", username).
		Updates(map[string]interface{}{
			"skill_count": skillCount,
			"total_stars": totalStars,
		}).Error
}
