package models

import "time"

// Author represents a repository owner or org, denormalized for display.
// Skills reference authors by username only; this record is not authoritative.
type Author struct {
	Username  string `gorm:"primaryKey;size:255" json:"username"`
	AvatarURL string `gorm:"size:500" json:"avatar_url"`

	// Aggregates, refreshed on index
	SkillCount int `gorm:"default:0" json:"skill_count"`
	TotalStars int `gorm:"default:0" json:"total_stars"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Author) TableName() string {
	return "authors"
}
