// Package models defines the core data structures for the skillscat pipeline.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Skill represents a cataloged manifest sourced from a repository.
type Skill struct {
	ID   string `gorm:"primaryKey;size:64" json:"id"`     // SHA256 hash of owner+repo+path
	Slug string `gorm:"uniqueIndex;size:120" json:"slug"` // URL-safe identifier, owner + derived name

	// Content
	Name        string `gorm:"size:255;index" json:"name"`
	Description string `gorm:"size:1000" json:"description"`
	BlobPath    string `gorm:"size:500" json:"blob_path"` // hot manifest location in the blob store

	// Source repository
	RepoOwner string `gorm:"size:100;index;uniqueIndex:idx_repo_manifest" json:"repo_owner"`
	RepoName  string `gorm:"size:100;uniqueIndex:idx_repo_manifest" json:"repo_name"`
	RepoPath  string `gorm:"size:500;uniqueIndex:idx_repo_manifest" json:"repo_path"`

	// Metrics
	Stars         int     `gorm:"default:0" json:"stars"`
	Forks         int     `gorm:"default:0" json:"forks"`
	StarSnapshots string  `gorm:"type:text" json:"star_snapshots"` // JSON-encoded rolling history
	TrendingScore float64 `gorm:"default:0" json:"trending_score"`

	// Change tracking. Content is only re-fetched when the head sha moves.
	CommitSHA   string `gorm:"size:64" json:"commit_sha"`
	ContentHash string `gorm:"size:64" json:"content_hash"`

	// Classification
	Categories []SkillCategory `gorm:"foreignKey:SkillID" json:"categories,omitempty"`

	// Lifecycle
	Tier           string     `gorm:"size:20;default:cold;index" json:"tier"`
	Visibility     string     `gorm:"size:20;default:public;index" json:"visibility"`
	SourceType     string     `gorm:"size:20;default:repository" json:"source_type"`
	LastAccessedAt *time.Time `json:"last_accessed_at"`
	Access7d       int        `gorm:"column:access_7d;default:0" json:"access_7d"`
	Access30d      int        `gorm:"column:access_30d;default:0" json:"access_30d"`
	LastCommitAt   *time.Time `json:"last_commit_at"`
	NextUpdateAt   *time.Time `json:"next_update_at"`

	// Author (weak reference by username, not authoritative)
	AuthorName string `gorm:"size:255;index" json:"author_name"`

	// Timestamps (GORM auto-manages CreatedAt/UpdatedAt)
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"` // Soft delete support
	IndexedAt time.Time      `json:"indexed_at"`
}

// TableName specifies the table name for GORM.
func (Skill) TableName() string {
	return "skills"
}

// Lifecycle tiers, ordered by indexing priority.
const (
	TierHot      = "hot"
	TierWarm     = "warm"
	TierCool     = "cool"
	TierCold     = "cold"
	TierArchived = "archived"
)

// ValidTiers returns all valid lifecycle tiers.
func ValidTiers() []string {
	return []string{TierHot, TierWarm, TierCool, TierCold, TierArchived}
}

// Visibility values.
const (
	VisibilityPublic   = "public"
	VisibilityPrivate  = "private"
	VisibilityUnlisted = "unlisted"
)

// Source types.
const (
	SourceTypeRepository = "repository"
	SourceTypeUpload     = "upload"
)

// StarSnapshot is one entry in a skill's rolling star history.
type StarSnapshot struct {
	Stars int       `json:"stars"`
	At    time.Time `json:"at"`
}
