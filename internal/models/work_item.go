package models

import "time"

// Work item kinds.
const (
	KindCheckSkill = "check_skill"
	KindClassify   = "classify"
)

// Work item statuses.
const (
	WorkStatusPending  = "pending"
	WorkStatusInflight = "inflight"
	WorkStatusDead     = "dead"
)

// WorkItem is one at-least-once queue message. Payloads carry only the
// identifying fields needed to re-derive all other state.
type WorkItem struct {
	ID            string     `gorm:"primaryKey;size:36" json:"id"`
	Kind          string     `gorm:"size:30;index:idx_work_poll" json:"kind"`
	Payload       string     `gorm:"type:text" json:"payload"` // JSON-encoded CheckSkill or Classify
	Status        string     `gorm:"size:20;default:pending;index:idx_work_poll" json:"status"`
	Attempts      int        `gorm:"default:0" json:"attempts"`
	NextAttemptAt *time.Time `gorm:"index" json:"next_attempt_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (WorkItem) TableName() string {
	return "work_items"
}

// CheckSkill asks the indexing consumer to (re)index one repository manifest.
// An empty Path means "discover the manifest at the canonical locations".
type CheckSkill struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
	Path  string `json:"path,omitempty"`
}

// Classify asks the classification consumer to (re)categorize one skill.
type Classify struct {
	SkillID  string `json:"skill_id"`
	Owner    string `json:"owner"`
	Repo     string `json:"repo"`
	BlobPath string `json:"blob_path"`
}
