package models

import "time"

// ArchiveSnapshot is the immutable cold-storage copy of a skill written when
// it is archived: the full record, its category edges, and the manifest
// content at time of archival. Created by the archive engine, consumed only
// by resurrection, deleted after a successful restore.
type ArchiveSnapshot struct {
	Skill      Skill           `json:"skill"`
	Categories []SkillCategory `json:"categories"`
	Content    string          `json:"content"`
	ArchivedAt time.Time       `json:"archived_at"`
}
