package models

import "time"

// SyncMeta is a key-value row for small pieces of pipeline state,
// such as the last processed event id.
type SyncMeta struct {
	Key       string    `gorm:"primaryKey;size:100" json:"key"`
	Value     string    `gorm:"size:500" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (SyncMeta) TableName() string {
	return "sync_meta"
}

// Well-known sync metadata keys.
const (
	SyncMetaLastEventID = "last_event_id"
)

// EventMarker is a redelivery-safe per-event dedup marker with a bounded TTL.
type EventMarker struct {
	EventID   string    `gorm:"primaryKey;size:64" json:"event_id"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (EventMarker) TableName() string {
	return "event_markers"
}
