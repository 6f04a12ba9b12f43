package db

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/backrunner/skillscat/internal/models"
)

// GetSyncMeta retrieves a sync metadata value.
func (db *DB) GetSyncMeta(key string) (string, error) {
	var meta models.SyncMeta
	err := db.First(&meta, "key = ?", key).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", nil
		}
		return "", err
	}
	return meta.Value, nil
}

// SetSyncMeta sets a sync metadata value.
func (db *DB) SetSyncMeta(key, value string) error {
	meta := models.SyncMeta{Key: key, Value: value}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&meta).Error
}

// MarkEventProcessed records a per-event dedup marker. Returns false when the
// event already carries an unexpired marker, meaning it was processed before.
func (db *DB) MarkEventProcessed(eventID string, ttl time.Duration) (bool, error) {
	now := time.Now()

	var existing models.EventMarker
	err := db.First(&existing, "event_id = ?", eventID).Error
	switch {
	case err == nil:
		if existing.ExpiresAt.After(now) {
			return false, nil
		}
		// Expired marker: refresh it and treat the event as new.
		err = db.Model(&models.EventMarker{}).Where("event_id = ?", eventID).
			Update("expires_at", now.Add(ttl)).Error
		return err == nil, err
	case err == gorm.ErrRecordNotFound:
		marker := models.EventMarker{EventID: eventID, ExpiresAt: now.Add(ttl)}
		if err := db.Create(&marker).Error; err != nil {
			return false, err
		}
		return true, nil
	default:
		return false, err
	}
}

// PruneEventMarkers deletes expired dedup markers.
func (db *DB) PruneEventMarkers(now time.Time) error {
	return db.Where("expires_at < ?", now).Delete(&models.EventMarker{}).Error
}
