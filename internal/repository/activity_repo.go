package repository

import (
	"encoding/json"

	"gorm.io/gorm"

	"streamvault/internal/models"
)

// ActivityRepository appends and reads the activity log.
type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Append writes one activity entry. The detail map is stored as JSON.
func (r *ActivityRepository) Append(action, entityType string, entityID, actorID uint, detail map[string]interface{}) error {
	detailJSON := "{}"
	if detail != nil {
		if b, err := json.Marshal(detail); err == nil {
			detailJSON = string(b)
		}
	}
	entry := models.ActivityLog{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		ActorID:    actorID,
		Detail:     detailJSON,
	}
	return r.db.Create(&entry).Error
}

// FindRecent returns the latest entries, newest first.
func (r *ActivityRepository) FindRecent(limit int) ([]models.ActivityLog, error) {
	if limit <= 0 {
		limit = 100
	}
	var entries []models.ActivityLog
	err := r.db.Order("id DESC").Limit(limit).Find(&entries).Error
	return entries, err
}
