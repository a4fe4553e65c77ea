package models

import "time"

// ActivityLog records every state-changing operation: who did what to which
// entity, with a free-form JSON detail payload.
type ActivityLog struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Action     string    `gorm:"size:100;index" json:"action"`
	EntityType string    `gorm:"size:50" json:"entity_type"`
	EntityID   uint      `json:"entity_id"`
	ActorID    uint      `gorm:"index" json:"actor_id"`
	Detail     string    `gorm:"type:json" json:"detail"`
	CreatedAt  time.Time `json:"created_at"`
}

func (ActivityLog) TableName() string {
	return "activity_log"
}
