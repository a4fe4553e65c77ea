package models

import "time"

// Plan is a purchasable subscription tier. Prices live in PlanPricing,
// one row per connection count.
type Plan struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string    `gorm:"size:255" json:"name"`
	Description    string    `gorm:"type:text" json:"description"`
	DurationDays   int       `gorm:"not null" json:"duration_days"`
	MaxConnections int       `gorm:"not null;default:1" json:"max_connections"`
	IsActive       bool      `gorm:"default:true;index" json:"is_active"`
	Features       string    `gorm:"type:json" json:"features"` // JSON array of strings, ordered
	PromoText      string    `gorm:"size:500" json:"promo_text"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Pricing []PlanPricing `gorm:"foreignKey:PlanID" json:"pricing,omitempty"`
}

func (Plan) TableName() string {
	return "plans"
}

// PlanPricing holds the price for one (plan, connection count) pair.
type PlanPricing struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	PlanID      uint   `gorm:"not null;uniqueIndex:idx_plan_connections" json:"plan_id"`
	Connections int    `gorm:"not null;uniqueIndex:idx_plan_connections" json:"connections"`
	Price       string `gorm:"type:decimal(10,2);not null" json:"price"`
}

func (PlanPricing) TableName() string {
	return "plan_pricing"
}
