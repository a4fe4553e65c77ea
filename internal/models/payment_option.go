package models

import "time"

// Payment method types.
const (
	PaymentTypeCard   = "card"
	PaymentTypePayPal = "paypal"
	PaymentTypeCrypto = "crypto"
	PaymentTypeCustom = "custom"
)

// PaymentMethod is a manually verified payment channel scoped to one plan
// and a connection-count range.
type PaymentMethod struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string    `gorm:"size:255" json:"name"`
	Type           string    `gorm:"size:20" json:"type"`
	PlanID         uint      `gorm:"not null;index" json:"plan_id"`
	MinConnections int       `gorm:"not null;default:1" json:"min_connections"`
	MaxConnections int       `gorm:"not null;default:1" json:"max_connections"`
	Instructions   string    `gorm:"type:text" json:"instructions"`
	PaymentLink    string    `gorm:"size:500" json:"payment_link"`
	IsActive       bool      `gorm:"default:true;index" json:"is_active"`
	SortOrder      int       `gorm:"default:0" json:"sort_order"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (PaymentMethod) TableName() string {
	return "payment_methods"
}

// PaymentWidget is an embedded crypto payment flow backed by an invoice at
// the external processor, scoped like PaymentMethod.
type PaymentWidget struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string    `gorm:"size:255" json:"name"`
	PlanID         uint      `gorm:"not null;index" json:"plan_id"`
	MinConnections int       `gorm:"not null;default:1" json:"min_connections"`
	MaxConnections int       `gorm:"not null;default:1" json:"max_connections"`
	InvoiceID      string    `gorm:"size:255" json:"invoice_id"`
	IsActive       bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (PaymentWidget) TableName() string {
	return "payment_widgets"
}
