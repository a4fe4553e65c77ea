package models

import "time"

// Order statuses. Transitions are pending → verified or pending → rejected;
// both targets are terminal.
const (
	OrderStatusPending  = "pending"
	OrderStatusVerified = "verified"
	OrderStatusRejected = "rejected"
)

// Credentials types a buyer can request at checkout.
const (
	CredentialsTypeXtream  = "xtream"
	CredentialsTypeMag     = "mag"
	CredentialsTypeM3U     = "m3u"
	CredentialsTypeEnigma2 = "enigma2"
)

// Order is one purchase of a plan. Price and payment method name/type are
// snapshotted at creation so later edits to the plan or method do not
// rewrite order history.
type Order struct {
	ID              uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNo         string `gorm:"size:36;uniqueIndex" json:"order_no"`
	UserID          uint   `gorm:"not null;index" json:"user_id"`
	PlanID          uint   `gorm:"not null;index" json:"plan_id"`
	Connections     int    `gorm:"not null;default:1" json:"connections"`
	Price           string `gorm:"type:decimal(10,2);not null" json:"price"`
	PaymentMethodID *uint  `json:"payment_method_id,omitempty"`
	PaymentWidgetID *uint  `json:"payment_widget_id,omitempty"`

	// Denormalized display snapshots.
	PaymentMethodName string `gorm:"size:255" json:"payment_method_name"`
	PaymentMethodType string `gorm:"size:20" json:"payment_method_type"`

	CredentialsType string `gorm:"size:20" json:"credentials_type"`
	MacAddress      string `gorm:"size:17" json:"mac_address,omitempty"`

	Status             string     `gorm:"size:20;default:'pending';index" json:"status"`
	PaymentConfirmedAt *time.Time `json:"payment_confirmed_at,omitempty"`
	VerifiedAt         *time.Time `json:"verified_at,omitempty"`
	VerifiedBy         *uint      `json:"verified_by,omitempty"`
	RejectedAt         *time.Time `json:"rejected_at,omitempty"`
	RejectedBy         *uint      `json:"rejected_by,omitempty"`
	RejectionReason    string     `gorm:"size:500" json:"rejection_reason,omitempty"`
	Notes              string     `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}
