package models

import "time"

// Credential types staff can issue.
const (
	CredentialTypeXtream   = "xtream"
	CredentialTypeM3U      = "m3u"
	CredentialTypePortal   = "portal"
	CredentialTypeCombined = "combined"
)

// IptvCredential is the delivered access for one connection slot of a
// verified order. Only the fields matching CredentialType are populated:
// xtream uses server_url/username/password, m3u uses m3u_url/epg_url,
// portal uses portal_url/mac_address, combined uses all of them.
type IptvCredential struct {
	ID               uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID           uint   `gorm:"not null;index" json:"user_id"`
	OrderID          uint   `gorm:"not null;uniqueIndex:idx_order_connection" json:"order_id"`
	ConnectionNumber int    `gorm:"not null;uniqueIndex:idx_order_connection" json:"connection_number"`
	CredentialType   string `gorm:"size:20" json:"credential_type"`

	ServerURL string `gorm:"size:500" json:"server_url,omitempty"`
	Username  string `gorm:"size:255" json:"username,omitempty"`
	Password  string `gorm:"size:255" json:"password,omitempty"`

	M3UURL string `gorm:"size:500" json:"m3u_url,omitempty"`
	EPGURL string `gorm:"size:500" json:"epg_url,omitempty"`

	PortalURL  string `gorm:"size:500" json:"portal_url,omitempty"`
	MacAddress string `gorm:"size:17" json:"mac_address,omitempty"`

	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	IsActive  bool       `gorm:"default:true;index" json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (IptvCredential) TableName() string {
	return "iptv_credentials"
}
