package models

import "time"

// Roles recognised by the access gate.
const (
	RoleUser  = "user"
	RoleAgent = "agent"
	RoleAdmin = "admin"
)

// User is an account, created either by an admin or implicitly through
// guest checkout. Password hashes are bcrypt.
type User struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email         string    `gorm:"size:255;uniqueIndex" json:"email"`
	Name          string    `gorm:"size:255" json:"name"`
	PasswordHash  string    `gorm:"size:255" json:"-"`
	Role          string    `gorm:"size:20;default:'user'" json:"role"`
	EmailVerified bool      `gorm:"default:false" json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// IsStaff reports whether the user may perform order verification and
// other agent-level operations.
func (u *User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleAgent
}

// IsAdmin reports whether the user may perform destructive/global operations.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
