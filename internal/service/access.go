package service

import "streamvault/internal/models"

// Caller is the explicit identity+role every operation receives. There is
// no ambient session state; handlers resolve the caller once and pass it
// down.
type Caller struct {
	UserID uint
	Role   string
}

// Anonymous is the caller for unauthenticated requests.
var Anonymous = Caller{}

func (c Caller) IsAnonymous() bool {
	return c.UserID == 0
}

// IsStaff reports whether the caller may verify/reject orders and list all
// orders.
func (c Caller) IsStaff() bool {
	return c.Role == models.RoleAdmin || c.Role == models.RoleAgent
}

// IsAdmin reports whether the caller may perform destructive/global
// operations (plan, payment option and credential management).
func (c Caller) IsAdmin() bool {
	return c.Role == models.RoleAdmin
}
