package service

import (
	"errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"streamvault/internal/models"
)

// SessionMinter issues a session token for a user, so a guest is signed in
// immediately after checkout.
type SessionMinter interface {
	Mint(user *models.User) (string, error)
}

// CheckoutService is the guest checkout flow: create or look up the
// identity for an email, create the order, and mint a session.
type CheckoutService struct {
	users    UserStore
	orders   *OrderService
	activity ActivityStore
	sessions SessionMinter
	logger   *zap.Logger
}

func NewCheckoutService(users UserStore, orders *OrderService, activity ActivityStore, sessions SessionMinter, logger *zap.Logger) *CheckoutService {
	return &CheckoutService{users: users, orders: orders, activity: activity, sessions: sessions, logger: logger}
}

// GuestCheckoutInput is the unauthenticated checkout payload.
type GuestCheckoutInput struct {
	Email    string
	Password string
	Name     string
	Order    CreateOrderInput
}

// GuestCheckoutResult reports the created order and session.
type GuestCheckoutResult struct {
	OrderID         uint   `json:"orderId"`
	OrderNo         string `json:"orderNo"`
	UserID          uint   `json:"userId"`
	IsNewUser       bool   `json:"isNewUser"`
	CredentialsType string `json:"credentialsType"`
	SessionToken    string `json:"sessionToken"`
}

// Checkout runs the composite flow. A known email with a matching password
// reuses the account; a known email with a wrong password fails with the
// existing-account conflict so the client can route to sign-in. New
// accounts skip email OTP verification — a deliberate shortcut for
// checkout conversion. If order creation fails after the account was
// created, the fresh account is deleted again so no orphan identity is
// left behind.
func (s *CheckoutService) Checkout(in GuestCheckoutInput) (*GuestCheckoutResult, error) {
	if in.Email == "" {
		return nil, Validationf("email is required")
	}
	if len(in.Password) < 8 {
		return nil, Validationf("password must be at least 8 characters")
	}

	user, isNew, err := s.resolveIdentity(in)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.Create(Caller{UserID: user.ID, Role: user.Role}, in.Order)
	if err != nil {
		if isNew {
			if delErr := s.users.Delete(user.ID); delErr != nil {
				s.logger.Error("guest checkout: orphan account cleanup failed",
					zap.Uint("user_id", user.ID), zap.Error(delErr))
			}
		}
		return nil, err
	}

	if err := s.activity.Append("guest_checkout", "order", order.ID, user.ID, map[string]interface{}{
		"email":       in.Email,
		"is_new_user": isNew,
	}); err != nil {
		s.logger.Warn("activity log append failed", zap.Error(err))
	}

	token, err := s.sessions.Mint(user)
	if err != nil {
		// The order exists and emails went out; a session failure only
		// costs the auto-login.
		s.logger.Error("guest checkout: session mint failed", zap.Uint("user_id", user.ID), zap.Error(err))
	}

	return &GuestCheckoutResult{
		OrderID:         order.ID,
		OrderNo:         order.OrderNo,
		UserID:          user.ID,
		IsNewUser:       isNew,
		CredentialsType: order.CredentialsType,
		SessionToken:    token,
	}, nil
}

func (s *CheckoutService) resolveIdentity(in GuestCheckoutInput) (*models.User, bool, error) {
	existing, err := s.users.FindByEmail(in.Email)
	switch {
	case err == nil:
		if bcrypt.CompareHashAndPassword([]byte(existing.PasswordHash), []byte(in.Password)) != nil {
			return nil, false, &Error{
				Kind:            KindConflict,
				Message:         "an account with this email already exists",
				ExistingAccount: true,
			}
		}
		return existing, false, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		hash, hashErr := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if hashErr != nil {
			return nil, false, Internal("hash password", hashErr)
		}
		user := &models.User{
			Email:        in.Email,
			Name:         in.Name,
			PasswordHash: string(hash),
			Role:         models.RoleUser,
			// Checkout identities skip the OTP round-trip.
			EmailVerified: true,
		}
		if createErr := s.users.Create(user); createErr != nil {
			return nil, false, Internal("create account", createErr)
		}
		return user, true, nil
	default:
		return nil, false, Internal("look up account", err)
	}
}
