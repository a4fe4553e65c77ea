package service

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"streamvault/internal/models"
	"streamvault/internal/pkg/utils"
)

// defaultCredentialTTL is applied when no expiry is supplied at issuance.
const defaultCredentialTTL = 30 * 24 * time.Hour

// CredentialService issues, updates and lists IPTV access credentials for
// verified orders.
type CredentialService struct {
	credentials CredentialStore
	orders      OrderStore
	users       UserStore
	activity    ActivityStore
	mailer      Mailer
	logger      *zap.Logger
}

func NewCredentialService(
	credentials CredentialStore,
	orders OrderStore,
	users UserStore,
	activity ActivityStore,
	mailer Mailer,
	logger *zap.Logger,
) *CredentialService {
	return &CredentialService{
		credentials: credentials,
		orders:      orders,
		users:       users,
		activity:    activity,
		mailer:      mailer,
		logger:      logger,
	}
}

// CreateCredentialInput carries the fields for one connection slot.
type CreateCredentialInput struct {
	UserID           uint
	OrderID          uint
	ConnectionNumber int
	CredentialType   string

	ServerURL string
	Username  string
	Password  string

	M3UURL string
	EPGURL string

	PortalURL  string
	MacAddress string

	ExpiresAt *time.Time
	IsActive  *bool
}

var credentialTypes = map[string]bool{
	models.CredentialTypeXtream:   true,
	models.CredentialTypeM3U:      true,
	models.CredentialTypePortal:   true,
	models.CredentialTypeCombined: true,
}

// Create issues a credential for one connection slot of a verified order
// and emails the delivery to the owning user. Admin only. The referenced
// order must be verified and the (order, slot) pair must be unused.
func (s *CredentialService) Create(caller Caller, in CreateCredentialInput) (*models.IptvCredential, error) {
	if !caller.IsAdmin() {
		return nil, Forbiddenf("only admins can issue credentials")
	}
	if in.ConnectionNumber < 1 || in.ConnectionNumber > 10 {
		return nil, Validationf("connection number must be between 1 and 10")
	}
	if !credentialTypes[in.CredentialType] {
		return nil, Validationf("unknown credential type %q", in.CredentialType)
	}

	order, err := s.orders.FindByID(in.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundf("order %d not found", in.OrderID)
		}
		return nil, Internal("load order", err)
	}
	if order.Status != models.OrderStatusVerified {
		return nil, Validationf("order %d is %s; credentials can only be issued for verified orders", in.OrderID, order.Status)
	}
	if in.ConnectionNumber > order.Connections {
		return nil, Validationf("order %d covers %d connections", in.OrderID, order.Connections)
	}
	if existing, err := s.credentials.FindByOrderAndSlot(in.OrderID, in.ConnectionNumber); err == nil && existing != nil {
		return nil, Conflictf("connection %d of order %d already has a credential", in.ConnectionNumber, in.OrderID)
	}

	cred := &models.IptvCredential{
		UserID:           in.UserID,
		OrderID:          in.OrderID,
		ConnectionNumber: in.ConnectionNumber,
		CredentialType:   in.CredentialType,
		ServerURL:        in.ServerURL,
		Username:         in.Username,
		Password:         in.Password,
		M3UURL:           in.M3UURL,
		EPGURL:           in.EPGURL,
		PortalURL:        in.PortalURL,
		MacAddress:       in.MacAddress,
		ExpiresAt:        in.ExpiresAt,
		IsActive:         true,
	}
	if cred.UserID == 0 {
		cred.UserID = order.UserID
	}
	// Only the fields matching the credential type are stored; stray form
	// input must not leak into other delivery channels.
	switch cred.CredentialType {
	case models.CredentialTypeXtream:
		cred.M3UURL, cred.EPGURL = "", ""
		cred.PortalURL, cred.MacAddress = "", ""
	case models.CredentialTypeM3U:
		cred.ServerURL, cred.Username, cred.Password = "", "", ""
		cred.PortalURL, cred.MacAddress = "", ""
	case models.CredentialTypePortal:
		cred.ServerURL, cred.Username, cred.Password = "", "", ""
		cred.M3UURL, cred.EPGURL = "", ""
	}
	// Xtream logins are generated when the admin leaves them blank.
	if cred.CredentialType == models.CredentialTypeXtream || cred.CredentialType == models.CredentialTypeCombined {
		if cred.Username == "" {
			cred.Username = utils.GenerateUsername("")
		}
		if cred.Password == "" {
			cred.Password = utils.RandomHex(8)
		}
	}
	if cred.ExpiresAt == nil {
		exp := time.Now().Add(defaultCredentialTTL)
		cred.ExpiresAt = &exp
	}
	if in.IsActive != nil {
		cred.IsActive = *in.IsActive
	}

	if err := s.credentials.Create(cred); err != nil {
		return nil, Internal("create credential", err)
	}

	s.logActivity(caller, "credential_created", cred.ID, map[string]interface{}{
		"order_id":          cred.OrderID,
		"connection_number": cred.ConnectionNumber,
		"credential_type":   cred.CredentialType,
	})

	if user, err := s.users.FindByID(cred.UserID); err == nil {
		if err := s.mailer.SendCredentialsDelivered(user.Email, cred); err != nil {
			s.logger.Warn("credential delivery email failed", zap.Uint("credential_id", cred.ID), zap.Error(err))
		}
	}

	return cred, nil
}

// Update applies partial field updates. Admin only.
func (s *CredentialService) Update(caller Caller, id uint, updates map[string]interface{}) error {
	if !caller.IsAdmin() {
		return Forbiddenf("only admins can manage credentials")
	}
	if _, err := s.findCredential(id); err != nil {
		return err
	}
	if err := s.credentials.Update(id, updates); err != nil {
		return Internal("update credential", err)
	}
	s.logActivity(caller, "credential_updated", id, updates)
	return nil
}

// Delete removes a credential. Admin only.
func (s *CredentialService) Delete(caller Caller, id uint) error {
	if !caller.IsAdmin() {
		return Forbiddenf("only admins can manage credentials")
	}
	if _, err := s.findCredential(id); err != nil {
		return err
	}
	if err := s.credentials.Delete(id); err != nil {
		return Internal("delete credential", err)
	}
	s.logActivity(caller, "credential_deleted", id, nil)
	return nil
}

// MyCredentials returns all of the caller's credentials, active and
// expired alike; the client partitions them for display.
func (s *CredentialService) MyCredentials(caller Caller) ([]models.IptvCredential, error) {
	if caller.IsAnonymous() {
		return nil, Forbiddenf("sign in to view your credentials")
	}
	creds, err := s.credentials.FindByUserID(caller.UserID)
	if err != nil {
		return nil, Internal("list credentials", err)
	}
	return creds, nil
}

// ByOrder returns the credentials of one order for its owner or staff.
func (s *CredentialService) ByOrder(caller Caller, orderID uint) ([]models.IptvCredential, error) {
	order, err := s.orders.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundf("order %d not found", orderID)
		}
		return nil, Internal("load order", err)
	}
	if order.UserID != caller.UserID && !caller.IsStaff() {
		return nil, Forbiddenf("order %d does not belong to you", orderID)
	}
	creds, err := s.credentials.FindByOrderID(orderID)
	if err != nil {
		return nil, Internal("list credentials", err)
	}
	return creds, nil
}

func (s *CredentialService) findCredential(id uint) (*models.IptvCredential, error) {
	cred, err := s.credentials.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundf("credential %d not found", id)
		}
		return nil, Internal("load credential", err)
	}
	return cred, nil
}

func (s *CredentialService) logActivity(caller Caller, action string, credentialID uint, detail map[string]interface{}) {
	if err := s.activity.Append(action, "credential", credentialID, caller.UserID, detail); err != nil {
		s.logger.Warn("activity log append failed", zap.String("action", action), zap.Error(err))
	}
}
