package service

import "streamvault/internal/models"

// Store interfaces consumed by the services. The repository package provides
// the GORM-backed implementations; tests substitute in-memory fakes.
// Lookups return gorm.ErrRecordNotFound when the row does not exist.

type UserStore interface {
	FindByID(id uint) (*models.User, error)
	FindByEmail(email string) (*models.User, error)
	Create(user *models.User) error
	Delete(id uint) error
}

type PlanStore interface {
	FindByID(id uint) (*models.Plan, error)
	FindAll(activeOnly bool) ([]models.Plan, error)
	Create(plan *models.Plan) error
	Update(id uint, updates map[string]interface{}) error
	Delete(id uint) error
	ReplacePricing(planID uint, rows []models.PlanPricing) error
	PriceFor(planID uint, connections int) (string, error)
}

type PaymentOptionStore interface {
	MethodsForPlan(planID uint, connections int) ([]models.PaymentMethod, error)
	WidgetForPlan(planID uint, connections int) (*models.PaymentWidget, error)
	FindMethodByID(id uint) (*models.PaymentMethod, error)
	FindWidgetByID(id uint) (*models.PaymentWidget, error)
	FindAllMethods() ([]models.PaymentMethod, error)
	FindAllWidgets() ([]models.PaymentWidget, error)
	CreateMethod(m *models.PaymentMethod) error
	UpdateMethod(id uint, updates map[string]interface{}) error
	DeleteMethod(id uint) error
	CreateWidget(w *models.PaymentWidget) error
	UpdateWidget(id uint, updates map[string]interface{}) error
	DeleteWidget(id uint) error
}

type OrderStore interface {
	FindByID(id uint) (*models.Order, error)
	FindByOrderNo(orderNo string) (*models.Order, error)
	FindAll(status string) ([]models.Order, error)
	FindByUserID(userID uint) ([]models.Order, error)
	Create(order *models.Order) error
	Update(id uint, updates map[string]interface{}) error
	// TransitionFromPending applies updates only while status is still
	// pending and returns the number of rows affected. Zero rows on an
	// existing order means a concurrent transition already won.
	TransitionFromPending(id uint, updates map[string]interface{}) (int64, error)
}

type CredentialStore interface {
	FindByID(id uint) (*models.IptvCredential, error)
	FindByUserID(userID uint) ([]models.IptvCredential, error)
	FindByOrderID(orderID uint) ([]models.IptvCredential, error)
	FindByOrderAndSlot(orderID uint, connectionNumber int) (*models.IptvCredential, error)
	Create(cred *models.IptvCredential) error
	Update(id uint, updates map[string]interface{}) error
	Delete(id uint) error
}

type ActivityStore interface {
	Append(action, entityType string, entityID, actorID uint, detail map[string]interface{}) error
}

// Mailer dispatches transactional email. Callers treat failures as
// log-only; a send error never aborts the operation that triggered it.
type Mailer interface {
	SendOrderConfirmation(to string, order *models.Order, planName string) error
	SendNewOrderAlert(order *models.Order, buyerEmail string) error
	SendPaymentVerified(to string, order *models.Order) error
	SendPaymentRejected(to string, order *models.Order, reason string) error
	SendCredentialsDelivered(to string, cred *models.IptvCredential) error
	SendExpiryReminder(to string, cred *models.IptvCredential) error
}

// Notifier pushes short staff-facing messages (Telegram). Best effort.
type Notifier interface {
	NewOrder(order *models.Order, buyerEmail string) error
}
