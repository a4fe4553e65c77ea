package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"streamvault/internal/models"
	"streamvault/internal/payment"
)

// PaymentOptionService resolves the payment methods and widget eligible for
// a (plan, connection count) pair and carries the admin CRUD for both.
type PaymentOptionService struct {
	options   PaymentOptionStore
	activity  ActivityStore
	processor payment.InvoiceProcessor
	logger    *zap.Logger
}

func NewPaymentOptionService(options PaymentOptionStore, activity ActivityStore, processor payment.InvoiceProcessor, logger *zap.Logger) *PaymentOptionService {
	return &PaymentOptionService{options: options, activity: activity, processor: processor, logger: logger}
}

// MethodsForPlan returns the active methods whose connection range covers
// the requested count, sorted by sort order. An empty result is a valid
// checkout state, not an error.
func (s *PaymentOptionService) MethodsForPlan(planID uint, connections int) ([]models.PaymentMethod, error) {
	methods, err := s.options.MethodsForPlan(planID, connections)
	if err != nil {
		return nil, Internal("resolve payment methods", err)
	}
	return methods, nil
}

// WidgetForPlan returns the first active widget covering the requested
// count, or nil when none matches.
func (s *PaymentOptionService) WidgetForPlan(planID uint, connections int) (*models.PaymentWidget, error) {
	widget, err := s.options.WidgetForPlan(planID, connections)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, Internal("resolve payment widget", err)
	}
	return widget, nil
}

// ── Admin CRUD ───────────────────────────────────────────────────────

func (s *PaymentOptionService) ListMethods(caller Caller) ([]models.PaymentMethod, error) {
	if !caller.IsAdmin() {
		return nil, Forbiddenf("only admins can manage payment methods")
	}
	methods, err := s.options.FindAllMethods()
	if err != nil {
		return nil, Internal("list payment methods", err)
	}
	return methods, nil
}

func (s *PaymentOptionService) CreateMethod(caller Caller, m *models.PaymentMethod) error {
	if !caller.IsAdmin() {
		return Forbiddenf("only admins can manage payment methods")
	}
	if err := validateRange(m.MinConnections, m.MaxConnections); err != nil {
		return err
	}
	switch m.Type {
	case models.PaymentTypeCard, models.PaymentTypePayPal, models.PaymentTypeCrypto, models.PaymentTypeCustom:
	default:
		return Validationf("unknown payment method type %q", m.Type)
	}
	if err := s.options.CreateMethod(m); err != nil {
		return Internal("create payment method", err)
	}
	s.logActivity(caller, "payment_method_created", "payment_method", m.ID, map[string]interface{}{"name": m.Name})
	return nil
}

func (s *PaymentOptionService) UpdateMethod(caller Caller, id uint, updates map[string]interface{}) error {
	if !caller.IsAdmin() {
		return Forbiddenf("only admins can manage payment methods")
	}
	if _, err := s.options.FindMethodByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NotFoundf("payment method %d not found", id)
		}
		return Internal("load payment method", err)
	}
	if err := s.options.UpdateMethod(id, updates); err != nil {
		return Internal("update payment method", err)
	}
	s.logActivity(caller, "payment_method_updated", "payment_method", id, updates)
	return nil
}

func (s *PaymentOptionService) DeleteMethod(caller Caller, id uint) error {
	if !caller.IsAdmin() {
		return Forbiddenf("only admins can manage payment methods")
	}
	if err := s.options.DeleteMethod(id); err != nil {
		return Internal("delete payment method", err)
	}
	s.logActivity(caller, "payment_method_deleted", "payment_method", id, nil)
	return nil
}

func (s *PaymentOptionService) ListWidgets(caller Caller) ([]models.PaymentWidget, error) {
	if !caller.IsAdmin() {
		return nil, Forbiddenf("only admins can manage payment widgets")
	}
	widgets, err := s.options.FindAllWidgets()
	if err != nil {
		return nil, Internal("list payment widgets", err)
	}
	return widgets, nil
}

// CreateWidget stores a widget. When no invoice id is supplied and a
// processor is configured, a fresh invoice is created at the processor so
// the widget is immediately embeddable.
func (s *PaymentOptionService) CreateWidget(caller Caller, w *models.PaymentWidget) error {
	if !caller.IsAdmin() {
		return Forbiddenf("only admins can manage payment widgets")
	}
	if err := validateRange(w.MinConnections, w.MaxConnections); err != nil {
		return err
	}
	if w.InvoiceID == "" && s.processor != nil {
		inv, err := s.processor.CreateInvoice(context.Background(), w.Name)
		if err != nil {
			s.logger.Warn("processor invoice creation failed", zap.String("widget", w.Name), zap.Error(err))
		} else {
			w.InvoiceID = inv.ID
		}
	}
	if err := s.options.CreateWidget(w); err != nil {
		return Internal("create payment widget", err)
	}
	s.logActivity(caller, "payment_widget_created", "payment_widget", w.ID, map[string]interface{}{"name": w.Name})
	return nil
}

func (s *PaymentOptionService) UpdateWidget(caller Caller, id uint, updates map[string]interface{}) error {
	if !caller.IsAdmin() {
		return Forbiddenf("only admins can manage payment widgets")
	}
	if _, err := s.options.FindWidgetByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NotFoundf("payment widget %d not found", id)
		}
		return Internal("load payment widget", err)
	}
	if err := s.options.UpdateWidget(id, updates); err != nil {
		return Internal("update payment widget", err)
	}
	s.logActivity(caller, "payment_widget_updated", "payment_widget", id, updates)
	return nil
}

func (s *PaymentOptionService) DeleteWidget(caller Caller, id uint) error {
	if !caller.IsAdmin() {
		return Forbiddenf("only admins can manage payment widgets")
	}
	if err := s.options.DeleteWidget(id); err != nil {
		return Internal("delete payment widget", err)
	}
	s.logActivity(caller, "payment_widget_deleted", "payment_widget", id, nil)
	return nil
}

func validateRange(min, max int) error {
	if min < 1 || max > 10 || min > max {
		return Validationf("connection range %d..%d is invalid", min, max)
	}
	return nil
}

func (s *PaymentOptionService) logActivity(caller Caller, action, entityType string, entityID uint, detail map[string]interface{}) {
	if err := s.activity.Append(action, entityType, entityID, caller.UserID, detail); err != nil {
		s.logger.Warn("activity log append failed", zap.String("action", action), zap.Error(err))
	}
}
