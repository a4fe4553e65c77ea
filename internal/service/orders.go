package service

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"streamvault/internal/models"
	"streamvault/internal/pkg/utils"
)

var macPattern = regexp.MustCompile(`^([0-9A-Fa-f]{2}[:-]){5}[0-9A-Fa-f]{2}$`)

// ValidMacAddress reports whether s is a colon- or dash-separated MAC
// address as required for MAG device checkout.
func ValidMacAddress(s string) bool {
	return macPattern.MatchString(s)
}

// priceTolerance is the maximum difference accepted between the
// client-supplied price and the configured plan price.
const priceTolerance = 0.005

// OrderService owns the order lifecycle: creation, the advisory payment
// confirmation stamp, and the staff verify/reject transitions.
type OrderService struct {
	orders   OrderStore
	plans    PlanStore
	options  PaymentOptionStore
	users    UserStore
	activity ActivityStore
	mailer   Mailer
	notifier Notifier
	logger   *zap.Logger
}

func NewOrderService(
	orders OrderStore,
	plans PlanStore,
	options PaymentOptionStore,
	users UserStore,
	activity ActivityStore,
	mailer Mailer,
	notifier Notifier,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orders:   orders,
		plans:    plans,
		options:  options,
		users:    users,
		activity: activity,
		mailer:   mailer,
		notifier: notifier,
		logger:   logger,
	}
}

// CreateOrderInput carries the checkout payload for a new order.
type CreateOrderInput struct {
	PlanID          uint
	Connections     int
	Price           string // client-resolved price, validated against PlanPricing
	PaymentMethodID *uint
	PaymentWidgetID *uint
	// Display snapshots supplied by the client; overridden by the
	// referenced method/widget when one is set.
	PaymentMethodName string
	PaymentMethodType string
	CredentialsType   string
	MacAddress        string
	Notes             string
}

var credentialsTypes = map[string]bool{
	models.CredentialsTypeXtream:  true,
	models.CredentialsTypeMag:     true,
	models.CredentialsTypeM3U:     true,
	models.CredentialsTypeEnigma2: true,
}

// Create inserts a pending order for the caller. The authoritative price is
// recomputed from PlanPricing; a client-supplied price that disagrees beyond
// a rounding tolerance is rejected rather than snapshotted.
func (s *OrderService) Create(caller Caller, in CreateOrderInput) (*models.Order, error) {
	if caller.IsAnonymous() {
		return nil, Forbiddenf("sign in to place an order")
	}
	if in.Connections < 1 || in.Connections > 10 {
		return nil, Validationf("connections must be between 1 and 10")
	}
	if in.PaymentMethodID != nil && in.PaymentWidgetID != nil {
		return nil, Validationf("choose either a payment method or a payment widget, not both")
	}
	if in.CredentialsType != "" && !credentialsTypes[in.CredentialsType] {
		return nil, Validationf("unknown credentials type %q", in.CredentialsType)
	}
	if in.CredentialsType == models.CredentialsTypeMag && !ValidMacAddress(in.MacAddress) {
		return nil, Validationf("a valid MAC address is required for MAG devices")
	}

	plan, err := s.plans.FindByID(in.PlanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundf("plan %d not found", in.PlanID)
		}
		return nil, Internal("load plan", err)
	}
	if !plan.IsActive {
		return nil, Validationf("plan %q is not available", plan.Name)
	}

	price, err := s.plans.PriceFor(in.PlanID, in.Connections)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Validationf("plan %q has no price for %d connections", plan.Name, in.Connections)
		}
		return nil, Internal("load plan pricing", err)
	}
	if in.Price != "" && !priceEqual(in.Price, price) {
		return nil, Validationf("price %s does not match the configured plan price %s", in.Price, price)
	}

	order := &models.Order{
		OrderNo:           utils.GenerateOrderNo(),
		UserID:            caller.UserID,
		PlanID:            in.PlanID,
		Connections:       in.Connections,
		Price:             price,
		PaymentMethodID:   in.PaymentMethodID,
		PaymentWidgetID:   in.PaymentWidgetID,
		PaymentMethodName: in.PaymentMethodName,
		PaymentMethodType: in.PaymentMethodType,
		CredentialsType:   in.CredentialsType,
		MacAddress:        in.MacAddress,
		Status:            models.OrderStatusPending,
		Notes:             in.Notes,
	}

	// Snapshot the display name/type so later edits to the method do not
	// rewrite order history.
	if in.PaymentMethodID != nil {
		if m, err := s.options.FindMethodByID(*in.PaymentMethodID); err == nil {
			order.PaymentMethodName = m.Name
			order.PaymentMethodType = m.Type
		}
	} else if in.PaymentWidgetID != nil {
		if w, err := s.options.FindWidgetByID(*in.PaymentWidgetID); err == nil {
			order.PaymentMethodName = w.Name
			order.PaymentMethodType = models.PaymentTypeCrypto
		}
	}

	if err := s.orders.Create(order); err != nil {
		return nil, Internal("create order", err)
	}

	s.logActivity("order_created", "order", order.ID, caller.UserID, map[string]interface{}{
		"order_no":    order.OrderNo,
		"plan_id":     order.PlanID,
		"connections": order.Connections,
		"price":       order.Price,
	})
	s.notifyOrderCreated(order, plan.Name)

	return order, nil
}

// ConfirmPayment stamps payment_confirmed_at for the order's owner. It is
// an advisory marker — the buyer claims to have paid — and never changes
// the order status; verification stays a staff action.
func (s *OrderService) ConfirmPayment(caller Caller, orderID uint) error {
	order, err := s.findOrder(orderID)
	if err != nil {
		return err
	}
	if order.UserID != caller.UserID {
		return Forbiddenf("order %d does not belong to you", orderID)
	}

	now := time.Now()
	if err := s.orders.Update(orderID, map[string]interface{}{"payment_confirmed_at": &now}); err != nil {
		return Internal("confirm payment", err)
	}

	s.logActivity("order_payment_confirmed", "order", orderID, caller.UserID, map[string]interface{}{
		"order_no": order.OrderNo,
	})
	return nil
}

// MarkPaidByProcessor stamps payment_confirmed_at from a crypto processor
// IPN callback. Like ConfirmPayment it is advisory only.
func (s *OrderService) MarkPaidByProcessor(orderNo, refID string) error {
	order, err := s.orders.FindByOrderNo(orderNo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NotFoundf("order %s not found", orderNo)
		}
		return Internal("load order", err)
	}

	now := time.Now()
	if err := s.orders.Update(order.ID, map[string]interface{}{"payment_confirmed_at": &now}); err != nil {
		return Internal("mark order paid", err)
	}

	s.logActivity("order_payment_notified", "order", order.ID, 0, map[string]interface{}{
		"order_no": orderNo,
		"ref_id":   refID,
	})
	return nil
}

// Verify moves a pending order to verified. The transition is a conditional
// update on status=pending; losing the race to another staff member yields
// a Conflict rather than silently overwriting a terminal state.
func (s *OrderService) Verify(caller Caller, orderID uint, notes string) error {
	if !caller.IsStaff() {
		return Forbiddenf("only staff can verify orders")
	}
	order, err := s.findOrder(orderID)
	if err != nil {
		return err
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":      models.OrderStatusVerified,
		"verified_at": &now,
		"verified_by": caller.UserID,
	}
	if notes != "" {
		updates["notes"] = notes
	}
	rows, err := s.orders.TransitionFromPending(orderID, updates)
	if err != nil {
		return Internal("verify order", err)
	}
	if rows == 0 {
		return Conflictf("order %d is no longer pending", orderID)
	}

	s.logActivity("order_verified", "order", orderID, caller.UserID, map[string]interface{}{
		"order_no": order.OrderNo,
	})

	if buyer, err := s.users.FindByID(order.UserID); err == nil {
		if err := s.mailer.SendPaymentVerified(buyer.Email, order); err != nil {
			s.logger.Warn("payment verified email failed", zap.Uint("order_id", orderID), zap.Error(err))
		}
	}
	return nil
}

// Reject moves a pending order to rejected. A non-empty reason is required;
// the buyer is told why.
func (s *OrderService) Reject(caller Caller, orderID uint, reason string) error {
	if !caller.IsStaff() {
		return Forbiddenf("only staff can reject orders")
	}
	if reason == "" {
		return Validationf("a rejection reason is required")
	}
	order, err := s.findOrder(orderID)
	if err != nil {
		return err
	}

	now := time.Now()
	rows, err := s.orders.TransitionFromPending(orderID, map[string]interface{}{
		"status":           models.OrderStatusRejected,
		"rejected_at":      &now,
		"rejected_by":      caller.UserID,
		"rejection_reason": reason,
	})
	if err != nil {
		return Internal("reject order", err)
	}
	if rows == 0 {
		return Conflictf("order %d is no longer pending", orderID)
	}

	s.logActivity("order_rejected", "order", orderID, caller.UserID, map[string]interface{}{
		"order_no": order.OrderNo,
		"reason":   reason,
	})

	if buyer, err := s.users.FindByID(order.UserID); err == nil {
		if err := s.mailer.SendPaymentRejected(buyer.Email, order, reason); err != nil {
			s.logger.Warn("payment rejected email failed", zap.Uint("order_id", orderID), zap.Error(err))
		}
	}
	return nil
}

// List returns all orders, optionally filtered by status. Staff only.
func (s *OrderService) List(caller Caller, status string) ([]models.Order, error) {
	if !caller.IsStaff() {
		return nil, Forbiddenf("only staff can list orders")
	}
	orders, err := s.orders.FindAll(status)
	if err != nil {
		return nil, Internal("list orders", err)
	}
	return orders, nil
}

// MyOrders returns the caller's own orders.
func (s *OrderService) MyOrders(caller Caller) ([]models.Order, error) {
	if caller.IsAnonymous() {
		return nil, Forbiddenf("sign in to view your orders")
	}
	orders, err := s.orders.FindByUserID(caller.UserID)
	if err != nil {
		return nil, Internal("list orders", err)
	}
	return orders, nil
}

// Get returns one order for its owner or staff.
func (s *OrderService) Get(caller Caller, orderID uint) (*models.Order, error) {
	order, err := s.findOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != caller.UserID && !caller.IsStaff() {
		return nil, Forbiddenf("order %d does not belong to you", orderID)
	}
	return order, nil
}

func (s *OrderService) findOrder(orderID uint) (*models.Order, error) {
	order, err := s.orders.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundf("order %d not found", orderID)
		}
		return nil, Internal("load order", err)
	}
	return order, nil
}

// notifyOrderCreated sends the buyer confirmation plus the staff alerts.
// All three are best effort: the order row is already committed and a
// notification failure must never surface to the buyer.
func (s *OrderService) notifyOrderCreated(order *models.Order, planName string) {
	buyer, err := s.users.FindByID(order.UserID)
	if err != nil {
		s.logger.Warn("order notification: buyer lookup failed", zap.Uint("user_id", order.UserID), zap.Error(err))
		return
	}
	if err := s.mailer.SendOrderConfirmation(buyer.Email, order, planName); err != nil {
		s.logger.Warn("order confirmation email failed", zap.String("order_no", order.OrderNo), zap.Error(err))
	}
	if err := s.mailer.SendNewOrderAlert(order, buyer.Email); err != nil {
		s.logger.Warn("new order alert email failed", zap.String("order_no", order.OrderNo), zap.Error(err))
	}
	if s.notifier != nil {
		if err := s.notifier.NewOrder(order, buyer.Email); err != nil {
			s.logger.Warn("new order telegram alert failed", zap.String("order_no", order.OrderNo), zap.Error(err))
		}
	}
}

func (s *OrderService) logActivity(action, entityType string, entityID, actorID uint, detail map[string]interface{}) {
	if err := s.activity.Append(action, entityType, entityID, actorID, detail); err != nil {
		s.logger.Warn("activity log append failed", zap.String("action", action), zap.Error(err))
	}
}

// priceEqual compares two decimal price strings within priceTolerance.
func priceEqual(a, b string) bool {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA != nil || errB != nil {
		return a == b
	}
	return math.Abs(fa-fb) < priceTolerance
}
