package api

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"streamvault/internal/middleware"
	"streamvault/internal/service"
)

// OrderHandler handles all order API actions.
type OrderHandler struct {
	services *Services
	logger   *zap.Logger
}

func NewOrderHandler(services *Services, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{services: services, logger: logger}
}

// Handle routes order API requests.
// POST /api/orders
func (h *OrderHandler) Handle(c echo.Context) error {
	action, body, err := parseBodyAction(c)
	if err != nil {
		return errorResponse(c, "invalid request body")
	}

	switch action {
	case "create":
		return h.create(c, body)
	case "confirm_payment":
		return h.confirmPayment(c, body)
	case "verify":
		return h.verify(c, body)
	case "reject":
		return h.reject(c, body)
	case "list":
		return h.list(c, body)
	case "my_orders":
		return h.myOrders(c)
	case "get":
		return h.get(c, body)
	default:
		return errorResponse(c, "unknown action: "+action)
	}
}

func (h *OrderHandler) create(c echo.Context, body map[string]interface{}) error {
	in := OrderInputFromBody(body)
	order, err := h.services.Orders.Create(middleware.CallerFrom(c), in)
	if err != nil {
		return failResponse(c, err)
	}
	return okResponse(c, map[string]interface{}{
		"orderId": order.ID,
		"orderNo": order.OrderNo,
		"status":  order.Status,
		"price":   order.Price,
	})
}

func (h *OrderHandler) confirmPayment(c echo.Context, body map[string]interface{}) error {
	orderID := getUintField(body, "order_id")
	if orderID == 0 {
		return errorResponse(c, "order_id is required")
	}
	if err := h.services.Orders.ConfirmPayment(middleware.CallerFrom(c), orderID); err != nil {
		return failResponse(c, err)
	}
	return okResponse(c, nil)
}

func (h *OrderHandler) verify(c echo.Context, body map[string]interface{}) error {
	orderID := getUintField(body, "order_id")
	if orderID == 0 {
		return errorResponse(c, "order_id is required")
	}
	notes := getStringField(body, "notes")
	if err := h.services.Orders.Verify(middleware.CallerFrom(c), orderID, notes); err != nil {
		return failResponse(c, err)
	}
	return okResponse(c, nil)
}

func (h *OrderHandler) reject(c echo.Context, body map[string]interface{}) error {
	orderID := getUintField(body, "order_id")
	if orderID == 0 {
		return errorResponse(c, "order_id is required")
	}
	reason := getStringField(body, "reason")
	if err := h.services.Orders.Reject(middleware.CallerFrom(c), orderID, reason); err != nil {
		return failResponse(c, err)
	}
	return okResponse(c, nil)
}

func (h *OrderHandler) list(c echo.Context, body map[string]interface{}) error {
	status := getStringField(body, "status")
	orders, err := h.services.Orders.List(middleware.CallerFrom(c), status)
	if err != nil {
		return failResponse(c, err)
	}
	return okResponse(c, map[string]interface{}{"orders": orders})
}

func (h *OrderHandler) myOrders(c echo.Context) error {
	orders, err := h.services.Orders.MyOrders(middleware.CallerFrom(c))
	if err != nil {
		return failResponse(c, err)
	}
	return okResponse(c, map[string]interface{}{"orders": orders})
}

func (h *OrderHandler) get(c echo.Context, body map[string]interface{}) error {
	orderID := getUintField(body, "order_id")
	if orderID == 0 {
		return errorResponse(c, "order_id is required")
	}
	order, err := h.services.Orders.Get(middleware.CallerFrom(c), orderID)
	if err != nil {
		return failResponse(c, err)
	}
	return okResponse(c, map[string]interface{}{"order": order})
}

// OrderInputFromBody maps the wire payload onto the order service input.
// Shared with the guest checkout handler.
func OrderInputFromBody(body map[string]interface{}) service.CreateOrderInput {
	return service.CreateOrderInput{
		PlanID:            getUintField(body, "plan_id"),
		Connections:       getIntField(body, "connections", 0),
		Price:             getStringField(body, "price"),
		PaymentMethodID:   getUintPtrField(body, "payment_method_id"),
		PaymentWidgetID:   getUintPtrField(body, "payment_widget_id"),
		PaymentMethodName: getStringField(body, "payment_method_name"),
		PaymentMethodType: getStringField(body, "payment_method_type"),
		CredentialsType:   getStringField(body, "credentials_type"),
		MacAddress:        getStringField(body, "mac_address"),
		Notes:             getStringField(body, "notes"),
	}
}
