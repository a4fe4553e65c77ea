package api

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"streamvault/internal/middleware"
	"streamvault/internal/models"
)

// PaymentOptionHandler handles payment method and widget API actions.
type PaymentOptionHandler struct {
	services *Services
	logger   *zap.Logger
}

func NewPaymentOptionHandler(services *Services, logger *zap.Logger) *PaymentOptionHandler {
	return &PaymentOptionHandler{services: services, logger: logger}
}

// Handle routes payment option API requests.
// POST /api/payment-methods and POST /api/payment-widgets
func (h *PaymentOptionHandler) Handle(c echo.Context) error {
	action, body, err := parseBodyAction(c)
	if err != nil {
		return errorResponse(c, "invalid request body")
	}

	switch action {
	case "methods_for_plan":
		return h.methodsForPlan(c, body)
	case "widget_for_plan":
		return h.widgetForPlan(c, body)
	case "list_methods":
		return h.listMethods(c)
	case "create_method":
		return h.createMethod(c, body)
	case "update_method":
		return h.updateMethod(c, body)
	case "delete_method":
		return h.deleteMethod(c, body)
	case "list_widgets":
		return h.listWidgets(c)
	case "create_widget":
		return h.createWidget(c, body)
	case "update_widget":
		return h.updateWidget(c, body)
	case "delete_widget":
		return h.deleteWidget(c, body)
	default:
		return errorResponse(c, "unknown action: "+action)
	}
}

func (h *PaymentOptionHandler) methodsForPlan(c echo.Context, body map[string]interface{}) error {
	planID := getUintField(body, "plan_id")
	connections := getIntField(body, "connections", 1)
	if planID == 0 {
		return errorResponse(c, "plan_id is required")
	}

	methods, err := h.services.Options.MethodsForPlan(planID, connections)
	if err != nil {
		h.logger.Error("resolve payment methods failed", zap.Uint("plan_id", planID), zap.Error(err))
		return failResponse(c, err)
	}
	// An empty list is a valid checkout state.
	return okResponse(c, map[string]interface{}{"methods": methods})
}

func (h *PaymentOptionHandler) widgetForPlan(c echo.Context, body map[string]interface{}) error {
	planID := getUintField(body, "plan_id")
	connections := getIntField(body, "connections", 1)
	if planID == 0 {
		return errorResponse(c, "plan_id is required")
	}

	widget, err := h.services.Options.WidgetForPlan(planID, connections)
	if err != nil {
		h.logger.Error("resolve payment widget failed", zap.Uint("plan_id", planID), zap.Error(err))
		return failResponse(c, err)
	}
	return okResponse(c, map[string]interface{}{"widget": widget})
}

func (h *PaymentOptionHandler) listMethods(c echo.Context) error {
	methods, err := h.services.Options.ListMethods(middleware.CallerFrom(c))
	if err != nil {
		return failResponse(c, err)
	}
	return okResponse(c, map[string]interface{}{"methods": methods})
}

func (h *PaymentOptionHandler) createMethod(c echo.Context, body map[string]interface{}) error {
	m := &models.PaymentMethod{
		Name:           getStringField(body, "name"),
		Type:           getStringField(body, "type"),
		PlanID:         getUintField(body, "plan_id"),
		MinConnections: getIntField(body, "min_connections", 1),
		MaxConnections: getIntField(body, "max_connections", 1),
		Instructions:   getStringField(body, "instructions"),
		PaymentLink:    getStringField(body, "payment_link"),
		IsActive:       getBoolField(body, "is_active", true),
		SortOrder:      getIntField(body, "sort_order", 0),
	}
	if m.Name == "" || m.PlanID == 0 {
		return errorResponse(c, "name and plan_id are required")
	}
	if err := h.services.Options.CreateMethod(middleware.CallerFrom(c), m); err != nil {
		return failResponse(c, err)
	}
	return okResponse(c, map[string]interface{}{"id": m.ID})
}

func (h *PaymentOptionHandler) updateMethod(c echo.Context, body map[string]interface{}) error {
	id := getUintField(body, "id")
	if id == 0 {
		return errorResponse(c, "id is required")
	}
	updates := collectOptionUpdates(body, true)
	if err := h.services.Options.UpdateMethod(middleware.CallerFrom(c), id, updates); err != nil {
		return failResponse(c, err)
	}
	return okResponse(c, nil)
}

func (h *PaymentOptionHandler) deleteMethod(c echo.Context, body map[string]interface{}) error {
	id := getUintField(body, "id")
	if id == 0 {
		return errorResponse(c, "id is required")
	}
	if err := h.services.Options.DeleteMethod(middleware.CallerFrom(c), id); err != nil {
		return failResponse(c, err)
	}
	return okResponse(c, nil)
}

func (h *PaymentOptionHandler) listWidgets(c echo.Context) error {
	widgets, err := h.services.Options.ListWidgets(middleware.CallerFrom(c))
	if err != nil {
		return failResponse(c, err)
	}
	return okResponse(c, map[string]interface{}{"widgets": widgets})
}

func (h *PaymentOptionHandler) createWidget(c echo.Context, body map[string]interface{}) error {
	w := &models.PaymentWidget{
		Name:           getStringField(body, "name"),
		PlanID:         getUintField(body, "plan_id"),
		MinConnections: getIntField(body, "min_connections", 1),
		MaxConnections: getIntField(body, "max_connections", 1),
		InvoiceID:      getStringField(body, "invoice_id"),
		IsActive:       getBoolField(body, "is_active", true),
	}
	if w.Name == "" || w.PlanID == 0 {
		return errorResponse(c, "name and plan_id are required")
	}
	if err := h.services.Options.CreateWidget(middleware.CallerFrom(c), w); err != nil {
		return failResponse(c, err)
	}
	return okResponse(c, map[string]interface{}{"id": w.ID, "invoice_id": w.InvoiceID})
}

func (h *PaymentOptionHandler) updateWidget(c echo.Context, body map[string]interface{}) error {
	id := getUintField(body, "id")
	if id == 0 {
		return errorResponse(c, "id is required")
	}
	updates := collectOptionUpdates(body, false)
	if _, ok := body["invoice_id"]; ok {
		updates["invoice_id"] = getStringField(body, "invoice_id")
	}
	if err := h.services.Options.UpdateWidget(middleware.CallerFrom(c), id, updates); err != nil {
		return failResponse(c, err)
	}
	return okResponse(c, nil)
}

func (h *PaymentOptionHandler) deleteWidget(c echo.Context, body map[string]interface{}) error {
	id := getUintField(body, "id")
	if id == 0 {
		return errorResponse(c, "id is required")
	}
	if err := h.services.Options.DeleteWidget(middleware.CallerFrom(c), id); err != nil {
		return failResponse(c, err)
	}
	return okResponse(c, nil)
}

// collectOptionUpdates gathers the shared mutable fields of methods and
// widgets from the request body.
func collectOptionUpdates(body map[string]interface{}, method bool) map[string]interface{} {
	updates := map[string]interface{}{}
	if _, ok := body["name"]; ok {
		updates["name"] = getStringField(body, "name")
	}
	if _, ok := body["min_connections"]; ok {
		updates["min_connections"] = getIntField(body, "min_connections", 1)
	}
	if _, ok := body["max_connections"]; ok {
		updates["max_connections"] = getIntField(body, "max_connections", 1)
	}
	if _, ok := body["is_active"]; ok {
		updates["is_active"] = getBoolField(body, "is_active", true)
	}
	if method {
		if _, ok := body["type"]; ok {
			updates["type"] = getStringField(body, "type")
		}
		if _, ok := body["instructions"]; ok {
			updates["instructions"] = getStringField(body, "instructions")
		}
		if _, ok := body["payment_link"]; ok {
			updates["payment_link"] = getStringField(body, "payment_link")
		}
		if _, ok := body["sort_order"]; ok {
			updates["sort_order"] = getIntField(body, "sort_order", 0)
		}
	}
	return updates
}
