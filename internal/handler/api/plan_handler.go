package api

import (
	"encoding/json"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"streamvault/internal/middleware"
	"streamvault/internal/models"
)

// PlanHandler handles all plan API actions.
type PlanHandler struct {
	services *Services
	logger   *zap.Logger
}

func NewPlanHandler(services *Services, logger *zap.Logger) *PlanHandler {
	return &PlanHandler{services: services, logger: logger}
}

// Handle routes plan API requests.
// POST /api/plans
func (h *PlanHandler) Handle(c echo.Context) error {
	action, body, err := parseBodyAction(c)
	if err != nil {
		return errorResponse(c, "invalid request body")
	}

	switch action {
	case "list":
		return h.list(c, body)
	case "get":
		return h.get(c, body)
	case "create":
		return h.create(c, body)
	case "update":
		return h.update(c, body)
	case "delete":
		return h.delete(c, body)
	default:
		return errorResponse(c, "unknown action: "+action)
	}
}

func (h *PlanHandler) list(c echo.Context, body map[string]interface{}) error {
	activeOnly := getBoolField(body, "active_only", false)
	plans, err := h.services.Plans.List(activeOnly)
	if err != nil {
		h.logger.Error("list plans failed", zap.Error(err))
		return failResponse(c, err)
	}
	return okResponse(c, map[string]interface{}{"plans": plans})
}

func (h *PlanHandler) get(c echo.Context, body map[string]interface{}) error {
	id := getUintField(body, "id")
	if id == 0 {
		return errorResponse(c, "id is required")
	}
	plan, err := h.services.Plans.Get(id)
	if err != nil {
		h.logger.Error("get plan failed", zap.Uint("id", id), zap.Error(err))
		return failResponse(c, err)
	}
	// Missing plan is a null result, not an error.
	return okResponse(c, map[string]interface{}{"plan": plan})
}

func (h *PlanHandler) create(c echo.Context, body map[string]interface{}) error {
	plan := &models.Plan{
		Name:           getStringField(body, "name"),
		Description:    getStringField(body, "description"),
		DurationDays:   getIntField(body, "duration_days", 0),
		MaxConnections: getIntField(body, "max_connections", 1),
		IsActive:       getBoolField(body, "is_active", true),
		PromoText:      getStringField(body, "promo_text"),
	}
	if v, ok := body["features"]; ok && v != nil {
		if b, err := json.Marshal(v); err == nil {
			plan.Features = string(b)
		}
	}
	pricing := parsePricing(body)

	if err := h.services.Plans.Create(middleware.CallerFrom(c), plan, pricing); err != nil {
		return failResponse(c, err)
	}
	return okResponse(c, map[string]interface{}{"id": plan.ID})
}

func (h *PlanHandler) update(c echo.Context, body map[string]interface{}) error {
	id := getUintField(body, "id")
	if id == 0 {
		return errorResponse(c, "id is required")
	}

	updates := map[string]interface{}{}
	for _, key := range []string{"name", "description", "promo_text"} {
		if _, ok := body[key]; ok {
			updates[key] = getStringField(body, key)
		}
	}
	if _, ok := body["duration_days"]; ok {
		updates["duration_days"] = getIntField(body, "duration_days", 0)
	}
	if _, ok := body["max_connections"]; ok {
		updates["max_connections"] = getIntField(body, "max_connections", 1)
	}
	if _, ok := body["is_active"]; ok {
		updates["is_active"] = getBoolField(body, "is_active", true)
	}
	if v, ok := body["features"]; ok && v != nil {
		if b, err := json.Marshal(v); err == nil {
			updates["features"] = string(b)
		}
	}

	var pricing []models.PlanPricing
	if _, ok := body["pricing"]; ok {
		pricing = parsePricing(body)
	}

	if err := h.services.Plans.Update(middleware.CallerFrom(c), id, updates, pricing); err != nil {
		return failResponse(c, err)
	}
	return okResponse(c, nil)
}

func (h *PlanHandler) delete(c echo.Context, body map[string]interface{}) error {
	id := getUintField(body, "id")
	if id == 0 {
		return errorResponse(c, "id is required")
	}
	if err := h.services.Plans.Delete(middleware.CallerFrom(c), id); err != nil {
		return failResponse(c, err)
	}
	return okResponse(c, nil)
}

// parsePricing reads the pricing list: [{"connections":1,"price":"10.00"}, ...]
func parsePricing(body map[string]interface{}) []models.PlanPricing {
	raw, ok := body["pricing"].([]interface{})
	if !ok {
		return nil
	}
	rows := make([]models.PlanPricing, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		rows = append(rows, models.PlanPricing{
			Connections: getIntField(m, "connections", 0),
			Price:       getStringField(m, "price"),
		})
	}
	return rows
}
