package api

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"streamvault/internal/middleware"
	"streamvault/internal/service"
)

// CredentialHandler handles all credential API actions.
type CredentialHandler struct {
	services *Services
	logger   *zap.Logger
}

func NewCredentialHandler(services *Services, logger *zap.Logger) *CredentialHandler {
	return &CredentialHandler{services: services, logger: logger}
}

// Handle routes credential API requests.
// POST /api/credentials
func (h *CredentialHandler) Handle(c echo.Context) error {
	action, body, err := parseBodyAction(c)
	if err != nil {
		return errorResponse(c, "invalid request body")
	}

	switch action {
	case "create":
		return h.create(c, body)
	case "update":
		return h.update(c, body)
	case "delete":
		return h.delete(c, body)
	case "my_credentials":
		return h.myCredentials(c)
	case "by_order":
		return h.byOrder(c, body)
	default:
		return errorResponse(c, "unknown action: "+action)
	}
}

func (h *CredentialHandler) create(c echo.Context, body map[string]interface{}) error {
	in := service.CreateCredentialInput{
		UserID:           getUintField(body, "user_id"),
		OrderID:          getUintField(body, "order_id"),
		ConnectionNumber: getIntField(body, "connection_number", 1),
		CredentialType:   getStringField(body, "credential_type"),
		ServerURL:        getStringField(body, "server_url"),
		Username:         getStringField(body, "username"),
		Password:         getStringField(body, "password"),
		M3UURL:           getStringField(body, "m3u_url"),
		EPGURL:           getStringField(body, "epg_url"),
		PortalURL:        getStringField(body, "portal_url"),
		MacAddress:       getStringField(body, "mac_address"),
	}
	if in.OrderID == 0 {
		return errorResponse(c, "order_id is required")
	}
	if raw := getStringField(body, "expires_at"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return errorResponse(c, "expires_at must be RFC 3339")
		}
		in.ExpiresAt = &t
	}
	if v, ok := body["is_active"]; ok {
		if b, ok := v.(bool); ok {
			in.IsActive = &b
		}
	}

	cred, err := h.services.Credentials.Create(middleware.CallerFrom(c), in)
	if err != nil {
		return failResponse(c, err)
	}
	return okResponse(c, map[string]interface{}{"credential": cred})
}

func (h *CredentialHandler) update(c echo.Context, body map[string]interface{}) error {
	id := getUintField(body, "id")
	if id == 0 {
		return errorResponse(c, "id is required")
	}

	updates := map[string]interface{}{}
	for _, key := range []string{"server_url", "username", "password", "m3u_url", "epg_url", "portal_url", "mac_address", "credential_type"} {
		if _, ok := body[key]; ok {
			updates[key] = getStringField(body, key)
		}
	}
	if _, ok := body["is_active"]; ok {
		updates["is_active"] = getBoolField(body, "is_active", true)
	}
	if raw := getStringField(body, "expires_at"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return errorResponse(c, "expires_at must be RFC 3339")
		}
		updates["expires_at"] = t
	}
	if len(updates) == 0 {
		return errorResponse(c, "nothing to update")
	}

	if err := h.services.Credentials.Update(middleware.CallerFrom(c), id, updates); err != nil {
		return failResponse(c, err)
	}
	return okResponse(c, nil)
}

func (h *CredentialHandler) delete(c echo.Context, body map[string]interface{}) error {
	id := getUintField(body, "id")
	if id == 0 {
		return errorResponse(c, "id is required")
	}
	if err := h.services.Credentials.Delete(middleware.CallerFrom(c), id); err != nil {
		return failResponse(c, err)
	}
	return okResponse(c, nil)
}

func (h *CredentialHandler) myCredentials(c echo.Context) error {
	creds, err := h.services.Credentials.MyCredentials(middleware.CallerFrom(c))
	if err != nil {
		return failResponse(c, err)
	}
	return okResponse(c, map[string]interface{}{"credentials": creds})
}

func (h *CredentialHandler) byOrder(c echo.Context, body map[string]interface{}) error {
	orderID := getUintField(body, "order_id")
	if orderID == 0 {
		return errorResponse(c, "order_id is required")
	}
	creds, err := h.services.Credentials.ByOrder(middleware.CallerFrom(c), orderID)
	if err != nil {
		return failResponse(c, err)
	}
	return okResponse(c, map[string]interface{}{"credentials": creds})
}
