package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"streamvault/internal/service"
)

// apiResponse is the uniform envelope: {success:true, data} on success,
// {success:false, error} on failure.
type apiResponse struct {
	Success         bool        `json:"success"`
	Data            interface{} `json:"data,omitempty"`
	Error           string      `json:"error,omitempty"`
	ExistingAccount bool        `json:"existingAccount,omitempty"`
}

func okResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, apiResponse{Success: true, Data: data})
}

// failResponse maps service error kinds to HTTP status codes so clients
// can redirect on Forbidden instead of showing a generic failure.
func failResponse(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch service.KindOf(err) {
	case service.KindValidation:
		status = http.StatusBadRequest
	case service.KindForbidden:
		status = http.StatusForbidden
	case service.KindNotFound:
		status = http.StatusNotFound
	case service.KindConflict:
		status = http.StatusConflict
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		// Internal details go to the log, not the client.
		msg = "internal error"
	}
	return c.JSON(status, apiResponse{
		Success:         false,
		Error:           msg,
		ExistingAccount: service.IsExistingAccount(err),
	})
}

func errorResponse(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, apiResponse{Success: false, Error: msg})
}

// parseBodyAction extracts the "action" field that routes every resource
// endpoint.
func parseBodyAction(c echo.Context) (string, map[string]interface{}, error) {
	body := make(map[string]interface{})
	if err := c.Bind(&body); err != nil {
		return "", nil, err
	}
	action, _ := body["action"].(string)
	return action, body, nil
}

// getStringField gets a string field from the body map. JSON numbers are
// rendered with their full precision so a numeric price like 18.5 survives
// the coercion.
func getStringField(body map[string]interface{}, key string) string {
	if v, ok := body[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
		if f, ok := v.(float64); ok {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
	}
	return ""
}

// getIntField gets an int field from the body map.
func getIntField(body map[string]interface{}, key string, defaultVal int) int {
	if v, ok := body[key]; ok {
		switch t := v.(type) {
		case float64:
			return int(t)
		case int:
			return t
		case string:
			if i, err := strconv.Atoi(t); err == nil {
				return i
			}
		}
	}
	return defaultVal
}

// getUintField gets a uint field from the body map.
func getUintField(body map[string]interface{}, key string) uint {
	v := getIntField(body, key, 0)
	if v < 0 {
		return 0
	}
	return uint(v)
}

// getUintPtrField returns a pointer when the field is present and positive.
func getUintPtrField(body map[string]interface{}, key string) *uint {
	if v := getUintField(body, key); v > 0 {
		return &v
	}
	return nil
}

// getBoolField gets a bool field with a default.
func getBoolField(body map[string]interface{}, key string, defaultVal bool) bool {
	if v, ok := body[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return defaultVal
}

// Services bundles the services used by the API handlers.
type Services struct {
	Plans       *service.PlanService
	Options     *service.PaymentOptionService
	Orders      *service.OrderService
	Credentials *service.CredentialService
}
