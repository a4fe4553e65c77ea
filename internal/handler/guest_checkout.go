package handler

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"streamvault/internal/middleware"
	"streamvault/internal/service"
)

// guestCheckoutRequest is the one typed request body in the API; the
// composite flow is worth stricter validation than the action endpoints.
type guestCheckoutRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"max=120"`

	PlanID            uint   `json:"plan_id" validate:"required"`
	Connections       int    `json:"connections" validate:"required,min=1,max=10"`
	Price             string `json:"price" validate:"required"`
	PaymentMethodID   *uint  `json:"payment_method_id"`
	PaymentWidgetID   *uint  `json:"payment_widget_id"`
	PaymentMethodName string `json:"payment_method_name"`
	PaymentMethodType string `json:"payment_method_type"`
	CredentialsType   string `json:"credentials_type" validate:"omitempty,oneof=xtream mag m3u enigma2"`
	MacAddress        string `json:"mac_address"`
	Notes             string `json:"notes" validate:"max=1000"`
}

// GuestCheckoutHandler serves the unauthenticated checkout endpoint.
type GuestCheckoutHandler struct {
	checkout *service.CheckoutService
	guard    middleware.SubmissionGuard
	validate *validator.Validate
	logger   *zap.Logger
}

func NewGuestCheckoutHandler(checkout *service.CheckoutService, guard middleware.SubmissionGuard, logger *zap.Logger) *GuestCheckoutHandler {
	return &GuestCheckoutHandler{
		checkout: checkout,
		guard:    guard,
		validate: validator.New(),
		logger:   logger,
	}
}

// Handle runs guest checkout.
// POST /api/guest-checkout
func (h *GuestCheckoutHandler) Handle(c echo.Context) error {
	var req guestCheckoutRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body", false)
	}
	if err := h.validate.Struct(&req); err != nil {
		return fail(c, http.StatusBadRequest, validationMessage(err), false)
	}

	if dup, err := h.guard.Seen(c.Request().Context(), req.Email); err != nil {
		h.logger.Warn("submission guard check failed", zap.Error(err))
	} else if dup {
		return fail(c, http.StatusTooManyRequests, "a checkout for this email was just submitted, please wait a moment", false)
	}

	result, err := h.checkout.Checkout(service.GuestCheckoutInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Order: service.CreateOrderInput{
			PlanID:            req.PlanID,
			Connections:       req.Connections,
			Price:             req.Price,
			PaymentMethodID:   req.PaymentMethodID,
			PaymentWidgetID:   req.PaymentWidgetID,
			PaymentMethodName: req.PaymentMethodName,
			PaymentMethodType: req.PaymentMethodType,
			CredentialsType:   req.CredentialsType,
			MacAddress:        req.MacAddress,
			Notes:             req.Notes,
		},
	})
	if err != nil {
		// Release the reservation so a corrected retry is not blocked for
		// the guard TTL.
		if forgetErr := h.guard.Forget(c.Request().Context(), req.Email); forgetErr != nil {
			h.logger.Warn("submission guard release failed", zap.Error(forgetErr))
		}
		status := statusForKind(service.KindOf(err))
		msg := err.Error()
		if status == http.StatusInternalServerError {
			msg = "internal error"
		}
		return fail(c, status, msg, service.IsExistingAccount(err))
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":         true,
		"orderId":         result.OrderID,
		"orderNo":         result.OrderNo,
		"userId":          result.UserID,
		"isNewUser":       result.IsNewUser,
		"credentialsType": result.CredentialsType,
		"sessionToken":    result.SessionToken,
	})
}

func fail(c echo.Context, status int, msg string, existing bool) error {
	body := map[string]interface{}{"success": false, "error": msg}
	if existing {
		body["existingAccount"] = true
	}
	return c.JSON(status, body)
}

func statusForKind(kind service.Kind) int {
	switch kind {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// validationMessage reports the first failed field in client terms.
func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		switch fe.Tag() {
		case "required":
			return fe.Field() + " is required"
		case "email":
			return "email address is not valid"
		case "min":
			return fe.Field() + " is too short"
		case "max":
			return fe.Field() + " is too long"
		case "oneof":
			return fe.Field() + " must be one of: " + fe.Param()
		}
		return fe.Field() + " is invalid"
	}
	return "invalid request"
}
