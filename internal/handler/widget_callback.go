package handler

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"streamvault/internal/service"
)

// WidgetCallbackHandler receives payment processor IPN callbacks for
// widget invoices and stamps the matching order as payment-notified.
type WidgetCallbackHandler struct {
	orders    *service.OrderService
	ipnSecret string
	logger    *zap.Logger
}

func NewWidgetCallbackHandler(orders *service.OrderService, ipnSecret string, logger *zap.Logger) *WidgetCallbackHandler {
	return &WidgetCallbackHandler{orders: orders, ipnSecret: ipnSecret, logger: logger}
}

// Terminal paid states per the NOWPayments IPN documentation. Everything
// else (waiting, confirming, sending, failed, expired...) is acknowledged
// without touching the order.
var paidStatuses = map[string]bool{
	"finished":  true,
	"confirmed": true,
}

// Handle processes one IPN callback.
// POST /payment/widget/callback
func (h *WidgetCallbackHandler) Handle(c echo.Context) error {
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	if h.ipnSecret != "" {
		sig := c.Request().Header.Get("x-nowpayments-sig")
		if !h.validSignature(raw, sig) {
			h.logger.Warn("widget callback: bad IPN signature")
			return c.NoContent(http.StatusForbidden)
		}
	}

	var payload struct {
		PaymentID     json.Number `json:"payment_id"`
		PaymentStatus string      `json:"payment_status"`
		OrderID       string      `json:"order_id"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	if !paidStatuses[strings.ToLower(payload.PaymentStatus)] {
		// Intermediate states are acknowledged and ignored.
		return c.NoContent(http.StatusOK)
	}
	if payload.OrderID == "" {
		return c.NoContent(http.StatusBadRequest)
	}

	if err := h.orders.MarkPaidByProcessor(payload.OrderID, payload.PaymentID.String()); err != nil {
		if service.KindOf(err) == service.KindNotFound {
			h.logger.Warn("widget callback: unknown order", zap.String("order_no", payload.OrderID))
			return c.NoContent(http.StatusNotFound)
		}
		h.logger.Error("widget callback failed", zap.String("order_no", payload.OrderID), zap.Error(err))
		return c.NoContent(http.StatusInternalServerError)
	}

	h.logger.Info("widget payment notified",
		zap.String("order_no", payload.OrderID),
		zap.String("payment_id", payload.PaymentID.String()),
		zap.String("status", payload.PaymentStatus))
	return c.NoContent(http.StatusOK)
}

// validSignature checks the HMAC-SHA512 of the payload with keys sorted,
// the scheme NOWPayments signs IPN bodies with.
func (h *WidgetCallbackHandler) validSignature(raw []byte, sig string) bool {
	if sig == "" {
		return false
	}
	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return false
	}
	keys := make([]string, 0, len(body))
	for k := range body {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ordered := make([]string, 0, len(keys))
	for _, k := range keys {
		v, err := json.Marshal(body[k])
		if err != nil {
			return false
		}
		kb, _ := json.Marshal(k)
		ordered = append(ordered, string(kb)+":"+string(v))
	}
	canonical := "{" + strings.Join(ordered, ",") + "}"

	mac := hmac.New(sha512.New, []byte(h.ipnSecret))
	mac.Write([]byte(canonical))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(sig)))
}
