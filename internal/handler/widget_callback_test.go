package handler

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func postCallback(t *testing.T, h *WidgetCallbackHandler, body string, sig string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/payment/widget/callback", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if sig != "" {
		req.Header.Set("x-nowpayments-sig", sig)
	}
	rec := httptest.NewRecorder()
	require.NoError(t, h.Handle(e.NewContext(req, rec)))
	return rec
}

func signBody(secret, canonical string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}

// Non-terminal statuses are acknowledged before the order lookup, so a nil
// order service is safe in these tests.
func TestWidgetCallback_IgnoresIntermediateStatuses(t *testing.T) {
	h := NewWidgetCallbackHandler(nil, "", zap.NewNop())

	for _, status := range []string{"waiting", "confirming", "sending", "failed", "expired"} {
		rec := postCallback(t, h, `{"payment_id":1,"payment_status":"`+status+`","order_id":"ord-1"}`, "")
		assert.Equal(t, http.StatusOK, rec.Code, "status %s", status)
	}
}

func TestWidgetCallback_RejectsBadSignature(t *testing.T) {
	h := NewWidgetCallbackHandler(nil, "ipn-secret", zap.NewNop())

	rec := postCallback(t, h, `{"payment_id":1,"payment_status":"finished","order_id":"ord-1"}`, "deadbeef")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = postCallback(t, h, `{"payment_id":1,"payment_status":"finished","order_id":"ord-1"}`, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestWidgetCallback_AcceptsValidSignature(t *testing.T) {
	h := NewWidgetCallbackHandler(nil, "ipn-secret", zap.NewNop())

	// keys sorted, waiting status short-circuits before the order lookup
	body := `{"order_id":"ord-1","payment_id":7,"payment_status":"waiting"}`
	sig := signBody("ipn-secret", `{"order_id":"ord-1","payment_id":7,"payment_status":"waiting"}`)

	rec := postCallback(t, h, body, sig)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWidgetCallback_RejectsMalformedBody(t *testing.T) {
	h := NewWidgetCallbackHandler(nil, "", zap.NewNop())

	rec := postCallback(t, h, `{not-json`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postCallback(t, h, `{"payment_id":1,"payment_status":"finished"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
