package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"streamvault/internal/auth"
	"streamvault/internal/handler"
	"streamvault/internal/handler/api"
	"streamvault/internal/middleware"
	"streamvault/internal/repository"
	"streamvault/internal/service"
)

// Deps carries everything Setup needs to wire the routes.
type Deps struct {
	Services  *api.Services
	Checkout  *service.CheckoutService
	Users     *repository.UserRepository
	Tokens    *auth.TokenManager
	Guard     middleware.SubmissionGuard
	IPNSecret string
	Logger    *zap.Logger
}

// Setup configures all routes for the Echo server.
func Setup(e *echo.Echo, d Deps) {
	// Global middleware
	e.Use(echomw.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger(d.Logger))
	e.Use(middleware.Authenticate(d.Tokens, d.Users))

	// Handlers
	planHandler := api.NewPlanHandler(d.Services, d.Logger)
	optionHandler := api.NewPaymentOptionHandler(d.Services, d.Logger)
	orderHandler := api.NewOrderHandler(d.Services, d.Logger)
	credentialHandler := api.NewCredentialHandler(d.Services, d.Logger)
	checkoutHandler := handler.NewGuestCheckoutHandler(d.Checkout, d.Guard, d.Logger)
	callbackHandler := handler.NewWidgetCallbackHandler(d.Services.Orders, d.IPNSecret, d.Logger)

	// API routes — action-routed POST per resource
	apiGroup := e.Group("/api")
	apiGroup.POST("/plans", planHandler.Handle)
	apiGroup.POST("/payment-methods", optionHandler.Handle)
	apiGroup.POST("/payment-widgets", optionHandler.Handle)
	apiGroup.POST("/orders", orderHandler.Handle)
	apiGroup.POST("/credentials", credentialHandler.Handle)

	// Guest checkout (unauthenticated composite flow)
	apiGroup.POST("/guest-checkout", checkoutHandler.Handle)

	// Payment processor IPN callback
	paymentGroup := e.Group("/payment")
	paymentGroup.POST("/widget/callback", callbackHandler.Handle)

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}
