package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"streamvault/internal/auth"
	"streamvault/internal/repository"
	"streamvault/internal/service"
)

const callerContextKey = "caller"

// Authenticate resolves the bearer token into an explicit service.Caller
// and stores it in the request context. Missing or invalid tokens leave
// the caller anonymous; the services decide what anonymous may do.
// The role is re-read from the database so revocations apply immediately.
func Authenticate(tokens *auth.TokenManager, users *repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				c.Set(callerContextKey, service.Anonymous)
				return next(c)
			}

			claims, err := tokens.Parse(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				c.Set(callerContextKey, service.Anonymous)
				return next(c)
			}

			user, err := users.FindByID(claims.UserID)
			if err != nil {
				if !errors.Is(err, gorm.ErrRecordNotFound) {
					return echo.NewHTTPError(http.StatusInternalServerError, "caller lookup failed")
				}
				c.Set(callerContextKey, service.Anonymous)
				return next(c)
			}

			c.Set(callerContextKey, service.Caller{UserID: user.ID, Role: user.Role})
			return next(c)
		}
	}
}

// CallerFrom extracts the resolved caller from the echo context.
func CallerFrom(c echo.Context) service.Caller {
	if caller, ok := c.Get(callerContextKey).(service.Caller); ok {
		return caller
	}
	return service.Anonymous
}

// RequestLogger logs each API request with zap.
func RequestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			fields := []zap.Field{
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Int("status", c.Response().Status),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", c.RealIP()),
			}
			if caller := CallerFrom(c); !caller.IsAnonymous() {
				fields = append(fields, zap.Uint("caller_id", caller.UserID))
			}
			logger.Info("request", fields...)
			return err
		}
	}
}

// CORS configures CORS headers.
func CORS() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("Access-Control-Allow-Origin", "*")
			c.Response().Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Response().Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if c.Request().Method == "OPTIONS" {
				return c.NoContent(http.StatusOK)
			}
			return next(c)
		}
	}
}
