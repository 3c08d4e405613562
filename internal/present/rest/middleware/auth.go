package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/golden-fork/bistro/internal/domain"
	"github.com/golden-fork/bistro/internal/present/rest/presenter"
)

var tracer = otel.Tracer("auth")

type AuthMiddleware struct {
	config domain.Config
}

func NewAuthMiddleware(config domain.Config) *AuthMiddleware {
	return &AuthMiddleware{
		config: config,
	}
}

// RequireAdmin gates administrative routes (cache purge) behind the
// configured bearer token.
func (m *AuthMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		_, span := tracer.Start(c.Request().Context(), "Auth.Middleware.RequireAdmin")
		defer span.End()

		if m.config.AdminToken == "" {
			span.RecordError(errors.New("admin token is not configured"))
			return presenter.Unauthorized(c, "admin access is not configured")
		}

		authHeader := c.Request().Header.Get("authorization")
		split := strings.Split(authHeader, " ")
		if len(split) != 2 || split[0] != "Bearer" {
			span.RecordError(errors.New("invalid authentication header"))
			return presenter.Unauthorized(c, "bearer token required")
		}

		if subtle.ConstantTimeCompare([]byte(split[1]), []byte(m.config.AdminToken)) != 1 {
			span.RecordError(errors.New("admin token mismatch"))
			return presenter.Unauthorized(c, "invalid token")
		}

		span.SetAttributes(attribute.Bool("admin", true))
		return next(c)
	}
}
