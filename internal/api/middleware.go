package api

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"bookstore-service/internal/entity"
	"bookstore-service/internal/service"
)

type SessionValidator interface {
	ValidateToken(ctx context.Context, token string) (*service.JwtCustomClaims, error)
}

// JWT parses the bearer token into *service.JwtCustomClaims and stores it
// under "user".
func JWT(secret string) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(secret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(service.JwtCustomClaims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(401, map[string]string{"error": "Unauthorized"})
		},
	})
}

// AdminOnly must run after JWT. It rejects revoked sessions and non-admin roles.
func AdminOnly(sessions SessionValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return c.JSON(401, map[string]string{"error": "Unauthorized"})
			}

			claims, err := sessions.ValidateToken(c.Request().Context(), token.Raw)
			if err != nil {
				return errorJSON(c, err)
			}
			if claims.Role != entity.RoleAdmin {
				return c.JSON(403, map[string]string{"error": "Forbidden"})
			}
			return next(c)
		}
	}
}
