package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/femmie/marketplace/internal/core/domain"
)

// Context keys set by Auth.
const (
	IdentityKey = "identity"
	RoleKey     = "role"
)

// AccessVerifier validates an access token and returns who it belongs to.
type AccessVerifier interface {
	VerifyAccess(token string) (domain.Identity, error)
}

// Auth validates the bearer access token and injects the identity into context.
func Auth(verifier AccessVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization header")
			}

			identity, err := verifier.VerifyAccess(parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token").SetInternal(err)
			}

			c.Set(IdentityKey, identity)
			c.Set(RoleKey, identity.Role)

			return next(c)
		}
	}
}
