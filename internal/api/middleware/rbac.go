package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/femmie/marketplace/internal/core/domain"
)

// UserFinder loads the stored account behind a token.
type UserFinder interface {
	FindUserByID(ctx context.Context, id string) (*domain.User, error)
}

// RBAC enforces role-based access control. It must run after Auth.
//
// With a non-nil users the role is read from the store, so a token issued
// before a role change cannot pass a gate the account no longer satisfies.
// Without it the role claim of the access token is trusted.
func RBAC(users UserFinder, allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(RoleKey).(domain.Role)

			if id, ok := c.Get(IdentityKey).(domain.Identity); ok && users != nil {
				user, err := users.FindUserByID(c.Request().Context(), id.UserID)
				switch {
				case errors.Is(err, domain.ErrUserNotFound):
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
				case err != nil:
					return err
				}
				role = user.Role
			}

			if _, ok := allowed[role]; !ok {
				return c.JSON(http.StatusForbidden, map[string]any{
					"success": false,
					"message": "Access denied",
				})
			}
			return next(c)
		}
	}
}
