package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/femmie/marketplace/internal/api/middleware"
	"github.com/femmie/marketplace/internal/core/domain"
)

// ctxIdentity extracts the identity injected by the Auth middleware. An empty
// email means the middleware did not run or the token carried no subject.
func ctxIdentity(c echo.Context) (domain.Identity, error) {
	id, _ := c.Get(middleware.IdentityKey).(domain.Identity)
	if id.Email == "" {
		return domain.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "Missing authentication claims")
	}
	return id, nil
}
