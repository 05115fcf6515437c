package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/api/middleware"
	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/core/domain"
)

// authContext returns the identity injected by the Auth middleware. Its
// absence means the route was wired without the guard, so fail closed.
func authContext(c echo.Context) (domain.AuthContext, error) {
	auth, ok := c.Get(middleware.AuthContextKey).(domain.AuthContext)
	if !ok || auth.Username == "" {
		return domain.AuthContext{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return auth, nil
}
