package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/api/metrics"
	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/core/domain"
)

// RBAC enforces role-based access control. It must run after Auth.
func RBAC(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth, ok := c.Get(AuthContextKey).(domain.AuthContext)
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": domain.ErrUnauthenticated.Error()})
			}
			if _, ok := allowed[auth.Role]; !ok {
				metrics.AuthFailuresTotal.WithLabelValues("forbidden_role").Inc()
				return c.JSON(http.StatusForbidden, map[string]string{"error": domain.ErrForbidden.Error()})
			}
			return next(c)
		}
	}
}
