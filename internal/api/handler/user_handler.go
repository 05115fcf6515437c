package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/core/ports"
)

// UserHandler serves account lookups for authenticated callers.
type UserHandler struct {
	authService ports.AuthService
}

func NewUserHandler(authService ports.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

// Profile handles GET /user/profile/:username.
//
// @Summary      Get a user profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        username  path      string  true  "Username"
// @Success      200       {object}  profileResponse
// @Failure      401       {object}  errorResponse
// @Failure      403       {object}  errorResponse
// @Failure      404       {object}  errorResponse
// @Router       /user/profile/{username} [get]
func (h *UserHandler) Profile(c echo.Context) error {
	if _, err := authContext(c); err != nil {
		return err
	}

	user, err := h.authService.Profile(c.Request().Context(), c.Param("username"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profileResponse{Username: user.Username, Role: user.Role})
}
