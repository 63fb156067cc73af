package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-blog/backend/internal/models"
)

type UserService interface {
	EnsureUser(ctx context.Context, identity models.Identity) (*models.User, error)
}

// UserHandler handles HTTP requests related to users
type UserHandler struct {
	users UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users UserService) *UserHandler {
	return &UserHandler{users: users}
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
}

// GetProfile returns the caller's local user, creating it on first use
func (h *UserHandler) GetProfile(c echo.Context) error {
	identity, err := identityOf(c)
	if err != nil {
		return err
	}

	user, err := h.users.EnsureUser(c.Request().Context(), identity)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Success", "user": user})
}
