package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-blog/backend/internal/models"
)

type FavoriteService interface {
	List(ctx context.Context, identity models.Identity) ([]models.Favorite, error)
	Toggle(ctx context.Context, identity models.Identity, postID uint, action string) (*models.Favorite, error)
}

// FavoriteHandler handles favorite HTTP requests
type FavoriteHandler struct {
	favorites FavoriteService
}

// NewFavoriteHandler creates a new FavoriteHandler
func NewFavoriteHandler(favorites FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{favorites: favorites}
}

// RegisterFavoriteRoutes registers favorite routes. The group must already
// require authentication.
func (h *FavoriteHandler) RegisterFavoriteRoutes(g *echo.Group) {
	g.GET("/favorites", h.GetFavorites)
	g.POST("/favorites", h.ToggleFavorite)
}

// GetFavorites lists the caller's favorites, newest first
func (h *FavoriteHandler) GetFavorites(c echo.Context) error {
	identity, err := identityOf(c)
	if err != nil {
		return err
	}

	favorites, err := h.favorites.List(c.Request().Context(), identity)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Success", "favorites": favorites})
}

// ToggleFavorite adds or removes a favorite depending on the action
func (h *FavoriteHandler) ToggleFavorite(c echo.Context) error {
	identity, err := identityOf(c)
	if err != nil {
		return err
	}

	var req models.ToggleFavoriteRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	favorite, err := h.favorites.Toggle(c.Request().Context(), identity, uint(req.PostID), req.Action)
	if err != nil {
		return err
	}
	if favorite == nil {
		return c.JSON(http.StatusOK, echo.Map{"message": "Favorite removed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Favorite added", "favorite": favorite})
}
