package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/query"
	"github.com/anonto42/nano-blog/backend/internal/services"
)

type PostService interface {
	List(ctx context.Context, filter query.PostFilter) ([]models.Post, error)
	Get(ctx context.Context, id uint) (*models.Post, error)
	Create(ctx context.Context, identity models.Identity, req *models.CreatePostRequest) (*models.Post, error)
	Update(ctx context.Context, identity models.Identity, id uint, req *models.UpdatePostRequest) (*models.Post, error)
	Delete(ctx context.Context, identity models.Identity, id uint) error
}

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	posts PostService
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(posts PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

// RegisterPostRoutes registers post routes. Listing and reading are public,
// writes go through auth.
func (h *PostHandler) RegisterPostRoutes(g *echo.Group, auth echo.MiddlewareFunc) {
	g.GET("/posts", h.GetPosts)
	g.GET("/posts/:id", h.GetPost)
	g.POST("/posts", h.CreatePost, auth)
	g.PUT("/posts/:id", h.UpdatePost, auth)
	g.DELETE("/posts/:id", h.DeletePost, auth)
}

// GetPosts lists posts matching category, search, tags, sortBy and sortOrder.
func (h *PostHandler) GetPosts(c echo.Context) error {
	filter, err := query.ParsePostFilter(c.QueryParams())
	if err != nil {
		return fmt.Errorf("%w: %v", services.ErrInvalidSort, err)
	}

	posts, err := h.posts.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Success", "posts": posts})
}

// GetPost retrieves a post by ID
func (h *PostHandler) GetPost(c echo.Context) error {
	id, err := postIDParam(c)
	if err != nil {
		return err
	}

	post, err := h.posts.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Success", "post": post})
}

// CreatePost creates a new post
func (h *PostHandler) CreatePost(c echo.Context) error {
	identity, err := identityOf(c)
	if err != nil {
		return err
	}

	var req models.CreatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	post, err := h.posts.Create(c.Request().Context(), identity, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Post created successfully", "post": post})
}

// UpdatePost updates an existing post owned by the caller
func (h *PostHandler) UpdatePost(c echo.Context) error {
	identity, err := identityOf(c)
	if err != nil {
		return err
	}
	id, err := postIDParam(c)
	if err != nil {
		return err
	}

	var req models.UpdatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	post, err := h.posts.Update(c.Request().Context(), identity, id, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Post updated successfully", "post": post})
}

// DeletePost deletes a post owned by the caller
func (h *PostHandler) DeletePost(c echo.Context) error {
	identity, err := identityOf(c)
	if err != nil {
		return err
	}
	id, err := postIDParam(c)
	if err != nil {
		return err
	}

	if err := h.posts.Delete(c.Request().Context(), identity, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Post deleted successfully"})
}

func postIDParam(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, services.ErrInvalidPostID
	}
	return uint(id), nil
}
