package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/repositories"
)

type FavoriteService struct {
	favorites repositories.FavoriteRepository
	posts     repositories.PostRepository
	users     *UserService
	cache     PostListCache
}

// NewFavoriteService wires the favorite use cases. cache may be nil.
func NewFavoriteService(favorites repositories.FavoriteRepository, posts repositories.PostRepository, users *UserService, cache PostListCache) *FavoriteService {
	return &FavoriteService{favorites: favorites, posts: posts, users: users, cache: cache}
}

// List returns the caller's favorites, newest first, with posts attached.
func (s *FavoriteService) List(ctx context.Context, identity models.Identity) ([]models.Favorite, error) {
	user, err := s.users.EnsureUser(ctx, identity)
	if err != nil {
		return nil, err
	}
	favorites, err := s.favorites.GetFavoritesByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return favorites, nil
}

// Toggle adds or removes the (caller, post) favorite. Adding an existing
// favorite returns the stored row; removing a missing one is not an error.
// The returned favorite is nil for removals.
func (s *FavoriteService) Toggle(ctx context.Context, identity models.Identity, postID uint, action string) (*models.Favorite, error) {
	if action != models.FavoriteActionAdd && action != models.FavoriteActionRemove {
		return nil, ErrInvalidAction
	}
	if postID == 0 {
		return nil, ErrInvalidPostID
	}

	user, err := s.users.EnsureUser(ctx, identity)
	if err != nil {
		return nil, err
	}

	if action == models.FavoriteActionRemove {
		removed, err := s.favorites.RemoveFavorite(ctx, user.ID, postID)
		if err != nil {
			return nil, fmt.Errorf("remove favorite: %w", err)
		}
		if removed > 0 {
			invalidateListCache(ctx, s.cache)
		}
		return nil, nil
	}

	exists, err := s.posts.PostExists(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("check post %d: %w", postID, err)
	}
	if !exists {
		return nil, ErrPostNotFound
	}

	favorite := &models.Favorite{UserID: user.ID, PostID: postID}
	created, err := s.favorites.AddFavorite(ctx, favorite)
	if err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("add favorite: %w", err)
	}
	if created {
		invalidateListCache(ctx, s.cache)
	}
	return favorite, nil
}
