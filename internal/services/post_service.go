package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jinzhu/copier"
	"gorm.io/gorm"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/query"
	"github.com/anonto42/nano-blog/backend/internal/repositories"
)

// PostListCache stores listing results keyed by query.PostFilter.CacheKey.
// GetPosts returns the cache generation it read; SetPosts must be given the
// generation observed before the fill was computed.
type PostListCache interface {
	GetPosts(ctx context.Context, key string) (posts []models.Post, generation string, ok bool, err error)
	SetPosts(ctx context.Context, generation, key string, posts []models.Post) error
	Invalidate(ctx context.Context) error
}

type PostService struct {
	posts repositories.PostRepository
	users *UserService
	cache PostListCache
}

// NewPostService wires the post use cases. cache may be nil.
func NewPostService(posts repositories.PostRepository, users *UserService, cache PostListCache) *PostService {
	return &PostService{posts: posts, users: users, cache: cache}
}

// List returns every post matching filter in filter order.
func (s *PostService) List(ctx context.Context, filter query.PostFilter) ([]models.Post, error) {
	key := filter.CacheKey()
	fill := false
	var generation string
	if s.cache != nil {
		posts, gen, ok, err := s.cache.GetPosts(ctx, key)
		switch {
		case err != nil:
			slog.WarnContext(ctx, "post list cache read failed", "err", err)
		case ok:
			return posts, nil
		default:
			fill, generation = true, gen
		}
	}

	posts, err := s.posts.ListPosts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	if fill {
		if err := s.cache.SetPosts(ctx, generation, key, posts); err != nil {
			slog.WarnContext(ctx, "post list cache write failed", "err", err)
		}
	}
	return posts, nil
}

func (s *PostService) Get(ctx context.Context, id uint) (*models.Post, error) {
	if id == 0 {
		return nil, ErrInvalidPostID
	}
	post, err := s.posts.GetPostByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("get post %d: %w", id, err)
	}
	return post, nil
}

// Create stores a new post authored by the caller.
func (s *PostService) Create(ctx context.Context, identity models.Identity, req *models.CreatePostRequest) (*models.Post, error) {
	user, err := s.users.EnsureUser(ctx, identity)
	if err != nil {
		return nil, err
	}

	post := &models.Post{}
	if err := copier.Copy(post, req); err != nil {
		return nil, fmt.Errorf("map post request: %w", err)
	}
	post.Title = strings.TrimSpace(post.Title)
	post.Description = strings.TrimSpace(post.Description)
	post.Category = trimOptional(post.Category)
	post.Tags = normalizeTags(req.Tags)
	post.AuthorID = user.ID

	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	s.invalidate(ctx)
	return post, nil
}

// Update applies the provided fields of req to a post the caller owns.
func (s *PostService) Update(ctx context.Context, identity models.Identity, id uint, req *models.UpdatePostRequest) (*models.Post, error) {
	post, err := s.owned(ctx, identity, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		post.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		post.Description = strings.TrimSpace(*req.Description)
	}
	if req.Content != nil {
		post.Content = req.Content
	}
	if req.ImageURL != nil {
		post.ImageURL = req.ImageURL
	}
	if req.Category != nil {
		post.Category = trimOptional(req.Category)
	}
	if req.Tags != nil {
		post.Tags = normalizeTags(req.Tags)
	}

	if err := s.posts.UpdatePost(ctx, post); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("update post %d: %w", id, err)
	}
	s.invalidate(ctx)
	return post, nil
}

// Delete removes a post the caller owns.
func (s *PostService) Delete(ctx context.Context, identity models.Identity, id uint) error {
	if _, err := s.owned(ctx, identity, id); err != nil {
		return err
	}
	if err := s.posts.DeletePost(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPostNotFound
		}
		return fmt.Errorf("delete post %d: %w", id, err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *PostService) owned(ctx context.Context, identity models.Identity, id uint) (*models.Post, error) {
	if identity.Subject == "" {
		return nil, ErrUnauthenticated
	}
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != identity.Subject {
		return nil, ErrForbidden
	}
	return post, nil
}

func (s *PostService) invalidate(ctx context.Context) {
	invalidateListCache(ctx, s.cache)
}

func invalidateListCache(ctx context.Context, cache PostListCache) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx); err != nil {
		slog.WarnContext(ctx, "post list cache invalidation failed", "err", err)
	}
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

// normalizeTags trims tags and drops blanks and repeats, keeping order.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
