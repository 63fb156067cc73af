package repositories

import (
	"context"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/query"
	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	ListPosts(ctx context.Context, filter query.PostFilter) ([]models.Post, error)
	GetPostByID(ctx context.Context, id uint) (*models.Post, error)
	PostExists(ctx context.Context, id uint) (bool, error)
	CreatePost(ctx context.Context, post *models.Post) error
	UpdatePost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, id uint) error
}

// PostgresPostRepository implements PostRepository for PostgreSQL
type PostgresPostRepository struct {
	db *gorm.DB
}

// NewPostgresPostRepository creates a new PostgresPostRepository
func NewPostgresPostRepository(db *gorm.DB) *PostgresPostRepository {
	return &PostgresPostRepository{db: db}
}

// ListPosts returns every post matching the filter, in filter order, with
// its favorites attached.
func (r *PostgresPostRepository) ListPosts(ctx context.Context, filter query.PostFilter) ([]models.Post, error) {
	posts := make([]models.Post, 0)
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Scopes(filter.Scopes()...).
		Preload("Favorites", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPostByID retrieves a post with its author and favorites
func (r *PostgresPostRepository) GetPostByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Favorites", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&post, id).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *PostgresPostRepository) PostExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// CreatePost inserts a new post
func (r *PostgresPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	if post.Tags == nil {
		post.Tags = []string{}
	}
	return r.db.WithContext(ctx).Omit("Author", "Favorites").Create(post).Error
}

// UpdatePost writes every editable column of post
func (r *PostgresPostRepository) UpdatePost(ctx context.Context, post *models.Post) error {
	if post.Tags == nil {
		post.Tags = []string{}
	}
	res := r.db.WithContext(ctx).
		Model(post).
		Select("title", "description", "content", "image_url", "category", "tags").
		Updates(post)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeletePost removes a post and the favorites pointing at it
func (r *PostgresPostRepository) DeletePost(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
