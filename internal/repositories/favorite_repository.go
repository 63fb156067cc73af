package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const pgForeignKeyViolation = "23503"

// FavoriteRepository defines the interface for favorite operations
type FavoriteRepository interface {
	AddFavorite(ctx context.Context, favorite *models.Favorite) (bool, error)
	RemoveFavorite(ctx context.Context, userID string, postID uint) (int64, error)
	GetFavoritesByUser(ctx context.Context, userID string) ([]models.Favorite, error)
}

// PostgresFavoriteRepository implements FavoriteRepository
type PostgresFavoriteRepository struct {
	db *gorm.DB
}

func NewPostgresFavoriteRepository(db *gorm.DB) *PostgresFavoriteRepository {
	return &PostgresFavoriteRepository{db: db}
}

// AddFavorite inserts the (user, post) pair unless it already exists and
// loads the stored row into favorite. The bool reports whether a row was
// inserted. A post deleted before the insert yields gorm.ErrForeignKeyViolated.
func (r *PostgresFavoriteRepository) AddFavorite(ctx context.Context, favorite *models.Favorite) (bool, error) {
	db := r.db.WithContext(ctx)
	res := db.Omit("Post").Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
		DoNothing: true,
	}).Create(favorite)
	if res.Error != nil {
		if isForeignKeyViolation(res.Error) {
			return false, fmt.Errorf("%w: %v", gorm.ErrForeignKeyViolated, res.Error)
		}
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	err := db.Where("user_id = ? AND post_id = ?", favorite.UserID, favorite.PostID).First(favorite).Error
	return false, err
}

// RemoveFavorite deletes every row of the pair and reports how many went.
func (r *PostgresFavoriteRepository) RemoveFavorite(ctx context.Context, userID string, postID uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.Favorite{})
	return res.RowsAffected, res.Error
}

// GetFavoritesByUser lists a user's favorites newest first with their posts
func (r *PostgresFavoriteRepository) GetFavoritesByUser(ctx context.Context, userID string) ([]models.Favorite, error) {
	favorites := make([]models.Favorite, 0)
	err := r.db.WithContext(ctx).
		Preload("Post").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&favorites).Error
	return favorites, err
}

func isForeignKeyViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}
