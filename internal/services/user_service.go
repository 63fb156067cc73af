package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/repositories"
)

// UserService keeps a local user row for every authenticated identity.
type UserService struct {
	users repositories.UserRepository
}

func NewUserService(users repositories.UserRepository) *UserService {
	return &UserService{users: users}
}

// EnsureUser returns the caller's local user, inserting a placeholder built
// from the token claims when none exists yet.
func (s *UserService) EnsureUser(ctx context.Context, identity models.Identity) (*models.User, error) {
	if identity.Subject == "" {
		return nil, ErrUnauthenticated
	}

	placeholder := identity.PlaceholderUser()
	created, err := s.users.CreateUserIfAbsent(ctx, placeholder)
	if err != nil {
		return nil, fmt.Errorf("ensure user %s: %w", identity.Subject, err)
	}
	if created {
		slog.InfoContext(ctx, "Created local user for authenticated identity", "user_id", identity.Subject)
		return placeholder, nil
	}

	user, err := s.users.GetUserByID(ctx, identity.Subject)
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", identity.Subject, err)
	}
	return user, nil
}
