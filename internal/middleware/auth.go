package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-blog/backend/internal/models"
)

const identityKey = "identity"

var errMissingBearer = errors.New("Authorization header must be in Bearer format")

// TokenVerifier checks a bearer token and returns the identity it carries.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*models.Identity, error)
}

// RequireAuth rejects requests without a valid bearer token with 401 and
// stores the caller's identity on the context otherwise.
func RequireAuth(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := bearerToken(c)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			identity, err := verifier.Verify(c.Request().Context(), token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token").SetInternal(err)
			}

			c.Set(identityKey, *identity)
			return next(c)
		}
	}
}

// IdentityFromContext returns the identity stored by RequireAuth.
func IdentityFromContext(c echo.Context) (models.Identity, bool) {
	identity, ok := c.Get(identityKey).(models.Identity)
	return identity, ok && identity.Subject != ""
}

func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		return "", errors.New("Authorization header is missing")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", errMissingBearer
	}
	return strings.TrimSpace(parts[1]), nil
}
