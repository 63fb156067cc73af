package middleware

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/auth"

	"github.com/anonto42/nano-blog/backend/internal/models"
)

// FirebaseVerifier verifies Firebase ID tokens.
type FirebaseVerifier struct {
	client *auth.Client
}

func NewFirebaseVerifier(client *auth.Client) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (*models.Identity, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("verify firebase id token: %w", err)
	}

	identity := &models.Identity{Subject: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		identity.Email = email
	}
	if name, ok := token.Claims["name"].(string); ok {
		identity.Name = name
	}
	if picture, ok := token.Claims["picture"].(string); ok {
		identity.ImageURL = picture
	}
	return identity, nil
}
