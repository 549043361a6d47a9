// Package refreshtokens declares the storage of issued refresh tokens.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/possync/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, userID string, token string, expiresAt time.Time) error

	// Find returns common.ErrorNotFound for an unknown token.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete consumes token. It returns common.ErrorNotFound when the token
	// was already consumed, so a refresh token can be rotated only once.
	Delete(ctx context.Context, token string) error
}
