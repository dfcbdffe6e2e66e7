package repository

import (
	"context"

	"github.com/asorevs/image-api-updater/internal/domain"
)

// SessionRepository stores the offline Shopify session of each installed shop
type SessionRepository interface {
	// GetByShop returns errors.ErrNotFound when the shop has no session
	GetByShop(ctx context.Context, shop string) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, shop string) error
}

// Repositories aggregates all repositories
type Repositories struct {
	Session SessionRepository
}
