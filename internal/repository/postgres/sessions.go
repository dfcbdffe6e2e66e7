package postgres

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/asorevs/image-api-updater/internal/domain"
	"github.com/asorevs/image-api-updater/internal/repository"
	"github.com/asorevs/image-api-updater/pkg/errors"
)

type sessionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *sql.DB, logger *zap.Logger) *sessionRepository {
	return &sessionRepository{
		db:     db,
		logger: logger,
	}
}

// NewRepositories creates a new set of repositories
func NewRepositories(db *sql.DB, logger *zap.Logger) *repository.Repositories {
	return &repository.Repositories{
		Session: NewSessionRepository(db, logger),
	}
}

func (r *sessionRepository) GetByShop(ctx context.Context, shop string) (*domain.Session, error) {
	query := `
		SELECT shop, access_token, scope, created_at, updated_at
		FROM shopify_sessions
		WHERE shop = $1
	`

	var s domain.Session
	err := r.db.QueryRowContext(ctx, query, shop).Scan(
		&s.Shop,
		&s.AccessToken,
		&s.Scope,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "session", ID: shop}
	}
	if err != nil {
		r.logger.Error("Failed to get session", zap.String("shop", shop), zap.Error(err))
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepository) Save(ctx context.Context, session *domain.Session) error {
	query := `
		INSERT INTO shopify_sessions (shop, access_token, scope, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (shop) DO UPDATE
		SET access_token = EXCLUDED.access_token,
			scope = EXCLUDED.scope,
			updated_at = EXCLUDED.updated_at
		RETURNING created_at
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query, session.Shop, session.AccessToken, session.Scope, now).Scan(&session.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to save session", zap.String("shop", session.Shop), zap.Error(err))
		return err
	}
	session.UpdatedAt = now
	return nil
}

func (r *sessionRepository) Delete(ctx context.Context, shop string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM shopify_sessions WHERE shop = $1`, shop); err != nil {
		r.logger.Error("Failed to delete session", zap.String("shop", shop), zap.Error(err))
		return err
	}
	return nil
}
