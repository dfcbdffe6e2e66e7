package memory

import (
	"context"
	"sync"
	"time"

	"github.com/asorevs/image-api-updater/internal/domain"
	"github.com/asorevs/image-api-updater/internal/repository"
	"github.com/asorevs/image-api-updater/pkg/errors"
)

type sessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

// NewSessionRepository creates an in-memory session repository. Sessions are
// lost on restart; use the postgres repository when DATABASE_URL is set.
func NewSessionRepository() *sessionRepository {
	return &sessionRepository{sessions: make(map[string]domain.Session)}
}

// NewRepositories creates a memory-backed set of repositories
func NewRepositories() *repository.Repositories {
	return &repository.Repositories{
		Session: NewSessionRepository(),
	}
}

func (r *sessionRepository) GetByShop(ctx context.Context, shop string) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[shop]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "session", ID: shop}
	}
	return &s, nil
}

func (r *sessionRepository) Save(ctx context.Context, session *domain.Session) error {
	now := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.sessions[session.Shop]; ok {
		session.CreatedAt = existing.CreatedAt
	} else if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	r.sessions[session.Shop] = *session
	return nil
}

func (r *sessionRepository) Delete(ctx context.Context, shop string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, shop)
	return nil
}
