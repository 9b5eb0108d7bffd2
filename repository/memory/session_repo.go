package memory

import (
	"context"
	"sync"
	"time"

	"github.com/fastygo/tripletex-mcp/domain"
	"github.com/fastygo/tripletex-mcp/repository"
)

type sessionRepository struct {
	mu      sync.RWMutex
	session *domain.Session
	ttl     time.Duration
}

// NewSessionRepository creates an in-memory session repository. Saving
// replaces any previously held session.
func NewSessionRepository(ttl time.Duration) repository.SessionRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &sessionRepository{ttl: ttl}
}

func (r *sessionRepository) Get(ctx context.Context) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.session == nil {
		return nil, domain.ErrSessionNotFound
	}
	copied := *r.session
	return &copied, nil
}

func (r *sessionRepository) Save(ctx context.Context, session *domain.Session) error {
	if session == nil || session.Token == "" {
		return domain.ErrInvalidPayload
	}

	stored := *session
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	if !stored.ExpiresAt.After(stored.CreatedAt) {
		stored.ExpiresAt = stored.CreatedAt.Add(r.ttl)
	}

	r.mu.Lock()
	r.session = &stored
	r.mu.Unlock()
	return nil
}

func (r *sessionRepository) Delete(ctx context.Context) error {
	r.mu.Lock()
	r.session = nil
	r.mu.Unlock()
	return nil
}
