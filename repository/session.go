package repository

import (
	"context"

	"github.com/fastygo/tripletex-mcp/domain"
)

// SessionRepository holds the single upstream session of the process.
type SessionRepository interface {
	Get(ctx context.Context) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context) error
}
