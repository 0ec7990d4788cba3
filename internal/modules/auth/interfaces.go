package auth

import (
	"context"
	"time"

	"localservices/internal/domain"
)

// SessionStore is the storage behind sessions.
type SessionStore interface {
	Create(ctx context.Context, s *domain.Session) error
	GetByID(ctx context.Context, id int64) (*domain.Session, error)
	GetByHash(ctx context.Context, hash string) (*domain.Session, error)
	Revoke(ctx context.Context, id int64, now time.Time) (bool, error)
	RevokeByUser(ctx context.Context, userID int64, now time.Time) (int64, error)
	CountActive(ctx context.Context, userID int64, now time.Time) (int64, error)
	DeleteExpired(ctx context.Context, now, revokedBefore time.Time) (int64, error)
}

// UserLookup loads the account behind a session when it is refreshed.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type tokenIssuer interface {
	GenerateToken(userID int64, role string, sessionID int64) (string, error)
}
