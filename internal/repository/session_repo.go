package repository

import (
	"context"
	"time"

	"localservices/internal/domain"

	"gorm.io/gorm"
)

// SessionRepository provides DB access for user sessions.
type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, s *domain.Session) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*domain.Session, error) {
	var s domain.Session
	err := r.db.WithContext(ctx).First(&s, id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepository) GetByHash(ctx context.Context, hash string) (*domain.Session, error) {
	var s domain.Session
	err := r.db.WithContext(ctx).Where("token_hash = ?", hash).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Revoke revokes one session. It returns false when the session was already
// revoked, so a refresh token can be spent only once.
func (r *SessionRepository) Revoke(ctx context.Context, id int64, now time.Time) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&domain.Session{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", now)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}

// RevokeByUser revokes every active session of the user and returns how many
// rows it touched. Already revoked or expired sessions are not counted.
func (r *SessionRepository) RevokeByUser(ctx context.Context, userID int64, now time.Time) (int64, error) {
	tx := r.db.WithContext(ctx).Model(&domain.Session{}).
		Where("user_id = ? AND revoked_at IS NULL AND expires_at > ?", userID, now).
		Update("revoked_at", now)
	if tx.Error != nil {
		return 0, tx.Error
	}
	return tx.RowsAffected, nil
}

func (r *SessionRepository) CountActive(ctx context.Context, userID int64, now time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Session{}).
		Where("user_id = ? AND revoked_at IS NULL AND expires_at > ?", userID, now).
		Count(&n).Error
	return n, err
}

// DeleteExpired removes expired sessions and revoked ones older than revokedBefore.
func (r *SessionRepository) DeleteExpired(ctx context.Context, now, revokedBefore time.Time) (int64, error) {
	tx := r.db.WithContext(ctx).
		Where("expires_at < ? OR (revoked_at IS NOT NULL AND revoked_at < ?)", now, revokedBefore).
		Delete(&domain.Session{})
	return tx.RowsAffected, tx.Error
}
