package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"localservices/internal/domain"

	"gorm.io/gorm"
)

// SessionService is the session side of authentication. OTP verification and
// credential checks happen upstream; this service only issues, refreshes,
// validates and revokes sessions.
type SessionService struct {
	store  SessionStore
	users  UserLookup
	tokens tokenIssuer
	pepper string
	ttl    time.Duration
	now    func() time.Time
}

type IssuedSession struct {
	Session      *domain.Session
	AccessToken  string
	RefreshToken string
}

func NewSessionService(store SessionStore, users UserLookup, tokens tokenIssuer, pepper string, ttl time.Duration) *SessionService {
	return &SessionService{
		store:  store,
		users:  users,
		tokens: tokens,
		pepper: pepper,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// IssueSession opens a new session for an already authenticated user.
func (s *SessionService) IssueSession(ctx context.Context, u *domain.User) (*IssuedSession, error) {
	if u.IsSuspended() {
		return nil, ErrUnauthorized
	}

	raw, err := randomToken()
	if err != nil {
		return nil, err
	}

	now := s.now()
	sess := &domain.Session{
		UserID:    u.ID,
		TokenHash: s.hashToken(raw),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	access, err := s.tokens.GenerateToken(u.ID, string(u.Role), sess.ID)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	return &IssuedSession{Session: sess, AccessToken: access, RefreshToken: raw}, nil
}

// RefreshSession trades a refresh token for a new session. The old session is
// revoked first, so a token can be spent once; replaying it returns
// ErrSessionRevoked.
func (s *SessionService) RefreshSession(ctx context.Context, refreshToken string) (*IssuedSession, error) {
	if refreshToken == "" {
		return nil, ErrUnauthorized
	}

	sess, err := s.store.GetByHash(ctx, s.hashToken(refreshToken))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}

	now := s.now()
	if sess.IsRevoked() {
		return nil, ErrSessionRevoked
	}
	if sess.IsExpired(now) {
		return nil, ErrSessionExpired
	}

	u, err := s.loadActiveUser(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}

	spent, err := s.store.Revoke(ctx, sess.ID, now)
	if err != nil {
		return nil, fmt.Errorf("revoke session %d: %w", sess.ID, err)
	}
	if !spent {
		return nil, ErrSessionRevoked
	}

	issued, err := s.IssueSession(ctx, u)
	if err != nil {
		return nil, err
	}

	// A suspension that landed while the new session was being stored has
	// already run its revocation, so the new session has to be revoked here.
	if _, err := s.loadActiveUser(ctx, u.ID); err != nil {
		if _, revokeErr := s.store.Revoke(ctx, issued.Session.ID, s.now()); revokeErr != nil {
			return nil, fmt.Errorf("revoke session %d: %w", issued.Session.ID, revokeErr)
		}
		return nil, err
	}

	log.Printf("session_refreshed user_id=%d old_session_id=%d session_id=%d", u.ID, sess.ID, issued.Session.ID)
	return issued, nil
}

// ValidateSession reports whether the session behind an access token is still usable.
func (s *SessionService) ValidateSession(ctx context.Context, userID, sessionID int64) error {
	sess, err := s.store.GetByID(ctx, sessionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUnauthorized
	}
	if err != nil {
		return err
	}
	if sess.UserID != userID {
		return ErrUnauthorized
	}
	if sess.IsRevoked() {
		return ErrSessionRevoked
	}
	if sess.IsExpired(s.now()) {
		return ErrSessionExpired
	}
	return nil
}

// RevokeAllSessions revokes every active session of the user and returns the
// number revoked. With no active sessions it returns 0 and no error.
func (s *SessionService) RevokeAllSessions(ctx context.Context, userID int64) (int64, error) {
	n, err := s.store.RevokeByUser(ctx, userID, s.now())
	if err != nil {
		return 0, fmt.Errorf("revoke sessions of user %d: %w", userID, err)
	}
	log.Printf("sessions_revoked user_id=%d count=%d", userID, n)
	return n, nil
}

func (s *SessionService) ActiveSessions(ctx context.Context, userID int64) (int64, error) {
	return s.store.CountActive(ctx, userID, s.now())
}

// PurgeExpired deletes expired sessions and sessions revoked longer than retention ago.
func (s *SessionService) PurgeExpired(ctx context.Context, retention time.Duration) (int64, error) {
	now := s.now()
	return s.store.DeleteExpired(ctx, now, now.Add(-retention))
}

func (s *SessionService) loadActiveUser(ctx context.Context, userID int64) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if u.IsSuspended() {
		return nil, ErrAccountSuspended
	}
	return u, nil
}

func (s *SessionService) hashToken(raw string) string {
	sum := sha256.Sum256([]byte(s.pepper + ":" + raw))
	return hex.EncodeToString(sum[:])
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
