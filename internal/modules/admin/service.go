package admin

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"localservices/internal/domain"
	"localservices/internal/modules/booking"

	"gorm.io/gorm"
)

var (
	ErrReasonRequired          = errors.New("reason is required")
	ErrUserNotFound            = errors.New("user not found")
	ErrCannotSuspendSelf       = errors.New("cannot suspend own account")
	ErrSessionRevocationFailed = errors.New("session revocation failed")
)

type Service struct {
	users    UserRepository
	sessions SessionRevoker
	bookings BookingLifecycle
	now      func() time.Time
}

func NewService(users UserRepository, sessions SessionRevoker, bookings BookingLifecycle) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		bookings: bookings,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SuspensionResult describes what a suspend call did. Applied is false when
// the account was already suspended; in that case nothing was revoked and
// PriorStatus reports the standing the account already had.
type SuspensionResult struct {
	User            *domain.User         `json:"user"`
	Applied         bool                 `json:"applied"`
	PriorStatus     domain.AccountStatus `json:"prior_status"`
	RevokedSessions int64                `json:"revoked_sessions"`
}

// -------------------- Users moderation --------------------

// SuspendUser suspends an account and then revokes all of its sessions.
//
// Suspension and revocation are not one transaction. If revocation fails the
// suspension stays in place and the returned error wraps
// ErrSessionRevocationFailed next to a non-nil result.
func (s *Service) SuspendUser(ctx context.Context, userID, adminID int64, reason string) (*SuspensionResult, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	if userID == adminID {
		return nil, ErrCannotSuspendSelf
	}

	u, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.IsSuspended() {
		return &SuspensionResult{User: u, Applied: false, PriorStatus: u.AccountStatus}, nil
	}

	now := s.now()
	applied, err := s.users.Suspend(ctx, userID, adminID, reason, now)
	if err != nil {
		return nil, fmt.Errorf("suspend user %d: %w", userID, err)
	}
	if !applied {
		// another moderator got there first
		u, err = s.loadUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		return &SuspensionResult{User: u, Applied: false, PriorStatus: u.AccountStatus}, nil
	}

	u.AccountStatus = domain.AccountSuspended
	u.SuspendedAt = &now
	u.SuspendedBy = &adminID
	u.SuspensionReason = reason
	u.UpdatedAt = now

	result := &SuspensionResult{User: u, Applied: true, PriorStatus: domain.AccountActive}
	log.Printf("user_suspended user_id=%d admin_id=%d", userID, adminID)

	revoked, err := s.sessions.RevokeAllSessions(ctx, userID)
	if err != nil {
		log.Printf("user_suspended_revocation_failed user_id=%d error=%q", userID, err.Error())
		return result, fmt.Errorf("%w: user %d: %w", ErrSessionRevocationFailed, userID, err)
	}
	result.RevokedSessions = revoked
	return result, nil
}

// ReinstateUser lifts a suspension. It returns false when the account was not suspended.
func (s *Service) ReinstateUser(ctx context.Context, userID int64) (*domain.User, bool, error) {
	if _, err := s.loadUser(ctx, userID); err != nil {
		return nil, false, err
	}
	applied, err := s.users.Reinstate(ctx, userID, s.now())
	if err != nil {
		return nil, false, fmt.Errorf("reinstate user %d: %w", userID, err)
	}
	u, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	return u, applied, nil
}

// -------------------- Bookings moderation --------------------

// ForceCancelBooking cancels a booking on behalf of the platform. It goes
// through the booking engine like any other actor.
func (s *Service) ForceCancelBooking(ctx context.Context, bookingID, adminID int64, reason string) (*booking.Booking, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	return s.bookings.CancelBooking(ctx, bookingID, adminID, "Cancelled by admin: "+reason)
}

// ListDisputes returns disputes opened in [since, until).
func (s *Service) ListDisputes(ctx context.Context, since, until time.Time) ([]booking.HistoryRecord, error) {
	return s.bookings.TransitionsInto(ctx, booking.StatusDisputed, since, until)
}

func (s *Service) loadUser(ctx context.Context, userID int64) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if isNotFound(err) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// helper for gorm not found
func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
