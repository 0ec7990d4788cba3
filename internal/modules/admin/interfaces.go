package admin

import (
	"context"
	"time"

	"localservices/internal/domain"
	"localservices/internal/modules/booking"
)

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	Suspend(ctx context.Context, id, adminID int64, reason string, at time.Time) (bool, error)
	Reinstate(ctx context.Context, id int64, at time.Time) (bool, error)
}

// SessionRevoker is the session revocation gateway owned by the auth module.
type SessionRevoker interface {
	RevokeAllSessions(ctx context.Context, userID int64) (int64, error)
}

// BookingLifecycle is the part of the booking engine moderation uses.
type BookingLifecycle interface {
	CancelBooking(ctx context.Context, bookingID, userID int64, reason string) (*booking.Booking, error)
	TransitionsInto(ctx context.Context, status booking.Status, since, until time.Time) ([]booking.HistoryRecord, error)
}
