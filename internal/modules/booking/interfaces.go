package booking

import (
	"context"
	"time"
)

// Repository owns booking rows. It has no method that writes an arbitrary
// status: the only status write is commitTransition, which is unexported so
// that nothing outside this package can call or implement it.
type Repository interface {
	Create(ctx context.Context, b *Booking, createdBy int64) error
	GetByID(ctx context.Context, id int64) (*Booking, error)
	GetByReference(ctx context.Context, ref string) (*Booking, error)
	ListForParticipant(ctx context.Context, userID int64, statuses []Status) ([]Booking, error)
	UpdatePaymentStatus(ctx context.Context, id int64, status PaymentStatus) (*Booking, error)

	commitTransition(ctx context.Context, t transition) error
}

// transition is one approved status change together with its audit record.
// commitTransition applies it only if the row still has status from.
type transition struct {
	bookingID int64
	from      Status
	to        Status
	at        time.Time
	record    HistoryRecord
}
