package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"
)

const (
	maxReferenceAttempts = 5
	acceptedReason       = "Booking accepted by provider"
)

// Service is the booking lifecycle engine. It holds no goroutines or timers;
// every call runs synchronously on the caller's goroutine.
type Service struct {
	bookings Repository
	audit    AuditTrail
	clock    Clock
	refs     ReferenceGenerator
}

func NewService(bookings Repository, audit AuditTrail, clock Clock, refs ReferenceGenerator) *Service {
	if clock == nil {
		clock = SystemClock()
	}
	if refs == nil {
		refs = RandomReferences()
	}
	return &Service{
		bookings: bookings,
		audit:    audit,
		clock:    clock,
		refs:     refs,
	}
}

// CreateBooking stores a new REQUESTED booking together with its creation record.
func (s *Service) CreateBooking(ctx context.Context, p NewBookingParams, createdBy int64) (*Booking, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	b := &Booking{
		CustomerID:       p.CustomerID,
		ProviderID:       p.ProviderID,
		status:           StatusRequested,
		StartTime:        p.StartTime,
		EndTime:          p.EndTime,
		Address:          strings.TrimSpace(p.Address),
		Notes:            strings.TrimSpace(p.Notes),
		TotalAmount:      roundMoney(p.TotalAmount),
		CommissionAmount: roundMoney(p.CommissionAmount),
		PaymentStatus:    PaymentUnpaid,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	for attempt := 1; ; attempt++ {
		ref, err := s.refs.NewReference(now)
		if err != nil {
			return nil, err
		}
		b.Reference = ref

		err = s.bookings.Create(ctx, b, createdBy)
		if err == nil {
			break
		}
		if !errors.Is(err, errDuplicateReference) || attempt >= maxReferenceAttempts {
			return nil, err
		}
	}

	log.Printf("booking_created booking_id=%d reference=%s customer_id=%d provider_id=%d", b.ID, b.Reference, b.CustomerID, b.ProviderID)
	return b, nil
}

// TransitionStatus moves a booking to next if the graph allows it. On success
// exactly one history record is written; on any failure nothing is written.
func (s *Service) TransitionStatus(ctx context.Context, bookingID int64, next Status, changedBy int64, reason string) (*Booking, error) {
	return s.applyTransition(ctx, bookingID, next, changedBy, reason, "")
}

// applyTransition moves bookingID -> next. A non-empty onlyFrom narrows the
// graph further: the booking must currently be in that status.
func (s *Service) applyTransition(ctx context.Context, bookingID int64, next Status, changedBy int64, reason string, onlyFrom Status) (*Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	current := b.status
	if !CanTransition(current, next) || (onlyFrom != "" && current != onlyFrom) {
		return nil, &TransitionError{
			Err:       ErrInvalidTransition,
			BookingID: bookingID,
			Current:   current,
			Attempted: next,
		}
	}

	// only a legal move can fail for a missing reason
	reason = strings.TrimSpace(reason)
	if requiresReason(next) && reason == "" {
		return nil, fmt.Errorf("%w: moving to %s", ErrReasonRequired, next)
	}

	now := s.clock.Now()
	from := current
	t := transition{
		bookingID: bookingID,
		from:      current,
		to:        next,
		at:        now,
		record: HistoryRecord{
			BookingID:  bookingID,
			FromStatus: &from,
			ToStatus:   next,
			ChangedBy:  changedBy,
			Reason:     reason,
			CreatedAt:  now,
		},
	}
	if err := s.bookings.commitTransition(ctx, t); err != nil {
		if errors.Is(err, ErrConcurrentModification) {
			log.Printf("booking_transition_conflict booking_id=%d from=%s to=%s changed_by=%d", bookingID, current, next, changedBy)
		}
		return nil, err
	}

	b.status = next
	b.UpdatedAt = now
	log.Printf("booking_transition booking_id=%d from=%s to=%s changed_by=%d", bookingID, current, next, changedBy)
	return b, nil
}

// AcceptBooking and DeclineBooking answer a request, so both only apply
// while the booking is still REQUESTED. This is narrower than the graph,
// which also allows CONFIRMED -> CANCELLED: that edge stays reachable through
// CancelBooking and TransitionStatus, but not through a provider's answer.
// Once a provider has answered, the other answer fails with
// ErrInvalidTransition, so concurrent accept and decline have one winner.
func (s *Service) AcceptBooking(ctx context.Context, bookingID, providerID int64) (*Booking, error) {
	return s.applyTransition(ctx, bookingID, StatusConfirmed, providerID, acceptedReason, StatusRequested)
}

// DeclineBooking cancels a REQUESTED booking; see AcceptBooking for why a
// CONFIRMED booking cannot be declined.
func (s *Service) DeclineBooking(ctx context.Context, bookingID, providerID int64, reason string) (*Booking, error) {
	return s.applyTransition(ctx, bookingID, StatusCancelled, providerID, reason, StatusRequested)
}

func (s *Service) StartBooking(ctx context.Context, bookingID, userID int64) (*Booking, error) {
	return s.TransitionStatus(ctx, bookingID, StatusInProgress, userID, "")
}

func (s *Service) CompleteBooking(ctx context.Context, bookingID, userID int64) (*Booking, error) {
	return s.TransitionStatus(ctx, bookingID, StatusCompleted, userID, "")
}

func (s *Service) CancelBooking(ctx context.Context, bookingID, userID int64, reason string) (*Booking, error) {
	return s.TransitionStatus(ctx, bookingID, StatusCancelled, userID, reason)
}

func (s *Service) DisputeBooking(ctx context.Context, bookingID, userID int64, reason string) (*Booking, error) {
	return s.TransitionStatus(ctx, bookingID, StatusDisputed, userID, reason)
}

func (s *Service) GetByID(ctx context.Context, bookingID int64) (*Booking, error) {
	return s.bookings.GetByID(ctx, bookingID)
}

func (s *Service) GetByReference(ctx context.Context, ref string) (*Booking, error) {
	if _, err := ParseReference(ref); err != nil {
		return nil, err
	}
	return s.bookings.GetByReference(ctx, ref)
}

// History returns the booking's audit trail in chronological order.
func (s *Service) History(ctx context.Context, bookingID int64) ([]HistoryRecord, error) {
	if _, err := s.bookings.GetByID(ctx, bookingID); err != nil {
		return nil, err
	}
	return s.audit.ForBooking(ctx, bookingID)
}

// TransitionsInto reports every transition into status within [since, until).
func (s *Service) TransitionsInto(ctx context.Context, status Status, since, until time.Time) ([]HistoryRecord, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown booking status %q", ErrValidation, status)
	}
	return s.audit.ByStatus(ctx, status, since, until)
}

func (s *Service) ListForParticipant(ctx context.Context, userID int64, statuses []Status) ([]Booking, error) {
	for _, st := range statuses {
		if !st.Valid() {
			return nil, fmt.Errorf("%w: unknown booking status %q", ErrValidation, st)
		}
	}
	return s.bookings.ListForParticipant(ctx, userID, statuses)
}

func (s *Service) UpdatePaymentStatus(ctx context.Context, bookingID int64, status PaymentStatus) (*Booking, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown payment status %q", ErrValidation, status)
	}
	return s.bookings.UpdatePaymentStatus(ctx, bookingID, status)
}

// Cancellations and disputes always carry the caller's reason.
func requiresReason(next Status) bool {
	return next == StatusCancelled || next == StatusDisputed
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
