package booking

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Booking is a service booking between a customer and a provider.
//
// status is unexported: outside this package it can only be read through
// Status() and changed through Service, so every status value is backed by
// an audit record.
type Booking struct {
	ID               int64
	Reference        string
	CustomerID       int64
	ProviderID       int64
	status           Status
	StartTime        time.Time
	EndTime          time.Time
	Address          string
	Notes            string
	TotalAmount      float64
	CommissionAmount float64
	PaymentStatus    PaymentStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (b *Booking) Status() Status { return b.status }

// ProviderPayout is what the provider receives once the platform commission is taken.
func (b *Booking) ProviderPayout() float64 {
	return math.Round((b.TotalAmount-b.CommissionAmount)*100) / 100
}

// IsParticipant reports whether userID is the customer or the provider.
func (b *Booking) IsParticipant(userID int64) bool {
	return userID != 0 && (b.CustomerID == userID || b.ProviderID == userID)
}

type bookingJSON struct {
	ID               int64         `json:"id"`
	Reference        string        `json:"reference"`
	CustomerID       int64         `json:"customer_id"`
	ProviderID       int64         `json:"provider_id"`
	Status           Status        `json:"status"`
	StartTime        time.Time     `json:"start_time"`
	EndTime          time.Time     `json:"end_time"`
	Address          string        `json:"address,omitempty"`
	Notes            string        `json:"notes,omitempty"`
	TotalAmount      float64       `json:"total_amount"`
	CommissionAmount float64       `json:"commission_amount"`
	ProviderPayout   float64       `json:"provider_payout"`
	PaymentStatus    PaymentStatus `json:"payment_status"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

func (b Booking) MarshalJSON() ([]byte, error) {
	return json.Marshal(bookingJSON{
		ID:               b.ID,
		Reference:        b.Reference,
		CustomerID:       b.CustomerID,
		ProviderID:       b.ProviderID,
		Status:           b.status,
		StartTime:        b.StartTime,
		EndTime:          b.EndTime,
		Address:          b.Address,
		Notes:            b.Notes,
		TotalAmount:      b.TotalAmount,
		CommissionAmount: b.CommissionAmount,
		ProviderPayout:   b.ProviderPayout(),
		PaymentStatus:    b.PaymentStatus,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	})
}

// HistoryRecord is one entry of a booking's audit trail. Records are handed
// out by value; nothing in this package updates or deletes them once written.
type HistoryRecord struct {
	ID         int64     `json:"id"`
	BookingID  int64     `json:"booking_id"`
	FromStatus *Status   `json:"from_status"`
	ToStatus   Status    `json:"to_status"`
	ChangedBy  int64     `json:"changed_by"`
	Reason     string    `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func (r HistoryRecord) describe() string {
	from := "null"
	if r.FromStatus != nil {
		from = string(*r.FromStatus)
	}
	return fmt.Sprintf("%s -> %s", from, r.ToStatus)
}

// NewBookingParams is what the scheduling flow hands over when a booking is created.
type NewBookingParams struct {
	CustomerID       int64
	ProviderID       int64
	StartTime        time.Time
	EndTime          time.Time
	Address          string
	Notes            string
	TotalAmount      float64
	CommissionAmount float64
}

func (p NewBookingParams) validate() error {
	switch {
	case p.CustomerID <= 0 || p.ProviderID <= 0:
		return fmt.Errorf("%w: customer and provider are required", ErrValidation)
	case p.CustomerID == p.ProviderID:
		return fmt.Errorf("%w: customer and provider must differ", ErrValidation)
	case !p.EndTime.After(p.StartTime):
		return fmt.Errorf("%w: end_time must be after start_time", ErrValidation)
	case p.TotalAmount < 0 || p.CommissionAmount < 0:
		return fmt.Errorf("%w: amounts must not be negative", ErrValidation)
	case p.CommissionAmount > p.TotalAmount:
		return fmt.Errorf("%w: commission exceeds total amount", ErrValidation)
	}
	return nil
}
