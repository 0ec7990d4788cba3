package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var errDuplicateReference = errors.New("duplicate booking reference")

type bookingRepository struct {
	db    *gorm.DB
	audit *auditTrail
}

func NewRepository(db *gorm.DB) Repository {
	return &bookingRepository{db: db, audit: &auditTrail{db: db}}
}

type bookingModel struct {
	ID               int64     `gorm:"column:id;primaryKey"`
	Reference        string    `gorm:"column:reference;size:32;uniqueIndex;not null"`
	CustomerID       int64     `gorm:"column:customer_id;index;not null"`
	ProviderID       int64     `gorm:"column:provider_id;index;not null"`
	Status           string    `gorm:"column:status;size:16;index;not null"`
	StartTime        time.Time `gorm:"column:start_time;not null"`
	EndTime          time.Time `gorm:"column:end_time;not null"`
	Address          *string   `gorm:"column:address;type:text"`
	Notes            *string   `gorm:"column:notes;type:text"`
	TotalAmount      float64   `gorm:"column:total_amount;not null"`
	CommissionAmount float64   `gorm:"column:commission_amount;not null"`
	PaymentStatus    string    `gorm:"column:payment_status;size:16;not null"`
	CreatedAt        time.Time `gorm:"column:created_at;not null"`
	UpdatedAt        time.Time `gorm:"column:updated_at;not null"`
}

func (bookingModel) TableName() string { return "bookings" }

// Models lists the gorm models of this package for schema migration.
func Models() []any {
	return []any{&bookingModel{}, &historyModel{}}
}

func toDomainBooking(m bookingModel) *Booking {
	b := &Booking{
		ID:               m.ID,
		Reference:        m.Reference,
		CustomerID:       m.CustomerID,
		ProviderID:       m.ProviderID,
		status:           Status(m.Status),
		StartTime:        m.StartTime,
		EndTime:          m.EndTime,
		TotalAmount:      m.TotalAmount,
		CommissionAmount: m.CommissionAmount,
		PaymentStatus:    PaymentStatus(m.PaymentStatus),
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
	if m.Address != nil {
		b.Address = *m.Address
	}
	if m.Notes != nil {
		b.Notes = *m.Notes
	}
	return b
}

func toBookingModel(b *Booking) bookingModel {
	return bookingModel{
		ID:               b.ID,
		Reference:        b.Reference,
		CustomerID:       b.CustomerID,
		ProviderID:       b.ProviderID,
		Status:           string(b.status),
		StartTime:        b.StartTime,
		EndTime:          b.EndTime,
		Address:          optionalText(b.Address),
		Notes:            optionalText(b.Notes),
		TotalAmount:      b.TotalAmount,
		CommissionAmount: b.CommissionAmount,
		PaymentStatus:    string(b.PaymentStatus),
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
}

func optionalText(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// Create inserts the booking and its creation record (null -> status) in one
// transaction and fills b.ID.
func (r *bookingRepository) Create(ctx context.Context, b *Booking, createdBy int64) error {
	m := toBookingModel(b)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		return r.audit.appendTx(tx, HistoryRecord{
			BookingID: m.ID,
			ToStatus:  b.status,
			ChangedBy: createdBy,
			CreatedAt: b.CreatedAt,
		})
	})
	if err != nil {
		if isUniqueViolation(err) {
			return errDuplicateReference
		}
		return fmt.Errorf("create booking: %w", err)
	}
	b.ID = m.ID
	return nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id int64) (*Booking, error) {
	var m bookingModel
	err := r.db.WithContext(ctx).First(&m, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("load booking %d: %w", id, err)
	}
	return toDomainBooking(m), nil
}

func (r *bookingRepository) GetByReference(ctx context.Context, ref string) (*Booking, error) {
	var m bookingModel
	err := r.db.WithContext(ctx).Where("reference = ?", ref).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundByReference(ref)
	}
	if err != nil {
		return nil, fmt.Errorf("load booking %s: %w", ref, err)
	}
	return toDomainBooking(m), nil
}

func (r *bookingRepository) ListForParticipant(ctx context.Context, userID int64, statuses []Status) ([]Booking, error) {
	q := r.db.WithContext(ctx).
		Where("(customer_id = ? OR provider_id = ?)", userID, userID)
	if len(statuses) > 0 {
		values := make([]string, 0, len(statuses))
		for _, s := range statuses {
			values = append(values, string(s))
		}
		q = q.Where("status IN ?", values)
	}

	var rows []bookingModel
	if err := q.Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list bookings for user %d: %w", userID, err)
	}

	out := make([]Booking, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainBooking(m))
	}
	return out, nil
}

// UpdatePaymentStatus is for the payments collaborator; it never touches status.
func (r *bookingRepository) UpdatePaymentStatus(ctx context.Context, id int64, status PaymentStatus) (*Booking, error) {
	res := r.db.WithContext(ctx).
		Model(&bookingModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"payment_status": string(status),
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("update payment status of booking %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, notFound(id)
	}
	return r.GetByID(ctx, id)
}

// commitTransition is a compare-and-swap on (id, t.from). The status update and
// the history insert share one transaction, so either both land or neither.
func (r *bookingRepository) commitTransition(ctx context.Context, t transition) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&bookingModel{}).
			Where("id = ? AND status = ?", t.bookingID, string(t.from)).
			Updates(map[string]any{
				"status":     string(t.to),
				"updated_at": t.at,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&bookingModel{}).Where("id = ?", t.bookingID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return notFound(t.bookingID)
			}
			return conflict(t)
		}
		return r.audit.appendTx(tx, t.record)
	})
	if err == nil {
		return nil
	}

	var te *TransitionError
	if errors.As(err, &te) {
		return err
	}
	if isSerializationFailure(err) {
		return conflict(t)
	}
	return fmt.Errorf("commit transition of booking %d: %w", t.bookingID, err)
}

func conflict(t transition) error {
	return &TransitionError{
		Err:       ErrConcurrentModification,
		BookingID: t.bookingID,
		Current:   t.from,
		Attempted: t.to,
	}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isSerializationFailure covers postgres serialization_failure and deadlock_detected.
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
