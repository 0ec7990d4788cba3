package booking

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// AuditTrail is the read side of the booking status history. Records are
// written only by the repository, inside the same transaction that changes
// the booking, so there is no append, update or delete here.
type AuditTrail interface {
	ForBooking(ctx context.Context, bookingID int64) ([]HistoryRecord, error)
	ByStatus(ctx context.Context, to Status, since, until time.Time) ([]HistoryRecord, error)
}

type historyModel struct {
	ID         int64     `gorm:"column:id;primaryKey"`
	BookingID  int64     `gorm:"column:booking_id;index;not null"`
	FromStatus *string   `gorm:"column:from_status;size:16"`
	ToStatus   string    `gorm:"column:to_status;size:16;index;not null"`
	ChangedBy  int64     `gorm:"column:changed_by;not null"`
	Reason     *string   `gorm:"column:reason;type:text"`
	CreatedAt  time.Time `gorm:"column:created_at;index;not null"`
}

func (historyModel) TableName() string { return "booking_status_history" }

func toHistoryRecord(m historyModel) HistoryRecord {
	rec := HistoryRecord{
		ID:        m.ID,
		BookingID: m.BookingID,
		ToStatus:  Status(m.ToStatus),
		ChangedBy: m.ChangedBy,
		CreatedAt: m.CreatedAt,
	}
	if m.FromStatus != nil {
		from := Status(*m.FromStatus)
		rec.FromStatus = &from
	}
	if m.Reason != nil {
		rec.Reason = *m.Reason
	}
	return rec
}

func toHistoryModel(r HistoryRecord) historyModel {
	m := historyModel{
		BookingID: r.BookingID,
		ToStatus:  string(r.ToStatus),
		ChangedBy: r.ChangedBy,
		CreatedAt: r.CreatedAt,
	}
	if r.FromStatus != nil {
		from := string(*r.FromStatus)
		m.FromStatus = &from
	}
	if r.Reason != "" {
		reason := r.Reason
		m.Reason = &reason
	}
	return m
}

type auditTrail struct {
	db *gorm.DB
}

func NewAuditTrail(db *gorm.DB) AuditTrail {
	return &auditTrail{db: db}
}

// appendTx must be called with the transaction that also writes the booking row.
func (a *auditTrail) appendTx(tx *gorm.DB, rec HistoryRecord) error {
	m := toHistoryModel(rec)
	return tx.Create(&m).Error
}

func (a *auditTrail) ForBooking(ctx context.Context, bookingID int64) ([]HistoryRecord, error) {
	var rows []historyModel
	err := a.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toHistoryRecords(rows), nil
}

// ByStatus returns records moving into `to`, created in [since, until).
// Zero bounds are open.
func (a *auditTrail) ByStatus(ctx context.Context, to Status, since, until time.Time) ([]HistoryRecord, error) {
	q := a.db.WithContext(ctx).Where("to_status = ?", string(to))
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}
	if !until.IsZero() {
		q = q.Where("created_at < ?", until)
	}

	var rows []historyModel
	if err := q.Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toHistoryRecords(rows), nil
}

func toHistoryRecords(rows []historyModel) []HistoryRecord {
	out := make([]HistoryRecord, 0, len(rows))
	for _, m := range rows {
		out = append(out, toHistoryRecord(m))
	}
	return out
}
