package repository

import (
	"context"
	"strings"
	"time"

	"localservices/internal/domain"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

type userModel struct {
	ID               int64      `gorm:"column:id;primaryKey"`
	Email            string     `gorm:"column:email;size:255;uniqueIndex;not null"`
	Role             string     `gorm:"column:role;size:16;not null"`
	Name             string     `gorm:"column:name"`
	Phone            *string    `gorm:"column:phone"`
	AccountStatus    string     `gorm:"column:account_status;size:16;index;not null"`
	SuspendedAt      *time.Time `gorm:"column:suspended_at"`
	SuspendedBy      *int64     `gorm:"column:suspended_by"`
	SuspensionReason *string    `gorm:"column:suspension_reason;type:text"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at"`
}

func (userModel) TableName() string { return "users" }

// UserModels lists the gorm models of this file for schema migration.
func UserModels() []any {
	return []any{&userModel{}}
}

func toDomainUser(m userModel) *domain.User {
	var phone, reason string
	if m.Phone != nil {
		phone = *m.Phone
	}
	if m.SuspensionReason != nil {
		reason = *m.SuspensionReason
	}

	return &domain.User{
		ID:               m.ID,
		Email:            m.Email,
		Role:             domain.UserRole(m.Role),
		Name:             m.Name,
		Phone:            phone,
		AccountStatus:    domain.AccountStatus(m.AccountStatus),
		SuspendedAt:      m.SuspendedAt,
		SuspendedBy:      m.SuspendedBy,
		SuspensionReason: reason,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func toUserModel(u *domain.User) userModel {
	email := strings.TrimSpace(strings.ToLower(u.Email))

	var phone, reason *string
	if u.Phone != "" {
		v := u.Phone
		phone = &v
	}
	if u.SuspensionReason != "" {
		v := u.SuspensionReason
		reason = &v
	}
	status := u.AccountStatus
	if status == "" {
		status = domain.AccountActive
	}

	return userModel{
		ID:               u.ID,
		Email:            email,
		Role:             string(u.Role),
		Name:             u.Name,
		Phone:            phone,
		AccountStatus:    string(status),
		SuspendedAt:      u.SuspendedAt,
		SuspendedBy:      u.SuspendedBy,
		SuspensionReason: reason,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	m := toUserModel(u)
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*u = *toDomainUser(m)
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var m userModel
	tx := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&m)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainUser(m), nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var m userModel
	tx := r.db.WithContext(ctx).First(&m, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainUser(m), nil
}

// Suspend flips ACTIVE -> SUSPENDED. It returns false without error when the
// account was not active, so two concurrent suspensions cannot both apply.
func (r *UserRepository) Suspend(ctx context.Context, id, adminID int64, reason string, at time.Time) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&userModel{}).
		Where("id = ? AND account_status = ?", id, string(domain.AccountActive)).
		Updates(map[string]any{
			"account_status":    string(domain.AccountSuspended),
			"suspended_at":      at,
			"suspended_by":      adminID,
			"suspension_reason": reason,
			"updated_at":        at,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}

// Reinstate flips SUSPENDED -> ACTIVE and clears the suspension fields.
func (r *UserRepository) Reinstate(ctx context.Context, id int64, at time.Time) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&userModel{}).
		Where("id = ? AND account_status = ?", id, string(domain.AccountSuspended)).
		Updates(map[string]any{
			"account_status":    string(domain.AccountActive),
			"suspended_at":      nil,
			"suspended_by":      nil,
			"suspension_reason": nil,
			"updated_at":        at,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}
