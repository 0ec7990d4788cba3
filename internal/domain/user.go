package domain

import "time"

type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleProvider UserRole = "provider"
	RoleAdmin    UserRole = "admin"
)

type AccountStatus string

const (
	AccountActive    AccountStatus = "ACTIVE"
	AccountSuspended AccountStatus = "SUSPENDED"
)

// User is the slice of a marketplace account this service needs: identity,
// role and account standing. Profiles live with the profile collaborator.
type User struct {
	ID               int64         `json:"id"`
	Email            string        `json:"email"`
	Name             string        `json:"name"`
	Phone            string        `json:"phone,omitempty"`
	Role             UserRole      `json:"role"`
	AccountStatus    AccountStatus `json:"account_status"`
	SuspendedAt      *time.Time    `json:"suspended_at,omitempty"`
	SuspendedBy      *int64        `json:"suspended_by,omitempty"`
	SuspensionReason string        `json:"suspension_reason,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

func (u *User) IsSuspended() bool {
	return u.AccountStatus == AccountSuspended
}
