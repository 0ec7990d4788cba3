package booking

import "time"

type CreateBookingRequest struct {
	ProviderID  int64     `json:"provider_id" binding:"required,gt=0"`
	StartTime   time.Time `json:"start_time" binding:"required"`
	EndTime     time.Time `json:"end_time" binding:"required"`
	Address     string    `json:"address" binding:"required"`
	Notes       string    `json:"notes"`
	TotalAmount float64   `json:"total_amount" binding:"gte=0"`
}

type ReasonRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type TransitionRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

type PaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" binding:"required"`
}
