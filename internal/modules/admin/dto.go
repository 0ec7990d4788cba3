package admin

type SuspendUserRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" binding:"required"`
}
