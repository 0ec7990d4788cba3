package booking

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"localservices/internal/pkg/response"
	"localservices/internal/pkg/validator"

	"github.com/gin-gonic/gin"
)

const roleAdmin = "admin"

type Handler struct {
	service        *Service
	commissionRate float64
}

func NewHandler(service *Service, commissionRate float64) *Handler {
	return &Handler{service: service, commissionRate: commissionRate}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/bookings", h.CreateBooking)
	rg.GET("/bookings", h.ListMyBookings)
	rg.GET("/bookings/:id", h.GetBooking)
	rg.GET("/bookings/:id/history", h.GetHistory)

	rg.POST("/bookings/:id/accept", h.providerAction(func(c *gin.Context, id, actor int64) (*Booking, error) {
		return h.service.AcceptBooking(c.Request.Context(), id, actor)
	}))
	rg.POST("/bookings/:id/decline", h.providerAction(func(c *gin.Context, id, actor int64) (*Booking, error) {
		reason, ok := bindReason(c)
		if !ok {
			return nil, nil
		}
		return h.service.DeclineBooking(c.Request.Context(), id, actor, reason)
	}))
	rg.POST("/bookings/:id/start", h.participantAction(func(c *gin.Context, id, actor int64) (*Booking, error) {
		return h.service.StartBooking(c.Request.Context(), id, actor)
	}))
	rg.POST("/bookings/:id/complete", h.participantAction(func(c *gin.Context, id, actor int64) (*Booking, error) {
		return h.service.CompleteBooking(c.Request.Context(), id, actor)
	}))
	rg.POST("/bookings/:id/cancel", h.participantAction(func(c *gin.Context, id, actor int64) (*Booking, error) {
		reason, ok := bindReason(c)
		if !ok {
			return nil, nil
		}
		return h.service.CancelBooking(c.Request.Context(), id, actor, reason)
	}))
	rg.POST("/bookings/:id/dispute", h.participantAction(func(c *gin.Context, id, actor int64) (*Booking, error) {
		reason, ok := bindReason(c)
		if !ok {
			return nil, nil
		}
		return h.service.DisputeBooking(c.Request.Context(), id, actor, reason)
	}))

	rg.PATCH("/bookings/:id/status", h.UpdateStatus)
	rg.PATCH("/bookings/:id/payment-status", h.UpdatePaymentStatus)
}

// RegisterInternalRoutes mounts the endpoints used by the payments
// collaborator. The group must be protected by an internal token.
func (h *Handler) RegisterInternalRoutes(rg *gin.RouterGroup) {
	rg.PATCH("/bookings/:id/payment-status", h.SyncPaymentStatus)
}

func (h *Handler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, req)
		return
	}

	actor := c.GetInt64("user_id")
	b, err := h.service.CreateBooking(c.Request.Context(), NewBookingParams{
		CustomerID:       actor,
		ProviderID:       req.ProviderID,
		StartTime:        req.StartTime,
		EndTime:          req.EndTime,
		Address:          req.Address,
		Notes:            req.Notes,
		TotalAmount:      req.TotalAmount,
		CommissionAmount: req.TotalAmount * h.commissionRate,
	}, actor)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"booking": b})
}

func (h *Handler) ListMyBookings(c *gin.Context) {
	ctx := c.Request.Context()
	actor := c.GetInt64("user_id")

	if ref := strings.TrimSpace(c.Query("reference")); ref != "" {
		b, err := h.service.GetByReference(ctx, ref)
		if err != nil {
			writeError(c, err)
			return
		}
		if !canView(c, b) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
			return
		}
		response.Success(c, http.StatusOK, gin.H{"bookings": []Booking{*b}})
		return
	}

	var statuses []Status
	if raw := strings.TrimSpace(c.Query("status")); raw != "" && raw != "all" {
		for _, part := range strings.Split(raw, ",") {
			st, err := ParseStatus(strings.TrimSpace(part))
			if err != nil {
				writeError(c, err)
				return
			}
			statuses = append(statuses, st)
		}
	}

	rows, err := h.service.ListForParticipant(ctx, actor, statuses)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": rows})
}

func (h *Handler) GetBooking(c *gin.Context) {
	b, ok := h.loadVisible(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) GetHistory(c *gin.Context) {
	b, ok := h.loadVisible(c)
	if !ok {
		return
	}
	records, err := h.service.History(c.Request.Context(), b.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"history": records})
}

// UpdateStatus is the raw transition endpoint; only admins may use it.
func (h *Handler) UpdateStatus(c *gin.Context) {
	if c.GetString("role") != roleAdmin {
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
		return
	}
	id, ok := bookingIDParam(c)
	if !ok {
		return
	}
	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, req)
		return
	}
	next, err := ParseStatus(req.Status)
	if err != nil {
		writeError(c, err)
		return
	}

	b, err := h.service.TransitionStatus(c.Request.Context(), id, next, c.GetInt64("user_id"), req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) UpdatePaymentStatus(c *gin.Context) {
	if c.GetString("role") != roleAdmin {
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
		return
	}
	h.SyncPaymentStatus(c)
}

// SyncPaymentStatus records the payment outcome reported by the payments
// collaborator. It never changes the lifecycle status.
func (h *Handler) SyncPaymentStatus(c *gin.Context) {
	id, ok := bookingIDParam(c)
	if !ok {
		return
	}
	var req PaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, req)
		return
	}

	b, err := h.service.UpdatePaymentStatus(c.Request.Context(), id, PaymentStatus(req.PaymentStatus))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

type actionFunc func(c *gin.Context, bookingID, actorID int64) (*Booking, error)

// providerAction runs fn only when the caller is the booking's provider.
func (h *Handler) providerAction(fn actionFunc) gin.HandlerFunc {
	return h.guarded(func(c *gin.Context, b *Booking) bool {
		return b.ProviderID == c.GetInt64("user_id")
	}, fn)
}

// participantAction runs fn when the caller is a participant or an admin.
func (h *Handler) participantAction(fn actionFunc) gin.HandlerFunc {
	return h.guarded(canView, fn)
}

func (h *Handler) guarded(allowed func(*gin.Context, *Booking) bool, fn actionFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := bookingIDParam(c)
		if !ok {
			return
		}
		b, err := h.service.GetByID(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		if !allowed(c, b) {
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "You are not allowed to change this booking")
			return
		}

		updated, err := fn(c, id, c.GetInt64("user_id"))
		if err != nil {
			writeError(c, err)
			return
		}
		if updated == nil {
			// fn already wrote a response
			return
		}
		response.Success(c, http.StatusOK, gin.H{"booking": updated})
	}
}

func (h *Handler) loadVisible(c *gin.Context) (*Booking, bool) {
	id, ok := bookingIDParam(c)
	if !ok {
		return nil, false
	}
	b, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	if !canView(c, b) {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
		return nil, false
	}
	return b, true
}

func canView(c *gin.Context, b *Booking) bool {
	return c.GetString("role") == roleAdmin || b.IsParticipant(c.GetInt64("user_id"))
}

func bookingIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid booking ID")
		return 0, false
	}
	return id, true
}

// invalidBody reports which fields of req failed validation, if any did.
func invalidBody(c *gin.Context, req any) {
	if fields := validator.Validate(req); len(fields) > 0 {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", fields)
		return
	}
	response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
}

func bindReason(c *gin.Context) (string, bool) {
	var req ReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Reason) == "" {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Reason is required")
		return "", false
	}
	return req.Reason, true
}

func writeError(c *gin.Context, err error) {
	var te *TransitionError
	errors.As(err, &te)

	switch {
	case errors.Is(err, ErrNotFound):
		response.ErrorWithDetails(c, http.StatusNotFound, "NOT_FOUND", "Booking not found", lookupDetails(te))
	case errors.Is(err, ErrInvalidTransition):
		response.ErrorWithDetails(c, http.StatusConflict, "INVALID_TRANSITION", err.Error(), transitionDetails(te))
	case errors.Is(err, ErrConcurrentModification):
		response.ErrorWithDetails(c, http.StatusConflict, "CONCURRENT_MODIFICATION", "Booking was changed by another request, reload and retry", transitionDetails(te))
	case errors.Is(err, ErrReasonRequired), errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process booking")
	}
}

func lookupDetails(te *TransitionError) any {
	switch {
	case te == nil:
		return nil
	case te.Reference != "":
		return gin.H{"reference": te.Reference}
	default:
		return gin.H{"booking_id": te.BookingID}
	}
}

func transitionDetails(te *TransitionError) any {
	if te == nil {
		return nil
	}
	return gin.H{
		"booking_id":       te.BookingID,
		"current_status":   te.Current,
		"attempted_status": te.Attempted,
	}
}
