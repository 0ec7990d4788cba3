package admin

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"localservices/internal/modules/booking"
	"localservices/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(admin *gin.RouterGroup) {
	// users moderation
	admin.POST("/users/:id/suspend", h.SuspendUser)
	admin.POST("/users/:id/reinstate", h.ReinstateUser)

	// bookings moderation
	admin.POST("/bookings/:id/cancel", h.CancelBooking)
	admin.GET("/disputes", h.ListDisputes)
}

func (h *Handler) SuspendUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req SuspendUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Reason is required")
		return
	}

	res, err := h.service.SuspendUser(c.Request.Context(), id, c.GetInt64("user_id"), req.Reason)
	switch {
	case errors.Is(err, ErrSessionRevocationFailed):
		// the suspension itself went through
		_ = c.Error(err)
		response.ErrorWithDetails(c, http.StatusBadGateway, "SESSION_REVOCATION_FAILED",
			"User suspended but sessions could not be revoked", res)
		return
	case err != nil:
		writeError(c, err)
		return
	}

	if !res.Applied {
		response.ErrorWithDetails(c, http.StatusConflict, "ALREADY_SUSPENDED", "User is already suspended", res)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) ReinstateUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	u, applied, err := h.service.ReinstateUser(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if !applied {
		response.Error(c, http.StatusConflict, "NOT_SUSPENDED", "User is not suspended")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": u})
}

func (h *Handler) CancelBooking(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Reason is required")
		return
	}

	b, err := h.service.ForceCancelBooking(c.Request.Context(), id, c.GetInt64("user_id"), req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

// ListDisputes accepts optional RFC3339 "from" and "to" query params and
// defaults to the last 7 days.
func (h *Handler) ListDisputes(c *gin.Context) {
	until := time.Now().UTC()
	since := until.Add(-7 * 24 * time.Hour)

	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid from date")
			return
		}
		since = t.UTC()
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid to date")
			return
		}
		until = t.UTC()
	}

	records, err := h.service.ListDisputes(c.Request.Context(), since, until)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"disputes": records,
		"total":    len(records),
		"from":     since,
		"to":       until,
	})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid ID")
		return 0, false
	}
	return id, true
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "User not found")
	case errors.Is(err, booking.ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
	case errors.Is(err, ErrReasonRequired), errors.Is(err, ErrCannotSuspendSelf), errors.Is(err, booking.ErrReasonRequired):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, booking.ErrInvalidTransition):
		response.Error(c, http.StatusConflict, "INVALID_TRANSITION", err.Error())
	case errors.Is(err, booking.ErrConcurrentModification):
		response.Error(c, http.StatusConflict, "CONCURRENT_MODIFICATION", "Booking was changed by another request, reload and retry")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Request failed")
	}
}
