package auth

import (
	"errors"
	"net/http"

	"localservices/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// Handler exposes session refresh over HTTP.
type Handler struct {
	sessions *SessionService
}

func NewHandler(sessions *SessionService) *Handler {
	return &Handler{sessions: sessions}
}

func (h *Handler) RegisterPublicRoutes(v1 *gin.RouterGroup) {
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/refresh", h.Refresh)
	}
}

// Refresh spends a refresh token and returns a new access/refresh pair.
func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "refresh_token is required")
		return
	}

	issued, err := h.sessions.RefreshSession(c.Request.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, ErrSessionRevoked):
			response.Error(c, http.StatusUnauthorized, "SESSION_REVOKED", "Session has been revoked")
		case errors.Is(err, ErrSessionExpired):
			response.Error(c, http.StatusUnauthorized, "SESSION_EXPIRED", "Session has expired")
		case errors.Is(err, ErrAccountSuspended):
			response.Error(c, http.StatusForbidden, "ACCOUNT_SUSPENDED", "Account is suspended")
		case errors.Is(err, ErrUnauthorized):
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid refresh token")
		default:
			_ = c.Error(err)
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to refresh session")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": toSessionResponse(issued)})
}
