package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"localservices/internal/modules/auth"
	"localservices/internal/pkg/jwt"
	"localservices/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// SessionValidator checks that the session an access token was issued for is still live.
type SessionValidator interface {
	ValidateSession(ctx context.Context, userID, sessionID int64) error
}

// JWTAuth authenticates bearer tokens and rejects tokens whose session was
// revoked or expired. It sets "user_id", "role" and "session_id".
func JWTAuth(tokens *jwt.Service, sessions SessionValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" {
			response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing Authorization header")
			return
		}
		if !strings.HasPrefix(h, "Bearer ") {
			response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid Authorization header")
			return
		}

		tokenStr := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		if tokenStr == "" {
			response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Empty token")
			return
		}

		claims, err := tokens.ValidateToken(tokenStr)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
			return
		}

		if sessions != nil {
			if err := sessions.ValidateSession(c.Request.Context(), claims.UserID, claims.SessionID); err != nil {
				switch {
				case errors.Is(err, auth.ErrSessionRevoked):
					response.Abort(c, http.StatusUnauthorized, "SESSION_REVOKED", "Session has been revoked")
				case errors.Is(err, auth.ErrSessionExpired):
					response.Abort(c, http.StatusUnauthorized, "SESSION_EXPIRED", "Session has expired")
				case errors.Is(err, auth.ErrUnauthorized):
					response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Unknown session")
				default:
					_ = c.Error(err)
					response.Abort(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to check session")
				}
				return
			}
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Set("session_id", claims.SessionID)

		c.Next()
	}
}
