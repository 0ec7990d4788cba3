package middleware

import (
	"crypto/subtle"
	"log"
	"net/http"
	"strings"

	"localservices/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// InternalTokenAuth protects service-to-service endpoints (the payments
// collaborator) with a static bearer token. An empty token disables the
// group entirely. An empty allowedIPs list accepts any client address.
func InternalTokenAuth(token string, allowedIPs []string) gin.HandlerFunc {
	expected := strings.TrimSpace(token)

	return func(c *gin.Context) {
		if expected == "" {
			logInternalAuthFailure(c, http.StatusForbidden, "disabled")
			response.Abort(c, http.StatusForbidden, "AUTH_INVALID", "Internal API is disabled")
			return
		}

		if !ipAllowed(c.ClientIP(), allowedIPs) {
			logInternalAuthFailure(c, http.StatusForbidden, "ip_not_allowed")
			response.Abort(c, http.StatusForbidden, "AUTH_INVALID", "IP not allowed")
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logInternalAuthFailure(c, http.StatusUnauthorized, "missing_auth")
			response.Abort(c, http.StatusUnauthorized, "AUTH_MISSING", "Authorization header is required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			logInternalAuthFailure(c, http.StatusUnauthorized, "invalid_auth_format")
			response.Abort(c, http.StatusUnauthorized, "AUTH_INVALID", "Authorization header must be 'Bearer <token>'")
			return
		}

		if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(parts[1])), []byte(expected)) != 1 {
			logInternalAuthFailure(c, http.StatusForbidden, "invalid_token")
			response.Abort(c, http.StatusForbidden, "AUTH_INVALID", "Invalid internal token")
			return
		}

		c.Next()
	}
}

func ipAllowed(clientIP string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, ip := range allowed {
		if strings.TrimSpace(ip) == clientIP {
			return true
		}
	}
	return false
}

func logInternalAuthFailure(c *gin.Context, status int, reason string) {
	log.Printf("internal_auth status=%d request_id=%s client_ip=%s reason=%s", status, requestID(c), c.ClientIP(), reason)
}
