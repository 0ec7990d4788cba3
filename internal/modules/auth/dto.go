package auth

import "time"

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type SessionResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func toSessionResponse(issued *IssuedSession) SessionResponse {
	return SessionResponse{
		AccessToken:  issued.AccessToken,
		RefreshToken: issued.RefreshToken,
		ExpiresAt:    issued.Session.ExpiresAt,
	}
}
