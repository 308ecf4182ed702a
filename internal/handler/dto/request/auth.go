package request

import (
	"storefront/internal/domain/auth"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required,max=150"`
	Password string `json:"password" binding:"required"`
}

func (r *LoginRequest) ToDomain() (auth.Credentials, error) {
	return auth.NewCredentials(r.Username, r.Password)
}

// RefreshRequest is accepted when the refresh cookie is unavailable.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}
