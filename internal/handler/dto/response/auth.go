package response

import (
	"storefront/internal/domain/user"
)

type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Points   int64  `json:"points"`
}

type LoginResponse struct {
	AccessToken string        `json:"access_token"`
	User        *UserResponse `json:"user"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
}

func FromProfile(p *user.Profile) *UserResponse {
	if p == nil {
		return nil
	}
	return &UserResponse{
		ID:       p.ID(),
		Username: p.Username(),
		Email:    p.Email(),
		Points:   p.Points(),
	}
}
