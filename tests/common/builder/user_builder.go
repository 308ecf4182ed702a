//go:build unit || e2e || integration

package builder

import (
	"storefront/internal/domain/auth"
	"storefront/internal/domain/user"
	reqdto "storefront/internal/handler/dto/request"
)

type UserBuilder struct {
	ID       string
	Username string
	Email    string
	Password string
	Points   int64
}

func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		ID:       "42",
		Username: "sankalpa",
		Email:    "test@example.com",
		Password: "password123",
		Points:   250,
	}
}

func (u *UserBuilder) With(mutate func(*UserBuilder)) *UserBuilder {
	mutate(u)
	return u
}

func (u *UserBuilder) BuildCredentials() (auth.Credentials, error) {
	return auth.NewCredentials(u.Username, u.Password)
}

func (u *UserBuilder) BuildProfile() (*user.Profile, error) {
	if _, err := user.NewEmail(u.Email); err != nil {
		return nil, err
	}
	return user.NewProfile(u.ID, u.Username, u.Email, u.Points), nil
}

func (u *UserBuilder) BuildDTO() reqdto.LoginRequest {
	return reqdto.LoginRequest{
		Username: u.Username,
		Password: u.Password,
	}
}

func (u *UserBuilder) WithUsername(name string) *UserBuilder {
	u.Username = name
	return u
}

func (u *UserBuilder) WithEmail(email string) *UserBuilder {
	u.Email = email
	return u
}

func (u *UserBuilder) WithPassword(pw string) *UserBuilder {
	u.Password = pw
	return u
}

func (u *UserBuilder) WithPoints(points int64) *UserBuilder {
	u.Points = points
	return u
}
