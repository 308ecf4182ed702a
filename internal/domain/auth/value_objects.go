package auth

import (
	"storefront/internal/domain/user"
)

type Credentials struct {
	username user.Username
	password user.Password
}

func NewCredentials(usernameStr, passwordStr string) (Credentials, error) {
	username, err := user.NewUsername(usernameStr)
	if err != nil {
		return Credentials{}, err
	}

	password, err := user.NewPassword(passwordStr)
	if err != nil {
		return Credentials{}, err
	}

	return Credentials{
		username: username,
		password: password,
	}, nil
}

func (c Credentials) Username() user.Username {
	return c.username
}

func (c Credentials) Password() user.Password {
	return c.password
}

// TokenPair is the store-issued bearer credential of one login.
type TokenPair struct {
	Access  string
	Refresh string
}

func (p TokenPair) IsZero() bool {
	return p.Access == ""
}
