package commerce

import (
	"context"
	"net/http"

	"storefront/internal/domain/auth"
	"storefront/internal/domain/user"
	"storefront/internal/pkg/errs"
	"storefront/internal/usecase/shared"
)

const (
	loginPath   = "/api/accounts/login/"
	logoutPath  = "/api/accounts/logout/"
	profilePath = "/api/accounts/profile/"
	refreshPath = "/api/token/refresh/"
)

func (c *Client) Login(ctx context.Context, creds auth.Credentials) (auth.TokenPair, *user.Profile, error) {
	in := loginRequestWire{
		Username: creds.Username().Value(),
		Password: creds.Password().Value(),
	}
	resp, err := c.do(ctx, http.MethodPost, loginPath, in, false)
	if err != nil {
		return auth.TokenPair{}, nil, err
	}
	if resp.status == http.StatusUnauthorized || resp.status == http.StatusBadRequest {
		return auth.TokenPair{}, nil, errs.AuthRequired(shared.ErrInvalidCredential)
	}
	if !isSuccess(resp) {
		return auth.TokenPair{}, nil, statusError(resp, nil)
	}

	var body tokenPairWire
	if err := decode(resp, &body); err != nil {
		return auth.TokenPair{}, nil, err
	}
	if body.Access == "" {
		return auth.TokenPair{}, nil, errs.Transient(errs.Mark(errs.New("login answer carries no access token"), shared.ErrStoreUnavailable))
	}
	tokens := auth.TokenPair{Access: body.Access, Refresh: body.Refresh}

	// The login answer omits the loyalty balance.
	profile, err := c.FetchProfile(shared.WithBearer(ctx, tokens.Access))
	if err != nil {
		return auth.TokenPair{}, nil, err
	}
	return tokens, profile, nil
}

// RefreshToken exchanges a store refresh token for a new access token. The
// returned Refresh is empty unless the store rotates refresh tokens.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	resp, err := c.do(ctx, http.MethodPost, refreshPath, refreshRequestWire{Refresh: refreshToken}, false)
	if err != nil {
		return auth.TokenPair{}, err
	}
	if resp.status == http.StatusBadRequest {
		return auth.TokenPair{}, errs.AuthRequired(shared.ErrNotAuthenticated)
	}
	if !isSuccess(resp) {
		return auth.TokenPair{}, statusError(resp, nil)
	}

	var body tokenPairWire
	if err := decode(resp, &body); err != nil {
		return auth.TokenPair{}, err
	}
	return auth.TokenPair{Access: body.Access, Refresh: body.Refresh}, nil
}

func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	resp, err := c.do(ctx, http.MethodPost, logoutPath, refreshRequestWire{Refresh: refreshToken}, true)
	if err != nil {
		return err
	}
	if !isSuccess(resp) {
		return statusError(resp, nil)
	}
	return nil
}

func (c *Client) FetchProfile(ctx context.Context) (*user.Profile, error) {
	resp, err := c.do(ctx, http.MethodGet, profilePath, nil, true)
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp) {
		return nil, statusError(resp, nil)
	}

	var body profileWire
	if err := decode(resp, &body); err != nil {
		return nil, err
	}
	return user.NewProfile(body.ID.String(), body.Username, body.Email, body.Points), nil
}
