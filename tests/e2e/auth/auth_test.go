//go:build e2e

package auth_test

import (
	"net/http"
	"testing"

	reqdto "storefront/internal/handler/dto/request"
	resdto "storefront/internal/handler/dto/response"
	"storefront/internal/pkg/cookie"
	"storefront/tests/common/fakecommerce"
	"storefront/tests/common/httptest"
	"storefront/tests/e2e"
	"storefront/tests/e2e/common/helper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	loginURL   = "/api/auth/login"
	logoutURL  = "/api/auth/logout"
	refreshURL = "/api/auth/refresh"
	meURL      = "/api/auth/me"
	cartURL    = "/api/cart"
)

type authSuite struct {
	e2e.SharedSuite
}

func TestAuthSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(authSuite))
}

type errorBody struct {
	Error struct {
		Message       string `json:"message"`
		Kind          string `json:"kind"`
		LoginRequired bool   `json:"login_required"`
	} `json:"error"`
}

func (s *authSuite) TestLogin() {
	tests := []struct {
		name           string
		username       string
		password       string
		expectedStatus int
	}{
		{name: "valid credentials", username: fakecommerce.Username, password: fakecommerce.Password, expectedStatus: http.StatusOK},
		{name: "wrong password", username: fakecommerce.Username, password: "nope", expectedStatus: http.StatusUnauthorized},
		{name: "unknown user", username: "someone", password: fakecommerce.Password, expectedStatus: http.StatusUnauthorized},
		{name: "empty username", username: "", password: fakecommerce.Password, expectedStatus: http.StatusBadRequest},
		{name: "empty password", username: fakecommerce.Username, password: "", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			t := s.T()

			w := httptest.PerformRequest(t, s.Router, http.MethodPost, loginURL,
				reqdto.LoginRequest{Username: tt.username, Password: tt.password}, "")
			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())

			switch tt.expectedStatus {
			case http.StatusOK:
				var res resdto.LoginResponse
				httptest.AssertSuccessResponse(t, w, http.StatusOK, &res)
				assert.NotEmpty(t, res.AccessToken)
				require.NotNil(t, res.User)
				assert.Equal(t, "42", res.User.ID)
				assert.Equal(t, int64(250), res.User.Points)
				assert.NotNil(t, httptest.ExtractCookie(w, cookie.AccessTokenCookieName))
				assert.NotNil(t, httptest.ExtractCookie(w, cookie.RefreshTokenCookieName))
			case http.StatusUnauthorized:
				var res errorBody
				require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &res))
				assert.True(t, res.Error.LoginRequired)
				assert.Equal(t, "Invalid username or password", res.Error.Message)
			}
		})
	}
}

func (s *authSuite) TestLoginLoadsCart() {
	s.Run("cart session opened at login reflects the store", func() {
		t := s.T()

		token, _ := helper.Login(t, s.Router)
		w := httptest.PerformRequest(t, s.Router, http.MethodGet, cartURL, nil, token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var res resdto.CartResponse
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &res)
		assert.Empty(t, res.Lines)
		assert.Equal(t, "idle", res.State)
	})
}

func (s *authSuite) TestMe() {
	s.Run("bearer header", func() {
		t := s.T()
		token, _ := helper.Login(t, s.Router)

		w := httptest.PerformRequest(t, s.Router, http.MethodGet, meURL, nil, token)
		var res resdto.UserResponse
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &res)
		assert.Equal(t, fakecommerce.Username, res.Username)
	})

	s.Run("access cookie", func() {
		t := s.T()
		_, cookies := helper.Login(t, s.Router)

		w := httptest.PerformRequestWithCookies(t, s.Router, http.MethodGet, meURL, nil, cookies, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	s.Run("no token", func() {
		t := s.T()
		w := httptest.PerformRequest(t, s.Router, http.MethodGet, meURL, nil, "")
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	s.Run("expired token", func() {
		t := s.T()
		w := httptest.PerformRequest(t, s.Router, http.MethodGet, meURL, nil, helper.ExpiredToken(t, s.Config.JWT))
		require.Equal(t, http.StatusUnauthorized, w.Code)

		var res errorBody
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &res))
		assert.True(t, res.Error.LoginRequired)
	})

	s.Run("store unavailable", func() {
		t := s.T()
		token, _ := helper.Login(t, s.Router)
		s.Commerce.FailAll(http.StatusBadGateway)

		w := httptest.PerformRequest(t, s.Router, http.MethodGet, meURL, nil, token)
		require.Equal(t, http.StatusServiceUnavailable, w.Code, w.Body.String())
	})
}

func (s *authSuite) TestRefresh() {
	s.Run("refresh cookie issues a working access token", func() {
		t := s.T()
		_, cookies := helper.Login(t, s.Router)

		w := httptest.PerformRequestWithCookies(t, s.Router, http.MethodPost, refreshURL, nil, cookies, "")
		var res resdto.TokenResponse
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &res)
		require.NotEmpty(t, res.AccessToken)

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, meURL, nil, res.AccessToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	s.Run("access token is not a refresh token", func() {
		t := s.T()
		token, _ := helper.Login(t, s.Router)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, refreshURL,
			reqdto.RefreshRequest{RefreshToken: token}, "")
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	s.Run("missing token", func() {
		t := s.T()
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, refreshURL, nil, "")
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func (s *authSuite) TestLogout() {
	s.Run("token stops working after logout", func() {
		t := s.T()
		token, _ := helper.Login(t, s.Router)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, logoutURL, nil, token)
		require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, meURL, nil, token)
		require.Equal(t, http.StatusUnauthorized, w.Code)

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, cartURL, nil, token)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	s.Run("credential is not kept in redis", func() {
		t := s.T()
		before := len(s.Redis.Keys())
		token, _ := helper.Login(t, s.Router)
		require.Len(t, s.Redis.Keys(), before+1)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, logoutURL, nil, token)
		require.Equal(t, http.StatusNoContent, w.Code)
		assert.Len(t, s.Redis.Keys(), before)
	})
}
