//go:build e2e

package helper

import (
	"net/http"
	"testing"
	"time"

	reqdto "storefront/internal/handler/dto/request"
	"storefront/internal/pkg/config"
	"storefront/internal/pkg/cookie"
	"storefront/internal/pkg/jwt"
	"storefront/tests/common/fakecommerce"
	"storefront/tests/common/httptest"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Login signs in the fake store's user and returns the access token and
// the cookies the storefront set.
func Login(t *testing.T, router *gin.Engine) (string, []*http.Cookie) {
	t.Helper()

	w := httptest.PerformRequest(t, router, http.MethodPost, "/api/auth/login",
		reqdto.LoginRequest{Username: fakecommerce.Username, Password: fakecommerce.Password}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	access := httptest.ExtractCookie(w, cookie.AccessTokenCookieName)
	require.NotNil(t, access, "access cookie not set")
	require.NotEmpty(t, access.Value)
	return access.Value, httptest.ExtractCookies(w)
}

// ExpiredToken is a correctly signed access token that is already stale.
func ExpiredToken(t *testing.T, cfg config.JWTConfig) string {
	t.Helper()
	service := jwt.NewService(cfg.Secret, time.Millisecond, cfg.RefreshDuration)
	token, err := service.GenerateAccessToken("42", uuid.New())
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	return token
}
