//go:build unit

package middleware_test

import (
	"net/http"
	"testing"

	"storefront/internal/handler/middleware"
	"storefront/internal/pkg/cookie"
	"storefront/internal/pkg/errs"
	"storefront/internal/usecase"
	"storefront/internal/usecase/shared"
	"storefront/tests/common/httptest"
	usecasemock "storefront/tests/mock/usecase"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newAuthRouter(t *testing.T) (*gin.Engine, *usecasemock.MockTokenValidator) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctrl := gomock.NewController(t)
	validator := usecasemock.NewMockTokenValidator(ctrl)

	router := gin.New()
	router.Use(middleware.ErrorHandler())
	router.GET("/private", middleware.NewAuthMiddleware(validator).RequireAuth(), func(c *gin.Context) {
		p, ok := middleware.GetPrincipal(c)
		require.True(t, ok)
		bearer, _ := shared.BearerFrom(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"user_id": p.UserID, "bearer": bearer})
	})
	return router, validator
}

func TestRequireAuth(t *testing.T) {
	principal := &usecase.Principal{UserID: "42", SessionID: uuid.New(), Bearer: "store-access"}

	t.Run("bearer header authenticates and exposes the store credential", func(t *testing.T) {
		router, validator := newAuthRouter(t)
		validator.EXPECT().Authenticate(gomock.Any(), "header-token").Return(principal, nil)

		rec := httptest.PerformRequest(t, router, http.MethodGet, "/private", nil, "header-token")

		var body map[string]string
		httptest.AssertSuccessResponse(t, rec, http.StatusOK, &body)
		assert.Equal(t, "42", body["user_id"])
		assert.Equal(t, "store-access", body["bearer"])
	})

	t.Run("cookie wins over the header", func(t *testing.T) {
		router, validator := newAuthRouter(t)
		validator.EXPECT().Authenticate(gomock.Any(), "cookie-token").Return(principal, nil)

		cookies := []*http.Cookie{{Name: cookie.AccessTokenCookieName, Value: "cookie-token"}}
		rec := httptest.PerformRequestWithCookies(t, router, http.MethodGet, "/private", nil, cookies, "header-token")

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		router, _ := newAuthRouter(t)

		rec := httptest.PerformRequest(t, router, http.MethodGet, "/private", nil, "")

		httptest.AssertErrorResponse(t, rec, http.StatusUnauthorized, "Please sign in again")
		assert.Contains(t, rec.Body.String(), `"login_required":true`)
	})

	t.Run("rejected token", func(t *testing.T) {
		router, validator := newAuthRouter(t)
		validator.EXPECT().Authenticate(gomock.Any(), "expired").
			Return(nil, errs.AuthRequired(shared.ErrCredentialNotFound))

		rec := httptest.PerformRequest(t, router, http.MethodGet, "/private", nil, "expired")

		httptest.AssertErrorResponse(t, rec, http.StatusUnauthorized, "")
	})

	t.Run("credential store down is not a sign-out", func(t *testing.T) {
		router, validator := newAuthRouter(t)
		validator.EXPECT().Authenticate(gomock.Any(), "valid").
			Return(nil, errs.Transient(errs.New("redis unreachable")))

		rec := httptest.PerformRequest(t, router, http.MethodGet, "/private", nil, "valid")

		httptest.AssertErrorResponse(t, rec, http.StatusServiceUnavailable, "")
		assert.NotContains(t, rec.Body.String(), "login_required")
	})
}
