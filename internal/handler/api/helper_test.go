//go:build unit

package api_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	resdto "storefront/internal/handler/dto/response"
	"storefront/internal/handler/middleware"
	"storefront/internal/pkg/clock"
	"storefront/internal/pkg/config"
	"storefront/internal/usecase"
	"storefront/internal/usecase/session"
	"storefront/tests/common/fakestore"
	usecasemock "storefront/tests/mock/usecase"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testToken = "test-access-token"

// signedIn is a live session backed by an in-memory store, reachable
// through the real auth middleware with testToken.
type signedIn struct {
	store     *fakestore.Store
	registry  *session.Registry
	session   *session.Session
	principal *usecase.Principal
	auth      gin.HandlerFunc
}

func newSignedIn(t *testing.T, ctrl *gomock.Controller) *signedIn {
	t.Helper()

	store := fakestore.New()
	store.Seed("7", 2)
	reg := session.NewRegistry(store, clock.NewMockClock(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)), config.NewTestConfig().Session)

	id := uuid.New()
	sess, err := reg.Open(context.Background(), id, "42")
	require.NoError(t, err)

	principal := &usecase.Principal{UserID: "42", SessionID: id, Bearer: "store-access", Session: sess}
	validator := usecasemock.NewMockTokenValidator(ctrl)
	validator.EXPECT().Authenticate(gomock.Any(), testToken).Return(principal, nil).AnyTimes()

	return &signedIn{
		store:     store,
		registry:  reg,
		session:   sess,
		principal: principal,
		auth:      middleware.NewAuthMiddleware(validator).RequireAuth(),
	}
}

type errorBody struct {
	Error struct {
		Message       string `json:"message"`
		Kind          string `json:"kind"`
		LoginRequired bool   `json:"login_required"`
	} `json:"error"`
	Detail *resdto.CartResponse `json:"detail"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}
