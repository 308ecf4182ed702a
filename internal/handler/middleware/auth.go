package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"storefront/internal/handler/httperr"
	"storefront/internal/pkg/cookie"
	"storefront/internal/pkg/errs"
	"storefront/internal/usecase"
	"storefront/internal/usecase/session"
	"storefront/internal/usecase/shared"

	"github.com/gin-gonic/gin"
)

type AuthMiddleware struct {
	tokenValidator usecase.TokenValidator
}

const ctxPrincipalKey = "principal"

var errAccessTokenRequired = errs.AuthRequired(errs.New("access token required"))

func NewAuthMiddleware(tokenValidator usecase.TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{
		tokenValidator: tokenValidator,
	}
}

// RequireAuth resolves the caller's session and makes the store credential
// available to everything downstream through the request context.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			httperr.AbortWithKind(c, errAccessTokenRequired, nil)
			return
		}

		principal, err := m.tokenValidator.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errs.KindOf(err) == errs.KindAuthRequired {
				slog.Warn("Token validation failed in auth middleware", "error", err.Error())
			}
			httperr.AbortWithKind(c, err, nil)
			return
		}

		c.Set(ctxPrincipalKey, principal)
		c.Request = c.Request.WithContext(shared.WithBearer(c.Request.Context(), principal.Bearer))
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	if token := cookie.GetAccessToken(c); token != "" {
		return token
	}
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(authHeader[len("Bearer "):])
	}
	return ""
}

func GetPrincipal(c *gin.Context) (*usecase.Principal, bool) {
	v, exists := c.Get(ctxPrincipalKey)
	if !exists {
		return nil, false
	}
	p, ok := v.(*usecase.Principal)
	return p, ok && p != nil
}

// MustSession returns the caller's cart session. Handlers behind
// RequireAuth always have one; reaching the abort means a route was
// registered without the middleware.
func MustSession(c *gin.Context) (*session.Session, bool) {
	p, ok := GetPrincipal(c)
	if !ok || p.Session == nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, nil, "Internal server error", nil)
		return nil, false
	}
	return p.Session, true
}
