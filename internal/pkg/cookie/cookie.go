package cookie

import (
	"net/http"
	"time"

	"storefront/internal/pkg/config"

	"github.com/gin-gonic/gin"
)

const (
	AccessTokenCookieName  = "sf_access"
	RefreshTokenCookieName = "sf_refresh"

	// the refresh token is only ever sent to the auth endpoints
	refreshPath = "/api/auth"
)

type Tokens struct {
	Access        string
	Refresh       string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

func SetTokenCookies(c *gin.Context, cfg config.CookieConfig, t Tokens) {
	c.SetSameSite(sameSite(cfg.SameSite))
	c.SetCookie(AccessTokenCookieName, t.Access, int(t.AccessExpiry.Seconds()), "/", cfg.Domain, cfg.Secure, true)
	c.SetCookie(RefreshTokenCookieName, t.Refresh, int(t.RefreshExpiry.Seconds()), refreshPath, cfg.Domain, cfg.Secure, true)
}

func ClearTokenCookies(c *gin.Context, cfg config.CookieConfig) {
	c.SetSameSite(sameSite(cfg.SameSite))
	c.SetCookie(AccessTokenCookieName, "", -1, "/", cfg.Domain, cfg.Secure, true)
	c.SetCookie(RefreshTokenCookieName, "", -1, refreshPath, cfg.Domain, cfg.Secure, true)
}

func GetAccessToken(c *gin.Context) string {
	token, _ := c.Cookie(AccessTokenCookieName)
	return token
}

func GetRefreshToken(c *gin.Context) string {
	token, _ := c.Cookie(RefreshTokenCookieName)
	return token
}

func sameSite(v string) http.SameSite {
	switch v {
	case "Strict":
		return http.SameSiteStrictMode
	case "None":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
