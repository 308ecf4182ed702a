package api

import (
	"net/http"

	reqdto "storefront/internal/handler/dto/request"
	resdto "storefront/internal/handler/dto/response"
	"storefront/internal/handler/httperr"
	"storefront/internal/handler/middleware"
	"storefront/internal/pkg/config"
	"storefront/internal/pkg/cookie"
	"storefront/internal/pkg/errs"
	"storefront/internal/usecase/commands"
	"storefront/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

var errRefreshTokenRequired = errs.AuthRequired(errs.New("refresh token required"))

type AuthHandler struct {
	cmds    commands.AuthCommands
	users   queries.UserQueries
	cookies config.CookieConfig
	jwt     config.JWTConfig
}

func NewAuthHandler(cmds commands.AuthCommands, users queries.UserQueries, cfg config.Config) *AuthHandler {
	return &AuthHandler{
		cmds:    cmds,
		users:   users,
		cookies: cfg.Cookie,
		jwt:     cfg.JWT,
	}
}

// @Summary User login
// @Description Sign in with store credentials. Tokens are set as cookies and the access token is also returned.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body reqdto.LoginRequest true "Login request"
// @Success 200 {object} resdto.LoginResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 503 {object} httperr.Response
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req reqdto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
		return
	}

	result, err := h.cmds.Login(c.Request.Context(), req)
	if err != nil {
		httperr.AbortWithKind(c, err, nil)
		return
	}

	h.setCookies(c, result.TokenPair)
	c.JSON(http.StatusOK, resdto.LoginResponse{
		AccessToken: result.TokenPair.AccessToken,
		User:        resdto.FromProfile(result.Profile),
	})
}

// @Summary Refresh tokens
// @Description Renew the session using the refresh cookie or a refresh token in the body
// @Tags auth
// @Accept json
// @Produce json
// @Param request body reqdto.RefreshRequest false "Refresh token when no cookie is sent"
// @Success 200 {object} resdto.TokenResponse
// @Failure 401 {object} httperr.Response
// @Failure 503 {object} httperr.Response
// @Router /api/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	token := cookie.GetRefreshToken(c)
	if token == "" {
		var req reqdto.RefreshRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
				return
			}
		}
		token = req.RefreshToken
	}
	if token == "" {
		httperr.AbortWithKind(c, errRefreshTokenRequired, nil)
		return
	}

	pair, err := h.cmds.RefreshToken(c.Request.Context(), token)
	if err != nil {
		if errs.KindOf(err) == errs.KindAuthRequired {
			cookie.ClearTokenCookies(c, h.cookies)
		}
		httperr.AbortWithKind(c, err, nil)
		return
	}

	h.setCookies(c, pair)
	c.JSON(http.StatusOK, resdto.TokenResponse{AccessToken: pair.AccessToken})
}

// @Summary User logout
// @Description End the cart session and forget the store credential
// @Tags auth
// @Security BearerAuth
// @Success 204 "No Content"
// @Failure 401 {object} httperr.Response
// @Router /api/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, nil, "Please sign in again", nil)
		return
	}

	cookie.ClearTokenCookies(c, h.cookies)
	if err := h.cmds.Logout(c.Request.Context(), principal.SessionID); err != nil {
		httperr.AbortWithKind(c, err, nil)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Get current user
// @Description Profile and loyalty points of the signed-in user
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} resdto.UserResponse
// @Failure 401 {object} httperr.Response
// @Failure 503 {object} httperr.Response
// @Router /api/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	profile, err := h.users.GetCurrentUser(c.Request.Context())
	if err != nil {
		httperr.AbortWithKind(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, resdto.FromProfile(profile))
}

func (h *AuthHandler) setCookies(c *gin.Context, pair *commands.TokenPair) {
	cookie.SetTokenCookies(c, h.cookies, cookie.Tokens{
		Access:        pair.AccessToken,
		Refresh:       pair.RefreshToken,
		AccessExpiry:  h.jwt.Duration,
		RefreshExpiry: h.jwt.RefreshDuration,
	})
}
