package httperr

import (
	"net/http"

	"storefront/internal/pkg/errs"
	"storefront/internal/usecase/shared"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Status int `json:"-"`
	Error  struct {
		Message       string `json:"message"`
		Kind          string `json:"kind,omitempty"`
		LoginRequired bool   `json:"login_required,omitempty"`
	} `json:"error"`
	Detail any `json:"detail,omitempty"`
}

// preserves original error for future monitoring
func AbortWithError(c *gin.Context, status int, err error, msg string, detail any) {
	if err == nil {
		err = errs.New(msg)
	}

	resp := Response{Status: status}
	resp.Error.Message = msg
	resp.Error.LoginRequired = status == http.StatusUnauthorized
	resp.Detail = detail

	abort(c, err, resp)
}

// AbortWithKind answers with the status that matches how err was
// classified. detail is attached as is; for transient failures callers pass
// the cart as it stands after the re-sync.
func AbortWithKind(c *gin.Context, err error, detail any) {
	kind := errs.KindOf(err)
	status := StatusOf(kind)

	resp := Response{Status: status}
	resp.Error.Kind = string(kind)
	resp.Error.Message = message(kind, err)
	resp.Error.LoginRequired = kind == errs.KindAuthRequired
	resp.Detail = detail

	abort(c, err, resp)
}

func StatusOf(kind errs.Kind) int {
	switch kind {
	case errs.KindAuthRequired:
		return http.StatusUnauthorized
	case errs.KindConflict:
		return http.StatusConflict
	case errs.KindValidation:
		return http.StatusUnprocessableEntity
	case errs.KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func message(kind errs.Kind, err error) string {
	switch kind {
	case errs.KindAuthRequired:
		if errs.Is(err, shared.ErrInvalidCredential) {
			return "Invalid username or password"
		}
		return "Please sign in again"
	case errs.KindConflict, errs.KindValidation:
		return err.Error()
	case errs.KindTransient:
		return "The store is unavailable, please retry"
	default:
		return "Internal server error"
	}
}

func abort(c *gin.Context, err error, resp Response) {
	_ = c.Error(gin.Error{
		Err:  err,
		Type: gin.ErrorTypePublic,
		Meta: resp,
	})
	c.AbortWithStatusJSON(resp.Status, resp)
}
