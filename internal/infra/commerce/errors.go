package commerce

import (
	"encoding/json"
	"net/http"
	"strings"

	"storefront/internal/pkg/errs"
	"storefront/internal/usecase/shared"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

func (b errorBody) text() string {
	for _, s := range []string{b.Error, b.Message, b.Detail} {
		if s != "" {
			return s
		}
	}
	return ""
}

// statusError classifies a non-2xx answer. notFound is the sentinel the
// caller expects for a 404 on that endpoint.
func statusError(resp *response, notFound error) error {
	var body errorBody
	_ = json.Unmarshal(resp.body, &body)
	msg := body.text()

	var err error
	switch {
	case resp.status == http.StatusUnauthorized || resp.status == http.StatusForbidden:
		err = errs.AuthRequired(shared.ErrNotAuthenticated)
	case resp.status == http.StatusNotFound && notFound != nil:
		err = errs.Conflict(notFound)
	case resp.status == http.StatusConflict:
		err = errs.Conflict(shared.ErrAlreadyInCart)
	case isStockMessage(msg):
		err = errs.Conflict(shared.ErrOutOfStock)
	case resp.status == http.StatusTooManyRequests:
		err = errs.Transient(shared.ErrStoreUnavailable)
	default:
		err = errs.Validation(shared.ErrRequestRejected)
	}
	if msg != "" {
		err = errs.Wrapf(err, "commerce answered %d: %s", resp.status, msg)
	}
	return err
}

func isStockMessage(msg string) bool {
	return strings.Contains(strings.ToLower(msg), "stock")
}

func isSuccess(resp *response) bool {
	return resp.status >= 200 && resp.status < 300
}
