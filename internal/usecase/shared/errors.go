package shared

import "storefront/internal/pkg/errs"

// Store-side failures. Adapters tag them with a kind from errs before
// returning them.
var (
	ErrProductNotFound   = errs.New("product not found")
	ErrAlreadyInCart     = errs.New("product already in cart")
	ErrOutOfStock        = errs.New("not enough stock")
	ErrInvalidPromo      = errs.New("promo code rejected")
	ErrRequestRejected   = errs.New("request rejected by store")
	ErrStoreUnavailable  = errs.New("store unavailable")
	ErrRequestNotSent    = errs.New("request was not sent to the store")
	ErrNotAuthenticated  = errs.New("store credential missing or expired")
	ErrInvalidCredential = errs.New("invalid username or password")
)
