package api

import (
	"net/http"

	reqdto "storefront/internal/handler/dto/request"
	resdto "storefront/internal/handler/dto/response"
	"storefront/internal/handler/httperr"
	"storefront/internal/handler/middleware"
	"storefront/internal/pkg/errs"
	"storefront/internal/usecase/commands"
	"storefront/internal/usecase/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	replayedHeader       = "Idempotency-Replayed"
)

var (
	ErrIdempotencyKeyRequired = errs.New("idempotency-key header required")
	ErrIdempotencyKeyInvalid  = errs.New("idempotency-key must be a UUID")
)

type CheckoutHandler struct {
	checkout  commands.CheckoutCommands
	discounts commands.DiscountCommands
}

func NewCheckoutHandler(checkout commands.CheckoutCommands, discounts commands.DiscountCommands) *CheckoutHandler {
	return &CheckoutHandler{
		checkout:  checkout,
		discounts: discounts,
	}
}

// @Summary Apply promo code
// @Description Have the store validate a promo code against the current subtotal
// @Tags checkout
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body reqdto.ApplyPromoRequest true "Promo code"
// @Success 200 {object} resdto.PromoResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 422 {object} httperr.Response
// @Failure 503 {object} httperr.Response
// @Router /api/checkout/promo [post]
func (h *CheckoutHandler) ApplyPromo(c *gin.Context) {
	sess, ok := middleware.MustSession(c)
	if !ok {
		return
	}
	var req reqdto.ApplyPromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
		return
	}

	applied, err := h.discounts.ApplyPromo(c.Request.Context(), sess, req.Code)
	if err != nil {
		httperr.AbortWithKind(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, resdto.FromAppliedPromo(applied))
}

// @Summary Remove promo code
// @Tags checkout
// @Security BearerAuth
// @Success 204 "No Content"
// @Failure 401 {object} httperr.Response
// @Router /api/checkout/promo [delete]
func (h *CheckoutHandler) ClearPromo(c *gin.Context) {
	sess, ok := middleware.MustSession(c)
	if !ok {
		return
	}
	h.discounts.ClearPromo(sess)
	c.Status(http.StatusNoContent)
}

// @Summary Price breakdown
// @Description Subtotal, every discount and the final total for the current cart. Points above the allowed maximum are clamped.
// @Tags checkout
// @Security BearerAuth
// @Produce json
// @Param points query int false "Loyalty points to redeem"
// @Success 200 {object} resdto.QuoteResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 503 {object} httperr.Response
// @Router /api/checkout/quote [get]
func (h *CheckoutHandler) Quote(c *gin.Context) {
	sess, ok := middleware.MustSession(c)
	if !ok {
		return
	}
	var q reqdto.QuoteQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid points value", nil)
		return
	}

	quote, err := h.checkout.Quote(c.Request.Context(), sess, q.Points)
	if err != nil {
		httperr.AbortWithKind(c, err, cartDetail(sess))
		return
	}
	res, err := resdto.FromQuote(quote)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary Place order
// @Description Check out the current cart. Repeating a request with the same Idempotency-Key returns the first result.
// @Tags checkout
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param Idempotency-Key header string true "UUID identifying this checkout attempt"
// @Param request body reqdto.CheckoutRequest true "Shipping and payment details"
// @Success 201 {object} resdto.CheckoutResponse
// @Success 200 {object} resdto.CheckoutResponse "Replayed result"
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 422 {object} httperr.Response
// @Failure 503 {object} httperr.Response
// @Router /api/checkout [post]
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	sess, ok := middleware.MustSession(c)
	if !ok {
		return
	}
	key, err := idempotencyKey(c)
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, err.Error(), nil)
		return
	}
	var req reqdto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
		return
	}

	result, err := h.checkout.Checkout(c.Request.Context(), sess, req, key)
	if err != nil {
		httperr.AbortWithKind(c, err, cartDetail(sess))
		return
	}
	res, err := resdto.FromCheckoutResult(result)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}

	status := http.StatusCreated
	if result.IsReplayed {
		c.Header(replayedHeader, "true")
		status = http.StatusOK
	}
	c.JSON(status, res)
}

func idempotencyKey(c *gin.Context) (uuid.UUID, error) {
	raw := c.GetHeader(idempotencyKeyHeader)
	if raw == "" {
		return uuid.Nil, ErrIdempotencyKeyRequired
	}
	key, err := uuid.Parse(raw)
	if err != nil || key == uuid.Nil {
		return uuid.Nil, ErrIdempotencyKeyInvalid
	}
	return key, nil
}

func cartDetail(sess *session.Session) *resdto.CartResponse {
	return resdto.FromSnapshot(sess.Cart.Snapshot(), sess.Cart.State())
}
