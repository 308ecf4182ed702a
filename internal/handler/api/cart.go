package api

import (
	"net/http"

	reqdto "storefront/internal/handler/dto/request"
	resdto "storefront/internal/handler/dto/response"
	"storefront/internal/handler/httperr"
	"storefront/internal/handler/middleware"
	"storefront/internal/usecase/cartsync"

	"github.com/gin-gonic/gin"
)

// CartHandler exposes the caller's session cart. Every answer, including
// errors, carries the cart as it stands once the operation settled.
type CartHandler struct{}

func NewCartHandler() *CartHandler {
	return &CartHandler{}
}

// @Summary Get cart
// @Description Current cart without contacting the store. Reflects in-flight changes.
// @Tags cart
// @Security BearerAuth
// @Produce json
// @Success 200 {object} resdto.CartResponse
// @Failure 401 {object} httperr.Response
// @Router /api/cart [get]
func (h *CartHandler) Get(c *gin.Context) {
	sess, ok := middleware.MustSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, resdto.FromSnapshot(sess.Cart.Snapshot(), sess.Cart.State()))
}

// @Summary Refresh cart
// @Description Fetch the cart from the store again
// @Tags cart
// @Security BearerAuth
// @Produce json
// @Success 200 {object} resdto.CartResponse
// @Failure 401 {object} httperr.Response
// @Failure 503 {object} httperr.Response
// @Router /api/cart/refresh [post]
func (h *CartHandler) Refresh(c *gin.Context) {
	sess, ok := middleware.MustSession(c)
	if !ok {
		return
	}
	outcome, err := sess.Cart.Refresh(c.Request.Context())
	respond(c, sess.Cart, outcome, err)
}

// @Summary Add product
// @Description Add one unit of a product as a new cart line
// @Tags cart
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body reqdto.AddLineRequest true "Product to add"
// @Success 200 {object} resdto.CartResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 503 {object} httperr.Response
// @Router /api/cart/lines [post]
func (h *CartHandler) AddLine(c *gin.Context) {
	sess, ok := middleware.MustSession(c)
	if !ok {
		return
	}
	var req reqdto.AddLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
		return
	}
	outcome, err := sess.Cart.AddLine(c.Request.Context(), req.ProductID)
	respond(c, sess.Cart, outcome, err)
}

// @Summary Change quantity
// @Description Set the quantity of a cart line. Quantity must be at least 1.
// @Tags cart
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Cart line ID"
// @Param request body reqdto.UpdateLineRequest true "New quantity"
// @Success 200 {object} resdto.CartResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 422 {object} httperr.Response
// @Failure 503 {object} httperr.Response
// @Router /api/cart/lines/{id} [patch]
func (h *CartHandler) UpdateLine(c *gin.Context) {
	sess, ok := middleware.MustSession(c)
	if !ok {
		return
	}
	var req reqdto.UpdateLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
		return
	}
	outcome, err := sess.Cart.UpdateQuantity(c.Request.Context(), c.Param("id"), *req.Quantity)
	respond(c, sess.Cart, outcome, err)
}

// @Summary Remove line
// @Description Remove a line from the cart
// @Tags cart
// @Security BearerAuth
// @Produce json
// @Param id path string true "Cart line ID"
// @Success 200 {object} resdto.CartResponse
// @Failure 401 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 503 {object} httperr.Response
// @Router /api/cart/lines/{id} [delete]
func (h *CartHandler) RemoveLine(c *gin.Context) {
	sess, ok := middleware.MustSession(c)
	if !ok {
		return
	}
	outcome, err := sess.Cart.RemoveLine(c.Request.Context(), c.Param("id"))
	respond(c, sess.Cart, outcome, err)
}

// @Summary Product in cart
// @Description Whether a product already has a line in the cart
// @Tags cart
// @Security BearerAuth
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} resdto.ProductInCartResponse
// @Failure 401 {object} httperr.Response
// @Router /api/cart/products/{id} [get]
func (h *CartHandler) ProductStatus(c *gin.Context) {
	sess, ok := middleware.MustSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, resdto.FromProductLookup(c.Param("id"), sess.Cart.Snapshot()))
}

func respond(c *gin.Context, rc *cartsync.Reconciler, outcome cartsync.Outcome, err error) {
	body := resdto.FromOutcome(outcome, rc.State())
	if err != nil {
		httperr.AbortWithKind(c, err, body)
		return
	}
	c.JSON(http.StatusOK, body)
}
