package api

import (
	"net/http"

	resdto "storefront/internal/handler/dto/response"
	"storefront/internal/handler/httperr"
	"storefront/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	q queries.OrderQueries
}

func NewOrderHandler(q queries.OrderQueries) *OrderHandler {
	return &OrderHandler{q: q}
}

// @Summary List orders
// @Description Order history of the signed-in user
// @Tags orders
// @Security BearerAuth
// @Produce json
// @Success 200 {array} resdto.OrderSummaryResponse
// @Failure 401 {object} httperr.Response
// @Failure 503 {object} httperr.Response
// @Router /api/orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	orders, err := h.q.ListOrders(c.Request.Context())
	if err != nil {
		httperr.AbortWithKind(c, err, nil)
		return
	}
	res, err := resdto.FromOrderSummaries(orders)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}
	c.JSON(http.StatusOK, res)
}
