package commerce

import (
	"context"
	"net/http"
	"time"

	"storefront/internal/domain/order"
	"storefront/internal/pkg/errs"
	"storefront/internal/usecase/shared"
)

const (
	checkoutPath   = "/api/orders/checkout/"
	listOrdersPath = "/api/orders/view-orders/"
)

// Checkout places the order for the caller's remote cart. The store prices
// the order itself; the locally composed total travels along as
// expected_total so the store can cross-check it.
func (c *Client) Checkout(ctx context.Context, payload shared.CheckoutPayload) (*order.Confirmation, error) {
	in := checkoutRequestWire{
		FullName:         payload.Shipping.Name(),
		Email:            payload.Shipping.Email(),
		Phone:            payload.Shipping.Phone(),
		Address:          payload.Shipping.Address(),
		City:             payload.Shipping.City(),
		PaymentMethod:    payload.PaymentMethod.String(),
		PointsToRedeem:   payload.PointsToRedeem,
		PromoCode:        payload.PromoCode.String(),
		PromoDiscount:    payload.PromoDiscount,
		PersonalDiscount: payload.PersonalDiscount,
		ExpectedTotal:    payload.ExpectedTotal,
	}
	resp, err := c.do(ctx, http.MethodPost, checkoutPath, in, true)
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp) {
		return nil, statusError(resp, nil)
	}

	var body checkoutResponseWire
	if err := decode(resp, &body); err != nil {
		return nil, err
	}
	if body.Order == nil || body.Order.ID == "" {
		return nil, errs.Transient(errs.Mark(errs.New("checkout answer carries no order"), shared.ErrStoreUnavailable))
	}
	c.products.forget(lineIDs(body.Order.CartItems)...)

	return &order.Confirmation{
		OrderID:       body.Order.ID.String(),
		Reference:     body.Order.UUID,
		TotalPrice:    body.Order.TotalPrice,
		FinalPrice:    body.Order.FinalPrice,
		PaymentStatus: paymentStatus(body.Order.PaymentStatus),
		PaymentURL:    body.PaymentURL,
	}, nil
}

func (c *Client) ListOrders(ctx context.Context) ([]order.Summary, error) {
	resp, err := c.do(ctx, http.MethodGet, listOrdersPath, nil, true)
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp) {
		return nil, statusError(resp, nil)
	}

	var body []orderWire
	if err := decode(resp, &body); err != nil {
		return nil, err
	}

	out := make([]order.Summary, 0, len(body))
	for _, o := range body {
		var placedAt time.Time
		if o.CreatedAt != nil {
			placedAt = *o.CreatedAt
		}
		out = append(out, order.Summary{
			OrderID:       o.ID.String(),
			Reference:     o.UUID,
			TotalPrice:    o.TotalPrice,
			FinalPrice:    o.FinalPrice,
			PaymentStatus: paymentStatus(o.PaymentStatus),
			ItemCount:     quantityOf(o.CartItems),
			PlacedAt:      placedAt,
		})
	}
	return out, nil
}

func paymentStatus(s string) order.PaymentStatus {
	status := order.PaymentStatus(s)
	if !status.IsValid() {
		return order.PaymentPending
	}
	return status
}
