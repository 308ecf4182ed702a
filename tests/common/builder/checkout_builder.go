//go:build unit || e2e || integration

package builder

import (
	"storefront/internal/domain/order"
	reqdto "storefront/internal/handler/dto/request"

	"github.com/shopspring/decimal"
)

type CheckoutBuilder struct {
	req reqdto.CheckoutRequest
}

func NewCheckoutBuilder() *CheckoutBuilder {
	return &CheckoutBuilder{
		req: reqdto.CheckoutRequest{
			FullName:      "Sankalpa Shrestha",
			Email:         "test@example.com",
			Phone:         "+977 9800000000",
			Address:       "Thamel Marg 12",
			City:          "Kathmandu",
			PaymentMethod: "cod",
		},
	}
}

func (b *CheckoutBuilder) WithPoints(points int64) *CheckoutBuilder {
	b.req.PointsToRedeem = points
	return b
}

func (b *CheckoutBuilder) WithPaymentMethod(m string) *CheckoutBuilder {
	b.req.PaymentMethod = m
	return b
}

func (b *CheckoutBuilder) WithPhone(phone string) *CheckoutBuilder {
	b.req.Phone = phone
	return b
}

func (b *CheckoutBuilder) BuildDTO() reqdto.CheckoutRequest {
	return b.req
}

// BuildMap is the JSON body form used by handler tests.
func (b *CheckoutBuilder) BuildMap() map[string]any {
	return map[string]any{
		"full_name":        b.req.FullName,
		"email":            b.req.Email,
		"phone":            b.req.Phone,
		"address":          b.req.Address,
		"city":             b.req.City,
		"payment_method":   b.req.PaymentMethod,
		"points_to_redeem": b.req.PointsToRedeem,
	}
}

func NewConfirmation(finalPrice string) *order.Confirmation {
	price := decimal.RequireFromString(finalPrice)
	return &order.Confirmation{
		OrderID:       "501",
		Reference:     "6f1c3f0e-8f55-4c53-9a61-6b1d2f7b9a10",
		TotalPrice:    price,
		FinalPrice:    price,
		PaymentStatus: order.PaymentPending,
	}
}
