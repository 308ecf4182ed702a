package request

import (
	"storefront/internal/domain/order"
)

type ApplyPromoRequest struct {
	Code string `json:"code" binding:"required"`
}

type QuoteQuery struct {
	Points int64 `form:"points" binding:"min=0"`
}

type CheckoutRequest struct {
	FullName       string `json:"full_name" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	Phone          string `json:"phone" binding:"required"`
	Address        string `json:"address" binding:"required"`
	City           string `json:"city" binding:"required"`
	PaymentMethod  string `json:"payment_method" binding:"required,oneof=cod esewa khalti"`
	PointsToRedeem int64  `json:"points_to_redeem" binding:"min=0"`
}

type CheckoutData struct {
	Shipping       order.ShippingInfo
	PaymentMethod  order.PaymentMethod
	PointsToRedeem int64
}

func (r CheckoutRequest) ToDomain() (CheckoutData, error) {
	shipping, err := order.NewShippingInfo(r.FullName, r.Email, r.Phone, r.Address, r.City)
	if err != nil {
		return CheckoutData{}, err
	}
	method, err := order.NewPaymentMethod(r.PaymentMethod)
	if err != nil {
		return CheckoutData{}, err
	}
	return CheckoutData{
		Shipping:       shipping,
		PaymentMethod:  method,
		PointsToRedeem: r.PointsToRedeem,
	}, nil
}
