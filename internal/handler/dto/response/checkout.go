package response

import (
	"time"

	"storefront/internal/domain/order"
	"storefront/internal/usecase/commands"
	"storefront/internal/usecase/session"

	"github.com/jinzhu/copier"
	"github.com/shopspring/decimal"
)

type BreakdownResponse struct {
	Subtotal         decimal.Decimal `json:"subtotal"`
	Shipping         decimal.Decimal `json:"shipping"`
	PointsRedeemed   int64           `json:"points_redeemed"`
	PointsDiscount   decimal.Decimal `json:"points_discount"`
	PromoDiscount    decimal.Decimal `json:"promo_discount"`
	PersonalDiscount decimal.Decimal `json:"personal_discount"`
	FinalTotal       decimal.Decimal `json:"final_total"`
	Clamped          bool            `json:"clamped,omitempty"`
}

type QuoteResponse struct {
	BreakdownResponse
	AvailablePoints     int64           `json:"available_points"`
	MaxRedeemablePoints int64           `json:"max_redeemable_points"`
	PersonalPercentage  decimal.Decimal `json:"personal_percentage"`
	PromoCode           string          `json:"promo_code,omitempty"`
	PromoDropped        bool            `json:"promo_dropped,omitempty"`
}

type PromoResponse struct {
	Code           string          `json:"code"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Subtotal       decimal.Decimal `json:"validated_subtotal"`
}

type OrderConfirmationResponse struct {
	OrderID       string              `json:"order_id"`
	Reference     string              `json:"reference"`
	TotalPrice    decimal.Decimal     `json:"total_price"`
	FinalPrice    decimal.Decimal     `json:"final_price"`
	PaymentStatus order.PaymentStatus `json:"payment_status"`
	PaymentURL    string              `json:"payment_url,omitempty"`
}

type CheckoutResponse struct {
	Order     OrderConfirmationResponse `json:"order"`
	Breakdown BreakdownResponse         `json:"breakdown"`
}

type OrderSummaryResponse struct {
	OrderID       string              `json:"order_id"`
	Reference     string              `json:"reference"`
	TotalPrice    decimal.Decimal     `json:"total_price"`
	FinalPrice    decimal.Decimal     `json:"final_price"`
	PaymentStatus order.PaymentStatus `json:"payment_status"`
	ItemCount     int                 `json:"item_count"`
	PlacedAt      *time.Time          `json:"placed_at,omitempty" copier:"-"`
}

func FromQuote(q *commands.Quote) (*QuoteResponse, error) {
	res := &QuoteResponse{
		AvailablePoints:     q.AvailablePoints,
		MaxRedeemablePoints: q.MaxRedeemablePoints,
		PersonalPercentage:  q.PersonalPercentage,
		PromoCode:           q.PromoCode,
		PromoDropped:        q.PromoDropped,
	}
	if err := copier.Copy(&res.BreakdownResponse, &q.Breakdown); err != nil {
		return nil, err
	}
	return res, nil
}

func FromAppliedPromo(p *session.AppliedPromo) *PromoResponse {
	return &PromoResponse{
		Code:           p.Code.String(),
		DiscountAmount: p.Amount,
		Subtotal:       p.ValidatedSubtotal,
	}
}

func FromCheckoutResult(r *commands.CheckoutResult) (*CheckoutResponse, error) {
	var res CheckoutResponse
	if r.Order != nil {
		if err := copier.Copy(&res.Order, r.Order); err != nil {
			return nil, err
		}
	}
	if err := copier.Copy(&res.Breakdown, &r.Breakdown); err != nil {
		return nil, err
	}
	return &res, nil
}

func FromOrderSummaries(items []order.Summary) ([]OrderSummaryResponse, error) {
	res := make([]OrderSummaryResponse, len(items))
	for i := range items {
		if err := copier.Copy(&res[i], &items[i]); err != nil {
			return nil, err
		}
		if !items[i].PlacedAt.IsZero() {
			placedAt := items[i].PlacedAt
			res[i].PlacedAt = &placedAt
		}
	}
	return res, nil
}
