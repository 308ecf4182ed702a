package shared

//go:generate mockgen -source=gateway.go -destination=../../../tests/mock/shared/gateway.go -package=sharedmock

import (
	"context"

	"storefront/internal/domain/auth"
	"storefront/internal/domain/discount"
	"storefront/internal/domain/order"
	"storefront/internal/domain/user"

	"github.com/shopspring/decimal"
)

// Every gateway call runs with the caller's store credential attached to
// ctx via WithBearer.

type PromoResult struct {
	Code           discount.PromoCode
	DiscountAmount decimal.Decimal
}

type AccountGateway interface {
	Login(ctx context.Context, creds auth.Credentials) (auth.TokenPair, *user.Profile, error)
	RefreshToken(ctx context.Context, refreshToken string) (auth.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	FetchProfile(ctx context.Context) (*user.Profile, error)
}

type DiscountGateway interface {
	ValidatePromo(ctx context.Context, code discount.PromoCode, orderTotal decimal.Decimal) (PromoResult, error)
	// FetchPersonalDiscount returns nil when the user has no active discount.
	FetchPersonalDiscount(ctx context.Context) (*discount.Percentage, error)
}

type CheckoutPayload struct {
	Shipping         order.ShippingInfo
	PaymentMethod    order.PaymentMethod
	PointsToRedeem   int64
	PromoCode        discount.PromoCode
	PromoDiscount    decimal.Decimal
	PersonalDiscount decimal.Decimal
	ExpectedTotal    decimal.Decimal
}

type OrderGateway interface {
	Checkout(ctx context.Context, payload CheckoutPayload) (*order.Confirmation, error)
	ListOrders(ctx context.Context) ([]order.Summary, error)
}
