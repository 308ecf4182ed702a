package commerce

import (
	"context"
	"net/http"

	"storefront/internal/domain/discount"
	"storefront/internal/pkg/errs"
	"storefront/internal/usecase/shared"

	"github.com/shopspring/decimal"
)

const (
	validatePromoPath = "/api/discounts/validate-promo/"
	myDiscountsPath   = "/api/discounts/my-discounts/"
)

var hundred = decimal.NewFromInt(100)

// ValidatePromo asks the store whether code is usable and converts the
// granted discount into an amount off orderTotal.
func (c *Client) ValidatePromo(ctx context.Context, code discount.PromoCode, orderTotal decimal.Decimal) (shared.PromoResult, error) {
	in := promoRequestWire{Code: code.String(), OrderTotal: orderTotal}
	resp, err := c.do(ctx, http.MethodPost, validatePromoPath, in, true)
	if err != nil {
		return shared.PromoResult{}, err
	}

	var body promoResponseWire
	if resp.status == http.StatusBadRequest || resp.status == http.StatusNotFound {
		_ = decode(resp, &body)
		return shared.PromoResult{}, rejectedPromo(body.Message)
	}
	if !isSuccess(resp) {
		return shared.PromoResult{}, statusError(resp, nil)
	}
	if err := decode(resp, &body); err != nil {
		return shared.PromoResult{}, err
	}
	if !body.Valid || body.Promo == nil || (body.Promo.IsValid != nil && !*body.Promo.IsValid) {
		return shared.PromoResult{}, rejectedPromo(body.Message)
	}

	amount := body.Promo.DiscountAmount
	if body.Promo.IsPercentage {
		amount = orderTotal.Mul(amount).Div(hundred).Round(2)
	}
	if amount.IsNegative() {
		return shared.PromoResult{}, errs.Validation(discount.ErrNegativeAmount)
	}
	return shared.PromoResult{Code: code, DiscountAmount: amount}, nil
}

func rejectedPromo(msg string) error {
	err := errs.Validation(shared.ErrInvalidPromo)
	if msg != "" {
		err = errs.Wrap(err, msg)
	}
	return err
}

// FetchPersonalDiscount returns the store's most recent active personal
// discount, or nil when there is none.
func (c *Client) FetchPersonalDiscount(ctx context.Context) (*discount.Percentage, error) {
	resp, err := c.do(ctx, http.MethodGet, myDiscountsPath, nil, true)
	if err != nil {
		return nil, err
	}
	if resp.status == http.StatusNotFound {
		return nil, nil
	}
	if !isSuccess(resp) {
		return nil, statusError(resp, nil)
	}

	var body personalDiscountsWire
	if err := decode(resp, &body); err != nil {
		return nil, err
	}
	if len(body.Discounts) == 0 || body.Discounts[0].Percentage.IsZero() {
		return nil, nil
	}
	pct, err := discount.NewPercentage(body.Discounts[0].Percentage)
	if err != nil {
		return nil, errs.Transient(errs.Mark(errs.Wrap(err, "store sent an unusable discount"), shared.ErrStoreUnavailable))
	}
	return &pct, nil
}
