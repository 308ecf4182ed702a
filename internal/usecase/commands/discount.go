package commands

//go:generate mockgen -source=discount.go -destination=../../../tests/mock/commands/discount.go -package=commandsmock

import (
	"context"
	"log/slog"

	"storefront/internal/domain/discount"
	"storefront/internal/pkg/errs"
	"storefront/internal/usecase/session"
	"storefront/internal/usecase/shared"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCart          = errs.New("cart is empty")
	ErrPromoNoLongerValid = errs.New("promo code no longer applies to this cart")
)

type DiscountCommands interface {
	ApplyPromo(ctx context.Context, sess *session.Session, code string) (*session.AppliedPromo, error)
	ClearPromo(sess *session.Session)
}

type discountCommandsImpl struct {
	discounts shared.DiscountGateway
}

func NewDiscountCommands(discounts shared.DiscountGateway) DiscountCommands {
	return &discountCommandsImpl{discounts: discounts}
}

// ApplyPromo has the store validate code against the current subtotal and
// remembers the granted amount on the session.
func (d *discountCommandsImpl) ApplyPromo(ctx context.Context, sess *session.Session, code string) (*session.AppliedPromo, error) {
	promoCode, err := discount.NewPromoCode(code)
	if err != nil {
		return nil, errs.Validation(err)
	}

	subtotal := sess.Cart.Totals().Subtotal
	if !subtotal.IsPositive() {
		return nil, errs.Validation(ErrEmptyCart)
	}

	applied, err := validatePromo(ctx, d.discounts, promoCode, subtotal)
	if err != nil {
		return nil, err
	}
	sess.SetPromo(applied)
	return &applied, nil
}

func (d *discountCommandsImpl) ClearPromo(sess *session.Session) {
	sess.ClearPromo()
}

func validatePromo(ctx context.Context, discounts shared.DiscountGateway, code discount.PromoCode, subtotal decimal.Decimal) (session.AppliedPromo, error) {
	result, err := discounts.ValidatePromo(ctx, code, subtotal)
	if err != nil {
		return session.AppliedPromo{}, errs.Wrapf(err, "validate promo %s", code.String())
	}
	if result.DiscountAmount.IsNegative() {
		return session.AppliedPromo{}, errs.Validation(discount.ErrNegativeAmount)
	}
	return session.AppliedPromo{
		Code:              result.Code,
		Amount:            result.DiscountAmount,
		ValidatedSubtotal: subtotal,
	}, nil
}

// currentPromo returns the session's promo amount for subtotal, validating
// it again when the cart changed since it was granted. A promo the store
// now rejects is dropped from the session and reported with dropped=true.
func currentPromo(ctx context.Context, discounts shared.DiscountGateway, sess *session.Session, subtotal decimal.Decimal) (promo *session.AppliedPromo, dropped bool, err error) {
	applied, ok := sess.Promo()
	if !ok {
		return nil, false, nil
	}
	if !applied.StaleFor(subtotal) {
		return &applied, false, nil
	}

	renewed, err := validatePromo(ctx, discounts, applied.Code, subtotal)
	if err != nil {
		if errs.KindOf(err) == errs.KindValidation || errs.KindOf(err) == errs.KindConflict {
			slog.Info("promo dropped after cart change", "code", applied.Code.String(), "subtotal", subtotal.String())
			sess.ClearPromo()
			return nil, true, nil
		}
		return nil, false, err
	}
	sess.SetPromo(renewed)
	return &renewed, false, nil
}
