package discount

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidPromoCode   = errors.New("invalid promo code format")
	ErrInvalidPercentage  = errors.New("percentage must be between 0 and 100")
	ErrNegativeAmount     = errors.New("discount amount cannot be negative")
	ErrNegativePoints     = errors.New("points cannot be negative")
	ErrPointsExceedBudget = errors.New("points exceed the redeemable maximum")
)

var promoCodeRegex = regexp.MustCompile(`^[A-Za-z0-9_\-]{1,50}$`)

type PromoCode string

func NewPromoCode(code string) (PromoCode, error) {
	code = strings.TrimSpace(code)
	if !promoCodeRegex.MatchString(code) {
		return "", ErrInvalidPromoCode
	}
	return PromoCode(code), nil
}

func (c PromoCode) String() string {
	return string(c)
}

// Percentage is a personal discount rate as reported by the store.
type Percentage struct {
	value decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

func NewPercentage(v decimal.Decimal) (Percentage, error) {
	if v.IsNegative() || v.GreaterThan(hundred) {
		return Percentage{}, ErrInvalidPercentage
	}
	return Percentage{value: v}, nil
}

func (p Percentage) Value() decimal.Decimal { return p.value }
func (p Percentage) IsZero() bool           { return p.value.IsZero() }
