package discount

import (
	"github.com/shopspring/decimal"
)

// PointsPerCurrencyUnit is the loyalty redemption rate: 10 points buy one
// unit of currency.
const PointsPerCurrencyUnit = 10

var pointsRate = decimal.NewFromInt(PointsPerCurrencyUnit)

type Inputs struct {
	Subtotal         decimal.Decimal
	Shipping         decimal.Decimal
	PointsToRedeem   int64
	PromoDiscount    decimal.Decimal
	PersonalDiscount decimal.Decimal
}

func (in Inputs) Validate() error {
	if in.PointsToRedeem < 0 {
		return ErrNegativePoints
	}
	for _, d := range []decimal.Decimal{in.Subtotal, in.Shipping, in.PromoDiscount, in.PersonalDiscount} {
		if d.IsNegative() {
			return ErrNegativeAmount
		}
	}
	return nil
}

type Breakdown struct {
	Subtotal         decimal.Decimal
	Shipping         decimal.Decimal
	PointsRedeemed   int64
	PointsDiscount   decimal.Decimal
	PromoDiscount    decimal.Decimal
	PersonalDiscount decimal.Decimal
	FinalTotal       decimal.Decimal
	// Clamped is set when the discounts exceeded subtotal plus shipping.
	Clamped bool
}

// Compose subtracts every discount from subtotal plus shipping. The
// discounts are flat amounts, so their order never matters, and the result
// never drops below zero.
func Compose(in Inputs) Breakdown {
	points := PointsValue(in.PointsToRedeem)
	raw := in.Subtotal.
		Add(in.Shipping).
		Sub(points).
		Sub(in.PromoDiscount).
		Sub(in.PersonalDiscount)

	b := Breakdown{
		Subtotal:         in.Subtotal,
		Shipping:         in.Shipping,
		PointsRedeemed:   in.PointsToRedeem,
		PointsDiscount:   points,
		PromoDiscount:    in.PromoDiscount,
		PersonalDiscount: in.PersonalDiscount,
		FinalTotal:       raw,
	}
	if raw.IsNegative() {
		b.FinalTotal = decimal.Zero
		b.Clamped = true
	}
	return b
}

func PointsValue(points int64) decimal.Decimal {
	if points <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(points).Div(pointsRate)
}

// MaxRedeemablePoints is min(available, floor(subtotal * rate)).
func MaxRedeemablePoints(available int64, subtotal decimal.Decimal) int64 {
	if available <= 0 || !subtotal.IsPositive() {
		return 0
	}
	bySubtotal := subtotal.Mul(pointsRate).Floor().IntPart()
	return min(available, bySubtotal)
}

func ClampPoints(requested, maxAllowed int64) int64 {
	if requested < 0 {
		return 0
	}
	return min(requested, maxAllowed)
}

func ValidatePoints(requested, maxAllowed int64) error {
	if requested < 0 {
		return ErrNegativePoints
	}
	if requested > maxAllowed {
		return ErrPointsExceedBudget
	}
	return nil
}

// PersonalDiscountAmount applies pct to the current subtotal. It must be
// recomputed whenever the subtotal changes.
func PersonalDiscountAmount(subtotal decimal.Decimal, pct Percentage) decimal.Decimal {
	if pct.IsZero() || !subtotal.IsPositive() {
		return decimal.Zero
	}
	return subtotal.Mul(pct.value).Div(hundred).Round(2)
}
