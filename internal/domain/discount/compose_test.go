//go:build unit

package discount_test

import (
	"testing"

	"storefront/internal/domain/discount"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var decimalComparer = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func TestCompose(t *testing.T) {
	t.Run("all three discounts are subtracted", func(t *testing.T) {
		got := discount.Compose(discount.Inputs{
			Subtotal:         dec("1000"),
			PointsToRedeem:   200,
			PromoDiscount:    dec("100"),
			PersonalDiscount: dec("50"),
		})

		want := discount.Breakdown{
			Subtotal:         dec("1000"),
			Shipping:         decimal.Zero,
			PointsRedeemed:   200,
			PointsDiscount:   dec("20"),
			PromoDiscount:    dec("100"),
			PersonalDiscount: dec("50"),
			FinalTotal:       dec("830"),
		}
		if diff := cmp.Diff(want, got, decimalComparer); diff != "" {
			t.Errorf("Breakdown mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("shipping is added before discounts", func(t *testing.T) {
		got := discount.Compose(discount.Inputs{Subtotal: dec("100"), Shipping: dec("15"), PromoDiscount: dec("10")})
		assert.True(t, dec("105").Equal(got.FinalTotal))
	})

	t.Run("fractional point values", func(t *testing.T) {
		got := discount.Compose(discount.Inputs{Subtotal: dec("10"), PointsToRedeem: 15})
		assert.True(t, dec("8.5").Equal(got.FinalTotal))
	})

	t.Run("clamps at zero when discounts exceed the total", func(t *testing.T) {
		cases := []discount.Inputs{
			{Subtotal: dec("50"), PromoDiscount: dec("100")},
			{Subtotal: dec("50"), Shipping: dec("5"), PointsToRedeem: 10_000},
			{Subtotal: dec("0"), PersonalDiscount: dec("0.01")},
			{Subtotal: dec("99.99"), PointsToRedeem: 500, PromoDiscount: dec("30"), PersonalDiscount: dec("30")},
		}
		for _, in := range cases {
			got := discount.Compose(in)
			assert.False(t, got.FinalTotal.IsNegative())
			assert.True(t, got.FinalTotal.IsZero())
			assert.True(t, got.Clamped)
		}
	})

	t.Run("exact cover is not reported as clamped", func(t *testing.T) {
		got := discount.Compose(discount.Inputs{Subtotal: dec("100"), PromoDiscount: dec("100")})
		assert.True(t, got.FinalTotal.IsZero())
		assert.False(t, got.Clamped)
	})

	t.Run("order of discounts does not matter", func(t *testing.T) {
		amounts := []decimal.Decimal{dec("12.5"), dec("40"), dec("3.33")}
		perms := [][3]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}

		var first decimal.Decimal
		for i, p := range perms {
			got := discount.Compose(discount.Inputs{
				Subtotal:         dec("200"),
				Shipping:         dec("9.99"),
				PromoDiscount:    amounts[p[0]],
				PersonalDiscount: amounts[p[1]].Add(amounts[p[2]]),
			})
			if i == 0 {
				first = got.FinalTotal
				continue
			}
			assert.True(t, first.Equal(got.FinalTotal))
		}
	})
}

func TestInputsValidate(t *testing.T) {
	tests := []struct {
		name  string
		in    discount.Inputs
		errIs error
	}{
		{name: "zero inputs ok", in: discount.Inputs{}},
		{name: "negative points", in: discount.Inputs{PointsToRedeem: -1}, errIs: discount.ErrNegativePoints},
		{name: "negative promo", in: discount.Inputs{PromoDiscount: dec("-1")}, errIs: discount.ErrNegativeAmount},
		{name: "negative shipping", in: discount.Inputs{Shipping: dec("-0.01")}, errIs: discount.ErrNegativeAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if tt.errIs == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.errIs)
		})
	}
}

func TestMaxRedeemablePoints(t *testing.T) {
	tests := []struct {
		name      string
		available int64
		subtotal  string
		want      int64
	}{
		{name: "bounded by balance", available: 120, subtotal: "1000", want: 120},
		{name: "bounded by subtotal", available: 50_000, subtotal: "1000", want: 10_000},
		{name: "floors fractional subtotal", available: 50_000, subtotal: "12.37", want: 123},
		{name: "empty cart", available: 500, subtotal: "0", want: 0},
		{name: "no points", available: 0, subtotal: "1000", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, discount.MaxRedeemablePoints(tt.available, dec(tt.subtotal)))
		})
	}
}

func TestPoints(t *testing.T) {
	t.Run("clamp", func(t *testing.T) {
		assert.Equal(t, int64(100), discount.ClampPoints(250, 100))
		assert.Equal(t, int64(40), discount.ClampPoints(40, 100))
		assert.Equal(t, int64(0), discount.ClampPoints(-5, 100))
	})

	t.Run("validate rejects over-redemption", func(t *testing.T) {
		require.NoError(t, discount.ValidatePoints(100, 100))
		require.ErrorIs(t, discount.ValidatePoints(101, 100), discount.ErrPointsExceedBudget)
		require.ErrorIs(t, discount.ValidatePoints(-1, 100), discount.ErrNegativePoints)
	})
}

func TestPersonalDiscountAmount(t *testing.T) {
	pct, err := discount.NewPercentage(dec("5"))
	require.NoError(t, err)

	assert.True(t, dec("50").Equal(discount.PersonalDiscountAmount(dec("1000"), pct)))
	assert.True(t, dec("75").Equal(discount.PersonalDiscountAmount(dec("1500"), pct)), "recomputed from the new subtotal")
	assert.True(t, dec("0.62").Equal(discount.PersonalDiscountAmount(dec("12.35"), pct)))
	assert.True(t, discount.PersonalDiscountAmount(dec("0"), pct).IsZero())

	_, err = discount.NewPercentage(dec("101"))
	require.ErrorIs(t, err, discount.ErrInvalidPercentage)
	_, err = discount.NewPercentage(dec("-1"))
	require.ErrorIs(t, err, discount.ErrInvalidPercentage)
}

func TestNewPromoCode(t *testing.T) {
	code, err := discount.NewPromoCode("  SAVE10 ")
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", code.String())

	for _, bad := range []string{"", "   ", "has space", "semi;colon"} {
		_, err := discount.NewPromoCode(bad)
		require.ErrorIs(t, err, discount.ErrInvalidPromoCode, bad)
	}
}
