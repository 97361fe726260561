package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/tillworks/till/internal/cart"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// cartWithSubtotal builds a one-line cart whose subtotal is the given amount.
func cartWithSubtotal(subtotal string) cart.Cart {
	c := cart.New()
	c.AddLine(cart.Product{ID: 1, Name: "item", Price: d(subtotal)}, 1)
	return c
}

func noTax() TaxConfig         { return TaxConfig{} }
func noLoyalty() LoyaltyConfig { return LoyaltyConfig{} }

func TestCompute_DiscountScenarios(t *testing.T) {
	cases := []struct {
		name         string
		subtotal     string
		discount     string
		kind         cart.DiscountKind
		coupon       string
		wantDiscount string
		wantTotal    string
	}{
		{"fixed 100 off 500", "500", "100", cart.DiscountFixed, "0", "100", "400"},
		{"10 percent off 500", "500", "10", cart.DiscountPercentage, "0", "50", "450"},
		{"fixed 50 plus coupon 20 off 500", "500", "50", cart.DiscountFixed, "20", "50", "430"},
		{"fixed discount exceeding subtotal clamps", "200", "500", cart.DiscountFixed, "0", "200", "0"},
		{"100 percent", "500", "100", cart.DiscountPercentage, "0", "500", "0"},
		{"over 100 percent still floors at zero", "500", "150", cart.DiscountPercentage, "0", "500", "0"},
		{"no discount", "500", "0", cart.DiscountFixed, "0", "0", "500"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := cartWithSubtotal(tc.subtotal)
			c.SetDiscount(d(tc.discount), tc.kind)
			if tc.coupon != "0" {
				c.SetCoupon("TEST", d(tc.coupon))
			}

			got := Compute(c, noTax(), noLoyalty(), 0)

			assert.True(t, got.DiscountAmount.Equal(d(tc.wantDiscount)),
				"discount: want %s got %s", tc.wantDiscount, got.DiscountAmount)
			assert.True(t, got.Total.Equal(d(tc.wantTotal)),
				"total: want %s got %s", tc.wantTotal, got.Total)
		})
	}
}

func TestCompute_TotalNeverExceedsSubtotal(t *testing.T) {
	for _, discount := range []string{"0", "1", "50", "99.99", "200", "1000"} {
		c := cartWithSubtotal("100")
		c.SetDiscount(d(discount), cart.DiscountFixed)
		got := Compute(c, noTax(), noLoyalty(), 0)
		assert.True(t, got.Total.LessThanOrEqual(got.Subtotal),
			"fixed discount %s: total %s exceeds subtotal", discount, got.Total)
		assert.False(t, got.Total.IsNegative())
	}
}

func TestCompute_ExclusiveTaxAddsOnTop(t *testing.T) {
	c := cartWithSubtotal("100")
	tax := TaxConfig{Enabled: true, RatePercent: d("10"), Mode: TaxExclusive}

	got := Compute(c, tax, noLoyalty(), 0)

	assert.True(t, got.TaxAmount.Equal(d("10")), "got %s", got.TaxAmount)
	assert.True(t, got.Total.Equal(d("110")), "got %s", got.Total)
}

func TestCompute_InclusiveTaxIsDisplayedNotAdded(t *testing.T) {
	c := cartWithSubtotal("100")
	tax := TaxConfig{Enabled: true, RatePercent: d("10"), Mode: TaxInclusive}

	got := Compute(c, tax, noLoyalty(), 0)

	// 100 - 100/1.1 = 9.0909..., rounded to 9.09. Total stays 100.
	assert.True(t, got.TaxAmount.Equal(d("9.09")), "got %s", got.TaxAmount)
	assert.True(t, got.Total.Equal(d("100")), "got %s", got.Total)
}

func TestCompute_TaxComputedOnPostDiscountAmount(t *testing.T) {
	c := cartWithSubtotal("500")
	c.SetDiscount(d("100"), cart.DiscountFixed)
	tax := TaxConfig{Enabled: true, RatePercent: d("10"), Mode: TaxExclusive}

	got := Compute(c, tax, noLoyalty(), 0)

	assert.True(t, got.TaxAmount.Equal(d("40")), "tax on 400, not 500: got %s", got.TaxAmount)
	assert.True(t, got.Total.Equal(d("440")), "got %s", got.Total)
}

func TestCompute_TaxModeEquivalenceAtBoundary(t *testing.T) {
	for _, mode := range []TaxMode{TaxExclusive, TaxInclusive} {
		// Rate zero.
		c := cartWithSubtotal("100")
		got := Compute(c, TaxConfig{Enabled: true, RatePercent: d("0"), Mode: mode}, noLoyalty(), 0)
		assert.True(t, got.TaxAmount.IsZero(), "mode %s rate 0", mode)
		assert.True(t, got.Total.Equal(d("100")), "mode %s rate 0", mode)

		// Disabled.
		got = Compute(c, TaxConfig{Enabled: false, RatePercent: d("10"), Mode: mode}, noLoyalty(), 0)
		assert.True(t, got.TaxAmount.IsZero(), "mode %s disabled", mode)
		assert.True(t, got.Total.Equal(d("100")), "mode %s disabled", mode)
	}
}

func TestCompute_LoyaltyRedemption(t *testing.T) {
	c := cartWithSubtotal("500")
	c.SetDiscount(d("10"), cart.DiscountPercentage) // total 450 before redemption
	loyalty := LoyaltyConfig{Enabled: true, RedeemValuePer100Points: d("5")}

	got := Compute(c, noTax(), loyalty, 100)

	assert.True(t, got.LoyaltyRedemptionAmount.Equal(d("5")), "got %s", got.LoyaltyRedemptionAmount)
	assert.True(t, got.Total.Equal(d("445")), "got %s", got.Total)
}

func TestCompute_LoyaltyRedemptionFloorsAtZero(t *testing.T) {
	c := cartWithSubtotal("3")
	loyalty := LoyaltyConfig{Enabled: true, RedeemValuePer100Points: d("5")}

	got := Compute(c, noTax(), loyalty, 200) // worth 10 against a 3 total

	assert.True(t, got.Total.IsZero(), "got %s", got.Total)
}

func TestCompute_LoyaltyDisabledIgnoresPoints(t *testing.T) {
	c := cartWithSubtotal("100")
	got := Compute(c, noTax(), LoyaltyConfig{Enabled: false, RedeemValuePer100Points: d("5")}, 100)
	assert.True(t, got.LoyaltyRedemptionAmount.IsZero())
	assert.True(t, got.Total.Equal(d("100")))
}

func TestCompute_RedemptionAppliesAfterTax(t *testing.T) {
	c := cartWithSubtotal("100")
	tax := TaxConfig{Enabled: true, RatePercent: d("10"), Mode: TaxExclusive}
	loyalty := LoyaltyConfig{Enabled: true, RedeemValuePer100Points: d("5")}

	got := Compute(c, tax, loyalty, 100)

	// 110 tax-inclusive total minus 5 redemption, never 100-5 then taxed.
	assert.True(t, got.Total.Equal(d("105")), "got %s", got.Total)
}

func TestCompute_RoundsEachDerivedStep(t *testing.T) {
	c := cart.New()
	c.AddLine(cart.Product{ID: 1, Name: "odd", Price: d("33.335")}, 1)
	c.SetDiscount(d("3.333"), cart.DiscountPercentage)

	got := Compute(c, noTax(), noLoyalty(), 0)

	// Subtotal rounds to 33.34 (away from zero); discount 33.34*3.333% =
	// 1.1112... rounds to 1.11 before subtraction.
	assert.True(t, got.Subtotal.Equal(d("33.34")), "got %s", got.Subtotal)
	assert.True(t, got.DiscountAmount.Equal(d("1.11")), "got %s", got.DiscountAmount)
	assert.True(t, got.Total.Equal(d("32.23")), "got %s", got.Total)
}

func TestCompute_EmptyCartIsAllZeros(t *testing.T) {
	got := Compute(cart.New(), noTax(), noLoyalty(), 0)
	assert.True(t, got.Subtotal.IsZero())
	assert.True(t, got.Total.IsZero())
}

func TestPointsEarned(t *testing.T) {
	loyalty := LoyaltyConfig{Enabled: true, EarnRatePerCurrencyUnit: d("0.1")}
	assert.Equal(t, 45, PointsEarned(d("450"), loyalty))
	assert.Equal(t, 0, PointsEarned(d("450"), LoyaltyConfig{}))
	assert.Equal(t, 4, PointsEarned(d("49.99"), loyalty), "partial points truncate")
}
