package receipt

import (
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/tillworks/till/internal/cart"
	"github.com/tillworks/till/internal/pricing"
	"github.com/tillworks/till/internal/salesapi"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleSale() (*salesapi.Sale, cart.Cart, pricing.Result, pricing.TaxConfig, pricing.LoyaltyConfig) {
	c := cart.New()
	c.AddLine(cart.Product{ID: 1, Name: "coffee", Price: d("4.50")}, 2)
	c.AddLine(cart.Product{ID: 2, Name: "bagel", Price: d("2.25")}, 1)
	c.SetMemo(2, "toasted", nil)
	c.SetDiscount(d("10"), cart.DiscountPercentage)
	c.SetCoupon("SAVE5", d("1.00"))
	c.SetTip(d("2"))

	tax := pricing.TaxConfig{Enabled: true, RatePercent: d("10"), Mode: pricing.TaxExclusive}
	loyalty := pricing.LoyaltyConfig{Enabled: true, EarnRatePerCurrencyUnit: d("0.1"), RedeemValuePer100Points: d("5")}
	pr := pricing.Compute(c, tax, loyalty, 100)

	sale := &salesapi.Sale{
		ID:            7,
		InvoiceNumber: "INV-0007",
		Total:         pr.Total,
		CreatedAt:     time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC),
	}
	return sale, c, pr, tax, loyalty
}

func TestRender_Golden(t *testing.T) {
	sale, c, pr, tax, loyalty := sampleSale()

	out := Render(sale, c, pr, tax, loyalty)

	g := goldie.New(t)
	g.Assert(t, "receipt", []byte(out))
}

func TestRender_EveryRowFitsWidth(t *testing.T) {
	sale, c, pr, tax, loyalty := sampleSale()

	out := Render(sale, c, pr, tax, loyalty)

	for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		assert.LessOrEqual(t, len(line), width, "line overflows: %q", line)
	}
}

func TestRender_OmitsZeroSections(t *testing.T) {
	c := cart.New()
	c.AddLine(cart.Product{ID: 1, Name: "coffee", Price: d("4.50")}, 1)
	pr := pricing.Compute(c, pricing.TaxConfig{}, pricing.LoyaltyConfig{}, 0)

	out := Render(nil, c, pr, pricing.TaxConfig{}, pricing.LoyaltyConfig{})

	assert.NotContains(t, out, "Discount")
	assert.NotContains(t, out, "Coupon")
	assert.NotContains(t, out, "Tax")
	assert.NotContains(t, out, "Points")
	assert.NotContains(t, out, "Tip")
	assert.Contains(t, out, "TOTAL")
}

func TestRender_InclusiveTaxLabeled(t *testing.T) {
	c := cart.New()
	c.AddLine(cart.Product{ID: 1, Name: "coffee", Price: d("100")}, 1)
	tax := pricing.TaxConfig{Enabled: true, RatePercent: d("10"), Mode: pricing.TaxInclusive}
	pr := pricing.Compute(c, tax, pricing.LoyaltyConfig{}, 0)

	out := Render(nil, c, pr, tax, pricing.LoyaltyConfig{})

	assert.Contains(t, out, "incl.")
}

func TestRender_PointsEarnedFooter(t *testing.T) {
	c := cart.New()
	c.AddLine(cart.Product{ID: 1, Name: "espresso machine", Price: d("450")}, 1)
	loyalty := pricing.LoyaltyConfig{Enabled: true, EarnRatePerCurrencyUnit: d("0.1")}
	pr := pricing.Compute(c, pricing.TaxConfig{}, loyalty, 0)

	out := Render(nil, c, pr, pricing.TaxConfig{}, loyalty)

	assert.Contains(t, out, "You earned 45 points")
}
