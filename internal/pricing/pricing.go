// Package pricing computes the price of a cart under the configured
// discount, tax, and loyalty rules.
//
// The pipeline is pure and re-derived on every read; nothing here is cached.
// Evaluation order is fixed: subtotal, cart discount, coupon, tax, loyalty
// redemption. Tax is computed on the post-discount amount, and redemption is
// taken off the tax-inclusive total, so a coupon never compounds with tax.
//
// Every derived amount is rounded to 2 decimal places as it is produced, not
// only at the end. Displayed partial totals must match the final charge to
// the cent, so rounding once at the end would let drift show up on receipts.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/tillworks/till/internal/cart"
)

// TaxMode selects whether the configured rate is added on top of prices
// (exclusive) or already embedded in them (inclusive).
type TaxMode string

const (
	// TaxExclusive adds tax on top of the post-discount amount.
	TaxExclusive TaxMode = "exclusive"
	// TaxInclusive treats line prices as already containing tax; the tax
	// amount is displayed separately but never added again.
	TaxInclusive TaxMode = "inclusive"
)

// TaxConfig is the externally supplied flat tax rule. Read-only here.
type TaxConfig struct {
	Enabled     bool            `json:"enabled" yaml:"enabled"`
	RatePercent decimal.Decimal `json:"rate_percent" yaml:"rate_percent"`
	Mode        TaxMode         `json:"mode" yaml:"mode"`
}

// LoyaltyConfig is the externally supplied loyalty program rule. Read-only here.
type LoyaltyConfig struct {
	Enabled                 bool            `json:"enabled" yaml:"enabled"`
	EarnRatePerCurrencyUnit decimal.Decimal `json:"earn_rate_per_currency_unit" yaml:"earn_rate_per_currency_unit"`
	RedeemValuePer100Points decimal.Decimal `json:"redeem_value_per_100_points" yaml:"redeem_value_per_100_points"`
}

// Result is the derived price breakdown for a cart. Never persisted.
type Result struct {
	Subtotal                decimal.Decimal `json:"subtotal"`
	DiscountAmount          decimal.Decimal `json:"discount_amount"`
	TaxAmount               decimal.Decimal `json:"tax_amount"`
	LoyaltyRedemptionAmount decimal.Decimal `json:"loyalty_redemption_amount"`
	Total                   decimal.Decimal `json:"total"`
}

var one = decimal.NewFromInt(1)
var hundred = decimal.NewFromInt(100)

// round2 rounds a money amount to 2 decimal places, half away from zero.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Compute prices the cart. pointsToRedeem is the per-checkout loyalty
// redemption request; callers validate it against the customer's balance
// before asking for it here.
func Compute(c cart.Cart, tax TaxConfig, loyalty LoyaltyConfig, pointsToRedeem int) Result {
	subtotal := round2(c.Subtotal())

	var discount decimal.Decimal
	if c.DiscountKind == cart.DiscountPercentage {
		discount = round2(subtotal.Mul(c.DiscountValue).Div(hundred))
	} else {
		discount = round2(c.DiscountValue)
	}
	// A discount can never push the pre-coupon amount negative.
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}

	afterDiscount := subtotal.Sub(discount).Sub(round2(c.CouponDiscount))
	if afterDiscount.IsNegative() {
		afterDiscount = decimal.Zero
	}

	taxAmount := decimal.Zero
	totalWithTax := afterDiscount
	if tax.Enabled && tax.RatePercent.IsPositive() {
		rate := tax.RatePercent.Div(hundred)
		switch tax.Mode {
		case TaxInclusive:
			// Tax is embedded: back it out for display, do not add it again.
			taxAmount = round2(afterDiscount.Sub(afterDiscount.Div(one.Add(rate))))
			totalWithTax = afterDiscount
		default:
			taxAmount = round2(afterDiscount.Mul(rate))
			totalWithTax = afterDiscount.Add(taxAmount)
		}
	}

	redemption := decimal.Zero
	if loyalty.Enabled && pointsToRedeem > 0 {
		points := decimal.NewFromInt(int64(pointsToRedeem))
		redemption = round2(points.Div(hundred).Mul(loyalty.RedeemValuePer100Points))
	}

	total := totalWithTax.Sub(redemption)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Result{
		Subtotal:                subtotal,
		DiscountAmount:          discount,
		TaxAmount:               taxAmount,
		LoyaltyRedemptionAmount: redemption,
		Total:                   round2(total),
	}
}

// PointsEarned returns the loyalty points a sale of the given total earns,
// truncated to a whole number of points. Zero when the program is disabled.
func PointsEarned(total decimal.Decimal, loyalty LoyaltyConfig) int {
	if !loyalty.Enabled || loyalty.EarnRatePerCurrencyUnit.IsZero() {
		return 0
	}
	return int(total.Mul(loyalty.EarnRatePerCurrencyUnit).IntPart())
}
