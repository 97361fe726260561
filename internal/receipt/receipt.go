// Package receipt renders the customer receipt for a committed sale.
package receipt

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/tillworks/till/internal/cart"
	"github.com/tillworks/till/internal/pricing"
	"github.com/tillworks/till/internal/salesapi"
)

const width = 40

// Render produces the printable text receipt. c is the cart snapshot taken
// before checkout cleared it; pr is the pricing breakdown that was charged.
func Render(sale *salesapi.Sale, c cart.Cart, pr pricing.Result, tax pricing.TaxConfig, loyalty pricing.LoyaltyConfig) string {
	p := message.NewPrinter(language.English)
	var b strings.Builder

	center(&b, "SALES RECEIPT")
	if sale != nil {
		center(&b, "Invoice "+sale.InvoiceNumber)
		center(&b, sale.CreatedAt.Format("2006-01-02 15:04"))
	}
	rule(&b)

	for _, l := range c.Lines {
		b.WriteString(l.DisplayName)
		b.WriteByte('\n')
		row(&b, p.Sprintf("  %d x %s", l.Quantity, money(p, l.UnitPrice)), money(p, l.LineTotal()))
		if l.Memo != "" {
			b.WriteString("  * " + l.Memo + "\n")
		}
	}
	rule(&b)

	row(&b, "Subtotal", money(p, pr.Subtotal))
	if pr.DiscountAmount.IsPositive() {
		row(&b, "Discount", "-"+money(p, pr.DiscountAmount))
	}
	if c.CouponDiscount.IsPositive() {
		label := "Coupon"
		if c.CouponCode != "" {
			label = "Coupon " + c.CouponCode
		}
		row(&b, label, "-"+money(p, c.CouponDiscount))
	}
	if pr.TaxAmount.IsPositive() {
		label := p.Sprintf("Tax (%s%%)", tax.RatePercent)
		if tax.Mode == pricing.TaxInclusive {
			label += " incl."
		}
		row(&b, label, money(p, pr.TaxAmount))
	}
	if pr.LoyaltyRedemptionAmount.IsPositive() {
		row(&b, "Points redeemed", "-"+money(p, pr.LoyaltyRedemptionAmount))
	}
	if c.Tip.IsPositive() {
		row(&b, "Tip", money(p, c.Tip))
	}
	rule(&b)
	row(&b, "TOTAL", money(p, pr.Total.Add(c.Tip)))

	if earned := pricing.PointsEarned(pr.Total, loyalty); earned > 0 {
		b.WriteByte('\n')
		center(&b, p.Sprintf("You earned %d points", earned))
	}
	if c.Notes != "" {
		b.WriteByte('\n')
		center(&b, c.Notes)
	}

	return b.String()
}

// money formats an amount with locale-aware grouping and two decimals.
func money(p *message.Printer, d decimal.Decimal) string {
	return p.Sprintf("%.2f", d.InexactFloat64())
}

func row(b *strings.Builder, left, right string) {
	pad := width - len(left) - len(right)
	if pad < 1 {
		pad = 1
	}
	fmt.Fprintf(b, "%s%s%s\n", left, strings.Repeat(" ", pad), right)
}

func center(b *strings.Builder, s string) {
	pad := (width - len(s)) / 2
	if pad < 0 {
		pad = 0
	}
	fmt.Fprintf(b, "%s%s\n", strings.Repeat(" ", pad), s)
}

func rule(b *strings.Builder) {
	b.WriteString(strings.Repeat("-", width))
	b.WriteByte('\n')
}
