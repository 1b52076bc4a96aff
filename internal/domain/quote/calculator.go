package quote

import "github.com/shopspring/decimal"

// Totals is the result of a totals computation pass
type Totals struct {
	Items          []LineItem
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	VATAmount      decimal.Decimal
	Total          decimal.Decimal
}

var oneHundred = decimal.NewFromInt(100)

// ComputeTotals derives subtotal, discount, VAT and grand total from the
// line items and policy flags. It is pure and deterministic: every item's
// TotalPrice is overwritten with Quantity * UnitPrice regardless of what
// was supplied, defending against client-side tampering.
//
// No rounding is applied here; callers round only at presentation time.
// afterDiscount is deliberately not floored at zero, so a fixed discount
// larger than the subtotal yields a negative total.
func ComputeTotals(items []LineItem, discount decimal.Decimal, discountType DiscountType, includeVAT bool, vatRate decimal.Decimal) Totals {
	out := make([]LineItem, len(items))
	subtotal := decimal.Zero
	for i, item := range items {
		item.TotalPrice = item.Quantity.Mul(item.UnitPrice)
		out[i] = item
		subtotal = subtotal.Add(item.TotalPrice)
	}

	discountAmount := discount
	if discountType == DiscountTypePercentage {
		discountAmount = subtotal.Mul(discount).Div(oneHundred)
	}
	afterDiscount := subtotal.Sub(discountAmount)

	vatAmount := decimal.Zero
	if includeVAT {
		vatAmount = afterDiscount.Mul(vatRate).Div(oneHundred)
	}

	return Totals{
		Items:          out,
		Subtotal:       subtotal,
		DiscountAmount: discountAmount,
		VATAmount:      vatAmount,
		Total:          afterDiscount.Add(vatAmount),
	}
}
