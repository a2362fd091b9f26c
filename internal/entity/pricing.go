package entity

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Totals holds the money figures of an order, unrounded.
type Totals struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// PriceItems fills each item's subtotal and returns the order totals for the
// given discount percentage. Nothing is rounded here.
func PriceItems(items []OrderItem, percent decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for i := range items {
		items[i].Subtotal = items[i].UnitPrice.Mul(decimal.NewFromInt(int64(items[i].Quantity)))
		subtotal = subtotal.Add(items[i].Subtotal)
	}
	discount := subtotal.Mul(percent).Div(hundred)
	return Totals{
		Subtotal: subtotal,
		Discount: discount,
		Total:    subtotal.Sub(discount),
	}
}

// Display rounds an amount to the currency's minor unit.
func Display(d decimal.Decimal) string {
	return d.StringFixed(2)
}
