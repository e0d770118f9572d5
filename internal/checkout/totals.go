package checkout

// ComputeTotals derives the full monetary breakdown from the cart state.
// It is a pure function: identical inputs always produce identical output,
// with no clock or store access, so both protocol adapters render
// byte-for-byte consistent amounts for the same session.
//
// taxRateBP is a flat tax rate in basis points (e.g. 875 = 8.75%); tax is
// floor-rounded to the cent. Percentage discounts round half up. The
// discount is clamped so it can never exceed subtotal + shipping, and the
// grand total is floored at zero.
func ComputeTotals(items []LineItem, discount *Discount, fulfillment *Fulfillment, taxRateBP int64) Totals {
	var subtotal int64
	for _, it := range items {
		subtotal += it.UnitPriceCents * int64(it.Quantity)
	}

	var shipping int64
	if fulfillment != nil {
		shipping = fulfillment.CostCents
	}

	var disc int64
	if discount != nil {
		switch discount.Type {
		case DiscountPercentage:
			disc = (subtotal*discount.Value + 50) / 100
		case DiscountFixed:
			disc = discount.Value
			if disc > subtotal {
				disc = subtotal
			}
		case DiscountFreeShipping:
			disc = shipping
		}
	}
	if max := subtotal + shipping; disc > max {
		disc = max
	}
	if disc < 0 {
		disc = 0
	}

	taxBase := subtotal - disc
	if taxBase < 0 {
		taxBase = 0
	}
	tax := taxBase * taxRateBP / 10000

	total := subtotal - disc + shipping + tax
	if total < 0 {
		total = 0
	}

	return Totals{
		SubtotalCents: subtotal,
		DiscountCents: disc,
		ShippingCents: shipping,
		TaxCents:      tax,
		TotalCents:    total,
	}
}
