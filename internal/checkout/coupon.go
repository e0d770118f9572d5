package checkout

import "strings"

// CouponResult is the validator's verdict for one code at one subtotal.
type CouponResult struct {
	Valid         bool
	Type          DiscountType
	Value         int64 // percentage for percentage coupons, cents for fixed
	DiscountCents int64 // concrete discount at the given subtotal/shipping
	Reason        string
}

// CouponValidator resolves a coupon code against the current subtotal and
// shipping cost. Implementations must be pure: same inputs, same result.
type CouponValidator interface {
	Validate(code string, subtotalCents, shippingCents int64) CouponResult
}

// Coupon is one entry in the merchant's coupon table. MinSubtotalCents is
// the minimum order value (on subtotal alone) required for the code.
type Coupon struct {
	Code             string
	Type             DiscountType
	Value            int64
	MinSubtotalCents int64
}

// CouponTable is a fixed, case-insensitive code table.
type CouponTable struct {
	coupons map[string]Coupon
}

// NewCouponTable builds a table from the given coupons.
func NewCouponTable(coupons []Coupon) *CouponTable {
	m := make(map[string]Coupon, len(coupons))
	for _, c := range coupons {
		m[strings.ToUpper(c.Code)] = c
	}
	return &CouponTable{coupons: m}
}

// DefaultCoupons is the demo merchant's coupon set.
func DefaultCoupons() []Coupon {
	return []Coupon{
		{Code: "SAVE20", Type: DiscountFixed, Value: 2000, MinSubtotalCents: 10000},
		{Code: "WELCOME10", Type: DiscountPercentage, Value: 10},
		{Code: "FREESHIP", Type: DiscountFreeShipping, MinSubtotalCents: 2500},
	}
}

func (t *CouponTable) Validate(code string, subtotalCents, shippingCents int64) CouponResult {
	c, ok := t.coupons[strings.ToUpper(code)]
	if !ok {
		return CouponResult{Reason: RejectUnknownCode}
	}
	if subtotalCents < c.MinSubtotalCents {
		return CouponResult{Reason: RejectMinimumNotMet}
	}

	res := CouponResult{Valid: true, Type: c.Type, Value: c.Value}
	switch c.Type {
	case DiscountPercentage:
		res.DiscountCents = (subtotalCents*c.Value + 50) / 100
	case DiscountFixed:
		res.DiscountCents = c.Value
		if res.DiscountCents > subtotalCents {
			res.DiscountCents = subtotalCents
		}
	case DiscountFreeShipping:
		res.DiscountCents = shippingCents
	}
	return res
}
