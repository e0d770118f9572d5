package checkout

import "time"

// Session statuses. pending -> confirmed -> completed is the happy path;
// canceled is reachable from any non-terminal status.
const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCanceled  Status = "canceled"
)

type Status string

// Terminal reports whether no further transition or mutation is allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCanceled
}

func (s Status) String() string { return string(s) }

// CheckoutSession is the aggregate root: one in-progress checkout attempt
// with its cart contents and derived totals. Both protocol adapters map
// to and from this one representation.
type CheckoutSession struct {
	ID          string       `dynamodbav:"session_id"` // PK
	Status      Status       `dynamodbav:"status"`
	Currency    string       `dynamodbav:"currency"`
	LineItems   []LineItem   `dynamodbav:"line_items"`
	Buyer       *Buyer       `dynamodbav:"buyer,omitempty"`
	Fulfillment *Fulfillment `dynamodbav:"fulfillment,omitempty"`
	Discount    *Discount    `dynamodbav:"discount,omitempty"`
	Totals      Totals       `dynamodbav:"totals"`
	OrderID     string       `dynamodbav:"order_id,omitempty"` // minted on completion, immutable after
	Version     int64        `dynamodbav:"version"`            // store CAS token
	CreatedAt   time.Time    `dynamodbav:"created_at"`
	UpdatedAt   time.Time    `dynamodbav:"updated_at"`
}

// Clone returns a deep copy so callers can never alias store-owned state.
func (s *CheckoutSession) Clone() *CheckoutSession {
	if s == nil {
		return nil
	}
	out := *s
	out.LineItems = make([]LineItem, len(s.LineItems))
	copy(out.LineItems, s.LineItems)
	if s.Buyer != nil {
		b := *s.Buyer
		out.Buyer = &b
	}
	if s.Fulfillment != nil {
		f := *s.Fulfillment
		out.Fulfillment = &f
	}
	if s.Discount != nil {
		d := *s.Discount
		out.Discount = &d
	}
	return &out
}

// LineItem is one product in the cart. UnitPriceCents is a snapshot taken
// when the item was added, not a live catalog reference; completion
// re-validates it against the oracle.
type LineItem struct {
	ProductID      string `dynamodbav:"product_id"`
	Title          string `dynamodbav:"title,omitempty"`
	Quantity       int    `dynamodbav:"quantity"`
	UnitPriceCents int64  `dynamodbav:"unit_price_cents"`
}

// Buyer holds contact and shipping details supplied by an update.
type Buyer struct {
	FirstName  string `dynamodbav:"first_name,omitempty"`
	LastName   string `dynamodbav:"last_name,omitempty"`
	Email      string `dynamodbav:"email"`
	Phone      string `dynamodbav:"phone,omitempty"`
	Line1      string `dynamodbav:"line1"`
	Line2      string `dynamodbav:"line2,omitempty"`
	City       string `dynamodbav:"city"`
	Region     string `dynamodbav:"region,omitempty"`
	PostalCode string `dynamodbav:"postal_code"`
	Country    string `dynamodbav:"country"`
}

// FulfillmentOption is one entry in the merchant's configured shipping menu.
type FulfillmentOption struct {
	ID        string `dynamodbav:"id"`
	Label     string `dynamodbav:"label"`
	CostCents int64  `dynamodbav:"cost_cents"`
	EstDays   int    `dynamodbav:"est_days,omitempty"`
}

// Fulfillment is the chosen shipping method with its cost snapshot.
type Fulfillment struct {
	OptionID  string `dynamodbav:"option_id"`
	Label     string `dynamodbav:"label"`
	CostCents int64  `dynamodbav:"cost_cents"`
}

// Discount types supported by the coupon table.
const (
	DiscountPercentage   DiscountType = "percentage"
	DiscountFixed        DiscountType = "fixed"
	DiscountFreeShipping DiscountType = "free_shipping"
)

type DiscountType string

// Discount is the last-validated coupon applied to the session.
// Value is a percentage for percentage coupons and cents for fixed
// coupons; free-shipping coupons carry no value of their own.
type Discount struct {
	Code  string       `dynamodbav:"code"`
	Type  DiscountType `dynamodbav:"type"`
	Value int64        `dynamodbav:"value"`
}

// Totals is the derived monetary breakdown. Every field is computed by
// ComputeTotals; none is ever set independently.
type Totals struct {
	SubtotalCents int64 `dynamodbav:"subtotal_cents"`
	DiscountCents int64 `dynamodbav:"discount_cents"`
	ShippingCents int64 `dynamodbav:"shipping_cents"`
	TaxCents      int64 `dynamodbav:"tax_cents"`
	TotalCents    int64 `dynamodbav:"total_cents"`
}

// Quote is the oracle's view of a product: current price and stock.
type Quote struct {
	ProductID      string `dynamodbav:"product_id"`
	Title          string `dynamodbav:"title,omitempty"`
	UnitPriceCents int64  `dynamodbav:"unit_price_cents"`
	AvailableQty   int    `dynamodbav:"available_qty"`
}
