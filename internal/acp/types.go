package acp

// Wire types for the checkout-sessions protocol. Money is integer minor
// units (cents) throughout.

type createItem struct {
	ID       string `json:"id" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

type createRequest struct {
	Items    []createItem `json:"items" validate:"required,min=1,dive"`
	Currency string       `json:"currency" validate:"required,iso4217"`
}

// updateItem allows quantity 0: it removes the product from the cart.
type updateItem struct {
	ID       string `json:"id" validate:"required"`
	Quantity int    `json:"quantity" validate:"min=0"`
}

type addressPayload struct {
	Line1      string `json:"line1" validate:"required"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country" validate:"required,iso3166_1_alpha2"`
}

type buyerPayload struct {
	FirstName   string         `json:"first_name,omitempty"`
	LastName    string         `json:"last_name,omitempty"`
	Email       string         `json:"email" validate:"required,email"`
	PhoneNumber string         `json:"phone_number,omitempty"`
	Address     addressPayload `json:"address"`
}

// updateRequest is a partial update: absent fields mean "no change".
type updateRequest struct {
	Buyer               *buyerPayload `json:"buyer,omitempty"`
	Items               []updateItem  `json:"items,omitempty" validate:"omitempty,dive"`
	FulfillmentOptionID *string       `json:"fulfillment_option_id,omitempty"`
	CouponCode          *string       `json:"coupon_code,omitempty"`
}

type lineItemPayload struct {
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	Quantity    int    `json:"quantity"`
	UnitAmount  int64  `json:"unit_amount"`
	TotalAmount int64  `json:"total_amount"`
}

type fulfillmentOptionPayload struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Amount  int64  `json:"amount"`
	EstDays int    `json:"est_days,omitempty"`
}

type totalPayload struct {
	Type        string `json:"type"`
	DisplayText string `json:"display_text"`
	Amount      int64  `json:"amount"`
}

type messagePayload struct {
	Type  string `json:"type"`
	Code  string `json:"code"`
	Param string `json:"param,omitempty"`
	Text  string `json:"text,omitempty"`
}

type orderPayload struct {
	ID string `json:"id"`
}

type sessionPayload struct {
	ID                  string                     `json:"id"`
	Status              string                     `json:"status"`
	Currency            string                     `json:"currency"`
	LineItems           []lineItemPayload          `json:"line_items"`
	Buyer               *buyerPayload              `json:"buyer,omitempty"`
	FulfillmentOptions  []fulfillmentOptionPayload `json:"fulfillment_options"`
	FulfillmentOptionID string                     `json:"fulfillment_option_id,omitempty"`
	Totals              []totalPayload             `json:"totals"`
	Messages            []messagePayload           `json:"messages,omitempty"`
	Order               *orderPayload              `json:"order,omitempty"`
}

type conflictItemPayload struct {
	ID                string `json:"id"`
	Issue             string `json:"issue"` // stock | price
	AvailableQuantity int    `json:"available_quantity,omitempty"`
	CurrentUnitAmount int64  `json:"current_unit_amount,omitempty"`
}

type errorPayload struct {
	Type    string                `json:"type"`
	Code    string                `json:"code"`
	Message string                `json:"message"`
	Fields  map[string]string     `json:"fields,omitempty"`
	Items   []conflictItemPayload `json:"items,omitempty"`
}
