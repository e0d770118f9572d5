package ucp

import "time"

// Wire types for the cart protocol.

type lineParam struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"min=0"`
}

type createCartRequest struct {
	Lines    []lineParam `json:"lines" validate:"required,min=1,dive"`
	Currency string      `json:"currency" validate:"required,iso4217"`
}

type customerParam struct {
	GivenName  string `json:"given_name,omitempty"`
	FamilyName string `json:"family_name,omitempty"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone,omitempty"`
	Street     string `json:"street" validate:"required"`
	Street2    string `json:"street2,omitempty"`
	City       string `json:"city" validate:"required"`
	Province   string `json:"province,omitempty"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country" validate:"required,iso3166_1_alpha2"`
}

type patchCartRequest struct {
	Customer       *customerParam `json:"customer,omitempty"`
	Lines          []lineParam    `json:"lines,omitempty" validate:"omitempty,dive"`
	ShippingMethod *string        `json:"shipping_method,omitempty"`
	PromotionCode  *string        `json:"promotion_code,omitempty"`
}

type lineResponse struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name,omitempty"`
	Quantity  int    `json:"quantity"`
	UnitPrice money  `json:"unit_price"`
	LineTotal money  `json:"line_total"`
}

type shippingMethodResponse struct {
	MethodID string `json:"method_id"`
	Label    string `json:"label"`
	Cost     money  `json:"cost"`
	EtaDays  int    `json:"eta_days,omitempty"`
}

type shippingResponse struct {
	MethodID string `json:"method_id"`
	Label    string `json:"label"`
	Cost     money  `json:"cost"`
}

type promotionResponse struct {
	Code   string `json:"code"`
	Amount money  `json:"amount"`
}

type summaryResponse struct {
	ItemsSubtotal     money `json:"items_subtotal"`
	PromotionDiscount money `json:"promotion_discount"`
	Shipping          money `json:"shipping"`
	Tax               money `json:"tax"`
	GrandTotal        money `json:"grand_total"`
}

type warningResponse struct {
	Code   string `json:"code"`
	Detail string `json:"detail,omitempty"`
}

type cartResponse struct {
	CartID          string                   `json:"cart_id"`
	State           string                   `json:"state"`
	Currency        string                   `json:"currency"`
	Lines           []lineResponse           `json:"lines"`
	Customer        *customerParam           `json:"customer,omitempty"`
	Shipping        *shippingResponse        `json:"shipping,omitempty"`
	ShippingMethods []shippingMethodResponse `json:"shipping_methods"`
	Promotion       *promotionResponse       `json:"promotion,omitempty"`
	Summary         summaryResponse          `json:"summary"`
	Warnings        []warningResponse        `json:"warnings,omitempty"`
	OrderRef        string                   `json:"order_ref,omitempty"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
}

type errorBody struct {
	Status int                   `json:"status"`
	Reason string                `json:"reason"`
	Detail string                `json:"detail,omitempty"`
	Fields map[string]string     `json:"fields,omitempty"`
	Lines  []lineConflictPayload `json:"lines,omitempty"`
}

type lineConflictPayload struct {
	ProductID string `json:"product_id"`
	Problem   string `json:"problem"` // stock | price
	InStock   int    `json:"in_stock,omitempty"`
	NowPrice  string `json:"now_price,omitempty"` // decimal major units
}

type errorResponse struct {
	Error errorBody `json:"error"`
}
