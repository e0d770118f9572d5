package acp

import "github.com/merchantkit/agent-checkout/internal/checkout"

// statusNames maps the internal four-state enum onto this protocol's
// status vocabulary.
var statusNames = map[checkout.Status]string{
	checkout.StatusPending:   "not_ready_for_payment",
	checkout.StatusConfirmed: "ready_for_payment",
	checkout.StatusCompleted: "completed",
	checkout.StatusCanceled:  "canceled",
}

func toSessionPayload(sess *checkout.CheckoutSession, options []checkout.FulfillmentOption, rejection *checkout.CouponRejection) sessionPayload {
	out := sessionPayload{
		ID:       sess.ID,
		Status:   statusNames[sess.Status],
		Currency: sess.Currency,
	}

	out.LineItems = make([]lineItemPayload, 0, len(sess.LineItems))
	for _, it := range sess.LineItems {
		out.LineItems = append(out.LineItems, lineItemPayload{
			ID:          it.ProductID,
			Title:       it.Title,
			Quantity:    it.Quantity,
			UnitAmount:  it.UnitPriceCents,
			TotalAmount: it.UnitPriceCents * int64(it.Quantity),
		})
	}

	if sess.Buyer != nil {
		out.Buyer = toBuyerPayload(sess.Buyer)
	}

	out.FulfillmentOptions = make([]fulfillmentOptionPayload, 0, len(options))
	for _, opt := range options {
		out.FulfillmentOptions = append(out.FulfillmentOptions, fulfillmentOptionPayload{
			ID:      opt.ID,
			Title:   opt.Label,
			Amount:  opt.CostCents,
			EstDays: opt.EstDays,
		})
	}
	if sess.Fulfillment != nil {
		out.FulfillmentOptionID = sess.Fulfillment.OptionID
	}

	t := sess.Totals
	out.Totals = []totalPayload{
		{Type: "subtotal", DisplayText: "Subtotal", Amount: t.SubtotalCents},
	}
	if sess.Discount != nil || t.DiscountCents > 0 {
		out.Totals = append(out.Totals, totalPayload{Type: "discount", DisplayText: "Discount", Amount: t.DiscountCents})
	}
	if sess.Fulfillment != nil {
		out.Totals = append(out.Totals, totalPayload{Type: "shipping", DisplayText: "Shipping", Amount: t.ShippingCents})
	}
	if t.TaxCents > 0 {
		out.Totals = append(out.Totals, totalPayload{Type: "tax", DisplayText: "Tax", Amount: t.TaxCents})
	}
	out.Totals = append(out.Totals, totalPayload{Type: "total", DisplayText: "Total", Amount: t.TotalCents})

	if rejection != nil {
		out.Messages = append(out.Messages, messagePayload{
			Type:  "error",
			Code:  "coupon_rejected",
			Param: rejection.Code,
			Text:  rejection.Reason,
		})
	}

	if sess.OrderID != "" {
		out.Order = &orderPayload{ID: sess.OrderID}
	}
	return out
}

func toBuyerPayload(b *checkout.Buyer) *buyerPayload {
	return &buyerPayload{
		FirstName:   b.FirstName,
		LastName:    b.LastName,
		Email:       b.Email,
		PhoneNumber: b.Phone,
		Address: addressPayload{
			Line1:      b.Line1,
			Line2:      b.Line2,
			City:       b.City,
			State:      b.Region,
			PostalCode: b.PostalCode,
			Country:    b.Country,
		},
	}
}

func fromBuyerPayload(b *buyerPayload) *checkout.Buyer {
	return &checkout.Buyer{
		FirstName:  b.FirstName,
		LastName:   b.LastName,
		Email:      b.Email,
		Phone:      b.PhoneNumber,
		Line1:      b.Address.Line1,
		Line2:      b.Address.Line2,
		City:       b.Address.City,
		Region:     b.Address.State,
		PostalCode: b.Address.PostalCode,
		Country:    b.Address.Country,
	}
}
