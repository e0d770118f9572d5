package ucp

import "github.com/merchantkit/agent-checkout/internal/checkout"

// stateNames maps the internal enum onto this protocol's cart states.
var stateNames = map[checkout.Status]string{
	checkout.StatusPending:   "open",
	checkout.StatusConfirmed: "ready",
	checkout.StatusCompleted: "placed",
	checkout.StatusCanceled:  "abandoned",
}

func toCartResponse(sess *checkout.CheckoutSession, methods []checkout.FulfillmentOption, rejection *checkout.CouponRejection) cartResponse {
	cur := sess.Currency
	out := cartResponse{
		CartID:    sess.ID,
		State:     stateNames[sess.Status],
		Currency:  cur,
		CreatedAt: sess.CreatedAt,
		UpdatedAt: sess.UpdatedAt,
		OrderRef:  sess.OrderID,
	}

	out.Lines = make([]lineResponse, 0, len(sess.LineItems))
	for _, it := range sess.LineItems {
		out.Lines = append(out.Lines, lineResponse{
			ProductID: it.ProductID,
			Name:      it.Title,
			Quantity:  it.Quantity,
			UnitPrice: toMoney(it.UnitPriceCents, cur),
			LineTotal: toMoney(it.UnitPriceCents*int64(it.Quantity), cur),
		})
	}

	if sess.Buyer != nil {
		out.Customer = toCustomerParam(sess.Buyer)
	}

	out.ShippingMethods = make([]shippingMethodResponse, 0, len(methods))
	for _, m := range methods {
		out.ShippingMethods = append(out.ShippingMethods, shippingMethodResponse{
			MethodID: m.ID,
			Label:    m.Label,
			Cost:     toMoney(m.CostCents, cur),
			EtaDays:  m.EstDays,
		})
	}
	if sess.Fulfillment != nil {
		out.Shipping = &shippingResponse{
			MethodID: sess.Fulfillment.OptionID,
			Label:    sess.Fulfillment.Label,
			Cost:     toMoney(sess.Fulfillment.CostCents, cur),
		}
	}

	if sess.Discount != nil {
		out.Promotion = &promotionResponse{
			Code:   sess.Discount.Code,
			Amount: toMoney(sess.Totals.DiscountCents, cur),
		}
	}

	t := sess.Totals
	out.Summary = summaryResponse{
		ItemsSubtotal:     toMoney(t.SubtotalCents, cur),
		PromotionDiscount: toMoney(t.DiscountCents, cur),
		Shipping:          toMoney(t.ShippingCents, cur),
		Tax:               toMoney(t.TaxCents, cur),
		GrandTotal:        toMoney(t.TotalCents, cur),
	}

	if rejection != nil {
		out.Warnings = append(out.Warnings, warningResponse{
			Code:   "promotion_rejected",
			Detail: rejection.Code + ": " + rejection.Reason,
		})
	}
	return out
}

func toCustomerParam(b *checkout.Buyer) *customerParam {
	return &customerParam{
		GivenName:  b.FirstName,
		FamilyName: b.LastName,
		Email:      b.Email,
		Phone:      b.Phone,
		Street:     b.Line1,
		Street2:    b.Line2,
		City:       b.City,
		Province:   b.Region,
		PostalCode: b.PostalCode,
		Country:    b.Country,
	}
}

func fromCustomerParam(c *customerParam) *checkout.Buyer {
	return &checkout.Buyer{
		FirstName:  c.GivenName,
		LastName:   c.FamilyName,
		Email:      c.Email,
		Phone:      c.Phone,
		Line1:      c.Street,
		Line2:      c.Street2,
		City:       c.City,
		Region:     c.Province,
		PostalCode: c.PostalCode,
		Country:    c.Country,
	}
}
