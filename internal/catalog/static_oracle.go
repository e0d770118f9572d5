// Package catalog provides Inventory/Price Oracle implementations: the
// read-only source of truth for current product price and stock.
package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/merchantkit/agent-checkout/internal/checkout"
)

// StaticOracle serves quotes from a fixed in-memory product table. It
// backs local runs and tests; stock and price can be adjusted through
// SetQuote to simulate drift between cart updates and completion.
type StaticOracle struct {
	mu       sync.RWMutex
	products map[string]checkout.Quote
}

// NewStaticOracle builds an oracle over the given quotes.
func NewStaticOracle(quotes []checkout.Quote) *StaticOracle {
	m := make(map[string]checkout.Quote, len(quotes))
	for _, q := range quotes {
		m[q.ProductID] = q
	}
	return &StaticOracle{products: m}
}

func (o *StaticOracle) Lookup(ctx context.Context, productID string) (checkout.Quote, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	q, ok := o.products[productID]
	if !ok {
		return checkout.Quote{}, fmt.Errorf("%w: %s", checkout.ErrUnknownProduct, productID)
	}
	return q, nil
}

// SetQuote inserts or replaces a product quote.
func (o *StaticOracle) SetQuote(q checkout.Quote) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.products[q.ProductID] = q
}

// DemoQuotes is the sample catalog served when RUN_LOCAL is set.
func DemoQuotes() []checkout.Quote {
	return []checkout.Quote{
		{ProductID: "sku-espresso-maker", Title: "Stovetop Espresso Maker", UnitPriceCents: 4250, AvailableQty: 120},
		{ProductID: "sku-burr-grinder", Title: "Conical Burr Grinder", UnitPriceCents: 8900, AvailableQty: 45},
		{ProductID: "sku-beans-1kg", Title: "House Blend Beans 1kg", UnitPriceCents: 2199, AvailableQty: 500},
		{ProductID: "sku-mug-set", Title: "Ceramic Mug Set of 4", UnitPriceCents: 3400, AvailableQty: 80},
	}
}
