package checkout_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merchantkit/agent-checkout/internal/checkout"
	"github.com/merchantkit/agent-checkout/internal/idempotency"
	"github.com/merchantkit/agent-checkout/internal/session"
)

// countingOracle is a fake inventory/price oracle that counts lookups so
// tests can assert completion does not re-check more than once.
type countingOracle struct {
	mu      sync.Mutex
	quotes  map[string]checkout.Quote
	lookups int64
}

func newCountingOracle(quotes ...checkout.Quote) *countingOracle {
	m := make(map[string]checkout.Quote, len(quotes))
	for _, q := range quotes {
		m[q.ProductID] = q
	}
	return &countingOracle{quotes: m}
}

func (o *countingOracle) Lookup(ctx context.Context, productID string) (checkout.Quote, error) {
	atomic.AddInt64(&o.lookups, 1)
	o.mu.Lock()
	defer o.mu.Unlock()
	q, ok := o.quotes[productID]
	if !ok {
		return checkout.Quote{}, fmt.Errorf("%w: %s", checkout.ErrUnknownProduct, productID)
	}
	return q, nil
}

func (o *countingOracle) set(q checkout.Quote) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.quotes[q.ProductID] = q
}

func (o *countingOracle) count() int64 { return atomic.LoadInt64(&o.lookups) }

func testOptions() []checkout.FulfillmentOption {
	return []checkout.FulfillmentOption{
		{ID: "standard", Label: "Standard", CostCents: 599, EstDays: 7},
		{ID: "express", Label: "Express", CostCents: 1299, EstDays: 2},
	}
}

func testBuyer() *checkout.Buyer {
	return &checkout.Buyer{
		FirstName:  "Ada",
		Email:      "ada@example.com",
		Line1:      "1 Infinite Loop",
		City:       "Cupertino",
		PostalCode: "95014",
		Country:    "US",
	}
}

func newTestEngine(cfg checkout.Config, oracle *countingOracle) *checkout.Engine {
	if cfg.FulfillmentOptions == nil {
		cfg.FulfillmentOptions = testOptions()
	}
	return checkout.NewEngine(
		session.NewMemoryStore(),
		oracle,
		checkout.NewCouponTable(checkout.DefaultCoupons()),
		idempotency.NewMemoryIndex(),
		cfg,
	)
}

func defaultOracle() *countingOracle {
	return newCountingOracle(
		checkout.Quote{ProductID: "widget", Title: "Widget", UnitPriceCents: 5000, AvailableQty: 10},
		checkout.Quote{ProductID: "gadget", Title: "Gadget", UnitPriceCents: 2199, AvailableQty: 5},
		checkout.Quote{ProductID: "doohickey", Title: "Doohickey", UnitPriceCents: 8900, AvailableQty: 3},
	)
}

func TestCreate_EmptyCart(t *testing.T) {
	e := newTestEngine(checkout.Config{}, defaultOracle())
	ctx := context.Background()

	_, err := e.Create(ctx, checkout.CreateParams{Currency: "USD"})
	require.ErrorIs(t, err, checkout.ErrEmptyCart)

	// zero quantities collapse to an empty cart too
	_, err = e.Create(ctx, checkout.CreateParams{
		Currency: "USD",
		Items:    []checkout.ItemInput{{ProductID: "widget", Quantity: 0}},
	})
	require.ErrorIs(t, err, checkout.ErrEmptyCart)
}

func TestCreate_SnapshotsPricesAndComputesTotals(t *testing.T) {
	e := newTestEngine(checkout.Config{}, defaultOracle())

	sess, err := e.Create(context.Background(), checkout.CreateParams{
		Currency: "usd",
		Items: []checkout.ItemInput{
			{ProductID: "widget", Quantity: 1},
			{ProductID: "gadget", Quantity: 2},
			{ProductID: "widget", Quantity: 1}, // merged into the first line
		},
	})
	require.NoError(t, err)

	assert.Equal(t, checkout.StatusPending, sess.Status)
	assert.Equal(t, "USD", sess.Currency)
	assert.NotEmpty(t, sess.ID)
	assert.Empty(t, sess.OrderID)

	require.Len(t, sess.LineItems, 2)
	assert.Equal(t, "widget", sess.LineItems[0].ProductID)
	assert.Equal(t, 2, sess.LineItems[0].Quantity)
	assert.Equal(t, int64(5000), sess.LineItems[0].UnitPriceCents)
	assert.Equal(t, "Widget", sess.LineItems[0].Title)

	assert.Equal(t, int64(10000+4398), sess.Totals.SubtotalCents)
	assert.Equal(t, sess.Totals.SubtotalCents, sess.Totals.TotalCents)
}

func TestCreate_UnknownProduct(t *testing.T) {
	e := newTestEngine(checkout.Config{}, defaultOracle())

	_, err := e.Create(context.Background(), checkout.CreateParams{
		Currency: "USD",
		Items:    []checkout.ItemInput{{ProductID: "no-such-sku", Quantity: 1}},
	})
	require.ErrorIs(t, err, checkout.ErrUnknownProduct)
}

func TestCreate_IdempotencyKeyReturnsSameSession(t *testing.T) {
	e := newTestEngine(checkout.Config{}, defaultOracle())
	ctx := context.Background()
	params := checkout.CreateParams{
		Currency:       "USD",
		Items:          []checkout.ItemInput{{ProductID: "widget", Quantity: 1}},
		IdempotencyKey: "key-1",
	}

	first, err := e.Create(ctx, params)
	require.NoError(t, err)

	replay, err := e.Create(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, first.ID, replay.ID)

	params.IdempotencyKey = "key-2"
	other, err := e.Create(ctx, params)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestUpdate_BuyerAndFulfillmentConfirmSession(t *testing.T) {
	e := newTestEngine(checkout.Config{}, defaultOracle())
	ctx := context.Background()

	sess, err := e.Create(ctx, checkout.CreateParams{
		Currency: "USD",
		Items:    []checkout.ItemInput{{ProductID: "widget", Quantity: 2}},
	})
	require.NoError(t, err)

	// buyer alone is not enough
	sess, rejection, err := e.Update(ctx, sess.ID, checkout.UpdateParams{Buyer: testBuyer()})
	require.NoError(t, err)
	require.Nil(t, rejection)
	assert.Equal(t, checkout.StatusPending, sess.Status)

	std := "standard"
	sess, rejection, err = e.Update(ctx, sess.ID, checkout.UpdateParams{FulfillmentOptionID: &std})
	require.NoError(t, err)
	require.Nil(t, rejection)
	assert.Equal(t, checkout.StatusConfirmed, sess.Status)
	require.NotNil(t, sess.Fulfillment)
	assert.Equal(t, int64(599), sess.Fulfillment.CostCents)
	assert.Equal(t, int64(10599), sess.Totals.TotalCents)
}

func TestUpdate_UnknownFulfillmentOption(t *testing.T) {
	e := newTestEngine(checkout.Config{}, defaultOracle())
	ctx := context.Background()

	sess, err := e.Create(ctx, checkout.CreateParams{
		Currency: "USD",
		Items:    []checkout.ItemInput{{ProductID: "widget", Quantity: 1}},
	})
	require.NoError(t, err)

	bogus := "carrier-pigeon"
	_, _, err = e.Update(ctx, sess.ID, checkout.UpdateParams{FulfillmentOptionID: &bogus})
	require.ErrorIs(t, err, checkout.ErrUnknownFulfillment)
}

func TestUpdate_ZeroQuantityRemovesLineItem(t *testing.T) {
	e := newTestEngine(checkout.Config{}, defaultOracle())
	ctx := context.Background()

	sess, err := e.Create(ctx, checkout.CreateParams{
		Currency: "USD",
		Items: []checkout.ItemInput{
			{ProductID: "widget", Quantity: 1},
			{ProductID: "gadget", Quantity: 1},
		},
	})
	require.NoError(t, err)

	sess, _, err = e.Update(ctx, sess.ID, checkout.UpdateParams{
		Items: []checkout.ItemInput{{ProductID: "widget", Quantity: 0}},
	})
	require.NoError(t, err)
	require.Len(t, sess.LineItems, 1)
	assert.Equal(t, "gadget", sess.LineItems[0].ProductID)
	assert.Equal(t, int64(2199), sess.Totals.TotalCents)

	// removing the last line leaves an empty cart; completion then fails
	sess, _, err = e.Update(ctx, sess.ID, checkout.UpdateParams{
		Items: []checkout.ItemInput{{ProductID: "gadget", Quantity: 0}},
	})
	require.NoError(t, err)
	assert.Empty(t, sess.LineItems)
	assert.Equal(t, int64(0), sess.Totals.TotalCents)

	_, err = e.Complete(ctx, sess.ID)
	require.ErrorIs(t, err, checkout.ErrEmptyCart)
}

func TestUpdate_NewProductAppendedWithFreshPrice(t *testing.T) {
	e := newTestEngine(checkout.Config{}, defaultOracle())
	ctx := context.Background()

	sess, err := e.Create(ctx, checkout.CreateParams{
		Currency: "USD",
		Items:    []checkout.ItemInput{{ProductID: "widget", Quantity: 1}},
	})
	require.NoError(t, err)

	sess, _, err = e.Update(ctx, sess.ID, checkout.UpdateParams{
		Items: []checkout.ItemInput{{ProductID: "doohickey", Quantity: 1}},
	})
	require.NoError(t, err)

	require.Len(t, sess.LineItems, 2)
	assert.Equal(t, "widget", sess.LineItems[0].ProductID)
	assert.Equal(t, "doohickey", sess.LineItems[1].ProductID)
	assert.Equal(t, int64(8900), sess.LineItems[1].UnitPriceCents)
}

func TestUpdate_CouponAppliedToTotals(t *testing.T) {
	e := newTestEngine(checkout.Config{}, defaultOracle())
	ctx := context.Background()

	// 2x widget + doohickey = 18900 subtotal, over the SAVE20 minimum
	sess, err := e.Create(ctx, checkout.CreateParams{
		Currency: "USD",
		Items: []checkout.ItemInput{
			{ProductID: "widget", Quantity: 2},
			{ProductID: "doohickey", Quantity: 1},
		},
	})
	require.NoError(t, err)

	code := "SAVE20"
	sess, rejection, err := e.Update(ctx, sess.ID, checkout.UpdateParams{CouponCode: &code})
	require.NoError(t, err)
	require.Nil(t, rejection)
	require.NotNil(t, sess.Discount)
	assert.Equal(t, "SAVE20", sess.Discount.Code)
	assert.Equal(t, int64(2000), sess.Totals.DiscountCents)
	assert.Equal(t, int64(16900), sess.Totals.TotalCents)
}

func TestUpdate_RejectedCouponDoesNotFailUpdate(t *testing.T) {
	e := newTestEngine(checkout.Config{}, defaultOracle())
	ctx := context.Background()

	sess, err := e.Create(ctx, checkout.CreateParams{
		Currency: "USD",
		Items:    []checkout.ItemInput{{ProductID: "gadget", Quantity: 1}},
	})
	require.NoError(t, err)

	// subtotal 2199 is under the SAVE20 minimum; the buyer change must
	// still land
	code := "SAVE20"
	sess, rejection, err := e.Update(ctx, sess.ID, checkout.UpdateParams{
		Buyer:      testBuyer(),
		CouponCode: &code,
	})
	require.NoError(t, err)
	require.NotNil(t, rejection)
	assert.Equal(t, "SAVE20", rejection.Code)
	assert.Equal(t, checkout.RejectMinimumNotMet, rejection.Reason)
	assert.Nil(t, sess.Discount)
	assert.NotNil(t, sess.Buyer)
	assert.Equal(t, int64(0), sess.Totals.DiscountCents)
}

func TestUpdate_AppliedDiscountDroppedWhenCartShrinksBelowMinimum(t *testing.T) {
	e := newTestEngine(checkout.Config{}, defaultOracle())
	ctx := context.Background()

	sess, err := e.Create(ctx, checkout.CreateParams{
		Currency: "USD",
		Items:    []checkout.ItemInput{{ProductID: "widget", Quantity: 3}},
	})
	require.NoError(t, err)

	code := "SAVE20"
	sess, rejection, err := e.Update(ctx, sess.ID, checkout.UpdateParams{CouponCode: &code})
	require.NoError(t, err)
	require.Nil(t, rejection)
	require.NotNil(t, sess.Discount)

	// dropping to one widget (5000) falls below the SAVE20 minimum; the
	// stale discount must not survive in totals
	sess, rejection, err = e.Update(ctx, sess.ID, checkout.UpdateParams{
		Items: []checkout.ItemInput{{ProductID: "widget", Quantity: 1}},
	})
	require.NoError(t, err)
	require.NotNil(t, rejection)
	assert.Equal(t, "SAVE20", rejection.Code)
	assert.Nil(t, sess.Discount)
	assert.Equal(t, int64(0), sess.Totals.DiscountCents)
	assert.Equal(t, int64(5000), sess.Totals.TotalCents)
}

func TestUpdate_EmptyCouponCodeClearsDiscount(t *testing.T) {
	e := newTestEngine(checkout.Config{}, defaultOracle())
	ctx := context.Background()

	sess, err := e.Create(ctx, checkout.CreateParams{
		Currency: "USD",
		Items:    []checkout.ItemInput{{ProductID: "widget", Quantity: 3}},
	})
	require.NoError(t, err)

	code := "SAVE20"
	sess, _, err = e.Update(ctx, sess.ID, checkout.UpdateParams{CouponCode: &code})
	require.NoError(t, err)
	require.NotNil(t, sess.Discount)

	empty := ""
	sess, rejection, err := e.Update(ctx, sess.ID, checkout.UpdateParams{CouponCode: &empty})
	require.NoError(t, err)
	require.Nil(t, rejection)
	assert.Nil(t, sess.Discount)
	assert.Equal(t, int64(0), sess.Totals.DiscountCents)
}

func completeReadySession(t *testing.T, e *checkout.Engine, ctx context.Context) *checkout.CheckoutSession {
	t.Helper()
	sess, err := e.Create(ctx, checkout.CreateParams{
		Currency: "USD",
		Items:    []checkout.ItemInput{{ProductID: "widget", Quantity: 2}},
	})
	require.NoError(t, err)

	std := "standard"
	sess, _, err = e.Update(ctx, sess.ID, checkout.UpdateParams{
		Buyer:               testBuyer(),
		FulfillmentOptionID: &std,
	})
	require.NoError(t, err)
	require.Equal(t, checkout.StatusConfirmed, sess.Status)
	return sess
}

func TestComplete_HappyPath(t *testing.T) {
	var completed []string
	cfg := checkout.Config{
		OnCompleted: func(ctx context.Context, sess *checkout.CheckoutSession) {
			completed = append(completed, sess.OrderID)
		},
	}
	e := newTestEngine(cfg, defaultOracle())
	ctx := context.Background()

	sess := completeReadySession(t, e, ctx)

	done, err := e.Complete(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, checkout.StatusCompleted, done.Status)
	assert.NotEmpty(t, done.OrderID)
	assert.Equal(t, checkout.Totals{
		SubtotalCents: 10000,
		DiscountCents: 0,
		ShippingCents: 599,
		TaxCents:      0,
		TotalCents:    10599,
	}, done.Totals)
	assert.Equal(t, []string{done.OrderID}, completed)
}

func TestComplete_IdempotentOrderIDAndNoSecondOracleCheck(t *testing.T) {
	oracle := defaultOracle()
	hookCalls := 0
	e := newTestEngine(checkout.Config{
		OnCompleted: func(context.Context, *checkout.CheckoutSession) { hookCalls++ },
	}, oracle)
	ctx := context.Background()

	sess := completeReadySession(t, e, ctx)

	first, err := e.Complete(ctx, sess.ID)
	require.NoError(t, err)
	after := oracle.count()

	second, err := e.Complete(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, first.OrderID, second.OrderID)
	assert.Equal(t, after, oracle.count(), "repeat completion must not consult the oracle")
	assert.Equal(t, 1, hookCalls)
}

func TestComplete_FulfillmentMissing(t *testing.T) {
	e := newTestEngine(checkout.Config{}, defaultOracle())
	ctx := context.Background()

	sess, err := e.Create(ctx, checkout.CreateParams{
		Currency: "USD",
		Items:    []checkout.ItemInput{{ProductID: "widget", Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = e.Complete(ctx, sess.ID)
	require.ErrorIs(t, err, checkout.ErrFulfillmentMissing)
}

func TestComplete_PriceDriftConflict(t *testing.T) {
	oracle := defaultOracle()
	e := newTestEngine(checkout.Config{}, oracle)
	ctx := context.Background()

	sess := completeReadySession(t, e, ctx)
	before, err := e.Get(ctx, sess.ID)
	require.NoError(t, err)

	oracle.set(checkout.Quote{ProductID: "widget", Title: "Widget", UnitPriceCents: 5100, AvailableQty: 10})

	_, err = e.Complete(ctx, sess.ID)
	var conflict *checkout.InventoryConflictError
	require.ErrorAs(t, err, &conflict)
	require.Len(t, conflict.Conflicts, 1)
	assert.Equal(t, "widget", conflict.Conflicts[0].ProductID)
	assert.Equal(t, checkout.ConflictPrice, conflict.Conflicts[0].Kind)
	assert.Equal(t, int64(5100), conflict.Conflicts[0].CurrentPriceCents)

	// session left fully unchanged
	after, err := e.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestComplete_PriceToleranceAllowsSmallDrift(t *testing.T) {
	oracle := defaultOracle()
	e := newTestEngine(checkout.Config{PriceToleranceCents: 200}, oracle)
	ctx := context.Background()

	sess := completeReadySession(t, e, ctx)
	oracle.set(checkout.Quote{ProductID: "widget", Title: "Widget", UnitPriceCents: 5100, AvailableQty: 10})

	done, err := e.Complete(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, checkout.StatusCompleted, done.Status)
}

func TestComplete_StockConflictNamesEveryOffendingProduct(t *testing.T) {
	oracle := defaultOracle()
	e := newTestEngine(checkout.Config{}, oracle)
	ctx := context.Background()

	sess, err := e.Create(ctx, checkout.CreateParams{
		Currency: "USD",
		Items: []checkout.ItemInput{
			{ProductID: "widget", Quantity: 2},
			{ProductID: "doohickey", Quantity: 2},
		},
	})
	require.NoError(t, err)
	std := "standard"
	_, _, err = e.Update(ctx, sess.ID, checkout.UpdateParams{
		Buyer:               testBuyer(),
		FulfillmentOptionID: &std,
	})
	require.NoError(t, err)

	oracle.set(checkout.Quote{ProductID: "widget", Title: "Widget", UnitPriceCents: 5000, AvailableQty: 1})
	oracle.set(checkout.Quote{ProductID: "doohickey", Title: "Doohickey", UnitPriceCents: 9000, AvailableQty: 3})

	_, err = e.Complete(ctx, sess.ID)
	var conflict *checkout.InventoryConflictError
	require.ErrorAs(t, err, &conflict)
	require.Len(t, conflict.Conflicts, 2)

	byProduct := map[string]checkout.ItemConflict{}
	for _, c := range conflict.Conflicts {
		byProduct[c.ProductID] = c
	}
	assert.Equal(t, checkout.ConflictStock, byProduct["widget"].Kind)
	assert.Equal(t, 1, byProduct["widget"].AvailableQty)
	assert.Equal(t, checkout.ConflictPrice, byProduct["doohickey"].Kind)
}

func TestTerminalSessionsRejectEveryMutation(t *testing.T) {
	e := newTestEngine(checkout.Config{}, defaultOracle())
	ctx := context.Background()

	sess := completeReadySession(t, e, ctx)
	done, err := e.Complete(ctx, sess.ID)
	require.NoError(t, err)

	var invalid *checkout.InvalidStateError
	_, _, err = e.Update(ctx, done.ID, checkout.UpdateParams{Buyer: testBuyer()})
	require.ErrorAs(t, err, &invalid)

	_, err = e.Cancel(ctx, done.ID)
	require.ErrorAs(t, err, &invalid)

	// every field untouched by the failed attempts
	after, err := e.Get(ctx, done.ID)
	require.NoError(t, err)
	assert.Equal(t, done, after)
}

func TestCancel_IdempotentAndOneWay(t *testing.T) {
	e := newTestEngine(checkout.Config{}, defaultOracle())
	ctx := context.Background()

	sess, err := e.Create(ctx, checkout.CreateParams{
		Currency: "USD",
		Items:    []checkout.ItemInput{{ProductID: "widget", Quantity: 1}},
	})
	require.NoError(t, err)

	canceled, err := e.Cancel(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, checkout.StatusCanceled, canceled.Status)

	again, err := e.Cancel(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, canceled.Version, again.Version)

	var invalid *checkout.InvalidStateError
	_, err = e.Complete(ctx, sess.ID)
	require.ErrorAs(t, err, &invalid)
}

// flakyStore fails the first failCreates persist calls with a transient
// error, then behaves normally.
type flakyStore struct {
	*session.MemoryStore
	mu          sync.Mutex
	failCreates int
}

func (s *flakyStore) Create(ctx context.Context, sess *checkout.CheckoutSession) error {
	s.mu.Lock()
	fail := s.failCreates > 0
	if fail {
		s.failCreates--
	}
	s.mu.Unlock()
	if fail {
		return fmt.Errorf("provisioned throughput exceeded")
	}
	return s.MemoryStore.Create(ctx, sess)
}

func TestCreate_RetryAfterFailedPersistReusesKey(t *testing.T) {
	store := &flakyStore{MemoryStore: session.NewMemoryStore(), failCreates: 1}
	e := checkout.NewEngine(
		store,
		defaultOracle(),
		checkout.NewCouponTable(checkout.DefaultCoupons()),
		idempotency.NewMemoryIndex(),
		checkout.Config{FulfillmentOptions: testOptions()},
	)
	ctx := context.Background()

	params := checkout.CreateParams{
		Currency:       "USD",
		Items:          []checkout.ItemInput{{ProductID: "widget", Quantity: 1}},
		IdempotencyKey: "key-1",
	}

	_, err := e.Create(ctx, params)
	require.Error(t, err)

	// the client retries with the same key after the transient failure
	sess, err := e.Create(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, checkout.StatusPending, sess.Status)

	// and from then on the key replays the session it minted
	replay, err := e.Create(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, replay.ID)
}

func TestCreate_OrphanedReservationIsReclaimed(t *testing.T) {
	idx := idempotency.NewMemoryIndex()
	ctx := context.Background()

	// a claim left behind by a create that died before persisting
	_, created, err := idx.Reserve(ctx, "key-1", "ghost-session")
	require.NoError(t, err)
	require.True(t, created)

	e := checkout.NewEngine(
		session.NewMemoryStore(),
		defaultOracle(),
		checkout.NewCouponTable(checkout.DefaultCoupons()),
		idx,
		checkout.Config{FulfillmentOptions: testOptions()},
	)

	sess, err := e.Create(ctx, checkout.CreateParams{
		Currency:       "USD",
		Items:          []checkout.ItemInput{{ProductID: "widget", Quantity: 1}},
		IdempotencyKey: "key-1",
	})
	require.NoError(t, err)
	assert.NotEqual(t, "ghost-session", sess.ID)

	replay, err := e.Create(ctx, checkout.CreateParams{
		Currency:       "USD",
		Items:          []checkout.ItemInput{{ProductID: "widget", Quantity: 1}},
		IdempotencyKey: "key-1",
	})
	require.NoError(t, err)
	assert.Equal(t, sess.ID, replay.ID)
}

// conflictStore loses every compare-and-swap and counts the attempts.
type conflictStore struct {
	*session.MemoryStore
	casCalls int64
}

func (s *conflictStore) CompareAndSwap(ctx context.Context, sess *checkout.CheckoutSession, expectedVersion int64) error {
	atomic.AddInt64(&s.casCalls, 1)
	return checkout.ErrVersionConflict
}

func TestUpdate_VersionConflictTriesAreBounded(t *testing.T) {
	store := &conflictStore{MemoryStore: session.NewMemoryStore()}
	e := checkout.NewEngine(
		store,
		defaultOracle(),
		checkout.NewCouponTable(checkout.DefaultCoupons()),
		idempotency.NewMemoryIndex(),
		checkout.Config{FulfillmentOptions: testOptions()},
	)
	ctx := context.Background()

	sess, err := e.Create(ctx, checkout.CreateParams{
		Currency: "USD",
		Items:    []checkout.ItemInput{{ProductID: "widget", Quantity: 1}},
	})
	require.NoError(t, err)

	_, _, err = e.Update(ctx, sess.ID, checkout.UpdateParams{Buyer: testBuyer()})
	require.ErrorIs(t, err, checkout.ErrVersionConflict)
	assert.Equal(t, int64(5), atomic.LoadInt64(&store.casCalls))
}

func TestGet_UnknownSession(t *testing.T) {
	e := newTestEngine(checkout.Config{}, defaultOracle())

	_, err := e.Get(context.Background(), "nope")
	require.ErrorIs(t, err, checkout.ErrNotFound)
}

func TestTotalsNeverStale(t *testing.T) {
	e := newTestEngine(checkout.Config{TaxRateBP: 875}, defaultOracle())
	ctx := context.Background()

	sess, err := e.Create(ctx, checkout.CreateParams{
		Currency: "USD",
		Items: []checkout.ItemInput{
			{ProductID: "widget", Quantity: 2},
			{ProductID: "gadget", Quantity: 3},
		},
	})
	require.NoError(t, err)

	std := "express"
	code := "WELCOME10"
	steps := []checkout.UpdateParams{
		{Buyer: testBuyer()},
		{FulfillmentOptionID: &std},
		{CouponCode: &code},
		{Items: []checkout.ItemInput{{ProductID: "gadget", Quantity: 1}}},
		{Items: []checkout.ItemInput{{ProductID: "doohickey", Quantity: 1}}},
	}
	for _, p := range steps {
		sess, _, err = e.Update(ctx, sess.ID, p)
		require.NoError(t, err)

		persisted, err := e.Get(ctx, sess.ID)
		require.NoError(t, err)
		recomputed := checkout.ComputeTotals(persisted.LineItems, persisted.Discount, persisted.Fulfillment, 875)
		assert.Equal(t, recomputed, persisted.Totals)
	}
}

func TestConcurrentDisjointUpdatesBothLand(t *testing.T) {
	e := newTestEngine(checkout.Config{}, defaultOracle())
	ctx := context.Background()

	sess, err := e.Create(ctx, checkout.CreateParams{
		Currency: "USD",
		Items:    []checkout.ItemInput{{ProductID: "widget", Quantity: 1}},
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _, err := e.Update(ctx, sess.ID, checkout.UpdateParams{Buyer: testBuyer()})
		errs <- err
	}()
	go func() {
		defer wg.Done()
		std := "standard"
		_, _, err := e.Update(ctx, sess.ID, checkout.UpdateParams{FulfillmentOptionID: &std})
		errs <- err
	}()
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	final, err := e.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.NotNil(t, final.Buyer, "buyer update must not be lost")
	assert.NotNil(t, final.Fulfillment, "fulfillment update must not be lost")
	assert.Equal(t, checkout.StatusConfirmed, final.Status)
}
