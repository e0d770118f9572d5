package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// casAttempts is the maximum number of optimistic-concurrency tries per
// operation before the version conflict is surfaced to the caller.
const casAttempts = 5

// Config carries the merchant-level knobs for the engine.
type Config struct {
	// TaxRateBP is the flat tax rate in basis points applied to
	// subtotal minus discount.
	TaxRateBP int64

	// PriceToleranceCents is the allowed absolute drift between a line
	// item's price snapshot and the oracle's current price at completion.
	// Zero means any drift invalidates completion.
	PriceToleranceCents int64

	// FulfillmentOptions is the shipping menu offered to every session.
	FulfillmentOptions []FulfillmentOption

	// OnCompleted, if set, is invoked once per minted order after the
	// completed session has been persisted. It is never invoked for the
	// idempotent replay of an already-completed session.
	OnCompleted func(ctx context.Context, sess *CheckoutSession)
}

// Engine is the checkout session state machine. Every operation loads a
// session snapshot, applies its mutation to a copy, recomputes totals and
// writes back with compare-and-swap, so no session is ever observable
// with stale totals or a partially applied change.
type Engine struct {
	store   SessionStore
	oracle  Oracle
	coupons CouponValidator
	idemp   IdempotencyIndex // optional
	cfg     Config
	nowFunc func() time.Time
	newID   func() string
}

// NewEngine wires the engine with its collaborators. idemp may be nil if
// create idempotency keys are not supported by the deployment.
func NewEngine(store SessionStore, oracle Oracle, coupons CouponValidator, idemp IdempotencyIndex, cfg Config) *Engine {
	return &Engine{
		store:   store,
		oracle:  oracle,
		coupons: coupons,
		idemp:   idemp,
		cfg:     cfg,
		nowFunc: time.Now,
		newID:   uuid.NewString,
	}
}

// FulfillmentOptions returns the configured shipping menu.
func (e *Engine) FulfillmentOptions() []FulfillmentOption {
	out := make([]FulfillmentOption, len(e.cfg.FulfillmentOptions))
	copy(out, e.cfg.FulfillmentOptions)
	return out
}

// ItemInput is one requested line item. Quantity is absolute: zero (or
// negative) removes the product from the cart.
type ItemInput struct {
	ProductID string
	Quantity  int
	Title     string
}

// CreateParams describes a create-session request.
type CreateParams struct {
	Items          []ItemInput
	Currency       string
	IdempotencyKey string
}

// UpdateParams describes a partial update. Nil fields mean "no change";
// an empty CouponCode clears any applied discount.
type UpdateParams struct {
	Buyer               *Buyer
	Items               []ItemInput
	FulfillmentOptionID *string
	CouponCode          *string
}

// Create prices the requested items from the oracle, snapshots them into a
// new pending session and persists it. When an idempotency key has been
// seen before, the session it originally minted is returned instead of
// creating a second one.
func (e *Engine) Create(ctx context.Context, p CreateParams) (*CheckoutSession, error) {
	items, err := e.priceItems(ctx, p.Items)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	id := e.newID()
	if e.idemp != nil && p.IdempotencyKey != "" {
		for attempt := 1; ; attempt++ {
			existingID, created, err := e.idemp.Reserve(ctx, p.IdempotencyKey, id)
			if err != nil {
				return nil, fmt.Errorf("reserve idempotency key: %w", err)
			}
			if created {
				break
			}
			sess, err := e.store.Get(ctx, existingID)
			if err == nil {
				return sess, nil
			}
			if !errors.Is(err, ErrNotFound) {
				return nil, err
			}
			// A claimed key with no stored session means the original
			// create died between reserving and persisting. Revoke the
			// orphaned claim and take the key over.
			if attempt >= casAttempts {
				return nil, fmt.Errorf("idempotency key %q: reservation contention", p.IdempotencyKey)
			}
			if err := e.idemp.Release(ctx, p.IdempotencyKey, existingID); err != nil {
				return nil, fmt.Errorf("release idempotency key: %w", err)
			}
		}
	}

	now := e.nowFunc().UTC()
	sess := &CheckoutSession{
		ID:        id,
		Status:    StatusPending,
		Currency:  strings.ToUpper(p.Currency),
		LineItems: items,
		Totals:    ComputeTotals(items, nil, nil, e.cfg.TaxRateBP),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.store.Create(ctx, sess); err != nil {
		if e.idemp != nil && p.IdempotencyKey != "" {
			// The key must stay claimable for the client's retry. Best
			// effort only: a leftover claim is taken over above anyway.
			_ = e.idemp.Release(ctx, p.IdempotencyKey, id)
		}
		return nil, err
	}
	return sess, nil
}

// Get returns the current session snapshot.
func (e *Engine) Get(ctx context.Context, id string) (*CheckoutSession, error) {
	return e.store.Get(ctx, id)
}

// Update applies all supplied changes atomically against one session:
// buyer, line-item quantities, fulfillment selection and coupon code, in
// that order, then recomputes totals and persists. A rejected coupon does
// not fail the update; it is reported through the returned CouponRejection
// while every other change still lands.
func (e *Engine) Update(ctx context.Context, id string, p UpdateParams) (*CheckoutSession, *CouponRejection, error) {
	for attempt := 1; ; attempt++ {
		cur, err := e.store.Get(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		if cur.Status.Terminal() {
			return nil, nil, &InvalidStateError{ID: id, Status: cur.Status, Op: "update"}
		}

		next := cur.Clone()
		if p.Buyer != nil {
			b := *p.Buyer
			next.Buyer = &b
		}
		if err := e.applyItems(ctx, next, p.Items); err != nil {
			return nil, nil, err
		}
		if p.FulfillmentOptionID != nil {
			opt, ok := e.fulfillmentOption(*p.FulfillmentOptionID)
			if !ok {
				return nil, nil, fmt.Errorf("%w: %q", ErrUnknownFulfillment, *p.FulfillmentOptionID)
			}
			next.Fulfillment = &Fulfillment{OptionID: opt.ID, Label: opt.Label, CostCents: opt.CostCents}
		}

		rejection := e.resolveCoupon(next, p.CouponCode)
		next.Totals = ComputeTotals(next.LineItems, next.Discount, next.Fulfillment, e.cfg.TaxRateBP)
		e.deriveStatus(next)
		next.UpdatedAt = e.nowFunc().UTC()
		next.Version++

		err = e.store.CompareAndSwap(ctx, next, cur.Version)
		if err == nil {
			return next, rejection, nil
		}
		if errors.Is(err, ErrVersionConflict) && attempt < casAttempts {
			continue
		}
		return nil, nil, err
	}
}

// Complete re-validates every line item against the oracle and, on
// success, mints the order id and moves the session to completed. Oracle
// lookups run with no lock held; the compare-and-swap write detects any
// mutation that landed in the meantime and the whole validation is redone.
//
// Completing an already-completed session is idempotent: the existing
// order id is returned and the oracle is not consulted again. On any
// conflict the session is left fully unchanged.
func (e *Engine) Complete(ctx context.Context, id string) (*CheckoutSession, error) {
	for attempt := 1; ; attempt++ {
		cur, err := e.store.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if cur.Status == StatusCompleted {
			return cur, nil
		}
		if cur.Status == StatusCanceled {
			return nil, &InvalidStateError{ID: id, Status: cur.Status, Op: "complete"}
		}
		if len(cur.LineItems) == 0 {
			return nil, ErrEmptyCart
		}
		if cur.Fulfillment == nil {
			return nil, ErrFulfillmentMissing
		}

		var conflicts []ItemConflict
		for _, it := range cur.LineItems {
			q, err := e.oracle.Lookup(ctx, it.ProductID)
			if errors.Is(err, ErrUnknownProduct) {
				conflicts = append(conflicts, ItemConflict{ProductID: it.ProductID, Kind: ConflictStock})
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("oracle lookup %s: %w", it.ProductID, err)
			}
			if q.AvailableQty < it.Quantity {
				conflicts = append(conflicts, ItemConflict{
					ProductID:         it.ProductID,
					Kind:              ConflictStock,
					AvailableQty:      q.AvailableQty,
					CurrentPriceCents: q.UnitPriceCents,
				})
				continue
			}
			if drift := q.UnitPriceCents - it.UnitPriceCents; drift > e.cfg.PriceToleranceCents || drift < -e.cfg.PriceToleranceCents {
				conflicts = append(conflicts, ItemConflict{
					ProductID:         it.ProductID,
					Kind:              ConflictPrice,
					AvailableQty:      q.AvailableQty,
					CurrentPriceCents: q.UnitPriceCents,
				})
			}
		}
		if len(conflicts) > 0 {
			return nil, &InventoryConflictError{Conflicts: conflicts}
		}

		next := cur.Clone()
		next.Status = StatusCompleted
		next.OrderID = e.newID()
		next.UpdatedAt = e.nowFunc().UTC()
		next.Version++

		err = e.store.CompareAndSwap(ctx, next, cur.Version)
		if err == nil {
			if e.cfg.OnCompleted != nil {
				e.cfg.OnCompleted(ctx, next.Clone())
			}
			return next, nil
		}
		if errors.Is(err, ErrVersionConflict) && attempt < casAttempts {
			continue
		}
		return nil, err
	}
}

// Cancel moves any non-terminal session to canceled. Canceling an already
// canceled session succeeds; canceling a completed one fails.
func (e *Engine) Cancel(ctx context.Context, id string) (*CheckoutSession, error) {
	for attempt := 1; ; attempt++ {
		cur, err := e.store.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if cur.Status == StatusCanceled {
			return cur, nil
		}
		if cur.Status == StatusCompleted {
			return nil, &InvalidStateError{ID: id, Status: cur.Status, Op: "cancel"}
		}

		next := cur.Clone()
		next.Status = StatusCanceled
		next.UpdatedAt = e.nowFunc().UTC()
		next.Version++

		err = e.store.CompareAndSwap(ctx, next, cur.Version)
		if err == nil {
			return next, nil
		}
		if errors.Is(err, ErrVersionConflict) && attempt < casAttempts {
			continue
		}
		return nil, err
	}
}

// priceItems resolves create-time inputs into line items with price
// snapshots, merging duplicate product ids and dropping zero quantities.
func (e *Engine) priceItems(ctx context.Context, inputs []ItemInput) ([]LineItem, error) {
	items := make([]LineItem, 0, len(inputs))
	for _, in := range inputs {
		if in.Quantity <= 0 {
			continue
		}
		merged := false
		for i := range items {
			if items[i].ProductID == in.ProductID {
				items[i].Quantity += in.Quantity
				merged = true
				break
			}
		}
		if merged {
			continue
		}
		q, err := e.oracle.Lookup(ctx, in.ProductID)
		if err != nil {
			return nil, err
		}
		title := in.Title
		if title == "" {
			title = q.Title
		}
		items = append(items, LineItem{
			ProductID:      in.ProductID,
			Title:          title,
			Quantity:       in.Quantity,
			UnitPriceCents: q.UnitPriceCents,
		})
	}
	return items, nil
}

// applyItems applies absolute-quantity deltas in submission order. Existing
// lines keep their original price snapshot and position; new products are
// priced now and appended; zero quantity removes the line.
func (e *Engine) applyItems(ctx context.Context, sess *CheckoutSession, deltas []ItemInput) error {
	for _, d := range deltas {
		idx := -1
		for i, it := range sess.LineItems {
			if it.ProductID == d.ProductID {
				idx = i
				break
			}
		}
		switch {
		case d.Quantity <= 0:
			if idx >= 0 {
				sess.LineItems = append(sess.LineItems[:idx], sess.LineItems[idx+1:]...)
			}
		case idx >= 0:
			sess.LineItems[idx].Quantity = d.Quantity
		default:
			q, err := e.oracle.Lookup(ctx, d.ProductID)
			if err != nil {
				return err
			}
			title := d.Title
			if title == "" {
				title = q.Title
			}
			sess.LineItems = append(sess.LineItems, LineItem{
				ProductID:      d.ProductID,
				Title:          title,
				Quantity:       d.Quantity,
				UnitPriceCents: q.UnitPriceCents,
			})
		}
	}
	return nil
}

// resolveCoupon settles which discount the session carries after this
// update. A newly submitted invalid code only suppresses itself: any
// previously applied discount survives, but it is re-validated against the
// post-mutation subtotal and dropped (with a rejection) if the cart no
// longer qualifies. Totals must never carry a discount the validator
// would now refuse.
func (e *Engine) resolveCoupon(next *CheckoutSession, submitted *string) *CouponRejection {
	var subtotal int64
	for _, it := range next.LineItems {
		subtotal += it.UnitPriceCents * int64(it.Quantity)
	}
	var shipping int64
	if next.Fulfillment != nil {
		shipping = next.Fulfillment.CostCents
	}

	var rejection *CouponRejection
	if submitted != nil {
		code := strings.TrimSpace(*submitted)
		if code == "" {
			next.Discount = nil
			return nil
		}
		res := e.coupons.Validate(code, subtotal, shipping)
		if res.Valid {
			next.Discount = &Discount{Code: strings.ToUpper(code), Type: res.Type, Value: res.Value}
			return nil
		}
		rejection = &CouponRejection{Code: code, Reason: res.Reason}
	}

	if next.Discount != nil {
		res := e.coupons.Validate(next.Discount.Code, subtotal, shipping)
		if !res.Valid {
			if rejection == nil {
				rejection = &CouponRejection{Code: next.Discount.Code, Reason: res.Reason}
			}
			next.Discount = nil
		}
	}
	return rejection
}

// deriveStatus promotes pending to confirmed once both a buyer and a
// fulfillment selection are present. confirmed is derived, never requested.
func (e *Engine) deriveStatus(sess *CheckoutSession) {
	if sess.Status == StatusPending && sess.Buyer != nil && sess.Fulfillment != nil {
		sess.Status = StatusConfirmed
	}
}

func (e *Engine) fulfillmentOption(id string) (FulfillmentOption, bool) {
	for _, opt := range e.cfg.FulfillmentOptions {
		if opt.ID == id {
			return opt, true
		}
	}
	return FulfillmentOption{}, false
}
