package checkout

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound means the session id is unknown or the session was evicted.
	ErrNotFound = errors.New("checkout session not found")

	// ErrAlreadyExists means a session with the same id is already stored.
	ErrAlreadyExists = errors.New("checkout session already exists")

	// ErrVersionConflict means a compare-and-swap lost to a concurrent writer.
	ErrVersionConflict = errors.New("session version conflict")

	// ErrEmptyCart means a create or complete was attempted with no line items.
	ErrEmptyCart = errors.New("cart has no line items")

	// ErrFulfillmentMissing means completion was attempted before a shipping
	// method was selected.
	ErrFulfillmentMissing = errors.New("no fulfillment selection")

	// ErrUnknownFulfillment means the requested option id is not in the menu.
	ErrUnknownFulfillment = errors.New("unknown fulfillment option")

	// ErrUnknownProduct means the oracle has no record of a product id.
	ErrUnknownProduct = errors.New("unknown product")
)

// InvalidStateError reports an operation attempted against a session whose
// status does not permit it (terminal, or completing a canceled cart).
type InvalidStateError struct {
	ID     string
	Status Status
	Op     string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s session %s in status %s", e.Op, e.ID, e.Status)
}

// Conflict kinds reported at completion time.
const (
	ConflictStock ConflictKind = "stock"
	ConflictPrice ConflictKind = "price"
)

type ConflictKind string

// ItemConflict names one line item that failed completion-time validation.
type ItemConflict struct {
	ProductID         string
	Kind              ConflictKind
	AvailableQty      int
	CurrentPriceCents int64
}

// InventoryConflictError carries every offending line item so the caller
// can adjust the cart and retry. The session is left untouched.
type InventoryConflictError struct {
	Conflicts []ItemConflict
}

func (e *InventoryConflictError) Error() string {
	parts := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		parts = append(parts, fmt.Sprintf("%s (%s)", c.ProductID, c.Kind))
	}
	return "inventory conflict: " + strings.Join(parts, ", ")
}

// Coupon rejection reasons.
const (
	RejectUnknownCode   = "unknown_code"
	RejectMinimumNotMet = "minimum_not_met"
)

// CouponRejection is a non-fatal detail attached to an otherwise successful
// update: the named code was refused but every other change was applied.
type CouponRejection struct {
	Code   string
	Reason string
}
