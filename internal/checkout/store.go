package checkout

import "context"

// SessionStore owns the map from session id to session record. Mutations
// go through versioned compare-and-swap so concurrent read-modify-write
// sequences against the same session can never lose an update, while
// operations on different sessions never serialize against each other.
//
// Implementations must treat the stored record as immutable: Get returns
// a copy, and writes persist a copy of the argument.
type SessionStore interface {
	// Get returns the current snapshot, or ErrNotFound.
	Get(ctx context.Context, id string) (*CheckoutSession, error)

	// Create persists a brand new session, or ErrAlreadyExists.
	Create(ctx context.Context, sess *CheckoutSession) error

	// CompareAndSwap persists sess only if the stored version still equals
	// expectedVersion. Returns ErrVersionConflict on a lost race and
	// ErrNotFound if the session has been evicted.
	CompareAndSwap(ctx context.Context, sess *CheckoutSession, expectedVersion int64) error
}

// Oracle is the read-only source of truth for current price and stock.
// The engine consults it to price items when they are added and to
// re-validate every line item at completion time.
type Oracle interface {
	// Lookup returns the current quote for a product, or ErrUnknownProduct.
	Lookup(ctx context.Context, productID string) (Quote, error)
}

// IdempotencyIndex remembers which session a create idempotency key minted.
type IdempotencyIndex interface {
	// Reserve claims key for sessionID. If the key was already claimed it
	// returns the original session id with created=false.
	Reserve(ctx context.Context, key, sessionID string) (existingID string, created bool, err error)

	// Release revokes a claim, but only while key still maps to sessionID.
	// Releasing an unclaimed or re-claimed key is a no-op.
	Release(ctx context.Context, key, sessionID string) error
}
