// Package idempotency maps create idempotency keys to the checkout session
// each key originally minted, so a replayed create returns the existing
// session instead of opening a second cart.
package idempotency

import (
	"context"
	"sync"
)

// MemoryIndex is the in-process index used for local runs and tests.
type MemoryIndex struct {
	mu   sync.Mutex
	keys map[string]string // idempotency key -> session id
}

// NewMemoryIndex returns an empty index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{keys: make(map[string]string)}
}

func (i *MemoryIndex) Reserve(ctx context.Context, key, sessionID string) (string, bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if existing, ok := i.keys[key]; ok {
		return existing, false, nil
	}
	i.keys[key] = sessionID
	return sessionID, true, nil
}

func (i *MemoryIndex) Release(ctx context.Context, key, sessionID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.keys[key] == sessionID {
		delete(i.keys, key)
	}
	return nil
}
