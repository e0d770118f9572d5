// Package session provides SessionStore implementations: an in-process
// concurrent map for single-node deployments and tests, and a
// DynamoDB-backed store for the Lambda deployment.
package session

import (
	"context"
	"sync"

	"github.com/merchantkit/agent-checkout/internal/checkout"
)

// MemoryStore keeps sessions in a process-local map. All reads and writes
// copy, so a caller can never mutate stored state in place; concurrent
// read-modify-write sequences are serialized by the versioned
// compare-and-swap contract.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*checkout.CheckoutSession
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*checkout.CheckoutSession)}
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*checkout.CheckoutSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, checkout.ErrNotFound
	}
	return sess.Clone(), nil
}

func (s *MemoryStore) Create(ctx context.Context, sess *checkout.CheckoutSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.ID]; ok {
		return checkout.ErrAlreadyExists
	}
	s.sessions[sess.ID] = sess.Clone()
	return nil
}

func (s *MemoryStore) CompareAndSwap(ctx context.Context, sess *checkout.CheckoutSession, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.sessions[sess.ID]
	if !ok {
		return checkout.ErrNotFound
	}
	if cur.Version != expectedVersion {
		return checkout.ErrVersionConflict
	}
	s.sessions[sess.ID] = sess.Clone()
	return nil
}

// Delete evicts a session. Used by TTL sweeps; never exposed to callers.
func (s *MemoryStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len reports the number of stored sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
