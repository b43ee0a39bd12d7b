package account

import (
	"context"
	"errors"
	"sync"
)

// MemoryRepository is an in-memory account store for tests and dev mode.
// Sibling in-memory stores mutate balances through Mutate so every money
// movement runs inside the same critical section.
type MemoryRepository struct {
	mu      sync.RWMutex
	storage map[string]*Account
}

// NewMemoryRepository constructs an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{storage: make(map[string]*Account)}
}

// Create registers an account record.
func (r *MemoryRepository) Create(_ context.Context, acc Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.storage[acc.ID]; exists {
		return errors.New("account exists")
	}
	for _, existing := range r.storage {
		if existing.Username == acc.Username {
			return errors.New("username taken")
		}
	}
	copied := acc
	r.storage[acc.ID] = &copied
	return nil
}

// FindByID fetches an account by identifier.
func (r *MemoryRepository) FindByID(_ context.Context, id string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acc, ok := r.storage[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return *acc, nil
}

// FindByUsername fetches an account by username.
func (r *MemoryRepository) FindByUsername(_ context.Context, username string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, acc := range r.storage {
		if acc.Username == username {
			return *acc, nil
		}
	}
	return Account{}, ErrNotFound
}

// Mutate runs fn with exclusive access to the backing map. The in-memory
// ledger and payment stores use it as their transaction boundary: either fn
// returns nil and its writes stand, or the caller must leave the map
// untouched on error.
func (r *MemoryRepository) Mutate(fn func(accounts map[string]*Account) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(r.storage)
}
