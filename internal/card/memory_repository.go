package card

import (
	"context"
	"sync"
)

// MemoryRepository is an in-memory card store for tests and dev mode.
type MemoryRepository struct {
	mu           sync.RWMutex
	cards        map[string]Card // keyed by card id
	transactions []Transaction
}

// NewMemoryRepository constructs an empty in-memory card repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{cards: make(map[string]Card)}
}

// Create registers a card, enforcing the one-card-per-account and unique
// number constraints.
func (r *MemoryRepository) Create(_ context.Context, c Card) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.cards {
		if existing.OwnerID == c.OwnerID || existing.Number == c.Number {
			return ErrExists
		}
	}
	r.cards[c.ID] = c
	return nil
}

// FindByOwner fetches the account's card.
func (r *MemoryRepository) FindByOwner(_ context.Context, ownerID string) (Card, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.cards {
		if c.OwnerID == ownerID {
			return c, nil
		}
	}
	return Card{}, ErrNotFound
}

// FindByNumber fetches a card by number.
func (r *MemoryRepository) FindByNumber(_ context.Context, number string) (Card, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.cards {
		if c.Number == number {
			return c, nil
		}
	}
	return Card{}, ErrNotFound
}

// Delete removes the account's card and its transaction history.
func (r *MemoryRepository) Delete(_ context.Context, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.cards {
		if c.OwnerID == ownerID {
			delete(r.cards, id)
			kept := r.transactions[:0]
			for _, t := range r.transactions {
				if t.CardID != id {
					kept = append(kept, t)
				}
			}
			r.transactions = kept
			return nil
		}
	}
	return ErrNotFound
}

// SetStatus updates the card's active flag.
func (r *MemoryRepository) SetStatus(_ context.Context, cardID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cards[cardID]
	if !ok {
		return ErrNotFound
	}
	c.Status = status
	r.cards[cardID] = c
	return nil
}

// AppendTransaction records one side of a card payment.
func (r *MemoryRepository) AppendTransaction(_ context.Context, t Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transactions = append(r.transactions, t)
	return nil
}

// Transactions returns the card's history, newest first.
func (r *MemoryRepository) Transactions(_ context.Context, cardID string) ([]Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Transaction
	for i := len(r.transactions) - 1; i >= 0; i-- {
		if r.transactions[i].CardID == cardID {
			out = append(out, r.transactions[i])
		}
	}
	return out, nil
}
