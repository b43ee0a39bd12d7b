package card

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nile-pay/nile_pay/internal/account"
)

const maxGenerateAttempts = 5

// Registry owns the card lifecycle: issuance, lookup, status toggling, and
// cascading deletion. Each account holds at most one card.
type Registry struct {
	repo     Repository
	accounts account.Repository
}

// NewRegistry builds a card registry.
func NewRegistry(repo Repository, accounts account.Repository) *Registry {
	return &Registry{repo: repo, accounts: accounts}
}

// Issue creates a card for the account: a fresh Luhn-valid 16-digit number,
// a 3-digit cvv, and an expiry 1-60 months out. Number collisions with
// existing cards retry with a new number.
func (r *Registry) Issue(ctx context.Context, ownerID string) (Card, error) {
	if _, err := r.accounts.FindByID(ctx, ownerID); err != nil {
		return Card{}, err
	}
	if _, err := r.repo.FindByOwner(ctx, ownerID); err == nil {
		return Card{}, ErrExists
	} else if !errors.Is(err, ErrNotFound) {
		return Card{}, err
	}

	now := time.Now().UTC()
	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		c := Card{
			ID:        uuid.NewString(),
			Number:    generateNumber(),
			CVV:       generateCVV(),
			Expiry:    generateExpiry(now),
			OwnerID:   ownerID,
			Status:    StatusActive,
			CreatedAt: now,
		}
		err := r.repo.Create(ctx, c)
		if err == nil {
			return c, nil
		}
		if errors.Is(err, ErrExists) {
			// Either the owner raced a second issuance or the number
			// collided; re-checking the owner distinguishes the two.
			if _, ownerErr := r.repo.FindByOwner(ctx, ownerID); ownerErr == nil {
				return Card{}, ErrExists
			}
			continue
		}
		return Card{}, err
	}
	return Card{}, fmt.Errorf("could not generate a unique card number after %d attempts", maxGenerateAttempts)
}

// Get returns the account's card.
func (r *Registry) Get(ctx context.Context, ownerID string) (Card, error) {
	return r.repo.FindByOwner(ctx, ownerID)
}

// GetByNumber returns the card matching the given number.
func (r *Registry) GetByNumber(ctx context.Context, number string) (Card, error) {
	return r.repo.FindByNumber(ctx, number)
}

// Has reports whether the account owns a card.
func (r *Registry) Has(ctx context.Context, ownerID string) (bool, error) {
	if _, err := r.repo.FindByOwner(ctx, ownerID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Delete removes the account's card together with its transaction history.
func (r *Registry) Delete(ctx context.Context, ownerID string) error {
	return r.repo.Delete(ctx, ownerID)
}

// ToggleStatus flips the card between active and inactive, returning the new
// status.
func (r *Registry) ToggleStatus(ctx context.Context, ownerID string) (string, error) {
	c, err := r.repo.FindByOwner(ctx, ownerID)
	if err != nil {
		return "", err
	}

	status := StatusActive
	if c.Status == StatusActive {
		status = StatusInactive
	}
	if err := r.repo.SetStatus(ctx, c.ID, status); err != nil {
		return "", err
	}
	return status, nil
}

// Transactions returns the account's card history, newest first.
func (r *Registry) Transactions(ctx context.Context, ownerID string) ([]Transaction, error) {
	c, err := r.repo.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return r.repo.Transactions(ctx, c.ID)
}
