package payment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nile-pay/nile_pay/internal/account"
	"github.com/nile-pay/nile_pay/internal/card"
)

// MemoryStore executes payments against the in-memory account repository.
// Both balance updates and the record pair happen inside one Mutate call, so
// concurrent payments and transfers over the same repository serialize.
type MemoryStore struct {
	accounts *account.MemoryRepository
	cards    card.Repository
}

// NewMemoryStore constructs an in-memory payment store sharing the given
// account repository with the ledger.
func NewMemoryStore(accounts *account.MemoryRepository, cards card.Repository) *MemoryStore {
	return &MemoryStore{accounts: accounts, cards: cards}
}

// Execute applies the payment mutation atomically.
func (s *MemoryStore) Execute(ctx context.Context, ownerID, payeeID, cardID string, amount int64) (card.Transaction, card.Transaction, error) {
	if amount <= 0 {
		return card.Transaction{}, card.Transaction{}, ErrInvalidAmount
	}

	var debit, credit card.Transaction
	err := s.accounts.Mutate(func(accounts map[string]*account.Account) error {
		owner, ok := accounts[ownerID]
		if !ok {
			return ErrAccountNotFound
		}
		payee, ok := accounts[payeeID]
		if !ok {
			return ErrAccountNotFound
		}
		if owner.Balance < amount {
			return ErrInsufficientFunds
		}

		owner.Balance -= amount
		payee.Balance += amount

		now := time.Now().UTC()
		debit = card.Transaction{
			ID:        uuid.NewString(),
			CardID:    cardID,
			Amount:    amount,
			Kind:      card.KindDebit,
			Status:    card.TxStatusComplete,
			CreatedAt: now,
		}
		credit = card.Transaction{
			ID:        uuid.NewString(),
			CardID:    cardID,
			Amount:    amount,
			Kind:      card.KindCredit,
			Status:    card.TxStatusComplete,
			CreatedAt: now,
		}
		if err := s.cards.AppendTransaction(ctx, debit); err != nil {
			return err
		}
		return s.cards.AppendTransaction(ctx, credit)
	})
	if err != nil {
		return card.Transaction{}, card.Transaction{}, err
	}
	return debit, credit, nil
}
