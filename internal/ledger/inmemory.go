package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nile-pay/nile_pay/internal/account"
)

// MemoryStore is a concurrency-safe in-memory ledger for tests and dev mode.
// Balance mutations run inside account.MemoryRepository.Mutate so every money
// movement, including card payments sharing the same repository, serializes
// through one critical section.
type MemoryStore struct {
	accounts *account.MemoryRepository

	mu      sync.RWMutex
	records []Transaction
}

// NewMemoryStore builds a ledger store over the shared in-memory accounts.
func NewMemoryStore(accounts *account.MemoryRepository) *MemoryStore {
	return &MemoryStore{accounts: accounts}
}

// Transfer moves amount between two accounts and appends the record atomically.
func (s *MemoryStore) Transfer(_ context.Context, senderID, receiverUsername string, amount int64) (Transaction, error) {
	if amount <= 0 {
		return Transaction{}, ErrInvalidAmount
	}

	var record Transaction
	err := s.accounts.Mutate(func(accounts map[string]*account.Account) error {
		sender, ok := accounts[senderID]
		if !ok {
			return ErrSenderNotFound
		}
		var receiver *account.Account
		for _, acc := range accounts {
			if acc.Username == receiverUsername {
				receiver = acc
				break
			}
		}
		if receiver == nil {
			return ErrReceiverNotFound
		}
		if receiver.ID == sender.ID {
			return ErrSelfTransfer
		}
		if sender.Balance < amount {
			return ErrInsufficientFunds
		}

		sender.Balance -= amount
		receiver.Balance += amount

		record = Transaction{
			ID:               uuid.NewString(),
			SenderID:         sender.ID,
			ReceiverID:       receiver.ID,
			SenderUsername:   sender.Username,
			ReceiverUsername: receiver.Username,
			Amount:           amount,
			Kind:             KindTransfer,
			Status:           StatusComplete,
			Description:      fmt.Sprintf("Transfer of %d EGP from %s to %s", amount, sender.Username, receiver.Username),
			CreatedAt:        time.Now().UTC(),
		}
		s.append(record)
		return nil
	})
	if err != nil {
		return Transaction{}, err
	}
	return record, nil
}

// Adjust applies an administrative deposit or deduction.
func (s *MemoryStore) Adjust(_ context.Context, actorID, actorUsername, targetUsername string, amount int64, kind string, allowOverdraft bool) (AdjustResult, error) {
	if amount <= 0 {
		return AdjustResult{}, ErrInvalidAmount
	}
	if kind != KindDeposit && kind != KindDeduct {
		return AdjustResult{}, fmt.Errorf("unsupported adjustment kind %q", kind)
	}

	var result AdjustResult
	err := s.accounts.Mutate(func(accounts map[string]*account.Account) error {
		var target *account.Account
		for _, acc := range accounts {
			if acc.Username == targetUsername {
				target = acc
				break
			}
		}
		if target == nil {
			return ErrReceiverNotFound
		}

		newBalance := target.Balance + amount
		if kind == KindDeduct {
			newBalance = target.Balance - amount
			if newBalance < 0 && !allowOverdraft {
				return ErrInsufficientFunds
			}
		}
		target.Balance = newBalance

		record := Transaction{
			ID:               uuid.NewString(),
			SenderID:         actorID,
			ReceiverID:       target.ID,
			SenderUsername:   actorUsername,
			ReceiverUsername: target.Username,
			Amount:           amount,
			Kind:             kind,
			Status:           StatusComplete,
			Description:      adjustDescription(kind, amount, actorUsername, target.Username),
			CreatedAt:        time.Now().UTC(),
		}
		s.append(record)

		result = AdjustResult{
			Transaction:    record,
			TargetID:       target.ID,
			TargetUsername: target.Username,
			NewBalance:     newBalance,
		}
		return nil
	})
	if err != nil {
		return AdjustResult{}, err
	}
	return result, nil
}

// History returns the account's transactions, newest first. Records append in
// chronological order, so walking backwards yields the newest-first view.
func (s *MemoryStore) History(_ context.Context, accountID string) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Transaction
	for i := len(s.records) - 1; i >= 0; i-- {
		record := s.records[i]
		if record.SenderID == accountID || record.ReceiverID == accountID {
			out = append(out, record)
		}
	}
	return out, nil
}

// Find fetches a single record by id.
func (s *MemoryStore) Find(_ context.Context, id string) (Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, record := range s.records {
		if record.ID == id {
			return record, nil
		}
	}
	return Transaction{}, ErrNotFound
}

// All returns every record, newest first.
func (s *MemoryStore) All(_ context.Context) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Transaction, 0, len(s.records))
	for i := len(s.records) - 1; i >= 0; i-- {
		out = append(out, s.records[i])
	}
	return out, nil
}

// SyncUsernames rewrites the denormalized username copies for an account.
func (s *MemoryStore) SyncUsernames(_ context.Context, accountID, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].SenderID == accountID {
			s.records[i].SenderUsername = username
		}
		if s.records[i].ReceiverID == accountID {
			s.records[i].ReceiverUsername = username
		}
	}
	return nil
}

func (s *MemoryStore) append(record Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
}
