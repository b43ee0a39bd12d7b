package ledger

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidAmount rejects non-positive amounts before any state is touched.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrSenderNotFound occurs when the authenticated sender has no account record.
	ErrSenderNotFound = errors.New("sender not found")

	// ErrReceiverNotFound occurs when the named counterparty does not exist.
	ErrReceiverNotFound = errors.New("receiver not found")

	// ErrSelfTransfer rejects transfers where sender and receiver are the same account.
	ErrSelfTransfer = errors.New("cannot transfer to yourself")

	// ErrInsufficientFunds occurs when the source balance cannot cover the amount.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrAdminOnly indicates the caller lacks the admin capability.
	ErrAdminOnly = errors.New("admins only")

	// ErrNotFound indicates the requested transaction does not exist.
	ErrNotFound = errors.New("transaction not found")

	// ErrNotParticipant indicates the caller is neither sender nor receiver
	// of the requested transaction.
	ErrNotParticipant = errors.New("not a participant of this transaction")
)

const (
	// KindTransfer marks a peer-to-peer balance movement.
	KindTransfer = "transfer"
	// KindDeposit marks an administrative credit.
	KindDeposit = "deposit"
	// KindDeduct marks an administrative debit.
	KindDeduct = "deduct"

	// StatusPending marks a transaction awaiting completion.
	StatusPending = "pending"
	// StatusComplete marks a committed transaction.
	StatusComplete = "complete"
	// StatusFailed marks a transaction that did not apply.
	StatusFailed = "failed"
)

// Transaction is an append-only record of a balance-affecting operation.
// Usernames are denormalized display copies; SyncUsernames is the only write
// path that may touch a stored record.
type Transaction struct {
	ID               string    `json:"id"`
	SenderID         string    `json:"senderId"`
	ReceiverID       string    `json:"receiverId"`
	SenderUsername   string    `json:"senderUsername"`
	ReceiverUsername string    `json:"receiverUsername"`
	Amount           int64     `json:"amount"`
	Kind             string    `json:"kind"`
	Status           string    `json:"status"`
	Description      string    `json:"description"`
	CreatedAt        time.Time `json:"createdAt"`
}

// AdjustResult reports the outcome of an administrative adjustment.
type AdjustResult struct {
	Transaction    Transaction
	TargetID       string
	TargetUsername string
	NewBalance     int64
}

// Store is the contract implemented by ledger backends. Every mutating
// operation commits its balance changes and its transaction record as one
// indivisible unit; partial application must never be observable.
type Store interface {
	Transfer(ctx context.Context, senderID, receiverUsername string, amount int64) (Transaction, error)
	Adjust(ctx context.Context, actorID, actorUsername, targetUsername string, amount int64, kind string, allowOverdraft bool) (AdjustResult, error)
	History(ctx context.Context, accountID string) ([]Transaction, error)
	Find(ctx context.Context, id string) (Transaction, error)
	All(ctx context.Context) ([]Transaction, error)
	SyncUsernames(ctx context.Context, accountID, username string) error
}
