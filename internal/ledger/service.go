package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nile-pay/nile_pay/internal/notification"
)

// Actor identifies the authenticated caller of a ledger operation.
type Actor struct {
	ID       string
	Username string
	Admin    bool
}

// Service orchestrates transfers and administrative adjustments on top of a
// ledger store. Notifications go out after the store has committed and never
// fail the operation.
type Service struct {
	store          Store
	notifier       notification.Notifier
	logger         *slog.Logger
	allowOverdraft bool
}

// NewService builds a ledger service.
func NewService(store Store, notifier notification.Notifier, logger *slog.Logger, allowOverdraft bool) *Service {
	return &Service{store: store, notifier: notifier, logger: logger, allowOverdraft: allowOverdraft}
}

// Transfer moves amount from the sender to the account owning receiverUsername.
func (s *Service) Transfer(ctx context.Context, senderID, receiverUsername string, amount int64) (Transaction, error) {
	if amount <= 0 {
		return Transaction{}, ErrInvalidAmount
	}

	record, err := s.store.Transfer(ctx, senderID, receiverUsername, amount)
	if err != nil {
		return Transaction{}, err
	}

	s.notify(ctx, notification.Message{
		Kind:      notification.KindTransfer,
		Recipient: record.ReceiverID,
		Body:      fmt.Sprintf("You received %d EGP from %s", record.Amount, record.SenderUsername),
	})
	return record, nil
}

// Adjust applies an administrative deposit or deduction to targetUsername.
// Only admin actors may adjust; deductions below zero are governed by the
// overdraft policy the service was built with.
func (s *Service) Adjust(ctx context.Context, actor Actor, targetUsername string, amount int64, kind string) (AdjustResult, error) {
	if !actor.Admin {
		return AdjustResult{}, ErrAdminOnly
	}
	if amount <= 0 {
		return AdjustResult{}, ErrInvalidAmount
	}

	result, err := s.store.Adjust(ctx, actor.ID, actor.Username, targetUsername, amount, kind, s.allowOverdraft)
	if err != nil {
		return AdjustResult{}, err
	}

	msgKind := notification.KindAdminDeposit
	if kind == KindDeduct {
		msgKind = notification.KindAdminDeduct
	}
	s.notify(ctx, notification.Message{
		Kind:      msgKind,
		Recipient: result.TargetID,
		Body:      result.Transaction.Description,
	})
	return result, nil
}

// History lists the account's transactions, newest first.
func (s *Service) History(ctx context.Context, accountID string) ([]Transaction, error) {
	return s.store.History(ctx, accountID)
}

// Find returns a single transaction, restricted to its participants.
func (s *Service) Find(ctx context.Context, requesterID, id string) (Transaction, error) {
	record, err := s.store.Find(ctx, id)
	if err != nil {
		return Transaction{}, err
	}
	if record.SenderID != requesterID && record.ReceiverID != requesterID {
		return Transaction{}, ErrNotParticipant
	}
	return record, nil
}

// All returns the complete journal for administrative review.
func (s *Service) All(ctx context.Context, actor Actor) ([]Transaction, error) {
	if !actor.Admin {
		return nil, ErrAdminOnly
	}
	return s.store.All(ctx)
}

// SyncUsernames is the hook the profile service calls after a rename so the
// denormalized display copies follow the account.
func (s *Service) SyncUsernames(ctx context.Context, accountID, username string) error {
	return s.store.SyncUsernames(ctx, accountID, username)
}

func (s *Service) notify(ctx context.Context, msg notification.Message) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, msg); err != nil && s.logger != nil {
		s.logger.Warn("notification dispatch failed", "kind", msg.Kind, "error", err)
	}
}
