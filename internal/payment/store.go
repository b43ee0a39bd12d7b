package payment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nile-pay/nile_pay/internal/card"
)

// Store executes the financial leg of a card payment: debit the owner,
// credit the payee, and append the debit/credit record pair as one
// indivisible unit. The payee may equal the owner, in which case the balance
// is unchanged but both records are still written.
type Store interface {
	Execute(ctx context.Context, ownerID, payeeID, cardID string, amount int64) (debit, credit card.Transaction, err error)
}

// PostgresStore commits card payments in a single database transaction with
// both account rows locked in ascending id order.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed payment store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Execute applies the payment mutation atomically.
func (s *PostgresStore) Execute(ctx context.Context, ownerID, payeeID, cardID string, amount int64) (card.Transaction, card.Transaction, error) {
	if amount <= 0 {
		return card.Transaction{}, card.Transaction{}, ErrInvalidAmount
	}
	ownerUUID, err := uuid.Parse(ownerID)
	if err != nil {
		return card.Transaction{}, card.Transaction{}, ErrAccountNotFound
	}
	payeeUUID, err := uuid.Parse(payeeID)
	if err != nil {
		return card.Transaction{}, card.Transaction{}, ErrAccountNotFound
	}
	cardUUID, err := uuid.Parse(cardID)
	if err != nil {
		return card.Transaction{}, card.Transaction{}, ErrCardNotFound
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return card.Transaction{}, card.Transaction{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	ids := []uuid.UUID{ownerUUID}
	if payeeUUID != ownerUUID {
		ids = append(ids, payeeUUID)
		if ids[1].String() < ids[0].String() {
			ids[0], ids[1] = ids[1], ids[0]
		}
	}

	var ownerBalance int64
	for _, id := range ids {
		var balance int64
		if err := tx.QueryRow(ctx, `SELECT balance FROM accounts WHERE id = $1 FOR UPDATE`, id).Scan(&balance); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return card.Transaction{}, card.Transaction{}, ErrAccountNotFound
			}
			return card.Transaction{}, card.Transaction{}, err
		}
		if id == ownerUUID {
			ownerBalance = balance
		}
	}

	if ownerBalance < amount {
		return card.Transaction{}, card.Transaction{}, ErrInsufficientFunds
	}

	// Debit then credit unconditionally; for a self-payment the two updates
	// cancel out while the record pair is still written.
	if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = balance - $1 WHERE id = $2`, amount, ownerUUID); err != nil {
		return card.Transaction{}, card.Transaction{}, err
	}
	if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = balance + $1 WHERE id = $2`, amount, payeeUUID); err != nil {
		return card.Transaction{}, card.Transaction{}, err
	}

	now := time.Now().UTC()
	debit := card.Transaction{
		ID:        uuid.NewString(),
		CardID:    cardUUID.String(),
		Amount:    amount,
		Kind:      card.KindDebit,
		Status:    card.TxStatusComplete,
		CreatedAt: now,
	}
	credit := card.Transaction{
		ID:        uuid.NewString(),
		CardID:    cardUUID.String(),
		Amount:    amount,
		Kind:      card.KindCredit,
		Status:    card.TxStatusComplete,
		CreatedAt: now,
	}
	for _, record := range []card.Transaction{debit, credit} {
		if _, err := tx.Exec(ctx, `INSERT INTO card_transactions (id, card_id, amount, kind, status, created_at)
            VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.MustParse(record.ID), cardUUID, record.Amount, record.Kind, record.Status, record.CreatedAt); err != nil {
			return card.Transaction{}, card.Transaction{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return card.Transaction{}, card.Transaction{}, err
	}
	return debit, credit, nil
}
