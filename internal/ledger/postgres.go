package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists balances and transaction records in PostgreSQL.
// Both account rows are locked FOR UPDATE in ascending id order so two
// opposing transfers cannot deadlock, and the record insert rides in the
// same database transaction as the balance updates.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed ledger store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

type lockedAccount struct {
	id       uuid.UUID
	username string
	balance  int64
}

func lockAccount(ctx context.Context, tx pgx.Tx, id uuid.UUID) (lockedAccount, error) {
	const query = `SELECT username, balance FROM accounts WHERE id = $1 FOR UPDATE`
	acc := lockedAccount{id: id}
	if err := tx.QueryRow(ctx, query, id).Scan(&acc.username, &acc.balance); err != nil {
		return lockedAccount{}, err
	}
	return acc, nil
}

// Transfer moves amount from the sender to the account owning receiverUsername.
func (s *PostgresStore) Transfer(ctx context.Context, senderID, receiverUsername string, amount int64) (Transaction, error) {
	if amount <= 0 {
		return Transaction{}, ErrInvalidAmount
	}
	senderUUID, err := uuid.Parse(senderID)
	if err != nil {
		return Transaction{}, ErrSenderNotFound
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Transaction{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	var receiverUUID uuid.UUID
	if err := tx.QueryRow(ctx, `SELECT id FROM accounts WHERE username = $1`, receiverUsername).Scan(&receiverUUID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrReceiverNotFound
		}
		return Transaction{}, err
	}
	if receiverUUID == senderUUID {
		return Transaction{}, ErrSelfTransfer
	}

	first, second := senderUUID, receiverUUID
	if second.String() < first.String() {
		first, second = second, first
	}

	locked := make(map[uuid.UUID]lockedAccount, 2)
	for _, id := range []uuid.UUID{first, second} {
		acc, err := lockAccount(ctx, tx, id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				if id == senderUUID {
					return Transaction{}, ErrSenderNotFound
				}
				return Transaction{}, ErrReceiverNotFound
			}
			return Transaction{}, err
		}
		locked[id] = acc
	}

	sender := locked[senderUUID]
	receiver := locked[receiverUUID]

	if sender.balance < amount {
		return Transaction{}, ErrInsufficientFunds
	}

	if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = balance - $1 WHERE id = $2`, amount, senderUUID); err != nil {
		return Transaction{}, err
	}
	if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = balance + $1 WHERE id = $2`, amount, receiverUUID); err != nil {
		return Transaction{}, err
	}

	record := Transaction{
		ID:               uuid.NewString(),
		SenderID:         senderUUID.String(),
		ReceiverID:       receiverUUID.String(),
		SenderUsername:   sender.username,
		ReceiverUsername: receiver.username,
		Amount:           amount,
		Kind:             KindTransfer,
		Status:           StatusComplete,
		Description:      fmt.Sprintf("Transfer of %d EGP from %s to %s", amount, sender.username, receiver.username),
		CreatedAt:        time.Now().UTC(),
	}
	if err := insertTransaction(ctx, tx, record); err != nil {
		return Transaction{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Transaction{}, err
	}
	return record, nil
}

// Adjust applies an administrative deposit or deduction to the target account.
func (s *PostgresStore) Adjust(ctx context.Context, actorID, actorUsername, targetUsername string, amount int64, kind string, allowOverdraft bool) (AdjustResult, error) {
	if amount <= 0 {
		return AdjustResult{}, ErrInvalidAmount
	}
	if kind != KindDeposit && kind != KindDeduct {
		return AdjustResult{}, fmt.Errorf("unsupported adjustment kind %q", kind)
	}
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return AdjustResult{}, fmt.Errorf("invalid actor id: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return AdjustResult{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	var (
		targetUUID uuid.UUID
		balance    int64
	)
	if err := tx.QueryRow(ctx, `SELECT id, balance FROM accounts WHERE username = $1 FOR UPDATE`, targetUsername).Scan(&targetUUID, &balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AdjustResult{}, ErrReceiverNotFound
		}
		return AdjustResult{}, err
	}

	newBalance := balance + amount
	if kind == KindDeduct {
		newBalance = balance - amount
		if newBalance < 0 && !allowOverdraft {
			return AdjustResult{}, ErrInsufficientFunds
		}
	}

	if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = $1 WHERE id = $2`, newBalance, targetUUID); err != nil {
		return AdjustResult{}, err
	}

	record := Transaction{
		ID:               uuid.NewString(),
		SenderID:         actorUUID.String(),
		ReceiverID:       targetUUID.String(),
		SenderUsername:   actorUsername,
		ReceiverUsername: targetUsername,
		Amount:           amount,
		Kind:             kind,
		Status:           StatusComplete,
		Description:      adjustDescription(kind, amount, actorUsername, targetUsername),
		CreatedAt:        time.Now().UTC(),
	}
	if err := insertTransaction(ctx, tx, record); err != nil {
		return AdjustResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return AdjustResult{}, err
	}

	return AdjustResult{
		Transaction:    record,
		TargetID:       targetUUID.String(),
		TargetUsername: targetUsername,
		NewBalance:     newBalance,
	}, nil
}

// History returns transactions where the account is sender or receiver, newest first.
func (s *PostgresStore) History(ctx context.Context, accountID string) ([]Transaction, error) {
	accUUID, err := uuid.Parse(accountID)
	if err != nil {
		return nil, ErrSenderNotFound
	}
	rows, err := s.db.Query(ctx, selectTransactionColumns+`
        WHERE sender_id = $1 OR receiver_id = $1 ORDER BY created_at DESC`, accUUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// Find fetches a single transaction record by id.
func (s *PostgresStore) Find(ctx context.Context, id string) (Transaction, error) {
	txUUID, err := uuid.Parse(id)
	if err != nil {
		return Transaction{}, ErrNotFound
	}
	row := s.db.QueryRow(ctx, selectTransactionColumns+` WHERE id = $1`, txUUID)
	record, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrNotFound
		}
		return Transaction{}, err
	}
	return record, nil
}

// All returns the complete journal, newest first.
func (s *PostgresStore) All(ctx context.Context) ([]Transaction, error) {
	rows, err := s.db.Query(ctx, selectTransactionColumns+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// SyncUsernames rewrites the denormalized username copies after an account
// renames itself. Called by the profile service; both sides update in one tx.
func (s *PostgresStore) SyncUsernames(ctx context.Context, accountID, username string) error {
	accUUID, err := uuid.Parse(accountID)
	if err != nil {
		return ErrSenderNotFound
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := tx.Exec(ctx, `UPDATE transactions SET sender_username = $1 WHERE sender_id = $2`, username, accUUID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE transactions SET receiver_username = $1 WHERE receiver_id = $2`, username, accUUID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const selectTransactionColumns = `SELECT id, sender_id, receiver_id, sender_username, receiver_username,
        amount, kind, status, description, created_at FROM transactions`

func insertTransaction(ctx context.Context, tx pgx.Tx, record Transaction) error {
	_, err := tx.Exec(ctx, `INSERT INTO transactions
        (id, sender_id, receiver_id, sender_username, receiver_username, amount, kind, status, description, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		uuid.MustParse(record.ID), uuid.MustParse(record.SenderID), uuid.MustParse(record.ReceiverID),
		record.SenderUsername, record.ReceiverUsername, record.Amount, record.Kind, record.Status,
		record.Description, record.CreatedAt)
	return err
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var (
		record     Transaction
		id         uuid.UUID
		senderID   uuid.UUID
		receiverID uuid.UUID
		createdAt  time.Time
	)
	if err := row.Scan(&id, &senderID, &receiverID, &record.SenderUsername, &record.ReceiverUsername,
		&record.Amount, &record.Kind, &record.Status, &record.Description, &createdAt); err != nil {
		return Transaction{}, err
	}
	record.ID = id.String()
	record.SenderID = senderID.String()
	record.ReceiverID = receiverID.String()
	record.CreatedAt = createdAt.UTC()
	return record, nil
}

func collectTransactions(rows pgx.Rows) ([]Transaction, error) {
	var records []Transaction
	for rows.Next() {
		record, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func adjustDescription(kind string, amount int64, actorUsername, targetUsername string) string {
	if kind == KindDeduct {
		return fmt.Sprintf("Deduct of %d EGP by %s from %s", amount, actorUsername, targetUsername)
	}
	return fmt.Sprintf("Deposit of %d EGP by %s to %s", amount, actorUsername, targetUsername)
}
