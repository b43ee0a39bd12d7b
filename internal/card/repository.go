package card

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound indicates the account owns no card or the number is unknown.
	ErrNotFound = errors.New("card not found")

	// ErrExists indicates the account already owns a card, or a generated
	// number collided with an existing one.
	ErrExists = errors.New("card already exists")
)

const uniqueViolation = "23505"

// Repository persists cards and their transaction history.
type Repository interface {
	Create(ctx context.Context, c Card) error
	FindByOwner(ctx context.Context, ownerID string) (Card, error)
	FindByNumber(ctx context.Context, number string) (Card, error)
	Delete(ctx context.Context, ownerID string) error
	SetStatus(ctx context.Context, cardID, status string) error
	AppendTransaction(ctx context.Context, tx Transaction) error
	Transactions(ctx context.Context, cardID string) ([]Transaction, error)
}

// PostgresRepository stores cards in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed card repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a card. Unique violations on the owner or the card number
// surface as ErrExists so the registry can retry number generation.
func (r *PostgresRepository) Create(ctx context.Context, c Card) error {
	cardID, err := uuid.Parse(c.ID)
	if err != nil {
		return err
	}
	ownerID, err := uuid.Parse(c.OwnerID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO cards (id, card_number, cvv, expiry, owner_id, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		cardID, c.Number, c.CVV, c.Expiry, ownerID, c.Status, c.CreatedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrExists
	}
	return err
}

// FindByOwner fetches the account's card.
func (r *PostgresRepository) FindByOwner(ctx context.Context, ownerID string) (Card, error) {
	ownerUUID, err := uuid.Parse(ownerID)
	if err != nil {
		return Card{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, selectCardColumns+` WHERE owner_id = $1`, ownerUUID)
	return scanCard(row)
}

// FindByNumber fetches a card by its unique number.
func (r *PostgresRepository) FindByNumber(ctx context.Context, number string) (Card, error) {
	row := r.db.QueryRow(ctx, selectCardColumns+` WHERE card_number = $1`, number)
	return scanCard(row)
}

// Delete removes the account's card and its transaction history in one tx.
func (r *PostgresRepository) Delete(ctx context.Context, ownerID string) error {
	ownerUUID, err := uuid.Parse(ownerID)
	if err != nil {
		return ErrNotFound
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	var cardID uuid.UUID
	if err := tx.QueryRow(ctx, `DELETE FROM cards WHERE owner_id = $1 RETURNING id`, ownerUUID).Scan(&cardID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM card_transactions WHERE card_id = $1`, cardID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// SetStatus updates the card's active flag.
func (r *PostgresRepository) SetStatus(ctx context.Context, cardID, status string) error {
	id, err := uuid.Parse(cardID)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE cards SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendTransaction records one side of a card payment.
func (r *PostgresRepository) AppendTransaction(ctx context.Context, t Transaction) error {
	txID, err := uuid.Parse(t.ID)
	if err != nil {
		return err
	}
	cardID, err := uuid.Parse(t.CardID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO card_transactions (id, card_id, amount, kind, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`, txID, cardID, t.Amount, t.Kind, t.Status, t.CreatedAt.UTC())
	return err
}

// Transactions returns the card's history, newest first.
func (r *PostgresRepository) Transactions(ctx context.Context, cardID string) ([]Transaction, error) {
	id, err := uuid.Parse(cardID)
	if err != nil {
		return nil, ErrNotFound
	}
	rows, err := r.db.Query(ctx, `SELECT id, card_id, amount, kind, status, created_at
        FROM card_transactions WHERE card_id = $1 ORDER BY created_at DESC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var (
			t        Transaction
			txID     uuid.UUID
			parentID uuid.UUID
			created  time.Time
		)
		if err := rows.Scan(&txID, &parentID, &t.Amount, &t.Kind, &t.Status, &created); err != nil {
			return nil, err
		}
		t.ID = txID.String()
		t.CardID = parentID.String()
		t.CreatedAt = created.UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}

const selectCardColumns = `SELECT id, card_number, cvv, expiry, owner_id, status, created_at FROM cards`

func scanCard(row pgx.Row) (Card, error) {
	var (
		c       Card
		id      uuid.UUID
		ownerID uuid.UUID
		created time.Time
	)
	if err := row.Scan(&id, &c.Number, &c.CVV, &c.Expiry, &ownerID, &c.Status, &created); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Card{}, ErrNotFound
		}
		return Card{}, err
	}
	c.ID = id.String()
	c.OwnerID = ownerID.String()
	c.CreatedAt = created.UTC()
	return c, nil
}
