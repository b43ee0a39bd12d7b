package account

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates no account matches the requested id or username.
var ErrNotFound = errors.New("account not found")

// Repository reads account records. Balance mutations happen exclusively
// through the ledger and payment stores so they stay atomic.
type Repository interface {
	Create(ctx context.Context, acc Account) error
	FindByID(ctx context.Context, id string) (Account, error)
	FindByUsername(ctx context.Context, username string) (Account, error)
}

// PostgresRepository stores accounts in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts an account record.
func (r *PostgresRepository) Create(ctx context.Context, acc Account) error {
	id, err := uuid.Parse(acc.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO accounts (id, username, email, balance, is_admin, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`, id, acc.Username, acc.Email, acc.Balance, acc.IsAdmin, acc.CreatedAt.UTC())
	return err
}

// FindByID fetches an account by identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (Account, error) {
	accID, err := uuid.Parse(id)
	if err != nil {
		return Account{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT id, username, email, balance, is_admin, created_at
        FROM accounts WHERE id = $1`, accID)
	return scanAccount(row)
}

// FindByUsername fetches an account by its unique username.
func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (Account, error) {
	row := r.db.QueryRow(ctx, `SELECT id, username, email, balance, is_admin, created_at
        FROM accounts WHERE username = $1`, username)
	return scanAccount(row)
}

func scanAccount(row pgx.Row) (Account, error) {
	var (
		acc       Account
		id        uuid.UUID
		createdAt time.Time
	)
	if err := row.Scan(&id, &acc.Username, &acc.Email, &acc.Balance, &acc.IsAdmin, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	acc.ID = id.String()
	acc.CreatedAt = createdAt.UTC()
	return acc, nil
}
