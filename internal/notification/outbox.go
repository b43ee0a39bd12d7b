package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"
	outboxStatusFailed  = "failed"
)

// Outbox is a Notifier that persists messages to a Postgres table instead of
// dispatching them inline. A Worker drains the table, so delivery retries are
// decoupled from the financial path that enqueued the message.
type Outbox struct {
	db *pgxpool.Pool
}

// NewOutbox constructs a Postgres-backed outbox notifier.
func NewOutbox(db *pgxpool.Pool) *Outbox {
	return &Outbox{db: db}
}

// Send enqueues the message for asynchronous delivery.
func (o *Outbox) Send(ctx context.Context, message Message) error {
	_, err := o.db.Exec(ctx, `INSERT INTO notification_outbox
        (id, kind, recipient, body, status, attempts, next_run_at, created_at)
        VALUES ($1, $2, $3, $4, $5, 0, $6, $6)`,
		uuid.New(), message.Kind, message.Recipient, message.Body, outboxStatusPending, time.Now().UTC())
	return err
}
