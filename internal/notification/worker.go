package notification

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	maxDeliveryAttempts = 5
	maxRetryDelay       = 5 * time.Minute
)

// Sender is the transport the worker delivers through. The production
// implementation lives with the mailer service; LoggerSender stands in for it
// in dev mode.
type Sender interface {
	Deliver(ctx context.Context, message Message) error
}

// LoggerSender logs deliveries instead of sending them.
type LoggerSender struct {
	logger *slog.Logger
}

// NewLoggerSender constructs a logging sender.
func NewLoggerSender(logger *slog.Logger) *LoggerSender {
	return &LoggerSender{logger: logger}
}

// Deliver writes the message to the structured logger.
func (s *LoggerSender) Deliver(_ context.Context, message Message) error {
	s.logger.Info("deliver notification", "kind", message.Kind, "recipient", message.Recipient)
	return nil
}

// Worker drains the notification outbox. One row is claimed at a time with
// FOR UPDATE SKIP LOCKED so multiple workers never double-deliver; failed
// deliveries retry with a capped exponential delay until the attempt limit.
type Worker struct {
	db       *pgxpool.Pool
	sender   Sender
	logger   *slog.Logger
	interval time.Duration
}

// NewWorker constructs an outbox worker.
func NewWorker(db *pgxpool.Pool, sender Sender, logger *slog.Logger, interval time.Duration) *Worker {
	return &Worker{db: db, sender: sender, logger: logger, interval: interval}
}

// Run polls until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for {
				processed, err := w.processOne(ctx)
				if err != nil {
					w.logger.Error("outbox pass failed", "error", err)
					break
				}
				if !processed {
					break
				}
			}
		}
	}
}

func (w *Worker) processOne(ctx context.Context) (bool, error) {
	tx, err := w.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	const claimQuery = `
        SELECT id, kind, recipient, body, attempts
        FROM notification_outbox
        WHERE status = $1 AND next_run_at <= NOW()
        ORDER BY created_at ASC
        LIMIT 1
        FOR UPDATE SKIP LOCKED`

	var (
		id       uuid.UUID
		msg      Message
		attempts int
	)
	if err := tx.QueryRow(ctx, claimQuery, outboxStatusPending).Scan(&id, &msg.Kind, &msg.Recipient, &msg.Body, &attempts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	if deliverErr := w.sender.Deliver(ctx, msg); deliverErr != nil {
		attempts++
		if attempts >= maxDeliveryAttempts {
			w.logger.Error("notification dropped after max attempts", "id", id, "kind", msg.Kind, "error", deliverErr)
			if _, err := tx.Exec(ctx, `UPDATE notification_outbox SET status = $1, attempts = $2 WHERE id = $3`,
				outboxStatusFailed, attempts, id); err != nil {
				return false, err
			}
		} else {
			w.logger.Warn("notification delivery failed, scheduling retry", "id", id, "attempts", attempts, "error", deliverErr)
			if _, err := tx.Exec(ctx, `UPDATE notification_outbox SET attempts = $1, next_run_at = $2 WHERE id = $3`,
				attempts, time.Now().UTC().Add(retryDelay(attempts)), id); err != nil {
				return false, err
			}
		}
	} else {
		if _, err := tx.Exec(ctx, `UPDATE notification_outbox SET status = $1, attempts = $2 WHERE id = $3`,
			outboxStatusSent, attempts+1, id); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func retryDelay(attempt int) time.Duration {
	delay := time.Duration(1<<uint(attempt)) * time.Second
	if delay > maxRetryDelay {
		return maxRetryDelay
	}
	return delay
}
