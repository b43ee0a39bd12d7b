package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nile-pay/nile_pay/internal/account"
	"github.com/nile-pay/nile_pay/internal/card"
	"github.com/nile-pay/nile_pay/internal/notification"
	"github.com/nile-pay/nile_pay/internal/otp"
)

var (
	// ErrCardNotFound means no registered card matches the given number.
	ErrCardNotFound = errors.New("payment: card not found")
	// ErrCardExpired means the card's expiry month has passed.
	ErrCardExpired = errors.New("payment: card expired")
	// ErrInvalidCardDetails means the supplied cvv or expiry does not match
	// the registered card.
	ErrInvalidCardDetails = errors.New("payment: invalid card details")
	// ErrCardInactive means the card is toggled off.
	ErrCardInactive = errors.New("payment: card inactive")
	// ErrInvalidOTP means no outstanding code exists or the value differs.
	ErrInvalidOTP = errors.New("payment: invalid otp")
	// ErrOTPExpired means the code matched but its validity window passed.
	ErrOTPExpired = errors.New("payment: otp expired")
	// ErrAccountNotFound means the card owner or the payee could not be
	// resolved.
	ErrAccountNotFound = errors.New("payment: account not found")
	// ErrInsufficientFunds means the owner's balance cannot cover the amount.
	ErrInsufficientFunds = errors.New("payment: insufficient funds")
	// ErrInvalidAmount means the amount is zero or negative.
	ErrInvalidAmount = errors.New("payment: invalid amount")
)

// Service drives the card payment flow: issuing one-time codes and settling
// payments against the ledger.
type Service struct {
	cards    *card.Registry
	accounts account.Repository
	codes    *otp.Issuer
	store    Store
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewService wires a payment service.
func NewService(cards *card.Registry, accounts account.Repository, codes *otp.Issuer, store Store, notifier notification.Notifier, logger *slog.Logger) *Service {
	return &Service{
		cards:    cards,
		accounts: accounts,
		codes:    codes,
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

// Input carries everything a payer submits for a card payment.
type Input struct {
	CardNumber    string
	CVV           string
	Expiry        string
	OTP           string
	Amount        int64
	PayeeUsername string
}

// Result reports the settled record pair of a payment.
type Result struct {
	Debit  card.Transaction `json:"debit"`
	Credit card.Transaction `json:"credit"`
}

// SendOTP issues a fresh code for the card and delivers it to the owner.
// Issuing overwrites any outstanding code, so at most one is valid per card.
func (s *Service) SendOTP(ctx context.Context, cardNumber string) error {
	c, err := s.cards.GetByNumber(ctx, cardNumber)
	if err != nil {
		if errors.Is(err, card.ErrNotFound) {
			return ErrCardNotFound
		}
		return err
	}
	owner, err := s.accounts.FindByID(ctx, c.OwnerID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return ErrAccountNotFound
		}
		return err
	}

	code, err := s.codes.Issue(ctx, c.ID)
	if err != nil {
		return err
	}

	// Delivery failure is surfaced to the caller here, unlike ledger
	// notifications: a payer who never receives the code cannot proceed.
	return s.notifier.Send(ctx, notification.Message{
		Kind:      notification.KindOTP,
		Recipient: owner.ID,
		Body: fmt.Sprintf("Your NilePay payment code is %s. It expires at %s.",
			code.Value, code.ExpiresAt.UTC().Format(time.RFC3339)),
	})
}

// Pay validates the submitted card credentials and code, then settles the
// payment. Validation short-circuits in a fixed order so the caller always
// learns the first failing check. The consumed code stays consumed even when
// a later check fails.
func (s *Service) Pay(ctx context.Context, in Input) (Result, error) {
	if in.Amount <= 0 {
		return Result{}, ErrInvalidAmount
	}

	c, err := s.cards.GetByNumber(ctx, in.CardNumber)
	if err != nil {
		if errors.Is(err, card.ErrNotFound) {
			return Result{}, ErrCardNotFound
		}
		return Result{}, err
	}

	now := time.Now().UTC()
	expired, err := c.Expired(now)
	if err != nil {
		return Result{}, err
	}
	if expired {
		return Result{}, ErrCardExpired
	}
	if c.CVV != in.CVV || c.Expiry != in.Expiry {
		return Result{}, ErrInvalidCardDetails
	}
	if c.Status != card.StatusActive {
		return Result{}, ErrCardInactive
	}

	code, ok, err := s.codes.Consume(ctx, c.ID)
	if err != nil {
		return Result{}, err
	}
	if !ok || code.Value != in.OTP {
		return Result{}, ErrInvalidOTP
	}
	if code.Expired(now) {
		return Result{}, ErrOTPExpired
	}

	owner, err := s.accounts.FindByID(ctx, c.OwnerID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return Result{}, ErrAccountNotFound
		}
		return Result{}, err
	}
	payee, err := s.accounts.FindByUsername(ctx, in.PayeeUsername)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return Result{}, ErrAccountNotFound
		}
		return Result{}, err
	}
	if owner.Balance < in.Amount {
		return Result{}, ErrInsufficientFunds
	}

	debit, credit, err := s.store.Execute(ctx, owner.ID, payee.ID, c.ID, in.Amount)
	if err != nil {
		return Result{}, err
	}

	s.notify(ctx, notification.Message{
		Kind:      notification.KindCardPayment,
		Recipient: owner.ID,
		Body: fmt.Sprintf("Payment of %d EGP from card ending %s to %s",
			in.Amount, lastFour(c.Number), payee.Username),
	})
	return Result{Debit: debit, Credit: credit}, nil
}

func (s *Service) notify(ctx context.Context, message notification.Message) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, message); err != nil {
		s.logger.Warn("payment notification failed", "kind", message.Kind, "error", err)
	}
}

func lastFour(number string) string {
	if len(number) < 4 {
		return number
	}
	return number[len(number)-4:]
}
