package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "otp:v1:"
	codeSpace = 10000 // 4-digit numeric codes

	// retentionSlack keeps a code readable past its logical expiry so a late
	// payment attempt reports "expired" rather than "invalid".
	retentionSlack = 10 * time.Minute
)

// Code is an issued one-time passcode with its absolute expiry.
type Code struct {
	Value     string
	ExpiresAt time.Time
}

// Expired reports whether the code's validity window has passed.
func (c Code) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Issuer stores at most one outstanding passcode per card in Redis. Issuing
// overwrites any previous code, and Consume is a single GETDEL so two racing
// payment attempts can never both observe a valid code.
type Issuer struct {
	cache *redis.Client
	ttl   time.Duration
}

// NewIssuer builds an issuer whose codes stay valid for ttl.
func NewIssuer(cache *redis.Client, ttl time.Duration) *Issuer {
	return &Issuer{cache: cache, ttl: ttl}
}

// ErrUnavailable means the issuer has no backing store to hold codes in.
var ErrUnavailable = errors.New("otp: code store unavailable")

// Issue generates a fresh 4-digit code for the card, replacing any prior one.
func (i *Issuer) Issue(ctx context.Context, cardID string) (Code, error) {
	if i.cache == nil {
		return Code{}, ErrUnavailable
	}
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpace))
	if err != nil {
		return Code{}, fmt.Errorf("generate otp: %w", err)
	}

	code := Code{
		Value:     fmt.Sprintf("%04d", n.Int64()),
		ExpiresAt: time.Now().UTC().Add(i.ttl),
	}
	payload := code.Value + "|" + strconv.FormatInt(code.ExpiresAt.Unix(), 10)

	if err := i.cache.Set(ctx, keyPrefix+cardID, payload, i.ttl+retentionSlack).Err(); err != nil {
		return Code{}, fmt.Errorf("store otp: %w", err)
	}
	return code, nil
}

// Consume atomically reads and clears the card's outstanding code. ok is
// false when no code is outstanding. A consumed code is gone regardless of
// whether the caller's subsequent checks pass.
func (i *Issuer) Consume(ctx context.Context, cardID string) (Code, bool, error) {
	if i.cache == nil {
		return Code{}, false, ErrUnavailable
	}
	payload, err := i.cache.GetDel(ctx, keyPrefix+cardID).Result()
	if err != nil {
		if err == redis.Nil {
			return Code{}, false, nil
		}
		return Code{}, false, fmt.Errorf("consume otp: %w", err)
	}

	value, expiry, found := strings.Cut(payload, "|")
	if !found {
		return Code{}, false, fmt.Errorf("malformed otp payload for card %s", cardID)
	}
	unix, err := strconv.ParseInt(expiry, 10, 64)
	if err != nil {
		return Code{}, false, fmt.Errorf("malformed otp expiry for card %s", cardID)
	}
	return Code{Value: value, ExpiresAt: time.Unix(unix, 0).UTC()}, true, nil
}
