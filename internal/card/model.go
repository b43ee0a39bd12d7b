package card

import (
	"fmt"
	"strconv"
	"time"
)

const (
	// StatusActive allows the card to authorize payments.
	StatusActive = "active"
	// StatusInactive blocks payments until the owner re-activates the card.
	StatusInactive = "inactive"

	// KindDebit marks the card-owner side of a payment.
	KindDebit = "debit"
	// KindCredit marks the payee side of a payment.
	KindCredit = "credit"

	// TxStatusComplete marks a committed card transaction.
	TxStatusComplete = "complete"
)

// Card is a payment card linked to exactly one account. Expiry is stored in
// MM/YY form as embossed on the card; comparisons always go through
// ParseExpiry so "12/20" versus "01/24" resolves by (year, month) rather than
// by string order.
type Card struct {
	ID        string    `json:"id"`
	Number    string    `json:"cardNumber"`
	CVV       string    `json:"cvv"`
	Expiry    string    `json:"expiryDate"`
	OwnerID   string    `json:"ownerId"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Transaction records one side of a card payment. Rows are immutable and are
// removed only when the owning card is deleted.
type Transaction struct {
	ID        string    `json:"id"`
	CardID    string    `json:"cardId"`
	Amount    int64     `json:"amount"`
	Kind      string    `json:"kind"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// ParseExpiry decodes an MM/YY expiry into a full year and month.
func ParseExpiry(expiry string) (year, month int, err error) {
	if len(expiry) != 5 || expiry[2] != '/' {
		return 0, 0, fmt.Errorf("expiry %q is not in MM/YY form", expiry)
	}
	month, err = strconv.Atoi(expiry[:2])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("expiry %q has invalid month", expiry)
	}
	yy, err := strconv.Atoi(expiry[3:])
	if err != nil {
		return 0, 0, fmt.Errorf("expiry %q has invalid year", expiry)
	}
	return 2000 + yy, month, nil
}

// Expired reports whether the card's (year, month) is strictly before now's.
// A card is valid through the last day of its expiry month.
func (c Card) Expired(now time.Time) (bool, error) {
	year, month, err := ParseExpiry(c.Expiry)
	if err != nil {
		return false, err
	}
	if year != now.Year() {
		return year < now.Year(), nil
	}
	return month < int(now.Month()), nil
}
