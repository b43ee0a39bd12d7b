package account

import "time"

// Account is a registered wallet holder. Balances are held in piastres so all
// arithmetic stays integral. Accounts are created by the onboarding system;
// this service only reads identity fields and moves the balance.
type Account struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Balance   int64     `json:"balance"`
	IsAdmin   bool      `json:"isAdmin"`
	CreatedAt time.Time `json:"createdAt"`
}
