package ledger

import "github.com/nile-pay/nile_pay/internal/account"

// SeedBalance is a test helper that sets an account balance directly when the
// ledger runs over the in-memory repository.
func SeedBalance(accounts *account.MemoryRepository, accountID string, amount int64) {
	_ = accounts.Mutate(func(m map[string]*account.Account) error {
		if acc, ok := m[accountID]; ok {
			acc.Balance = amount
		}
		return nil
	})
}
