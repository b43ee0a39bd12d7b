package card

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nile-pay/nile_pay/internal/account"
)

func newTestRegistry(t *testing.T) (*Registry, *MemoryRepository, account.Account) {
	t.Helper()
	accounts := account.NewMemoryRepository()
	owner := account.Account{ID: uuid.NewString(), Username: "alice", Email: "alice@example.com"}
	if err := accounts.Create(context.Background(), owner); err != nil {
		t.Fatalf("create account: %v", err)
	}
	repo := NewMemoryRepository()
	return NewRegistry(repo, accounts), repo, owner
}

func TestRegistryIssueFormat(t *testing.T) {
	registry, _, owner := newTestRegistry(t)
	ctx := context.Background()

	c, err := registry.Issue(ctx, owner.ID)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if !ValidNumber(c.Number) {
		t.Fatalf("number %q is not 16 digits Luhn-valid", c.Number)
	}
	if len(c.CVV) != 3 {
		t.Fatalf("cvv %q is not 3 digits", c.CVV)
	}
	if c.Status != StatusActive {
		t.Fatalf("new card must start active, got %q", c.Status)
	}

	year, month, err := ParseExpiry(c.Expiry)
	if err != nil {
		t.Fatalf("expiry %q unparseable: %v", c.Expiry, err)
	}
	now := time.Now().UTC()
	monthsOut := (year-now.Year())*12 + month - int(now.Month())
	if monthsOut < 1 || monthsOut > 60 {
		t.Fatalf("expiry %q is %d months out, want 1-60", c.Expiry, monthsOut)
	}
}

func TestRegistryIssueOnePerAccount(t *testing.T) {
	registry, _, owner := newTestRegistry(t)
	ctx := context.Background()

	if _, err := registry.Issue(ctx, owner.ID); err != nil {
		t.Fatalf("first issue failed: %v", err)
	}
	if _, err := registry.Issue(ctx, owner.ID); err != ErrExists {
		t.Fatalf("expected ErrExists on second issue, got %v", err)
	}
	if _, err := registry.Issue(ctx, uuid.NewString()); err != account.ErrNotFound {
		t.Fatalf("expected account not found, got %v", err)
	}
}

func TestRegistryToggleStatus(t *testing.T) {
	registry, _, owner := newTestRegistry(t)
	ctx := context.Background()

	if _, err := registry.Issue(ctx, owner.ID); err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	status, err := registry.ToggleStatus(ctx, owner.ID)
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if status != StatusInactive {
		t.Fatalf("expected inactive, got %q", status)
	}
	status, _ = registry.ToggleStatus(ctx, owner.ID)
	if status != StatusActive {
		t.Fatalf("expected active after second toggle, got %q", status)
	}
}

func TestRegistryDeleteCascadesTransactions(t *testing.T) {
	registry, repo, owner := newTestRegistry(t)
	ctx := context.Background()

	c, err := registry.Issue(ctx, owner.ID)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	for _, kind := range []string{KindDebit, KindCredit} {
		err := repo.AppendTransaction(ctx, Transaction{
			ID:        uuid.NewString(),
			CardID:    c.ID,
			Amount:    100,
			Kind:      kind,
			Status:    TxStatusComplete,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("append transaction: %v", err)
		}
	}

	if err := registry.Delete(ctx, owner.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := registry.Get(ctx, owner.ID); err != ErrNotFound {
		t.Fatalf("card still present after delete: %v", err)
	}
	remaining, err := repo.Transactions(ctx, c.ID)
	if err != nil {
		t.Fatalf("transactions lookup: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected cascade delete, %d transactions remain", len(remaining))
	}

	// Deleting again reports not found.
	if err := registry.Delete(ctx, owner.ID); err != ErrNotFound {
		t.Fatalf("expected not found on repeat delete, got %v", err)
	}
}

func TestRegistryHas(t *testing.T) {
	registry, _, owner := newTestRegistry(t)
	ctx := context.Background()

	has, err := registry.Has(ctx, owner.ID)
	if err != nil || has {
		t.Fatalf("expected no card yet, has=%v err=%v", has, err)
	}
	if _, err := registry.Issue(ctx, owner.ID); err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	has, err = registry.Has(ctx, owner.ID)
	if err != nil || !has {
		t.Fatalf("expected card, has=%v err=%v", has, err)
	}
}
