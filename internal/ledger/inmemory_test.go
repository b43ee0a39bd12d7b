package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/nile-pay/nile_pay/internal/account"
)

func newTestAccounts(t *testing.T) (*account.MemoryRepository, map[string]account.Account) {
	t.Helper()
	repo := account.NewMemoryRepository()
	seeded := map[string]account.Account{}
	for username, balance := range map[string]int64{"alice": 1_000, "bob": 500} {
		acc := account.Account{
			ID:       uuid.NewString(),
			Username: username,
			Email:    username + "@example.com",
		}
		if err := repo.Create(context.Background(), acc); err != nil {
			t.Fatalf("create %s: %v", username, err)
		}
		SeedBalance(repo, acc.ID, balance)
		acc.Balance = balance
		seeded[username] = acc
	}
	return repo, seeded
}

func balanceOf(t *testing.T, repo *account.MemoryRepository, id string) int64 {
	t.Helper()
	acc, err := repo.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("find %s: %v", id, err)
	}
	return acc.Balance
}

func TestMemoryStoreTransferMovesFunds(t *testing.T) {
	repo, accs := newTestAccounts(t)
	store := NewMemoryStore(repo)
	ctx := context.Background()

	record, err := store.Transfer(ctx, accs["alice"].ID, "bob", 300)
	if err != nil {
		t.Fatalf("transfer failed: %v", err)
	}

	if got := balanceOf(t, repo, accs["alice"].ID); got != 700 {
		t.Fatalf("expected sender balance 700, got %d", got)
	}
	if got := balanceOf(t, repo, accs["bob"].ID); got != 800 {
		t.Fatalf("expected receiver balance 800, got %d", got)
	}
	if record.Kind != KindTransfer || record.Status != StatusComplete {
		t.Fatalf("unexpected record: %+v", record)
	}
	if record.SenderUsername != "alice" || record.ReceiverUsername != "bob" {
		t.Fatalf("unexpected usernames on record: %+v", record)
	}
}

func TestMemoryStoreTransferRejections(t *testing.T) {
	repo, accs := newTestAccounts(t)
	store := NewMemoryStore(repo)
	ctx := context.Background()

	cases := []struct {
		name     string
		senderID string
		receiver string
		amount   int64
		want     error
	}{
		{"zero amount", accs["alice"].ID, "bob", 0, ErrInvalidAmount},
		{"negative amount", accs["alice"].ID, "bob", -5, ErrInvalidAmount},
		{"self transfer", accs["alice"].ID, "alice", 100, ErrSelfTransfer},
		{"insufficient funds", accs["alice"].ID, "bob", 2_000, ErrInsufficientFunds},
		{"unknown sender", uuid.NewString(), "bob", 100, ErrSenderNotFound},
		{"unknown receiver", accs["alice"].ID, "nobody", 100, ErrReceiverNotFound},
	}
	for _, tc := range cases {
		if _, err := store.Transfer(ctx, tc.senderID, tc.receiver, tc.amount); err != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	// Rejections leave no trace: balances and the journal stay untouched.
	if got := balanceOf(t, repo, accs["alice"].ID); got != 1_000 {
		t.Fatalf("sender balance changed after rejections: %d", got)
	}
	if got := balanceOf(t, repo, accs["bob"].ID); got != 500 {
		t.Fatalf("receiver balance changed after rejections: %d", got)
	}
	all, _ := store.All(ctx)
	if len(all) != 0 {
		t.Fatalf("expected empty journal, got %d records", len(all))
	}
}

func TestMemoryStoreConcurrentTransfersConserveTotal(t *testing.T) {
	repo, accs := newTestAccounts(t)
	store := NewMemoryStore(repo)
	ctx := context.Background()
	SeedBalance(repo, accs["alice"].ID, 100_000)

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Transfer(ctx, accs["alice"].ID, "bob", 500); err != nil {
				t.Errorf("transfer failed: %v", err)
			}
		}()
	}
	wg.Wait()

	total := balanceOf(t, repo, accs["alice"].ID) + balanceOf(t, repo, accs["bob"].ID)
	if total != 100_500 {
		t.Fatalf("funds not conserved, total=%d", total)
	}
	if got := balanceOf(t, repo, accs["bob"].ID); got != 500+workers*500 {
		t.Fatalf("unexpected receiver balance %d", got)
	}
}

func TestMemoryStoreAdjust(t *testing.T) {
	repo, accs := newTestAccounts(t)
	store := NewMemoryStore(repo)
	ctx := context.Background()
	adminID := uuid.NewString()

	res, err := store.Adjust(ctx, adminID, "root", "bob", 250, KindDeposit, true)
	if err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if res.NewBalance != 750 {
		t.Fatalf("expected new balance 750, got %d", res.NewBalance)
	}

	// Permissive policy lets a deduction overdraw the target.
	res, err = store.Adjust(ctx, adminID, "root", "bob", 1_000, KindDeduct, true)
	if err != nil {
		t.Fatalf("overdraft deduct failed: %v", err)
	}
	if res.NewBalance != -250 {
		t.Fatalf("expected new balance -250, got %d", res.NewBalance)
	}

	// Hardened policy rejects the same deduction and leaves the balance alone.
	if _, err := store.Adjust(ctx, adminID, "root", "alice", 2_000, KindDeduct, false); err != ErrInsufficientFunds {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if got := balanceOf(t, repo, accs["alice"].ID); got != 1_000 {
		t.Fatalf("balance changed after rejected deduct: %d", got)
	}

	if _, err := store.Adjust(ctx, adminID, "root", "nobody", 100, KindDeposit, true); err != ErrReceiverNotFound {
		t.Fatalf("expected receiver not found, got %v", err)
	}
}

func TestMemoryStoreHistoryNewestFirst(t *testing.T) {
	repo, accs := newTestAccounts(t)
	store := NewMemoryStore(repo)
	ctx := context.Background()

	first, _ := store.Transfer(ctx, accs["alice"].ID, "bob", 100)
	second, _ := store.Transfer(ctx, accs["bob"].ID, "alice", 50)

	history, err := store.History(ctx, accs["alice"].ID)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 records, got %d", len(history))
	}
	if history[0].ID != second.ID || history[1].ID != first.ID {
		t.Fatalf("history not newest first: %+v", history)
	}

	// A third account sees none of them.
	outsider := account.Account{ID: uuid.NewString(), Username: "carol"}
	if err := repo.Create(ctx, outsider); err != nil {
		t.Fatalf("create outsider: %v", err)
	}
	history, _ = store.History(ctx, outsider.ID)
	if len(history) != 0 {
		t.Fatalf("outsider sees %d records", len(history))
	}
}

func TestMemoryStoreSyncUsernames(t *testing.T) {
	repo, accs := newTestAccounts(t)
	store := NewMemoryStore(repo)
	ctx := context.Background()

	record, _ := store.Transfer(ctx, accs["alice"].ID, "bob", 100)

	if err := store.SyncUsernames(ctx, accs["alice"].ID, "alice_renamed"); err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	got, err := store.Find(ctx, record.ID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if got.SenderUsername != "alice_renamed" {
		t.Fatalf("sender username not synced: %q", got.SenderUsername)
	}
	if got.ReceiverUsername != "bob" {
		t.Fatalf("receiver username should be untouched: %q", got.ReceiverUsername)
	}
}
