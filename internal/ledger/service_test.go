package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/nile-pay/nile_pay/internal/logging"
	"github.com/nile-pay/nile_pay/internal/notification"
)

type testNotifier struct {
	messages []notification.Message
}

func (n *testNotifier) Send(_ context.Context, msg notification.Message) error {
	n.messages = append(n.messages, msg)
	return nil
}

func TestServiceTransferNotifiesReceiver(t *testing.T) {
	repo, accs := newTestAccounts(t)
	notifier := &testNotifier{}
	svc := NewService(NewMemoryStore(repo), notifier, logging.Discard(), true)
	ctx := context.Background()

	record, err := svc.Transfer(ctx, accs["alice"].ID, "bob", 300)
	if err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	if len(notifier.messages) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.messages))
	}
	msg := notifier.messages[0]
	if msg.Kind != notification.KindTransfer {
		t.Fatalf("unexpected notification kind %q", msg.Kind)
	}
	if msg.Recipient != record.ReceiverID {
		t.Fatalf("notification addressed to %q, want receiver %q", msg.Recipient, record.ReceiverID)
	}
}

func TestServiceAdjustRequiresAdmin(t *testing.T) {
	repo, accs := newTestAccounts(t)
	store := NewMemoryStore(repo)
	svc := NewService(store, nil, logging.Discard(), true)
	ctx := context.Background()

	actor := Actor{ID: accs["alice"].ID, Username: "alice", Admin: false}
	if _, err := svc.Adjust(ctx, actor, "bob", 100, KindDeposit); err != ErrAdminOnly {
		t.Fatalf("expected admin gate, got %v", err)
	}
	all, _ := store.All(ctx)
	if len(all) != 0 {
		t.Fatalf("rejected adjustment left %d records", len(all))
	}
}

func TestServiceDeductOverdraftPolicy(t *testing.T) {
	repo, _ := newTestAccounts(t)
	admin := Actor{ID: uuid.NewString(), Username: "root", Admin: true}
	ctx := context.Background()

	permissive := NewService(NewMemoryStore(repo), nil, logging.Discard(), true)
	res, err := permissive.Adjust(ctx, admin, "bob", 800, KindDeduct)
	if err != nil {
		t.Fatalf("permissive deduct failed: %v", err)
	}
	if res.NewBalance != -300 {
		t.Fatalf("expected balance -300, got %d", res.NewBalance)
	}

	hardened := NewService(NewMemoryStore(repo), nil, logging.Discard(), false)
	if _, err := hardened.Adjust(ctx, admin, "bob", 800, KindDeduct); err != ErrInsufficientFunds {
		t.Fatalf("expected insufficient funds under hardened policy, got %v", err)
	}
}

func TestServiceFindParticipantOnly(t *testing.T) {
	repo, accs := newTestAccounts(t)
	svc := NewService(NewMemoryStore(repo), nil, logging.Discard(), true)
	ctx := context.Background()

	record, err := svc.Transfer(ctx, accs["alice"].ID, "bob", 100)
	if err != nil {
		t.Fatalf("transfer failed: %v", err)
	}

	if _, err := svc.Find(ctx, accs["alice"].ID, record.ID); err != nil {
		t.Fatalf("sender should see the transaction: %v", err)
	}
	if _, err := svc.Find(ctx, accs["bob"].ID, record.ID); err != nil {
		t.Fatalf("receiver should see the transaction: %v", err)
	}
	if _, err := svc.Find(ctx, uuid.NewString(), record.ID); err != ErrNotParticipant {
		t.Fatalf("expected participant gate, got %v", err)
	}
	if _, err := svc.Find(ctx, accs["alice"].ID, uuid.NewString()); err != ErrNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestServiceAllAdminOnly(t *testing.T) {
	repo, accs := newTestAccounts(t)
	svc := NewService(NewMemoryStore(repo), nil, logging.Discard(), true)
	ctx := context.Background()

	if _, err := svc.All(ctx, Actor{ID: accs["alice"].ID, Username: "alice"}); err != ErrAdminOnly {
		t.Fatalf("expected admin gate, got %v", err)
	}
	if _, err := svc.All(ctx, Actor{ID: uuid.NewString(), Username: "root", Admin: true}); err != nil {
		t.Fatalf("admin journal read failed: %v", err)
	}
}
