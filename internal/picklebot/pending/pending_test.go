package pending_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/genechuang/picklebot/internal/picklebot/pending"
	"github.com/genechuang/picklebot/internal/picklebot/store"
)

func newGateFixture(t *testing.T, ttl time.Duration) (*pending.Gate, *pending.Store) {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "picklebot-pending-test-*.db")
	if err != nil {
		t.Fatalf("temp db: %v", err)
	}
	f.Close()

	s, err := store.New(f.Name())
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	ps := pending.NewStore(s.DB())
	return pending.NewGate(ps, []byte("test-secret"), ttl), ps
}

func TestGateRequestAndGet(t *testing.T) {
	gate, ps := newGateFixture(t, 0)

	a, err := gate.Request(context.Background(), "book_court",
		map[string]string{"date": "2/4", "time": "7pm"}, "123@g.us", "alice")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if a.ID == "" {
		t.Fatal("expected non-empty token ID")
	}
	if a.Signature == "" {
		t.Fatal("expected signed token")
	}
	if !gate.Verify(a) {
		t.Error("signature should verify against the issuing gate")
	}

	got, err := ps.Get(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Intent != "book_court" {
		t.Errorf("intent: got %q", got.Intent)
	}
	if got.Status != pending.StatusPending {
		t.Errorf("status: got %q, want pending", got.Status)
	}
	if got.Signature != a.Signature {
		t.Error("persisted signature differs from issued one")
	}
	if !gate.Verify(got) {
		t.Error("persisted action should verify")
	}
}

func TestGateVerifyRejectsTampering(t *testing.T) {
	gate, _ := newGateFixture(t, 0)

	a, err := gate.Request(context.Background(), "create_poll", nil, "123@g.us", "alice")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}

	tampered := *a
	tampered.Intent = "send_reminders"
	if gate.Verify(&tampered) {
		t.Error("signature must not verify after the intent is changed")
	}
}

func TestGateCheckExpiry(t *testing.T) {
	gate, ps := newGateFixture(t, time.Millisecond)

	a, err := gate.Request(context.Background(), "send_reminders",
		map[string]string{"type": "vote"}, "123@g.us", "alice")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	n, err := gate.CheckExpiry(context.Background())
	if err != nil {
		t.Fatalf("CheckExpiry: %v", err)
	}
	if n != 1 {
		t.Errorf("expired count: got %d, want 1", n)
	}

	got, err := ps.Get(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != pending.StatusExpired {
		t.Errorf("status: got %q, want expired", got.Status)
	}
}
