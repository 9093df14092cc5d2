package app

import (
	"context"
	"testing"
	"time"

	"github.com/openvenue/gatepass/internal/clock"
	"github.com/openvenue/gatepass/internal/domain"
)

func TestCredentialService_Transfer(t *testing.T) {
	t.Parallel()

	mintedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	setup := func(now time.Time) (*CredentialService, *fakeCredentialRepo) {
		repo := newFakeCredentialRepo()
		repo.credentials["event-1|1"] = &domain.AccessCredential{
			EventID: "event-1", ID: 1, Owner: "0xholder", TierID: 1, MintedAt: mintedAt,
		}
		return NewCredentialService(repo, clock.NewFixed(now)), repo
	}

	t.Run("blocked inside the 24h window", func(t *testing.T) {
		svc, repo := setup(mintedAt.Add(domain.TransferLockDuration - time.Second))

		err := svc.Transfer(context.Background(), TransferCredentialInput{
			EventID: "event-1", ID: 1, Caller: "0xholder", To: "0xbuyer",
		})
		if err != domain.ErrTransferLocked {
			t.Fatalf("expected ErrTransferLocked, got %v", err)
		}
		if repo.credentials["event-1|1"].Owner != "0xholder" {
			t.Fatalf("owner must be unchanged")
		}
	})

	t.Run("allowed at exactly mint+24h", func(t *testing.T) {
		svc, repo := setup(mintedAt.Add(domain.TransferLockDuration))

		err := svc.Transfer(context.Background(), TransferCredentialInput{
			EventID: "event-1", ID: 1, Caller: "0xholder", To: "0xbuyer",
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if repo.credentials["event-1|1"].Owner != "0xbuyer" {
			t.Fatalf("owner not updated")
		}
	})

	t.Run("only owner may transfer", func(t *testing.T) {
		svc, _ := setup(mintedAt.Add(48 * time.Hour))

		err := svc.Transfer(context.Background(), TransferCredentialInput{
			EventID: "event-1", ID: 1, Caller: "0xstranger", To: "0xbuyer",
		})
		if err != domain.ErrNotCredentialOwner {
			t.Fatalf("expected ErrNotCredentialOwner, got %v", err)
		}
	})

	t.Run("missing credential", func(t *testing.T) {
		svc, _ := setup(mintedAt)

		err := svc.Transfer(context.Background(), TransferCredentialInput{
			EventID: "event-1", ID: 9, Caller: "0xholder", To: "0xbuyer",
		})
		if err != domain.ErrCredentialNotFound {
			t.Fatalf("expected ErrCredentialNotFound, got %v", err)
		}
	})
}

func TestCredentialService_Burn(t *testing.T) {
	t.Parallel()

	mintedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("burn bypasses the transfer lock", func(t *testing.T) {
		repo := newFakeCredentialRepo()
		repo.credentials["event-1|1"] = &domain.AccessCredential{
			EventID: "event-1", ID: 1, Owner: "0xholder", MintedAt: mintedAt,
		}
		svc := NewCredentialService(repo, clock.NewFixed(mintedAt.Add(time.Minute)))

		err := svc.Burn(context.Background(), BurnCredentialInput{EventID: "event-1", ID: 1, Caller: "0xholder"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, ok := repo.credentials["event-1|1"]; ok {
			t.Fatalf("credential not deleted")
		}
	})

	t.Run("only owner may burn", func(t *testing.T) {
		repo := newFakeCredentialRepo()
		repo.credentials["event-1|1"] = &domain.AccessCredential{
			EventID: "event-1", ID: 1, Owner: "0xholder", MintedAt: mintedAt,
		}
		svc := NewCredentialService(repo, clock.NewFixed(mintedAt))

		err := svc.Burn(context.Background(), BurnCredentialInput{EventID: "event-1", ID: 1, Caller: "0xstranger"})
		if err != domain.ErrNotCredentialOwner {
			t.Fatalf("expected ErrNotCredentialOwner, got %v", err)
		}
	})
}

func TestCredentialService_IsTransferable(t *testing.T) {
	t.Parallel()

	mintedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeCredentialRepo()
	repo.credentials["event-1|1"] = &domain.AccessCredential{
		EventID: "event-1", ID: 1, Owner: "0xholder", MintedAt: mintedAt,
	}

	locked := NewCredentialService(repo, clock.NewFixed(mintedAt.Add(23*time.Hour)))
	ok, err := locked.IsTransferable(context.Background(), "event-1", 1)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if ok {
		t.Fatalf("expected locked credential")
	}

	unlocked := NewCredentialService(repo, clock.NewFixed(mintedAt.Add(25*time.Hour)))
	ok, err = unlocked.IsTransferable(context.Background(), "event-1", 1)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !ok {
		t.Fatalf("expected transferable credential")
	}

	unlock, err := unlocked.TransferUnlockTime(context.Background(), "event-1", 1)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !unlock.Equal(mintedAt.Add(domain.TransferLockDuration)) {
		t.Fatalf("expected unlock at mint+24h, got %v", unlock)
	}
}

type fakeCredentialRepo struct {
	credentials map[string]*domain.AccessCredential
}

func newFakeCredentialRepo() *fakeCredentialRepo {
	return &fakeCredentialRepo{credentials: make(map[string]*domain.AccessCredential)}
}

func credKey(eventID string, id int64) string {
	return tierKey(eventID, id)
}

func (f *fakeCredentialRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeCredentialRepo) GetCredential(_ context.Context, eventID string, id int64) (domain.AccessCredential, error) {
	c, ok := f.credentials[credKey(eventID, id)]
	if !ok {
		return domain.AccessCredential{}, domain.ErrCredentialNotFound
	}
	return *c, nil
}

func (f *fakeCredentialRepo) GetCredentialForUpdate(ctx context.Context, eventID string, id int64) (domain.AccessCredential, error) {
	return f.GetCredential(ctx, eventID, id)
}

func (f *fakeCredentialRepo) UpdateCredentialOwner(_ context.Context, eventID string, id int64, newOwner string) error {
	f.credentials[credKey(eventID, id)].Owner = newOwner
	return nil
}

func (f *fakeCredentialRepo) DeleteCredential(_ context.Context, eventID string, id int64) error {
	delete(f.credentials, credKey(eventID, id))
	return nil
}
