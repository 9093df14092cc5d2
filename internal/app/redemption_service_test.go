package app

import (
	"context"
	"crypto/ecdsa"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/openvenue/gatepass/internal/claim"
	"github.com/openvenue/gatepass/internal/clock"
	"github.com/openvenue/gatepass/internal/domain"
)

func TestRedemptionService_Gatekeepers(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("add and remove are idempotent", func(t *testing.T) {
		repo := newFakeRedemptionRepo()
		svc := NewRedemptionService(repo, clock.NewFixed(now))

		in := GatekeeperInput{EventID: "event-1", Caller: "0xorganizer", Gatekeeper: "0xgate"}
		if err := svc.AddGatekeeper(context.Background(), in); err != nil {
			t.Fatalf("add: %v", err)
		}
		if err := svc.AddGatekeeper(context.Background(), in); err != nil {
			t.Fatalf("second add must be a no-op, got %v", err)
		}
		if !repo.gatekeepers["event-1|0xgate"] {
			t.Fatalf("gatekeeper not recorded")
		}

		if err := svc.RemoveGatekeeper(context.Background(), in); err != nil {
			t.Fatalf("remove: %v", err)
		}
		if err := svc.RemoveGatekeeper(context.Background(), in); err != nil {
			t.Fatalf("second remove must be a no-op, got %v", err)
		}
		if repo.gatekeepers["event-1|0xgate"] {
			t.Fatalf("gatekeeper not removed")
		}
	})

	t.Run("only organizer manages gatekeepers", func(t *testing.T) {
		repo := newFakeRedemptionRepo()
		svc := NewRedemptionService(repo, clock.NewFixed(now))

		in := GatekeeperInput{EventID: "event-1", Caller: "0xstranger", Gatekeeper: "0xgate"}
		if err := svc.AddGatekeeper(context.Background(), in); err != domain.ErrNotOrganizer {
			t.Fatalf("expected ErrNotOrganizer, got %v", err)
		}
		if err := svc.RemoveGatekeeper(context.Background(), in); err != domain.ErrNotOrganizer {
			t.Fatalf("expected ErrNotOrganizer, got %v", err)
		}
	})
}

func TestRedemptionService_Redeem(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	deadline := now.Add(time.Hour)

	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	holder := claim.AddressString(crypto.PubkeyToAddress(key.PublicKey))

	sign := func(t *testing.T, key *ecdsa.PrivateKey, eventID string, tierID, nonce int64, deadline time.Time) []byte {
		t.Helper()
		sig, err := claim.Sign(claim.Claim{
			EventID:      eventID,
			TicketHolder: crypto.PubkeyToAddress(key.PublicKey),
			TierID:       tierID,
			Nonce:        nonce,
			Deadline:     deadline.Unix(),
		}, key)
		if err != nil {
			t.Fatalf("sign claim: %v", err)
		}
		return sig
	}

	setup := func(balance int64) (*RedemptionService, *fakeRedemptionRepo) {
		repo := newFakeRedemptionRepo()
		repo.gatekeepers["event-1|0xgate"] = true
		if balance > 0 {
			repo.balances["event-1|"+holder+"|1"] = balance
		}
		return NewRedemptionService(repo, clock.NewFixed(now)), repo
	}

	t.Run("burns ticket, mints pass and bumps nonce", func(t *testing.T) {
		svc, repo := setup(1)
		sig := sign(t, key, "event-1", 1, 0, deadline)

		cred, err := svc.Redeem(context.Background(), RedeemInput{
			EventID:      "event-1",
			Caller:       "0xgate",
			TicketHolder: holder,
			TierID:       1,
			Deadline:     deadline,
			Signature:    sig,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cred.ID != 1 {
			t.Fatalf("expected first credential id 1, got %d", cred.ID)
		}
		if cred.Owner != holder || cred.TierID != 1 {
			t.Fatalf("unexpected credential: %+v", cred)
		}
		if !cred.MintedAt.Equal(now) {
			t.Fatalf("expected mintedAt %v, got %v", now, cred.MintedAt)
		}
		if repo.balances["event-1|"+holder+"|1"] != 0 {
			t.Fatalf("ticket not burned")
		}
		if repo.nonces["event-1|"+holder] != 1 {
			t.Fatalf("expected nonce 1, got %d", repo.nonces["event-1|"+holder])
		}
		if len(repo.credentials) != 1 {
			t.Fatalf("expected one stored credential")
		}
		wantLogs := []string{domain.LogTicketRedeemed, domain.LogAccessPassMinted}
		if len(repo.logNames) != 2 || repo.logNames[0] != wantLogs[0] || repo.logNames[1] != wantLogs[1] {
			t.Fatalf("expected logs %v, got %v", wantLogs, repo.logNames)
		}
	})

	t.Run("replayed signature fails after nonce advances", func(t *testing.T) {
		svc, repo := setup(2)
		sig := sign(t, key, "event-1", 1, 0, deadline)

		in := RedeemInput{
			EventID: "event-1", Caller: "0xgate", TicketHolder: holder,
			TierID: 1, Deadline: deadline, Signature: sig,
		}
		if _, err := svc.Redeem(context.Background(), in); err != nil {
			t.Fatalf("first redemption: %v", err)
		}
		if _, err := svc.Redeem(context.Background(), in); err != domain.ErrInvalidSignature {
			t.Fatalf("expected ErrInvalidSignature on replay, got %v", err)
		}
		if repo.balances["event-1|"+holder+"|1"] != 1 {
			t.Fatalf("replay must not burn a second ticket")
		}
	})

	t.Run("fresh signature with next nonce succeeds", func(t *testing.T) {
		svc, repo := setup(2)

		first := sign(t, key, "event-1", 1, 0, deadline)
		if _, err := svc.Redeem(context.Background(), RedeemInput{
			EventID: "event-1", Caller: "0xgate", TicketHolder: holder,
			TierID: 1, Deadline: deadline, Signature: first,
		}); err != nil {
			t.Fatalf("first redemption: %v", err)
		}

		second := sign(t, key, "event-1", 1, 1, deadline)
		cred, err := svc.Redeem(context.Background(), RedeemInput{
			EventID: "event-1", Caller: "0xgate", TicketHolder: holder,
			TierID: 1, Deadline: deadline, Signature: second,
		})
		if err != nil {
			t.Fatalf("second redemption: %v", err)
		}
		if cred.ID != 2 {
			t.Fatalf("expected credential id 2, got %d", cred.ID)
		}
		if repo.nonces["event-1|"+holder] != 2 {
			t.Fatalf("expected nonce 2, got %d", repo.nonces["event-1|"+holder])
		}
	})

	t.Run("rejects non-gatekeeper caller", func(t *testing.T) {
		svc, _ := setup(1)
		sig := sign(t, key, "event-1", 1, 0, deadline)

		_, err := svc.Redeem(context.Background(), RedeemInput{
			EventID: "event-1", Caller: "0xstranger", TicketHolder: holder,
			TierID: 1, Deadline: deadline, Signature: sig,
		})
		if err != domain.ErrNotGatekeeper {
			t.Fatalf("expected ErrNotGatekeeper, got %v", err)
		}
	})

	t.Run("rejects expired deadline", func(t *testing.T) {
		svc, repo := setup(1)
		past := now.Add(-time.Second)
		sig := sign(t, key, "event-1", 1, 0, past)

		_, err := svc.Redeem(context.Background(), RedeemInput{
			EventID: "event-1", Caller: "0xgate", TicketHolder: holder,
			TierID: 1, Deadline: past, Signature: sig,
		})
		if err != domain.ErrSignatureExpired {
			t.Fatalf("expected ErrSignatureExpired, got %v", err)
		}
		if repo.balances["event-1|"+holder+"|1"] != 1 {
			t.Fatalf("state must be unchanged")
		}
	})

	t.Run("deadline equal to now is still valid", func(t *testing.T) {
		svc, _ := setup(1)
		sig := sign(t, key, "event-1", 1, 0, now)

		_, err := svc.Redeem(context.Background(), RedeemInput{
			EventID: "event-1", Caller: "0xgate", TicketHolder: holder,
			TierID: 1, Deadline: now, Signature: sig,
		})
		if err != nil {
			t.Fatalf("expected no error at exact deadline, got %v", err)
		}
	})

	t.Run("rejects holder without tickets", func(t *testing.T) {
		svc, _ := setup(0)
		sig := sign(t, key, "event-1", 1, 0, deadline)

		_, err := svc.Redeem(context.Background(), RedeemInput{
			EventID: "event-1", Caller: "0xgate", TicketHolder: holder,
			TierID: 1, Deadline: deadline, Signature: sig,
		})
		if err != domain.ErrInsufficientTickets {
			t.Fatalf("expected ErrInsufficientTickets, got %v", err)
		}
	})

	t.Run("rejects signature from another key", func(t *testing.T) {
		svc, repo := setup(1)
		otherKey, err := crypto.GenerateKey()
		if err != nil {
			t.Fatalf("generate key: %v", err)
		}
		sig := sign(t, otherKey, "event-1", 1, 0, deadline)

		_, err = svc.Redeem(context.Background(), RedeemInput{
			EventID: "event-1", Caller: "0xgate", TicketHolder: holder,
			TierID: 1, Deadline: deadline, Signature: sig,
		})
		if err != domain.ErrInvalidSignature {
			t.Fatalf("expected ErrInvalidSignature, got %v", err)
		}
		if repo.nonces["event-1|"+holder] != 0 {
			t.Fatalf("nonce must not advance on failed verification")
		}
	})

	t.Run("rejects signature bound to a different event", func(t *testing.T) {
		svc, _ := setup(1)
		sig := sign(t, key, "event-2", 1, 0, deadline)

		_, err := svc.Redeem(context.Background(), RedeemInput{
			EventID: "event-1", Caller: "0xgate", TicketHolder: holder,
			TierID: 1, Deadline: deadline, Signature: sig,
		})
		if err != domain.ErrInvalidSignature {
			t.Fatalf("expected ErrInvalidSignature, got %v", err)
		}
	})
}

type fakeRedemptionRepo struct {
	events      map[string]domain.Event
	gatekeepers map[string]bool
	nonces      map[string]int64
	balances    map[string]int64
	credentials []domain.AccessCredential
	nextCredID  int64
	logNames    []string
}

func newFakeRedemptionRepo() *fakeRedemptionRepo {
	return &fakeRedemptionRepo{
		events: map[string]domain.Event{
			"event-1": {ID: "event-1", Organizer: "0xorganizer"},
		},
		gatekeepers: make(map[string]bool),
		nonces:      make(map[string]int64),
		balances:    make(map[string]int64),
		nextCredID:  1,
	}
}

func (f *fakeRedemptionRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeRedemptionRepo) GetEvent(_ context.Context, id string) (domain.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return domain.Event{}, domain.ErrEventNotFound
	}
	return e, nil
}

func (f *fakeRedemptionRepo) IsGatekeeper(_ context.Context, eventID, address string) (bool, error) {
	return f.gatekeepers[eventID+"|"+address], nil
}

func (f *fakeRedemptionRepo) AddGatekeeper(_ context.Context, eventID, address string) error {
	f.gatekeepers[eventID+"|"+address] = true
	return nil
}

func (f *fakeRedemptionRepo) RemoveGatekeeper(_ context.Context, eventID, address string) error {
	delete(f.gatekeepers, eventID+"|"+address)
	return nil
}

func (f *fakeRedemptionRepo) GetNonce(_ context.Context, eventID, holder string) (int64, error) {
	return f.nonces[eventID+"|"+holder], nil
}

func (f *fakeRedemptionRepo) GetNonceForUpdate(ctx context.Context, eventID, holder string) (int64, error) {
	return f.GetNonce(ctx, eventID, holder)
}

func (f *fakeRedemptionRepo) IncrementNonce(_ context.Context, eventID, holder string) error {
	f.nonces[eventID+"|"+holder]++
	return nil
}

func (f *fakeRedemptionRepo) GetBalance(_ context.Context, eventID, holder string, tierID int64) (int64, error) {
	return f.balances[balanceKey(eventID, holder, tierID)], nil
}

func (f *fakeRedemptionRepo) RemoveBalance(_ context.Context, eventID, holder string, tierID, quantity int64) error {
	key := balanceKey(eventID, holder, tierID)
	if f.balances[key] < quantity {
		return domain.ErrInsufficientTickets
	}
	f.balances[key] -= quantity
	return nil
}

func (f *fakeRedemptionRepo) NextCredentialID(_ context.Context, _ string) (int64, error) {
	id := f.nextCredID
	f.nextCredID++
	return id, nil
}

func (f *fakeRedemptionRepo) InsertCredential(_ context.Context, cred domain.AccessCredential) error {
	f.credentials = append(f.credentials, cred)
	return nil
}

func (f *fakeRedemptionRepo) AppendLog(_ context.Context, _, name string, _ any, _ time.Time) error {
	f.logNames = append(f.logNames, name)
	return nil
}
