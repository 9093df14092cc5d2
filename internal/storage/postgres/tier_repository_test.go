package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/openvenue/gatepass/internal/domain"
	"github.com/openvenue/gatepass/internal/testutil"
)

func TestTierRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	repo := NewTierRepository(pool)
	eventID := testutil.InsertEvent(t, ctx, pool, "Fest", "0xorganizer", "0xroyalty", 500)

	t.Run("create and read tier", func(t *testing.T) {
		err := repo.CreateTier(ctx, domain.Tier{EventID: eventID, TierID: 1, Name: "GA", Price: 10, MaxSupply: 100})
		if err != nil {
			t.Fatalf("create tier: %v", err)
		}

		tier, err := repo.GetTier(ctx, eventID, 1)
		if err != nil {
			t.Fatalf("get tier: %v", err)
		}
		if tier.CurrentSupply != 0 || !tier.Active {
			t.Fatalf("new tier must start active with zero supply: %+v", tier)
		}

		if err := repo.CreateTier(ctx, domain.Tier{EventID: eventID, TierID: 1, Name: "GA", Price: 10, MaxSupply: 100}); err != domain.ErrTierAlreadyExists {
			t.Fatalf("expected ErrTierAlreadyExists, got %v", err)
		}
	})

	t.Run("unknown event and malformed id", func(t *testing.T) {
		missing := "3f9f3d3a-0000-0000-0000-000000000000"
		if err := repo.CreateTier(ctx, domain.Tier{EventID: missing, TierID: 1, MaxSupply: 10}); err != domain.ErrEventNotFound {
			t.Fatalf("expected ErrEventNotFound, got %v", err)
		}
		if _, err := repo.GetTier(ctx, "not-a-uuid", 1); err != domain.ErrInvalidID {
			t.Fatalf("expected ErrInvalidID, got %v", err)
		}
	})

	t.Run("increment supply enforces the cap", func(t *testing.T) {
		if err := repo.IncrementSupply(ctx, eventID, 1, 99); err != nil {
			t.Fatalf("increment: %v", err)
		}
		if err := repo.IncrementSupply(ctx, eventID, 1, 2); err != domain.ErrExceedsMaxSupply {
			t.Fatalf("expected ErrExceedsMaxSupply, got %v", err)
		}
		if err := repo.IncrementSupply(ctx, eventID, 1, 1); err != nil {
			t.Fatalf("fill to cap: %v", err)
		}

		tier, err := repo.GetTier(ctx, eventID, 1)
		if err != nil {
			t.Fatalf("get tier: %v", err)
		}
		if tier.CurrentSupply != 100 {
			t.Fatalf("expected supply 100, got %d", tier.CurrentSupply)
		}
	})

	t.Run("balances upsert and drain", func(t *testing.T) {
		if err := repo.AddBalance(ctx, eventID, "0xholder", 1, 3); err != nil {
			t.Fatalf("add balance: %v", err)
		}
		if err := repo.AddBalance(ctx, eventID, "0xholder", 1, 2); err != nil {
			t.Fatalf("add balance: %v", err)
		}

		got, err := repo.GetBalance(ctx, eventID, "0xholder", 1)
		if err != nil {
			t.Fatalf("get balance: %v", err)
		}
		if got != 5 {
			t.Fatalf("expected balance 5, got %d", got)
		}

		if err := repo.RemoveBalance(ctx, eventID, "0xholder", 1, 6); err != domain.ErrInsufficientTickets {
			t.Fatalf("expected ErrInsufficientTickets, got %v", err)
		}
		if err := repo.RemoveBalance(ctx, eventID, "0xholder", 1, 5); err != nil {
			t.Fatalf("remove balance: %v", err)
		}

		got, err = repo.GetBalance(ctx, eventID, "0xholder", 1)
		if err != nil {
			t.Fatalf("get balance: %v", err)
		}
		if got != 0 {
			t.Fatalf("expected zero balance, got %d", got)
		}
	})

	t.Run("treasury round trip", func(t *testing.T) {
		if err := repo.CreditTreasury(ctx, eventID, 40); err != nil {
			t.Fatalf("credit treasury: %v", err)
		}
		event, err := repo.GetEvent(ctx, eventID)
		if err != nil {
			t.Fatalf("get event: %v", err)
		}
		if event.Treasury != 40 {
			t.Fatalf("expected treasury 40, got %d", event.Treasury)
		}

		events := NewEventRepository(pool)
		if err := events.DebitTreasury(ctx, eventID, 41); err != domain.ErrInsufficientFunds {
			t.Fatalf("expected ErrInsufficientFunds, got %v", err)
		}
		if err := events.DebitTreasury(ctx, eventID, 40); err != nil {
			t.Fatalf("debit treasury: %v", err)
		}
	})

	t.Run("append log and page it", func(t *testing.T) {
		now := time.Now().UTC()
		for i := 0; i < 3; i++ {
			if err := repo.AppendLog(ctx, eventID, domain.LogTierUpdated, map[string]int{"i": i}, now); err != nil {
				t.Fatalf("append log: %v", err)
			}
		}

		events := NewEventRepository(pool)
		entries, err := events.ListLog(ctx, eventID, 0, 10)
		if err != nil {
			t.Fatalf("list log: %v", err)
		}
		if len(entries) != 3 {
			t.Fatalf("expected 3 entries, got %d", len(entries))
		}
		for i := 1; i < len(entries); i++ {
			if entries[i].Seq <= entries[i-1].Seq {
				t.Fatalf("log sequence not strictly increasing: %+v", entries)
			}
		}

		tail, err := events.ListLog(ctx, eventID, entries[0].Seq, 10)
		if err != nil {
			t.Fatalf("list log after seq: %v", err)
		}
		if len(tail) != 2 {
			t.Fatalf("expected 2 entries after the first, got %d", len(tail))
		}
	})

	t.Run("transaction rolls back on error", func(t *testing.T) {
		sentinel := domain.ErrIncorrectPayment
		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			if err := repo.AddBalance(txCtx, eventID, "0xrollback", 1, 7); err != nil {
				return err
			}
			return sentinel
		})
		if err != sentinel {
			t.Fatalf("expected sentinel error, got %v", err)
		}

		got, err := repo.GetBalance(ctx, eventID, "0xrollback", 1)
		if err != nil {
			t.Fatalf("get balance: %v", err)
		}
		if got != 0 {
			t.Fatalf("expected rolled-back balance 0, got %d", got)
		}
	})
}
