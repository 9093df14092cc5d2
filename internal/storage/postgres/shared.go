package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/openvenue/gatepass/internal/domain"
)

// Helpers shared across repositories. Balances, accounts and the event log
// are touched by more than one component, always inside the caller's
// transaction.

func getBalance(ctx context.Context, pool *pgxpool.Pool, eventID, holder string, tierID int64) (int64, error) {
	const q = `SELECT COALESCE(SUM(quantity), 0) FROM balances WHERE event_id = $1 AND holder = $2 AND tier_id = $3`
	var qty int64
	if err := queryRow(ctx, pool, q, eventID, holder, tierID).Scan(&qty); err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return qty, nil
}

func addBalance(ctx context.Context, pool *pgxpool.Pool, eventID, holder string, tierID, quantity int64) error {
	const stmt = `
INSERT INTO balances (event_id, holder, tier_id, quantity)
VALUES ($1, $2, $3, $4)
ON CONFLICT (event_id, holder, tier_id)
DO UPDATE SET quantity = balances.quantity + EXCLUDED.quantity`

	if _, err := exec(ctx, pool, stmt, eventID, holder, tierID, quantity); err != nil {
		return fmt.Errorf("add balance: %w", err)
	}
	return nil
}

// removeBalance debits quantity from a holder's balance. The quantity guard
// is a precondition, never a clamp: a short balance fails the statement and
// the caller's whole transaction with it.
func removeBalance(ctx context.Context, pool *pgxpool.Pool, eventID, holder string, tierID, quantity int64) error {
	const stmt = `
UPDATE balances SET quantity = quantity - $4
WHERE event_id = $1 AND holder = $2 AND tier_id = $3 AND quantity >= $4`

	tag, err := exec(ctx, pool, stmt, eventID, holder, tierID, quantity)
	if err != nil {
		return fmt.Errorf("remove balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInsufficientTickets
	}

	const cleanup = `DELETE FROM balances WHERE event_id = $1 AND holder = $2 AND tier_id = $3 AND quantity = 0`
	if _, err := exec(ctx, pool, cleanup, eventID, holder, tierID); err != nil {
		return fmt.Errorf("remove balance cleanup: %w", err)
	}
	return nil
}

func creditAccount(ctx context.Context, pool *pgxpool.Pool, address string, amount int64) error {
	const stmt = `
INSERT INTO accounts (address, funds) VALUES ($1, $2)
ON CONFLICT (address) DO UPDATE SET funds = accounts.funds + EXCLUDED.funds`

	if _, err := exec(ctx, pool, stmt, address, amount); err != nil {
		return fmt.Errorf("credit account: %w", err)
	}
	return nil
}

func debitAccount(ctx context.Context, pool *pgxpool.Pool, address string, amount int64) error {
	const stmt = `UPDATE accounts SET funds = funds - $2 WHERE address = $1 AND funds >= $2`
	tag, err := exec(ctx, pool, stmt, address, amount)
	if err != nil {
		return fmt.Errorf("debit account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInsufficientFunds
	}
	return nil
}

func appendLog(ctx context.Context, pool *pgxpool.Pool, eventID, name string, payload any, now time.Time) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal log payload: %w", err)
	}

	const stmt = `INSERT INTO event_log (event_id, name, payload, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := exec(ctx, pool, stmt, eventID, name, raw, now); err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	return nil
}
