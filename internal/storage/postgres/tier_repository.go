package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/openvenue/gatepass/internal/domain"
)

type TierRepository struct {
	pool *pgxpool.Pool
}

func NewTierRepository(pool *pgxpool.Pool) *TierRepository {
	return &TierRepository{pool: pool}
}

func (r *TierRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *TierRepository) GetEvent(ctx context.Context, id string) (domain.Event, error) {
	return NewEventRepository(r.pool).GetEvent(ctx, id)
}

func (r *TierRepository) CreateTier(ctx context.Context, tier domain.Tier) error {
	const stmt = `
INSERT INTO tiers (event_id, tier_id, name, price, max_supply, current_supply, active)
VALUES ($1, $2, $3, $4, $5, 0, TRUE)`

	_, err := exec(ctx, r.pool, stmt, tier.EventID, tier.TierID, tier.Name, tier.Price, tier.MaxSupply)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrTierAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return domain.ErrEventNotFound
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create tier: %w", err)
	}
	return nil
}

const tierColumns = `event_id, tier_id, name, price, max_supply, current_supply, active`

func scanTier(row pgx.Row) (domain.Tier, error) {
	var t domain.Tier
	err := row.Scan(&t.EventID, &t.TierID, &t.Name, &t.Price, &t.MaxSupply, &t.CurrentSupply, &t.Active)
	return t, err
}

func (r *TierRepository) GetTier(ctx context.Context, eventID string, tierID int64) (domain.Tier, error) {
	const q = `SELECT ` + tierColumns + ` FROM tiers WHERE event_id = $1 AND tier_id = $2`
	return r.getTier(ctx, q, eventID, tierID)
}

// GetTierForUpdate locks the tier row for the remainder of the transaction,
// serializing concurrent purchases and supply changes on the same tier.
func (r *TierRepository) GetTierForUpdate(ctx context.Context, eventID string, tierID int64) (domain.Tier, error) {
	const q = `SELECT ` + tierColumns + ` FROM tiers WHERE event_id = $1 AND tier_id = $2 FOR UPDATE`
	return r.getTier(ctx, q, eventID, tierID)
}

func (r *TierRepository) getTier(ctx context.Context, q, eventID string, tierID int64) (domain.Tier, error) {
	t, err := scanTier(queryRow(ctx, r.pool, q, eventID, tierID))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Tier{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Tier{}, domain.ErrTierNotFound
		}
		return domain.Tier{}, fmt.Errorf("get tier: %w", err)
	}
	return t, nil
}

func (r *TierRepository) ListTiers(ctx context.Context, eventID string) ([]domain.Tier, error) {
	const q = `SELECT ` + tierColumns + ` FROM tiers WHERE event_id = $1 ORDER BY tier_id`
	rows, err := query(ctx, r.pool, q, eventID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list tiers: %w", err)
	}
	defer rows.Close()

	var tiers []domain.Tier
	for rows.Next() {
		t, err := scanTier(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tier: %w", err)
		}
		tiers = append(tiers, t)
	}
	if err := rows.Err(); err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list tiers: %w", err)
	}
	return tiers, nil
}

func (r *TierRepository) UpdateTier(ctx context.Context, eventID string, tierID, newPrice, newMaxSupply int64) error {
	const stmt = `UPDATE tiers SET price = $3, max_supply = $4 WHERE event_id = $1 AND tier_id = $2`
	if _, err := exec(ctx, r.pool, stmt, eventID, tierID, newPrice, newMaxSupply); err != nil {
		return fmt.Errorf("update tier: %w", err)
	}
	return nil
}

func (r *TierRepository) SetTierActive(ctx context.Context, eventID string, tierID int64, active bool) error {
	const stmt = `UPDATE tiers SET active = $3 WHERE event_id = $1 AND tier_id = $2`
	if _, err := exec(ctx, r.pool, stmt, eventID, tierID, active); err != nil {
		return fmt.Errorf("set tier active: %w", err)
	}
	return nil
}

func (r *TierRepository) IncrementSupply(ctx context.Context, eventID string, tierID, quantity int64) error {
	const stmt = `
UPDATE tiers SET current_supply = current_supply + $3
WHERE event_id = $1 AND tier_id = $2 AND current_supply + $3 <= max_supply`

	tag, err := exec(ctx, r.pool, stmt, eventID, tierID, quantity)
	if err != nil {
		return fmt.Errorf("increment supply: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrExceedsMaxSupply
	}
	return nil
}

func (r *TierRepository) GetBalance(ctx context.Context, eventID, holder string, tierID int64) (int64, error) {
	return getBalance(ctx, r.pool, eventID, holder, tierID)
}

func (r *TierRepository) AddBalance(ctx context.Context, eventID, holder string, tierID, quantity int64) error {
	return addBalance(ctx, r.pool, eventID, holder, tierID, quantity)
}

func (r *TierRepository) RemoveBalance(ctx context.Context, eventID, holder string, tierID, quantity int64) error {
	return removeBalance(ctx, r.pool, eventID, holder, tierID, quantity)
}

func (r *TierRepository) DebitAccount(ctx context.Context, address string, amount int64) error {
	return debitAccount(ctx, r.pool, address, amount)
}

// CreditTreasury accrues purchase proceeds on the event row.
func (r *TierRepository) CreditTreasury(ctx context.Context, eventID string, amount int64) error {
	const stmt = `UPDATE events SET treasury = treasury + $2 WHERE id = $1`
	tag, err := exec(ctx, r.pool, stmt, eventID, amount)
	if err != nil {
		return fmt.Errorf("credit treasury: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

func (r *TierRepository) AppendLog(ctx context.Context, eventID, name string, payload any, now time.Time) error {
	return appendLog(ctx, r.pool, eventID, name, payload, now)
}
