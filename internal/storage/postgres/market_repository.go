package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/openvenue/gatepass/internal/domain"
)

type MarketRepository struct {
	pool *pgxpool.Pool
}

func NewMarketRepository(pool *pgxpool.Pool) *MarketRepository {
	return &MarketRepository{pool: pool}
}

func (r *MarketRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *MarketRepository) GetEvent(ctx context.Context, id string) (domain.Event, error) {
	return NewEventRepository(r.pool).GetEvent(ctx, id)
}

func (r *MarketRepository) CreateListing(ctx context.Context, listing domain.Listing) error {
	const stmt = `
INSERT INTO listings (id, event_id, seller, tier_id, quantity, quantity_remaining, price_per_unit, expires_at, active, created_at)
VALUES ($1, $2, $3, $4, $5, $5, $6, $7, TRUE, $8)`

	_, err := exec(ctx, r.pool, stmt,
		listing.ID, listing.EventID, listing.Seller, listing.TierID,
		listing.Quantity, listing.PricePerUnit, listing.ExpiresAt, listing.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrEventNotFound
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create listing: %w", err)
	}
	return nil
}

const listingColumns = `id, event_id, seller, tier_id, quantity, quantity_remaining, price_per_unit, expires_at, active, created_at`

func scanListing(row pgx.Row) (domain.Listing, error) {
	var l domain.Listing
	err := row.Scan(&l.ID, &l.EventID, &l.Seller, &l.TierID,
		&l.Quantity, &l.QuantityRemaining, &l.PricePerUnit, &l.ExpiresAt, &l.Active, &l.CreatedAt)
	return l, err
}

func (r *MarketRepository) GetListing(ctx context.Context, id string) (domain.Listing, error) {
	const q = `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`
	return r.getListing(ctx, q, id)
}

func (r *MarketRepository) GetListingForUpdate(ctx context.Context, id string) (domain.Listing, error) {
	const q = `SELECT ` + listingColumns + ` FROM listings WHERE id = $1 FOR UPDATE`
	return r.getListing(ctx, q, id)
}

func (r *MarketRepository) getListing(ctx context.Context, q, id string) (domain.Listing, error) {
	l, err := scanListing(queryRow(ctx, r.pool, q, id))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Listing{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Listing{}, domain.ErrListingNotFound
		}
		return domain.Listing{}, fmt.Errorf("get listing: %w", err)
	}
	return l, nil
}

func (r *MarketRepository) SetListingPrice(ctx context.Context, id string, newPrice int64) error {
	const stmt = `UPDATE listings SET price_per_unit = $2 WHERE id = $1`
	if _, err := exec(ctx, r.pool, stmt, id, newPrice); err != nil {
		return fmt.Errorf("set listing price: %w", err)
	}
	return nil
}

func (r *MarketRepository) DeactivateListing(ctx context.Context, id string) error {
	const stmt = `UPDATE listings SET active = FALSE WHERE id = $1`
	if _, err := exec(ctx, r.pool, stmt, id); err != nil {
		return fmt.Errorf("deactivate listing: %w", err)
	}
	return nil
}

// ReduceListingQuantity decrements quantity_remaining and deactivates the
// listing in the same statement when it reaches zero.
func (r *MarketRepository) ReduceListingQuantity(ctx context.Context, id string, quantity int64) error {
	const stmt = `
UPDATE listings
SET quantity_remaining = quantity_remaining - $2,
    active = quantity_remaining - $2 > 0
WHERE id = $1 AND quantity_remaining >= $2`

	tag, err := exec(ctx, r.pool, stmt, id, quantity)
	if err != nil {
		return fmt.Errorf("reduce listing quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInsufficientQuantity
	}
	return nil
}

func (r *MarketRepository) AddBalance(ctx context.Context, eventID, holder string, tierID, quantity int64) error {
	return addBalance(ctx, r.pool, eventID, holder, tierID, quantity)
}

func (r *MarketRepository) RemoveBalance(ctx context.Context, eventID, holder string, tierID, quantity int64) error {
	return removeBalance(ctx, r.pool, eventID, holder, tierID, quantity)
}

func (r *MarketRepository) DebitAccount(ctx context.Context, address string, amount int64) error {
	return debitAccount(ctx, r.pool, address, amount)
}

func (r *MarketRepository) CreditAccount(ctx context.Context, address string, amount int64) error {
	return creditAccount(ctx, r.pool, address, amount)
}

func (r *MarketRepository) AppendLog(ctx context.Context, eventID, name string, payload any, now time.Time) error {
	return appendLog(ctx, r.pool, eventID, name, payload, now)
}
