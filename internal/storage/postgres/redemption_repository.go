package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/openvenue/gatepass/internal/domain"
)

type RedemptionRepository struct {
	pool *pgxpool.Pool
}

func NewRedemptionRepository(pool *pgxpool.Pool) *RedemptionRepository {
	return &RedemptionRepository{pool: pool}
}

func (r *RedemptionRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *RedemptionRepository) GetEvent(ctx context.Context, id string) (domain.Event, error) {
	return NewEventRepository(r.pool).GetEvent(ctx, id)
}

func (r *RedemptionRepository) IsGatekeeper(ctx context.Context, eventID, address string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM gatekeepers WHERE event_id = $1 AND gatekeeper = $2)`
	var ok bool
	if err := queryRow(ctx, r.pool, q, eventID, address).Scan(&ok); err != nil {
		if isInvalidUUID(err) {
			return false, domain.ErrInvalidID
		}
		return false, fmt.Errorf("is gatekeeper: %w", err)
	}
	return ok, nil
}

// AddGatekeeper is an unconditional set: adding an existing gatekeeper is a
// no-op, not an error.
func (r *RedemptionRepository) AddGatekeeper(ctx context.Context, eventID, address string) error {
	const stmt = `INSERT INTO gatekeepers (event_id, gatekeeper) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := exec(ctx, r.pool, stmt, eventID, address); err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrEventNotFound
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("add gatekeeper: %w", err)
	}
	return nil
}

func (r *RedemptionRepository) RemoveGatekeeper(ctx context.Context, eventID, address string) error {
	const stmt = `DELETE FROM gatekeepers WHERE event_id = $1 AND gatekeeper = $2`
	if _, err := exec(ctx, r.pool, stmt, eventID, address); err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("remove gatekeeper: %w", err)
	}
	return nil
}

func (r *RedemptionRepository) GetNonce(ctx context.Context, eventID, holder string) (int64, error) {
	const q = `SELECT COALESCE((SELECT nonce FROM nonces WHERE event_id = $1 AND holder = $2), 0)`
	var nonce int64
	if err := queryRow(ctx, r.pool, q, eventID, holder).Scan(&nonce); err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		return 0, fmt.Errorf("get nonce: %w", err)
	}
	return nonce, nil
}

// GetNonceForUpdate materializes the holder's nonce row and locks it, so two
// gatekeepers presenting the same signature serialize and the loser fails
// verification against the incremented value.
func (r *RedemptionRepository) GetNonceForUpdate(ctx context.Context, eventID, holder string) (int64, error) {
	const ensure = `INSERT INTO nonces (event_id, holder, nonce) VALUES ($1, $2, 0) ON CONFLICT DO NOTHING`
	if _, err := exec(ctx, r.pool, ensure, eventID, holder); err != nil {
		if isForeignKeyViolation(err) {
			return 0, domain.ErrEventNotFound
		}
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		return 0, fmt.Errorf("ensure nonce: %w", err)
	}

	const q = `SELECT nonce FROM nonces WHERE event_id = $1 AND holder = $2 FOR UPDATE`
	var nonce int64
	if err := queryRow(ctx, r.pool, q, eventID, holder).Scan(&nonce); err != nil {
		return 0, fmt.Errorf("get nonce for update: %w", err)
	}
	return nonce, nil
}

func (r *RedemptionRepository) IncrementNonce(ctx context.Context, eventID, holder string) error {
	const stmt = `UPDATE nonces SET nonce = nonce + 1 WHERE event_id = $1 AND holder = $2`
	tag, err := exec(ctx, r.pool, stmt, eventID, holder)
	if err != nil {
		return fmt.Errorf("increment nonce: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("increment nonce: row missing")
	}
	return nil
}

func (r *RedemptionRepository) GetBalance(ctx context.Context, eventID, holder string, tierID int64) (int64, error) {
	return getBalance(ctx, r.pool, eventID, holder, tierID)
}

func (r *RedemptionRepository) RemoveBalance(ctx context.Context, eventID, holder string, tierID, quantity int64) error {
	return removeBalance(ctx, r.pool, eventID, holder, tierID, quantity)
}

// NextCredentialID allocates the next per-event credential id. The UPDATE
// locks the event row, so ids are dense and strictly increasing from 1.
func (r *RedemptionRepository) NextCredentialID(ctx context.Context, eventID string) (int64, error) {
	const stmt = `
UPDATE events SET next_credential_id = next_credential_id + 1
WHERE id = $1
RETURNING next_credential_id - 1`

	var id int64
	if err := queryRow(ctx, r.pool, stmt, eventID).Scan(&id); err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return 0, domain.ErrEventNotFound
		}
		return 0, fmt.Errorf("next credential id: %w", err)
	}
	return id, nil
}

func (r *RedemptionRepository) InsertCredential(ctx context.Context, cred domain.AccessCredential) error {
	const stmt = `
INSERT INTO credentials (event_id, id, owner, tier_id, minted_at)
VALUES ($1, $2, $3, $4, $5)`

	if _, err := exec(ctx, r.pool, stmt, cred.EventID, cred.ID, cred.Owner, cred.TierID, cred.MintedAt); err != nil {
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

func (r *RedemptionRepository) AppendLog(ctx context.Context, eventID, name string, payload any, now time.Time) error {
	return appendLog(ctx, r.pool, eventID, name, payload, now)
}
