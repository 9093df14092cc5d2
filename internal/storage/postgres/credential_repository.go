package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/openvenue/gatepass/internal/domain"
)

type CredentialRepository struct {
	pool *pgxpool.Pool
}

func NewCredentialRepository(pool *pgxpool.Pool) *CredentialRepository {
	return &CredentialRepository{pool: pool}
}

func (r *CredentialRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

const credentialColumns = `event_id, id, owner, tier_id, minted_at`

func (r *CredentialRepository) GetCredential(ctx context.Context, eventID string, id int64) (domain.AccessCredential, error) {
	const q = `SELECT ` + credentialColumns + ` FROM credentials WHERE event_id = $1 AND id = $2`
	return r.getCredential(ctx, q, eventID, id)
}

func (r *CredentialRepository) GetCredentialForUpdate(ctx context.Context, eventID string, id int64) (domain.AccessCredential, error) {
	const q = `SELECT ` + credentialColumns + ` FROM credentials WHERE event_id = $1 AND id = $2 FOR UPDATE`
	return r.getCredential(ctx, q, eventID, id)
}

func (r *CredentialRepository) getCredential(ctx context.Context, q, eventID string, id int64) (domain.AccessCredential, error) {
	var c domain.AccessCredential
	err := queryRow(ctx, r.pool, q, eventID, id).Scan(&c.EventID, &c.ID, &c.Owner, &c.TierID, &c.MintedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.AccessCredential{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.AccessCredential{}, domain.ErrCredentialNotFound
		}
		return domain.AccessCredential{}, fmt.Errorf("get credential: %w", err)
	}
	return c, nil
}

func (r *CredentialRepository) UpdateCredentialOwner(ctx context.Context, eventID string, id int64, newOwner string) error {
	const stmt = `UPDATE credentials SET owner = $3 WHERE event_id = $1 AND id = $2`
	if _, err := exec(ctx, r.pool, stmt, eventID, id, newOwner); err != nil {
		return fmt.Errorf("update credential owner: %w", err)
	}
	return nil
}

func (r *CredentialRepository) DeleteCredential(ctx context.Context, eventID string, id int64) error {
	const stmt = `DELETE FROM credentials WHERE event_id = $1 AND id = $2`
	if _, err := exec(ctx, r.pool, stmt, eventID, id); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}
