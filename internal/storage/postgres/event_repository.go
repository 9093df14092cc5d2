package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/openvenue/gatepass/internal/domain"
)

type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

func (r *EventRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

const eventColumns = `id, name, organizer, royalty_receiver, royalty_bps, treasury, created_at`

func scanEvent(row pgx.Row) (domain.Event, error) {
	var e domain.Event
	err := row.Scan(&e.ID, &e.Name, &e.Organizer, &e.RoyaltyReceiver, &e.RoyaltyBps, &e.Treasury, &e.CreatedAt)
	return e, err
}

func (r *EventRepository) CreateEvent(ctx context.Context, event domain.Event) error {
	const stmt = `
INSERT INTO events (id, name, organizer, royalty_receiver, royalty_bps, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := exec(ctx, r.pool, stmt,
		event.ID, event.Name, event.Organizer, event.RoyaltyReceiver, event.RoyaltyBps, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (r *EventRepository) GetEvent(ctx context.Context, id string) (domain.Event, error) {
	e, err := scanEvent(queryRow(ctx, r.pool, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Event{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Event{}, domain.ErrEventNotFound
		}
		return domain.Event{}, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

func (r *EventRepository) GetEventForUpdate(ctx context.Context, id string) (domain.Event, error) {
	e, err := scanEvent(queryRow(ctx, r.pool, `SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Event{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Event{}, domain.ErrEventNotFound
		}
		return domain.Event{}, fmt.Errorf("get event for update: %w", err)
	}
	return e, nil
}

// DebitTreasury withdraws from the event's accrued proceeds. A short
// treasury fails the statement, not clamps it.
func (r *EventRepository) DebitTreasury(ctx context.Context, id string, amount int64) error {
	const stmt = `UPDATE events SET treasury = treasury - $2 WHERE id = $1 AND treasury >= $2`
	tag, err := exec(ctx, r.pool, stmt, id, amount)
	if err != nil {
		return fmt.Errorf("debit treasury: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInsufficientFunds
	}
	return nil
}

func (r *EventRepository) CreditAccount(ctx context.Context, address string, amount int64) error {
	return creditAccount(ctx, r.pool, address, amount)
}

func (r *EventRepository) GetAccount(ctx context.Context, address string) (domain.Account, error) {
	const q = `SELECT address, funds FROM accounts WHERE address = $1`
	var a domain.Account
	if err := queryRow(ctx, r.pool, q, address).Scan(&a.Address, &a.Funds); err != nil {
		if err == pgx.ErrNoRows {
			return domain.Account{Address: address}, nil
		}
		return domain.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (r *EventRepository) ListLog(ctx context.Context, eventID string, afterSeq int64, limit int) ([]domain.LogEntry, error) {
	const q = `
SELECT seq, event_id, name, payload, created_at
FROM event_log
WHERE event_id = $1 AND seq > $2
ORDER BY seq
LIMIT $3`

	rows, err := query(ctx, r.pool, q, eventID, afterSeq, limit)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list log: %w", err)
	}
	defer rows.Close()

	var entries []domain.LogEntry
	for rows.Next() {
		var e domain.LogEntry
		if err := rows.Scan(&e.Seq, &e.EventID, &e.Name, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list log: %w", err)
	}
	return entries, nil
}
