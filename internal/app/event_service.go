package app

import (
	"context"

	"github.com/google/uuid"
	"github.com/openvenue/gatepass/internal/clock"
	"github.com/openvenue/gatepass/internal/domain"
)

type EventRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	CreateEvent(ctx context.Context, event domain.Event) error
	GetEvent(ctx context.Context, id string) (domain.Event, error)
	GetEventForUpdate(ctx context.Context, id string) (domain.Event, error)
	DebitTreasury(ctx context.Context, id string, amount int64) error
	CreditAccount(ctx context.Context, address string, amount int64) error
	GetAccount(ctx context.Context, address string) (domain.Account, error)
	ListLog(ctx context.Context, eventID string, afterSeq int64, limit int) ([]domain.LogEntry, error)
}

// EventService is the factory for event instances and the treasury/account
// surface around them. Every event constructed here shares the same
// template (lock duration, claim schema) but owns all of its state.
type EventService struct {
	repo  EventRepository
	clock clock.Clock
}

func NewEventService(repo EventRepository, clk clock.Clock) *EventService {
	return &EventService{
		repo:  repo,
		clock: clk,
	}
}

type CreateEventInput struct {
	Name            string
	Organizer       string
	RoyaltyReceiver string
	RoyaltyBps      int64
}

func (s *EventService) CreateEvent(ctx context.Context, in CreateEventInput) (domain.Event, error) {
	if in.Name == "" {
		return domain.Event{}, domain.ErrEventNameRequired
	}
	if in.RoyaltyBps < 0 || in.RoyaltyBps > domain.RoyaltyBpsDenominator {
		return domain.Event{}, domain.ErrInvalidRoyalty
	}

	event := domain.Event{
		ID:              uuid.NewString(),
		Name:            in.Name,
		Organizer:       in.Organizer,
		RoyaltyReceiver: in.RoyaltyReceiver,
		RoyaltyBps:      in.RoyaltyBps,
		CreatedAt:       s.clock.Now(),
	}

	if err := s.repo.CreateEvent(ctx, event); err != nil {
		return domain.Event{}, err
	}
	return event, nil
}

func (s *EventService) GetEvent(ctx context.Context, id string) (domain.Event, error) {
	return s.repo.GetEvent(ctx, id)
}

type WithdrawInput struct {
	EventID string
	Caller  string
	Amount  int64
}

// Withdraw moves accrued sale proceeds from the event treasury to the
// organizer's account. Both legs commit or neither does.
func (s *EventService) Withdraw(ctx context.Context, in WithdrawInput) error {
	if in.Amount <= 0 {
		return domain.ErrZeroAmount
	}

	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		event, err := s.repo.GetEventForUpdate(txCtx, in.EventID)
		if err != nil {
			return err
		}
		if event.Organizer != in.Caller {
			return domain.ErrNotOrganizer
		}
		if err := s.repo.DebitTreasury(txCtx, in.EventID, in.Amount); err != nil {
			return err
		}
		return s.repo.CreditAccount(txCtx, event.Organizer, in.Amount)
	})
}

func (s *EventService) Deposit(ctx context.Context, address string, amount int64) (domain.Account, error) {
	if amount <= 0 {
		return domain.Account{}, domain.ErrZeroAmount
	}
	if err := s.repo.CreditAccount(ctx, address, amount); err != nil {
		return domain.Account{}, err
	}
	return s.repo.GetAccount(ctx, address)
}

func (s *EventService) GetAccount(ctx context.Context, address string) (domain.Account, error) {
	return s.repo.GetAccount(ctx, address)
}

const defaultLogPageSize = 500

// Log returns ordered log entries for the external indexer.
func (s *EventService) Log(ctx context.Context, eventID string, afterSeq int64, limit int) ([]domain.LogEntry, error) {
	if limit <= 0 || limit > defaultLogPageSize {
		limit = defaultLogPageSize
	}
	if _, err := s.repo.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.repo.ListLog(ctx, eventID, afterSeq, limit)
}
