package app

import (
	"context"
	"time"

	"github.com/openvenue/gatepass/internal/clock"
	"github.com/openvenue/gatepass/internal/domain"
	"github.com/openvenue/gatepass/internal/metrics"
)

type TierRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetEvent(ctx context.Context, id string) (domain.Event, error)
	CreateTier(ctx context.Context, tier domain.Tier) error
	GetTier(ctx context.Context, eventID string, tierID int64) (domain.Tier, error)
	GetTierForUpdate(ctx context.Context, eventID string, tierID int64) (domain.Tier, error)
	ListTiers(ctx context.Context, eventID string) ([]domain.Tier, error)
	UpdateTier(ctx context.Context, eventID string, tierID, newPrice, newMaxSupply int64) error
	SetTierActive(ctx context.Context, eventID string, tierID int64, active bool) error
	IncrementSupply(ctx context.Context, eventID string, tierID, quantity int64) error
	GetBalance(ctx context.Context, eventID, holder string, tierID int64) (int64, error)
	AddBalance(ctx context.Context, eventID, holder string, tierID, quantity int64) error
	RemoveBalance(ctx context.Context, eventID, holder string, tierID, quantity int64) error
	DebitAccount(ctx context.Context, address string, amount int64) error
	CreditTreasury(ctx context.Context, eventID string, amount int64) error
	AppendLog(ctx context.Context, eventID, name string, payload any, now time.Time) error
}

// TierService owns tier lifecycle and fungible balance accounting. It is the
// leaf of the state machine: redemption and the marketplace both settle
// through its balance primitives, never the other way around.
type TierService struct {
	repo  TierRepository
	clock clock.Clock
}

func NewTierService(repo TierRepository, clk clock.Clock) *TierService {
	return &TierService{
		repo:  repo,
		clock: clk,
	}
}

type CreateTierInput struct {
	EventID   string
	Caller    string
	TierID    int64
	Name      string
	Price     int64
	MaxSupply int64
}

func (s *TierService) CreateTier(ctx context.Context, in CreateTierInput) (domain.Tier, error) {
	if in.MaxSupply <= 0 {
		return domain.Tier{}, domain.ErrZeroMaxSupply
	}

	now := s.clock.Now()
	tier := domain.Tier{
		EventID:   in.EventID,
		TierID:    in.TierID,
		Name:      in.Name,
		Price:     in.Price,
		MaxSupply: in.MaxSupply,
		Active:    true,
	}

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		event, err := s.repo.GetEvent(txCtx, in.EventID)
		if err != nil {
			return err
		}
		if event.Organizer != in.Caller {
			return domain.ErrNotOrganizer
		}
		if err := s.repo.CreateTier(txCtx, tier); err != nil {
			return err
		}
		return s.repo.AppendLog(txCtx, in.EventID, domain.LogTierCreated, tierCreatedPayload{
			TierID:    in.TierID,
			Name:      in.Name,
			Price:     in.Price,
			MaxSupply: in.MaxSupply,
		}, now)
	})
	if err != nil {
		return domain.Tier{}, err
	}
	return tier, nil
}

type UpdateTierInput struct {
	EventID      string
	Caller       string
	TierID       int64
	NewPrice     int64
	NewMaxSupply int64
}

// UpdateTier changes price and cap. The new cap may never undercut tickets
// already issued; price changes apply only to future purchases.
func (s *TierService) UpdateTier(ctx context.Context, in UpdateTierInput) (domain.Tier, error) {
	now := s.clock.Now()
	var result domain.Tier

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		event, err := s.repo.GetEvent(txCtx, in.EventID)
		if err != nil {
			return err
		}
		if event.Organizer != in.Caller {
			return domain.ErrNotOrganizer
		}

		tier, err := s.repo.GetTierForUpdate(txCtx, in.EventID, in.TierID)
		if err != nil {
			return err
		}
		if in.NewMaxSupply < tier.CurrentSupply {
			return domain.ErrCannotReduceBelowSupply
		}

		if err := s.repo.UpdateTier(txCtx, in.EventID, in.TierID, in.NewPrice, in.NewMaxSupply); err != nil {
			return err
		}

		tier.Price = in.NewPrice
		tier.MaxSupply = in.NewMaxSupply
		result = tier

		return s.repo.AppendLog(txCtx, in.EventID, domain.LogTierUpdated, tierUpdatedPayload{
			TierID:       in.TierID,
			NewPrice:     in.NewPrice,
			NewMaxSupply: in.NewMaxSupply,
		}, now)
	})
	if err != nil {
		return domain.Tier{}, err
	}
	return result, nil
}

type SetTierActiveInput struct {
	EventID string
	Caller  string
	TierID  int64
	Active  bool
}

// SetTierActive gates purchases only; existing balances, redemption and
// resale are unaffected.
func (s *TierService) SetTierActive(ctx context.Context, in SetTierActiveInput) error {
	now := s.clock.Now()

	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		event, err := s.repo.GetEvent(txCtx, in.EventID)
		if err != nil {
			return err
		}
		if event.Organizer != in.Caller {
			return domain.ErrNotOrganizer
		}
		if _, err := s.repo.GetTierForUpdate(txCtx, in.EventID, in.TierID); err != nil {
			return err
		}
		if err := s.repo.SetTierActive(txCtx, in.EventID, in.TierID, in.Active); err != nil {
			return err
		}
		return s.repo.AppendLog(txCtx, in.EventID, domain.LogTierActiveStatusChanged, tierActivePayload{
			TierID: in.TierID,
			Active: in.Active,
		}, now)
	})
}

type PurchaseInput struct {
	EventID  string
	Buyer    string
	TierID   int64
	Quantity int64
	Payment  int64
}

// Purchase issues quantity tickets against exact payment. Payment capture,
// supply increment and balance credit commit as one unit.
func (s *TierService) Purchase(ctx context.Context, in PurchaseInput) (domain.Balance, error) {
	if in.Quantity <= 0 {
		return domain.Balance{}, domain.ErrZeroQuantity
	}

	now := s.clock.Now()
	var result domain.Balance

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		tier, err := s.repo.GetTierForUpdate(txCtx, in.EventID, in.TierID)
		if err != nil {
			return err
		}
		if !tier.Active {
			return domain.ErrTierNotActive
		}
		if tier.CurrentSupply+in.Quantity > tier.MaxSupply {
			return domain.ErrExceedsMaxSupply
		}

		total, err := totalPrice(tier.Price, in.Quantity)
		if err != nil {
			return err
		}
		if in.Payment != total {
			return domain.ErrIncorrectPayment
		}

		if total > 0 {
			if err := s.repo.DebitAccount(txCtx, in.Buyer, total); err != nil {
				return err
			}
			if err := s.repo.CreditTreasury(txCtx, in.EventID, total); err != nil {
				return err
			}
		}
		if err := s.repo.IncrementSupply(txCtx, in.EventID, in.TierID, in.Quantity); err != nil {
			return err
		}
		if err := s.repo.AddBalance(txCtx, in.EventID, in.Buyer, in.TierID, in.Quantity); err != nil {
			return err
		}

		qty, err := s.repo.GetBalance(txCtx, in.EventID, in.Buyer, in.TierID)
		if err != nil {
			return err
		}
		result = domain.Balance{EventID: in.EventID, Holder: in.Buyer, TierID: in.TierID, Quantity: qty}

		return s.repo.AppendLog(txCtx, in.EventID, domain.LogTicketsPurchased, ticketsPurchasedPayload{
			Buyer:     in.Buyer,
			TierID:    in.TierID,
			Quantity:  in.Quantity,
			TotalPaid: total,
		}, now)
	})
	if err != nil {
		return domain.Balance{}, err
	}

	metrics.TicketsPurchased.Add(float64(in.Quantity))
	return result, nil
}

type TransferBalanceInput struct {
	EventID  string
	TierID   int64
	From     string
	To       string
	Quantity int64
}

// TransferBalance is the internal primitive behind redemption burns (To
// empty) and marketplace settlement. A short source balance fails the whole
// transfer; balances never go negative.
func (s *TierService) TransferBalance(ctx context.Context, in TransferBalanceInput) error {
	if in.Quantity <= 0 {
		return domain.ErrZeroQuantity
	}

	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.RemoveBalance(txCtx, in.EventID, in.From, in.TierID, in.Quantity); err != nil {
			return err
		}
		if in.To == "" {
			return nil
		}
		return s.repo.AddBalance(txCtx, in.EventID, in.To, in.TierID, in.Quantity)
	})
}

func (s *TierService) GetTier(ctx context.Context, eventID string, tierID int64) (domain.Tier, error) {
	return s.repo.GetTier(ctx, eventID, tierID)
}

func (s *TierService) ListTiers(ctx context.Context, eventID string) ([]domain.Tier, error) {
	return s.repo.ListTiers(ctx, eventID)
}

func (s *TierService) GetBalance(ctx context.Context, eventID, holder string, tierID int64) (domain.Balance, error) {
	qty, err := s.repo.GetBalance(ctx, eventID, holder, tierID)
	if err != nil {
		return domain.Balance{}, err
	}
	return domain.Balance{EventID: eventID, Holder: holder, TierID: tierID, Quantity: qty}, nil
}

type tierCreatedPayload struct {
	TierID    int64  `json:"tierId"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	MaxSupply int64  `json:"maxSupply"`
}

type tierUpdatedPayload struct {
	TierID       int64 `json:"tierId"`
	NewPrice     int64 `json:"newPrice"`
	NewMaxSupply int64 `json:"newMaxSupply"`
}

type tierActivePayload struct {
	TierID int64 `json:"tierId"`
	Active bool  `json:"active"`
}

type ticketsPurchasedPayload struct {
	Buyer     string `json:"buyer"`
	TierID    int64  `json:"tierId"`
	Quantity  int64  `json:"quantity"`
	TotalPaid int64  `json:"totalPaid"`
}
