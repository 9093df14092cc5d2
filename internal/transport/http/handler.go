// Package http exposes the service over a chi router. Handlers decode and
// validate requests, delegate to the application services and translate
// domain errors to the JSON error envelope.
package http

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/openvenue/gatepass/internal/app"
	"github.com/openvenue/gatepass/internal/domain"
)

type EventService interface {
	CreateEvent(ctx context.Context, in app.CreateEventInput) (domain.Event, error)
	GetEvent(ctx context.Context, id string) (domain.Event, error)
	Withdraw(ctx context.Context, in app.WithdrawInput) error
	Deposit(ctx context.Context, address string, amount int64) (domain.Account, error)
	GetAccount(ctx context.Context, address string) (domain.Account, error)
	Log(ctx context.Context, eventID string, afterSeq int64, limit int) ([]domain.LogEntry, error)
}

type TierService interface {
	CreateTier(ctx context.Context, in app.CreateTierInput) (domain.Tier, error)
	UpdateTier(ctx context.Context, in app.UpdateTierInput) (domain.Tier, error)
	SetTierActive(ctx context.Context, in app.SetTierActiveInput) error
	Purchase(ctx context.Context, in app.PurchaseInput) (domain.Balance, error)
	GetTier(ctx context.Context, eventID string, tierID int64) (domain.Tier, error)
	ListTiers(ctx context.Context, eventID string) ([]domain.Tier, error)
	GetBalance(ctx context.Context, eventID, holder string, tierID int64) (domain.Balance, error)
}

type RedemptionService interface {
	AddGatekeeper(ctx context.Context, in app.GatekeeperInput) error
	RemoveGatekeeper(ctx context.Context, in app.GatekeeperInput) error
	Nonce(ctx context.Context, eventID, holder string) (int64, error)
	Redeem(ctx context.Context, in app.RedeemInput) (domain.AccessCredential, error)
}

type CredentialService interface {
	Get(ctx context.Context, eventID string, id int64) (domain.AccessCredential, error)
	IsTransferable(ctx context.Context, eventID string, id int64) (bool, error)
	TransferUnlockTime(ctx context.Context, eventID string, id int64) (time.Time, error)
	Transfer(ctx context.Context, in app.TransferCredentialInput) error
	Burn(ctx context.Context, in app.BurnCredentialInput) error
}

type MarketService interface {
	CreateListing(ctx context.Context, in app.CreateListingInput) (domain.Listing, error)
	CancelListing(ctx context.Context, in app.CancelListingInput) error
	UpdateListingPrice(ctx context.Context, in app.UpdateListingPriceInput) error
	BuyListing(ctx context.Context, in app.BuyListingInput) (app.BuyListingResult, error)
	GetListing(ctx context.Context, id string) (domain.Listing, error)
}

type Handler struct {
	events      EventService
	tiers       TierService
	redemptions RedemptionService
	credentials CredentialService
	market      MarketService
	logger      *zap.Logger
}

func NewHandler(
	events EventService,
	tiers TierService,
	redemptions RedemptionService,
	credentials CredentialService,
	market MarketService,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		events:      events,
		tiers:       tiers,
		redemptions: redemptions,
		credentials: credentials,
		market:      market,
		logger:      logger,
	}
}
