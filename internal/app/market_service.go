package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/openvenue/gatepass/internal/clock"
	"github.com/openvenue/gatepass/internal/domain"
	"github.com/openvenue/gatepass/internal/metrics"
)

type MarketRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetEvent(ctx context.Context, id string) (domain.Event, error)
	CreateListing(ctx context.Context, listing domain.Listing) error
	GetListing(ctx context.Context, id string) (domain.Listing, error)
	GetListingForUpdate(ctx context.Context, id string) (domain.Listing, error)
	SetListingPrice(ctx context.Context, id string, newPrice int64) error
	DeactivateListing(ctx context.Context, id string) error
	ReduceListingQuantity(ctx context.Context, id string, quantity int64) error
	AddBalance(ctx context.Context, eventID, holder string, tierID, quantity int64) error
	RemoveBalance(ctx context.Context, eventID, holder string, tierID, quantity int64) error
	DebitAccount(ctx context.Context, address string, amount int64) error
	CreditAccount(ctx context.Context, address string, amount int64) error
	AppendLog(ctx context.Context, eventID, name string, payload any, now time.Time) error
}

// MarketService resells ticket balances with an atomic royalty split. It
// never mutates balances directly; settlement goes through the ledger's
// transfer primitives inside one transaction.
type MarketService struct {
	repo  MarketRepository
	clock clock.Clock
}

func NewMarketService(repo MarketRepository, clk clock.Clock) *MarketService {
	return &MarketService{
		repo:  repo,
		clock: clk,
	}
}

type CreateListingInput struct {
	EventID      string
	Seller       string
	TierID       int64
	Quantity     int64
	PricePerUnit int64
	ExpiresAt    time.Time
}

// CreateListing posts a standing offer. The seller's balance is not checked
// here: listings are optimistic, and purchase time is where the transfer
// either settles or fails.
func (s *MarketService) CreateListing(ctx context.Context, in CreateListingInput) (domain.Listing, error) {
	if in.Quantity <= 0 {
		return domain.Listing{}, domain.ErrZeroQuantity
	}
	if in.PricePerUnit <= 0 {
		return domain.Listing{}, domain.ErrZeroPrice
	}

	now := s.clock.Now()
	if !in.ExpiresAt.After(now) {
		return domain.Listing{}, domain.ErrInvalidExpiration
	}

	listing := domain.Listing{
		ID:                uuid.NewString(),
		EventID:           in.EventID,
		Seller:            in.Seller,
		TierID:            in.TierID,
		Quantity:          in.Quantity,
		QuantityRemaining: in.Quantity,
		PricePerUnit:      in.PricePerUnit,
		ExpiresAt:         in.ExpiresAt,
		Active:            true,
		CreatedAt:         now,
	}

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.GetEvent(txCtx, in.EventID); err != nil {
			return err
		}
		if err := s.repo.CreateListing(txCtx, listing); err != nil {
			return err
		}
		return s.repo.AppendLog(txCtx, in.EventID, domain.LogListingCreated, listingCreatedPayload{
			ListingID:    listing.ID,
			Seller:       listing.Seller,
			EventRef:     listing.EventID,
			TierID:       listing.TierID,
			Quantity:     listing.Quantity,
			PricePerUnit: listing.PricePerUnit,
			ExpiresAt:    listing.ExpiresAt.Unix(),
		}, now)
	})
	if err != nil {
		return domain.Listing{}, err
	}
	return listing, nil
}

type CancelListingInput struct {
	ListingID string
	Caller    string
}

// CancelListing deactivates unconditionally, already-inactive included.
func (s *MarketService) CancelListing(ctx context.Context, in CancelListingInput) error {
	now := s.clock.Now()
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		listing, err := s.repo.GetListingForUpdate(txCtx, in.ListingID)
		if err != nil {
			return err
		}
		if listing.Seller != in.Caller {
			return domain.ErrNotSeller
		}
		if err := s.repo.DeactivateListing(txCtx, in.ListingID); err != nil {
			return err
		}
		return s.repo.AppendLog(txCtx, listing.EventID, domain.LogListingCancelled, listingCancelledPayload{
			ListingID: in.ListingID,
		}, now)
	})
}

type UpdateListingPriceInput struct {
	ListingID string
	Caller    string
	NewPrice  int64
}

func (s *MarketService) UpdateListingPrice(ctx context.Context, in UpdateListingPriceInput) error {
	if in.NewPrice <= 0 {
		return domain.ErrZeroPrice
	}

	now := s.clock.Now()
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		listing, err := s.repo.GetListingForUpdate(txCtx, in.ListingID)
		if err != nil {
			return err
		}
		if listing.Seller != in.Caller {
			return domain.ErrNotSeller
		}
		if err := s.repo.SetListingPrice(txCtx, in.ListingID, in.NewPrice); err != nil {
			return err
		}
		return s.repo.AppendLog(txCtx, listing.EventID, domain.LogListingPriceUpdated, listingPriceUpdatedPayload{
			ListingID: in.ListingID,
			NewPrice:  in.NewPrice,
		}, now)
	})
}

type BuyListingInput struct {
	ListingID string
	Buyer     string
	Quantity  int64
	Payment   int64
}

type BuyListingResult struct {
	Listing        domain.Listing
	TotalPrice     int64
	RoyaltyPaid    int64
	SellerProceeds int64
}

// BuyListing settles a purchase as one unit: remaining quantity decrements,
// the balance moves seller to buyer, and the payment splits between seller
// and the event's royalty receiver. Royalty truncates toward zero;
// proceeds + royalty always equals the total. Any failed leg rolls back
// everything.
func (s *MarketService) BuyListing(ctx context.Context, in BuyListingInput) (BuyListingResult, error) {
	if in.Quantity <= 0 {
		return BuyListingResult{}, domain.ErrZeroQuantity
	}

	now := s.clock.Now()
	var result BuyListingResult

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		listing, err := s.repo.GetListingForUpdate(txCtx, in.ListingID)
		if err != nil {
			return err
		}
		if !listing.Active {
			return domain.ErrListingNotActive
		}
		if !now.Before(listing.ExpiresAt) {
			return domain.ErrListingExpired
		}
		if in.Quantity > listing.QuantityRemaining {
			return domain.ErrInsufficientQuantity
		}

		total, err := totalPrice(listing.PricePerUnit, in.Quantity)
		if err != nil {
			return err
		}
		if in.Payment != total {
			return domain.ErrIncorrectPayment
		}

		event, err := s.repo.GetEvent(txCtx, listing.EventID)
		if err != nil {
			return err
		}
		royalty, proceeds := royaltySplit(total, event.RoyaltyBps)

		if err := s.repo.ReduceListingQuantity(txCtx, in.ListingID, in.Quantity); err != nil {
			return err
		}
		if err := s.repo.RemoveBalance(txCtx, listing.EventID, listing.Seller, listing.TierID, in.Quantity); err != nil {
			return err
		}
		if err := s.repo.AddBalance(txCtx, listing.EventID, in.Buyer, listing.TierID, in.Quantity); err != nil {
			return err
		}

		if err := s.repo.DebitAccount(txCtx, in.Buyer, total); err != nil {
			return err
		}
		if proceeds > 0 {
			if err := s.repo.CreditAccount(txCtx, listing.Seller, proceeds); err != nil {
				return err
			}
		}
		if royalty > 0 {
			if err := s.repo.CreditAccount(txCtx, event.RoyaltyReceiver, royalty); err != nil {
				return err
			}
		}

		listing.QuantityRemaining -= in.Quantity
		listing.Active = listing.QuantityRemaining > 0
		result = BuyListingResult{
			Listing:        listing,
			TotalPrice:     total,
			RoyaltyPaid:    royalty,
			SellerProceeds: proceeds,
		}

		return s.repo.AppendLog(txCtx, listing.EventID, domain.LogListingPurchased, listingPurchasedPayload{
			ListingID:       in.ListingID,
			Buyer:           in.Buyer,
			Quantity:        in.Quantity,
			TotalPrice:      total,
			RoyaltyPaid:     royalty,
			RoyaltyReceiver: event.RoyaltyReceiver,
		}, now)
	})
	if err != nil {
		return BuyListingResult{}, err
	}

	metrics.ListingsSettled.Inc()
	return result, nil
}

func (s *MarketService) GetListing(ctx context.Context, id string) (domain.Listing, error) {
	return s.repo.GetListing(ctx, id)
}

type listingCreatedPayload struct {
	ListingID    string `json:"listingId"`
	Seller       string `json:"seller"`
	EventRef     string `json:"eventRef"`
	TierID       int64  `json:"tierId"`
	Quantity     int64  `json:"quantity"`
	PricePerUnit int64  `json:"pricePerUnit"`
	ExpiresAt    int64  `json:"expirationTime"`
}

type listingCancelledPayload struct {
	ListingID string `json:"listingId"`
}

type listingPriceUpdatedPayload struct {
	ListingID string `json:"listingId"`
	NewPrice  int64  `json:"newPrice"`
}

type listingPurchasedPayload struct {
	ListingID       string `json:"listingId"`
	Buyer           string `json:"buyer"`
	Quantity        int64  `json:"quantity"`
	TotalPrice      int64  `json:"totalPrice"`
	RoyaltyPaid     int64  `json:"royaltyPaid"`
	RoyaltyReceiver string `json:"royaltyReceiver"`
}
