package app

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/openvenue/gatepass/internal/claim"
	"github.com/openvenue/gatepass/internal/clock"
	"github.com/openvenue/gatepass/internal/domain"
	"github.com/openvenue/gatepass/internal/metrics"
)

type RedemptionRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetEvent(ctx context.Context, id string) (domain.Event, error)
	IsGatekeeper(ctx context.Context, eventID, address string) (bool, error)
	AddGatekeeper(ctx context.Context, eventID, address string) error
	RemoveGatekeeper(ctx context.Context, eventID, address string) error
	GetNonce(ctx context.Context, eventID, holder string) (int64, error)
	GetNonceForUpdate(ctx context.Context, eventID, holder string) (int64, error)
	IncrementNonce(ctx context.Context, eventID, holder string) error
	GetBalance(ctx context.Context, eventID, holder string, tierID int64) (int64, error)
	RemoveBalance(ctx context.Context, eventID, holder string, tierID, quantity int64) error
	NextCredentialID(ctx context.Context, eventID string) (int64, error)
	InsertCredential(ctx context.Context, cred domain.AccessCredential) error
	AppendLog(ctx context.Context, eventID, name string, payload any, now time.Time) error
}

// RedemptionService turns a signed offline claim into an access credential.
// The holder signs (holder, tier, nonce, deadline) once; a gatekeeper submits
// it. Burning the ticket, minting the pass and consuming the nonce are one
// atomic unit.
type RedemptionService struct {
	repo  RedemptionRepository
	clock clock.Clock
}

func NewRedemptionService(repo RedemptionRepository, clk clock.Clock) *RedemptionService {
	return &RedemptionService{
		repo:  repo,
		clock: clk,
	}
}

type GatekeeperInput struct {
	EventID    string
	Caller     string
	Gatekeeper string
}

// AddGatekeeper grants redemption authority. Adding an address that already
// has it is a no-op.
func (s *RedemptionService) AddGatekeeper(ctx context.Context, in GatekeeperInput) error {
	now := s.clock.Now()
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		event, err := s.repo.GetEvent(txCtx, in.EventID)
		if err != nil {
			return err
		}
		if event.Organizer != in.Caller {
			return domain.ErrNotOrganizer
		}
		if err := s.repo.AddGatekeeper(txCtx, in.EventID, in.Gatekeeper); err != nil {
			return err
		}
		return s.repo.AppendLog(txCtx, in.EventID, domain.LogGatekeeperAdded, gatekeeperPayload{
			Gatekeeper: in.Gatekeeper,
		}, now)
	})
}

// RemoveGatekeeper revokes redemption authority; removing a non-gatekeeper
// is a no-op.
func (s *RedemptionService) RemoveGatekeeper(ctx context.Context, in GatekeeperInput) error {
	now := s.clock.Now()
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		event, err := s.repo.GetEvent(txCtx, in.EventID)
		if err != nil {
			return err
		}
		if event.Organizer != in.Caller {
			return domain.ErrNotOrganizer
		}
		if err := s.repo.RemoveGatekeeper(txCtx, in.EventID, in.Gatekeeper); err != nil {
			return err
		}
		return s.repo.AppendLog(txCtx, in.EventID, domain.LogGatekeeperRemoved, gatekeeperPayload{
			Gatekeeper: in.Gatekeeper,
		}, now)
	})
}

// Nonce returns the holder's next expected claim nonce.
func (s *RedemptionService) Nonce(ctx context.Context, eventID, holder string) (int64, error) {
	return s.repo.GetNonce(ctx, eventID, holder)
}

type RedeemInput struct {
	EventID      string
	Caller       string
	TicketHolder string
	TierID       int64
	Deadline     time.Time
	Signature    []byte
}

// Redeem validates a gatekeeper-submitted claim and, as one transaction,
// burns one ticket, mints the access pass and increments the holder's nonce.
// The nonce row is locked first, so two gatekeepers racing the same
// signature serialize and the loser fails signature verification.
func (s *RedemptionService) Redeem(ctx context.Context, in RedeemInput) (domain.AccessCredential, error) {
	now := s.clock.Now()
	var cred domain.AccessCredential

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		ok, err := s.repo.IsGatekeeper(txCtx, in.EventID, in.Caller)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrNotGatekeeper
		}
		if now.After(in.Deadline) {
			return domain.ErrSignatureExpired
		}

		nonce, err := s.repo.GetNonceForUpdate(txCtx, in.EventID, in.TicketHolder)
		if err != nil {
			return err
		}

		balance, err := s.repo.GetBalance(txCtx, in.EventID, in.TicketHolder, in.TierID)
		if err != nil {
			return err
		}
		if balance < 1 {
			return domain.ErrInsufficientTickets
		}

		signer, err := claim.RecoverSigner(claim.Claim{
			EventID:      in.EventID,
			TicketHolder: common.HexToAddress(in.TicketHolder),
			TierID:       in.TierID,
			Nonce:        nonce,
			Deadline:     in.Deadline.Unix(),
		}, in.Signature)
		if err != nil || claim.AddressString(signer) != in.TicketHolder {
			return domain.ErrInvalidSignature
		}

		if err := s.repo.RemoveBalance(txCtx, in.EventID, in.TicketHolder, in.TierID, 1); err != nil {
			return err
		}

		id, err := s.repo.NextCredentialID(txCtx, in.EventID)
		if err != nil {
			return err
		}
		cred = domain.AccessCredential{
			EventID:  in.EventID,
			ID:       id,
			Owner:    in.TicketHolder,
			TierID:   in.TierID,
			MintedAt: now,
		}
		if err := s.repo.InsertCredential(txCtx, cred); err != nil {
			return err
		}
		if err := s.repo.IncrementNonce(txCtx, in.EventID, in.TicketHolder); err != nil {
			return err
		}

		if err := s.repo.AppendLog(txCtx, in.EventID, domain.LogTicketRedeemed, ticketRedeemedPayload{
			TicketHolder: in.TicketHolder,
			TierID:       in.TierID,
			AccessPassID: id,
		}, now); err != nil {
			return err
		}
		return s.repo.AppendLog(txCtx, in.EventID, domain.LogAccessPassMinted, accessPassMintedPayload{
			TokenID:   id,
			Recipient: in.TicketHolder,
			TierID:    in.TierID,
		}, now)
	})
	if err != nil {
		recordRedemptionFailure(err)
		return domain.AccessCredential{}, err
	}

	metrics.TicketsRedeemed.Inc()
	return cred, nil
}

func recordRedemptionFailure(err error) {
	switch err {
	case domain.ErrNotGatekeeper, domain.ErrSignatureExpired, domain.ErrInsufficientTickets, domain.ErrInvalidSignature:
		metrics.RedemptionFailures.WithLabelValues(err.Error()).Inc()
	}
}

type gatekeeperPayload struct {
	Gatekeeper string `json:"gatekeeper"`
}

type ticketRedeemedPayload struct {
	TicketHolder string `json:"ticketHolder"`
	TierID       int64  `json:"tierId"`
	AccessPassID int64  `json:"accessPassId"`
}

type accessPassMintedPayload struct {
	TokenID   int64  `json:"tokenId"`
	Recipient string `json:"recipient"`
	TierID    int64  `json:"tierId"`
}
