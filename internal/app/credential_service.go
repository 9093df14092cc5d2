package app

import (
	"context"
	"time"

	"github.com/openvenue/gatepass/internal/clock"
	"github.com/openvenue/gatepass/internal/domain"
)

type CredentialRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetCredential(ctx context.Context, eventID string, id int64) (domain.AccessCredential, error)
	GetCredentialForUpdate(ctx context.Context, eventID string, id int64) (domain.AccessCredential, error)
	UpdateCredentialOwner(ctx context.Context, eventID string, id int64, newOwner string) error
	DeleteCredential(ctx context.Context, eventID string, id int64) error
}

// CredentialService is the registry of minted access passes. Minting happens
// only inside redemption, which is the sole writer constructed with the
// event; this service covers reads, lock-gated transfers and burns.
type CredentialService struct {
	repo  CredentialRepository
	clock clock.Clock
}

func NewCredentialService(repo CredentialRepository, clk clock.Clock) *CredentialService {
	return &CredentialService{
		repo:  repo,
		clock: clk,
	}
}

func (s *CredentialService) Get(ctx context.Context, eventID string, id int64) (domain.AccessCredential, error) {
	return s.repo.GetCredential(ctx, eventID, id)
}

func (s *CredentialService) IsTransferable(ctx context.Context, eventID string, id int64) (bool, error) {
	cred, err := s.repo.GetCredential(ctx, eventID, id)
	if err != nil {
		return false, err
	}
	return cred.IsTransferable(s.clock.Now()), nil
}

func (s *CredentialService) TransferUnlockTime(ctx context.Context, eventID string, id int64) (time.Time, error) {
	cred, err := s.repo.GetCredential(ctx, eventID, id)
	if err != nil {
		return time.Time{}, err
	}
	return cred.TransferUnlockTime(), nil
}

type TransferCredentialInput struct {
	EventID string
	ID      int64
	Caller  string
	To      string
}

// Transfer changes ownership of a credential. Genuine transfers are blocked
// inside the 24h lock window; only mint and burn bypass it.
func (s *CredentialService) Transfer(ctx context.Context, in TransferCredentialInput) error {
	now := s.clock.Now()
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		cred, err := s.repo.GetCredentialForUpdate(txCtx, in.EventID, in.ID)
		if err != nil {
			return err
		}
		if cred.Owner != in.Caller {
			return domain.ErrNotCredentialOwner
		}
		if !cred.IsTransferable(now) {
			return domain.ErrTransferLocked
		}
		return s.repo.UpdateCredentialOwner(txCtx, in.EventID, in.ID, in.To)
	})
}

type BurnCredentialInput struct {
	EventID string
	ID      int64
	Caller  string
}

// Burn destroys a credential. The transfer lock does not apply.
func (s *CredentialService) Burn(ctx context.Context, in BurnCredentialInput) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		cred, err := s.repo.GetCredentialForUpdate(txCtx, in.EventID, in.ID)
		if err != nil {
			return err
		}
		if cred.Owner != in.Caller {
			return domain.ErrNotCredentialOwner
		}
		return s.repo.DeleteCredential(txCtx, in.EventID, in.ID)
	})
}
