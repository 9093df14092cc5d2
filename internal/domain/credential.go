package domain

import "time"

// TransferLockDuration is the window after minting during which an access
// credential cannot change owner. Burning is exempt.
const TransferLockDuration = 24 * time.Hour

// AccessCredential is the non-fungible pass minted when a ticket is redeemed.
// TierID and MintedAt are immutable after creation; ids are per-event,
// strictly increasing from 1.
type AccessCredential struct {
	EventID  string
	ID       int64
	Owner    string
	TierID   int64
	MintedAt time.Time
}

// TransferUnlockTime returns the instant from which ownership may change.
func (c AccessCredential) TransferUnlockTime() time.Time {
	return c.MintedAt.Add(TransferLockDuration)
}

// IsTransferable reports whether the credential may change owner at now.
func (c AccessCredential) IsTransferable(now time.Time) bool {
	return !now.Before(c.TransferUnlockTime())
}
