package domain

import "time"

// Event is one independently configured ticketed event. Each event owns its
// tier set, gatekeeper set, holder nonces, access credentials and listings.
type Event struct {
	ID              string
	Name            string
	Organizer       string
	RoyaltyReceiver string
	RoyaltyBps      int64
	Treasury        int64
	CreatedAt       time.Time
}

// RoyaltyBpsDenominator is the basis-point scale for royalty splits.
const RoyaltyBpsDenominator = 10_000
