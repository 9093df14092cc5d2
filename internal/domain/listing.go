package domain

import "time"

// Listing is a standing offer to sell part of a tier balance at a fixed unit
// price. QuantityRemaining only decreases; Active flips to false when it
// reaches zero or the seller cancels. Expiry is enforced at purchase time.
type Listing struct {
	ID                string
	EventID           string
	Seller            string
	TierID            int64
	Quantity          int64
	QuantityRemaining int64
	PricePerUnit      int64
	ExpiresAt         time.Time
	Active            bool
	CreatedAt         time.Time
}
