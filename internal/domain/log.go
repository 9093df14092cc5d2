package domain

import (
	"encoding/json"
	"time"
)

// Log entry names consumed by the external indexer. The indexer is a
// read-only observer; entries are appended in the same transaction as the
// mutation they describe.
const (
	LogTierCreated             = "TierCreated"
	LogTierUpdated             = "TierUpdated"
	LogTierActiveStatusChanged = "TierActiveStatusChanged"
	LogTicketsPurchased        = "TicketsPurchased"
	LogTicketRedeemed          = "TicketRedeemed"
	LogAccessPassMinted        = "AccessPassMinted"
	LogGatekeeperAdded         = "GatekeeperAdded"
	LogGatekeeperRemoved       = "GatekeeperRemoved"
	LogListingCreated          = "ListingCreated"
	LogListingCancelled        = "ListingCancelled"
	LogListingPriceUpdated     = "ListingPriceUpdated"
	LogListingPurchased        = "ListingPurchased"
)

// LogEntry is one ordered record in an event's append-only log.
type LogEntry struct {
	Seq       int64
	EventID   string
	Name      string
	Payload   json.RawMessage
	CreatedAt time.Time
}
