package domain

// Tier is a priced ticket class with a hard supply cap.
// Invariant: CurrentSupply <= MaxSupply at all times.
type Tier struct {
	EventID       string
	TierID        int64
	Name          string
	Price         int64
	MaxSupply     int64
	CurrentSupply int64
	Active        bool
}

// Balance is a holder's fungible ticket quantity for one tier. A balance row
// is never persisted at zero; absence means zero.
type Balance struct {
	EventID  string
	Holder   string
	TierID   int64
	Quantity int64
}
