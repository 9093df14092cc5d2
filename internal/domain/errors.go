package domain

import "errors"

var (
	ErrEventNotFound     = errors.New("event not found")
	ErrEventNameRequired = errors.New("event name required")
	ErrInvalidRoyalty    = errors.New("royalty bps out of range")
	ErrNotOrganizer      = errors.New("not organizer")
	ErrInvalidID         = errors.New("invalid id")
	ErrInvalidAddress    = errors.New("invalid address")

	ErrTierAlreadyExists       = errors.New("tier already exists")
	ErrTierNotFound            = errors.New("tier does not exist")
	ErrZeroMaxSupply           = errors.New("zero max supply")
	ErrCannotReduceBelowSupply = errors.New("cannot reduce max supply below current supply")
	ErrTierNotActive           = errors.New("tier not active")
	ErrZeroQuantity            = errors.New("zero quantity")
	ErrExceedsMaxSupply        = errors.New("exceeds max supply")
	ErrIncorrectPayment        = errors.New("incorrect payment")
	ErrInsufficientTickets     = errors.New("insufficient tickets")

	ErrNotGatekeeper    = errors.New("not gatekeeper")
	ErrSignatureExpired = errors.New("signature expired")
	ErrInvalidSignature = errors.New("invalid signature")

	ErrCredentialNotFound = errors.New("credential not found")
	ErrNotCredentialOwner = errors.New("not credential owner")
	ErrTransferLocked     = errors.New("transfer locked")

	ErrListingNotFound      = errors.New("listing does not exist")
	ErrZeroPrice            = errors.New("zero price")
	ErrInvalidExpiration    = errors.New("invalid expiration")
	ErrNotSeller            = errors.New("not seller")
	ErrListingNotActive     = errors.New("listing not active")
	ErrListingExpired       = errors.New("listing expired")
	ErrInsufficientQuantity = errors.New("insufficient listing quantity")

	ErrZeroAmount        = errors.New("zero amount")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAmountOverflow    = errors.New("amount overflow")
)
