package app

import "github.com/openvenue/gatepass/internal/domain"

// totalPrice multiplies a unit price by a quantity, rejecting int64
// overflow instead of wrapping. Exact arithmetic is an invariant of every
// settlement path.
func totalPrice(price, quantity int64) (int64, error) {
	if price == 0 || quantity == 0 {
		return 0, nil
	}
	total := price * quantity
	if total/quantity != price || total < 0 {
		return 0, domain.ErrAmountOverflow
	}
	return total, nil
}

// royaltySplit divides a sale total between royalty and seller proceeds.
// The royalty truncates toward zero; royalty + proceeds == total always.
func royaltySplit(total, bps int64) (royalty, proceeds int64) {
	// Equivalent to total*bps/10000 without the intermediate product
	// overflowing: royalty itself never exceeds total.
	q, r := total/domain.RoyaltyBpsDenominator, total%domain.RoyaltyBpsDenominator
	royalty = q*bps + r*bps/domain.RoyaltyBpsDenominator
	return royalty, total - royalty
}
