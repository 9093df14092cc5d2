// Package metrics exposes operation counters for the /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var TicketsPurchased = promauto.NewCounter(prometheus.CounterOpts{
	Name: "gatepass_tickets_purchased_total",
	Help: "Ticket units sold across all events and tiers.",
})

var TicketsRedeemed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "gatepass_tickets_redeemed_total",
	Help: "Successful redemptions (access passes minted).",
})

var ListingsSettled = promauto.NewCounter(prometheus.CounterOpts{
	Name: "gatepass_listings_settled_total",
	Help: "Marketplace purchases settled with a royalty split.",
})

var RedemptionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "gatepass_redemption_failures_total",
	Help: "Rejected redemption attempts by reason.",
}, []string{"reason"})
