package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router wires all routes. Caller identity is the address supplied with the
// request; possession of an address is the only identity the system knows.
func (h *Handler) Router(corsOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestLogger(h.logger))
	r.Use(CORS(corsOrigins))

	r.Get("/health", HealthHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/events", func(r chi.Router) {
		r.Post("/", h.CreateEvent)

		r.Route("/{eventID}", func(r chi.Router) {
			r.Get("/", h.GetEvent)
			r.Get("/log", h.EventLog)
			r.Post("/withdrawals", h.Withdraw)

			r.Route("/tiers", func(r chi.Router) {
				r.Post("/", h.CreateTier)
				r.Get("/", h.ListTiers)

				r.Route("/{tierID}", func(r chi.Router) {
					r.Get("/", h.GetTier)
					r.Patch("/", h.UpdateTier)
					r.Post("/active", h.SetTierActive)
					r.Post("/purchase", h.Purchase)
				})
			})

			r.Get("/holders/{address}/tiers/{tierID}/balance", h.GetBalance)
			r.Get("/holders/{address}/nonce", h.GetNonce)

			r.Post("/gatekeepers", h.AddGatekeeper)
			r.Delete("/gatekeepers/{address}", h.RemoveGatekeeper)
			r.Post("/redemptions", h.Redeem)

			r.Route("/credentials/{credentialID}", func(r chi.Router) {
				r.Get("/", h.GetCredential)
				r.Post("/transfer", h.TransferCredential)
				r.Post("/burn", h.BurnCredential)
			})
		})
	})

	r.Route("/listings", func(r chi.Router) {
		r.Post("/", h.CreateListing)

		r.Route("/{listingID}", func(r chi.Router) {
			r.Get("/", h.GetListing)
			r.Post("/cancel", h.CancelListing)
			r.Post("/price", h.UpdateListingPrice)
			r.Post("/purchase", h.BuyListing)
		})
	})

	r.Route("/accounts", func(r chi.Router) {
		r.Post("/deposit", h.Deposit)
		r.Get("/{address}", h.GetAccount)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
	})

	return r
}
