package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/openvenue/gatepass/internal/app"
	"github.com/openvenue/gatepass/internal/domain"
)

type createListingRequest struct {
	EventID      string `json:"event_id"`
	Seller       string `json:"seller"`
	TierID       int64  `json:"tier_id"`
	Quantity     int64  `json:"quantity"`
	PricePerUnit int64  `json:"price_per_unit"`
	ExpiresAt    int64  `json:"expires_at"`
}

type listingResponse struct {
	ID                string    `json:"id"`
	EventID           string    `json:"event_id"`
	Seller            string    `json:"seller"`
	TierID            int64     `json:"tier_id"`
	Quantity          int64     `json:"quantity"`
	QuantityRemaining int64     `json:"quantity_remaining"`
	PricePerUnit      int64     `json:"price_per_unit"`
	ExpiresAt         time.Time `json:"expires_at"`
	Active            bool      `json:"active"`
}

func toListingResponse(l domain.Listing) listingResponse {
	return listingResponse{
		ID:                l.ID,
		EventID:           l.EventID,
		Seller:            l.Seller,
		TierID:            l.TierID,
		Quantity:          l.Quantity,
		QuantityRemaining: l.QuantityRemaining,
		PricePerUnit:      l.PricePerUnit,
		ExpiresAt:         l.ExpiresAt,
		Active:            l.Active,
	}
}

func (h *Handler) CreateListing(w http.ResponseWriter, r *http.Request) {
	var req createListingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	seller, ok := parseAddress(w, req.Seller)
	if !ok {
		return
	}

	listing, err := h.market.CreateListing(r.Context(), app.CreateListingInput{
		EventID:      req.EventID,
		Seller:       seller,
		TierID:       req.TierID,
		Quantity:     req.Quantity,
		PricePerUnit: req.PricePerUnit,
		ExpiresAt:    time.Unix(req.ExpiresAt, 0),
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toListingResponse(listing))
}

func (h *Handler) GetListing(w http.ResponseWriter, r *http.Request) {
	listing, err := h.market.GetListing(r.Context(), chi.URLParam(r, "listingID"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingResponse(listing))
}

type cancelListingRequest struct {
	Caller string `json:"caller"`
}

func (h *Handler) CancelListing(w http.ResponseWriter, r *http.Request) {
	var req cancelListingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	caller, ok := parseAddress(w, req.Caller)
	if !ok {
		return
	}

	err := h.market.CancelListing(r.Context(), app.CancelListingInput{
		ListingID: chi.URLParam(r, "listingID"),
		Caller:    caller,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type updateListingPriceRequest struct {
	Caller   string `json:"caller"`
	NewPrice int64  `json:"new_price"`
}

func (h *Handler) UpdateListingPrice(w http.ResponseWriter, r *http.Request) {
	var req updateListingPriceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	caller, ok := parseAddress(w, req.Caller)
	if !ok {
		return
	}

	err := h.market.UpdateListingPrice(r.Context(), app.UpdateListingPriceInput{
		ListingID: chi.URLParam(r, "listingID"),
		Caller:    caller,
		NewPrice:  req.NewPrice,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type buyListingRequest struct {
	Buyer    string `json:"buyer"`
	Quantity int64  `json:"quantity"`
	Payment  int64  `json:"payment"`
}

type buyListingResponse struct {
	Listing        listingResponse `json:"listing"`
	TotalPrice     int64           `json:"total_price"`
	RoyaltyPaid    int64           `json:"royalty_paid"`
	SellerProceeds int64           `json:"seller_proceeds"`
}

// BuyListing settles a marketplace purchase: balance transfer and the
// seller/royalty payment split commit atomically or not at all.
func (h *Handler) BuyListing(w http.ResponseWriter, r *http.Request) {
	var req buyListingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	buyer, ok := parseAddress(w, req.Buyer)
	if !ok {
		return
	}

	result, err := h.market.BuyListing(r.Context(), app.BuyListingInput{
		ListingID: chi.URLParam(r, "listingID"),
		Buyer:     buyer,
		Quantity:  req.Quantity,
		Payment:   req.Payment,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, buyListingResponse{
		Listing:        toListingResponse(result.Listing),
		TotalPrice:     result.TotalPrice,
		RoyaltyPaid:    result.RoyaltyPaid,
		SellerProceeds: result.SellerProceeds,
	})
}
