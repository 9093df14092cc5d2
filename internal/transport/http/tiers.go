package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/openvenue/gatepass/internal/app"
	"github.com/openvenue/gatepass/internal/domain"
)

type createTierRequest struct {
	Caller    string `json:"caller"`
	TierID    int64  `json:"tier_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	MaxSupply int64  `json:"max_supply"`
}

type tierResponse struct {
	TierID        int64  `json:"tier_id"`
	Name          string `json:"name"`
	Price         int64  `json:"price"`
	MaxSupply     int64  `json:"max_supply"`
	CurrentSupply int64  `json:"current_supply"`
	Active        bool   `json:"active"`
}

func toTierResponse(t domain.Tier) tierResponse {
	return tierResponse{
		TierID:        t.TierID,
		Name:          t.Name,
		Price:         t.Price,
		MaxSupply:     t.MaxSupply,
		CurrentSupply: t.CurrentSupply,
		Active:        t.Active,
	}
}

func (h *Handler) CreateTier(w http.ResponseWriter, r *http.Request) {
	var req createTierRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	caller, ok := parseAddress(w, req.Caller)
	if !ok {
		return
	}
	if req.Price < 0 {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "negative price")
		return
	}

	tier, err := h.tiers.CreateTier(r.Context(), app.CreateTierInput{
		EventID:   chi.URLParam(r, "eventID"),
		Caller:    caller,
		TierID:    req.TierID,
		Name:      req.Name,
		Price:     req.Price,
		MaxSupply: req.MaxSupply,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTierResponse(tier))
}

type updateTierRequest struct {
	Caller       string `json:"caller"`
	NewPrice     int64  `json:"new_price"`
	NewMaxSupply int64  `json:"new_max_supply"`
}

func (h *Handler) UpdateTier(w http.ResponseWriter, r *http.Request) {
	var req updateTierRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	caller, ok := parseAddress(w, req.Caller)
	if !ok {
		return
	}
	tierID, ok := tierIDParam(w, r)
	if !ok {
		return
	}
	if req.NewPrice < 0 {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "negative price")
		return
	}

	tier, err := h.tiers.UpdateTier(r.Context(), app.UpdateTierInput{
		EventID:      chi.URLParam(r, "eventID"),
		Caller:       caller,
		TierID:       tierID,
		NewPrice:     req.NewPrice,
		NewMaxSupply: req.NewMaxSupply,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTierResponse(tier))
}

type setTierActiveRequest struct {
	Caller string `json:"caller"`
	Active bool   `json:"active"`
}

func (h *Handler) SetTierActive(w http.ResponseWriter, r *http.Request) {
	var req setTierActiveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	caller, ok := parseAddress(w, req.Caller)
	if !ok {
		return
	}
	tierID, ok := tierIDParam(w, r)
	if !ok {
		return
	}

	err := h.tiers.SetTierActive(r.Context(), app.SetTierActiveInput{
		EventID: chi.URLParam(r, "eventID"),
		Caller:  caller,
		TierID:  tierID,
		Active:  req.Active,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetTier(w http.ResponseWriter, r *http.Request) {
	tierID, ok := tierIDParam(w, r)
	if !ok {
		return
	}
	tier, err := h.tiers.GetTier(r.Context(), chi.URLParam(r, "eventID"), tierID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTierResponse(tier))
}

func (h *Handler) ListTiers(w http.ResponseWriter, r *http.Request) {
	tiers, err := h.tiers.ListTiers(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	out := make([]tierResponse, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, toTierResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

type purchaseRequest struct {
	Buyer    string `json:"buyer"`
	Quantity int64  `json:"quantity"`
	Payment  int64  `json:"payment"`
}

type balanceResponse struct {
	Holder   string `json:"holder"`
	TierID   int64  `json:"tier_id"`
	Quantity int64  `json:"quantity"`
}

// Purchase issues tickets against exact payment from the buyer's account.
func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	buyer, ok := parseAddress(w, req.Buyer)
	if !ok {
		return
	}
	tierID, ok := tierIDParam(w, r)
	if !ok {
		return
	}

	balance, err := h.tiers.Purchase(r.Context(), app.PurchaseInput{
		EventID:  chi.URLParam(r, "eventID"),
		Buyer:    buyer,
		TierID:   tierID,
		Quantity: req.Quantity,
		Payment:  req.Payment,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{
		Holder:   balance.Holder,
		TierID:   balance.TierID,
		Quantity: balance.Quantity,
	})
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	holder, ok := parseAddress(w, chi.URLParam(r, "address"))
	if !ok {
		return
	}
	tierID, ok := tierIDParam(w, r)
	if !ok {
		return
	}
	balance, err := h.tiers.GetBalance(r.Context(), chi.URLParam(r, "eventID"), holder, tierID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{
		Holder:   balance.Holder,
		TierID:   balance.TierID,
		Quantity: balance.Quantity,
	})
}
