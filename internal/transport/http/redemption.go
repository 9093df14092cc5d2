package http

import (
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-chi/chi/v5"
	"github.com/openvenue/gatepass/internal/app"
	"github.com/openvenue/gatepass/internal/domain"
)

type gatekeeperRequest struct {
	Caller     string `json:"caller"`
	Gatekeeper string `json:"gatekeeper"`
}

func (h *Handler) AddGatekeeper(w http.ResponseWriter, r *http.Request) {
	var req gatekeeperRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	caller, ok := parseAddress(w, req.Caller)
	if !ok {
		return
	}
	gatekeeper, ok := parseAddress(w, req.Gatekeeper)
	if !ok {
		return
	}

	err := h.redemptions.AddGatekeeper(r.Context(), app.GatekeeperInput{
		EventID:    chi.URLParam(r, "eventID"),
		Caller:     caller,
		Gatekeeper: gatekeeper,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RemoveGatekeeper(w http.ResponseWriter, r *http.Request) {
	caller, ok := parseAddress(w, r.Header.Get("X-Caller-Address"))
	if !ok {
		return
	}
	gatekeeper, ok := parseAddress(w, chi.URLParam(r, "address"))
	if !ok {
		return
	}

	err := h.redemptions.RemoveGatekeeper(r.Context(), app.GatekeeperInput{
		EventID:    chi.URLParam(r, "eventID"),
		Caller:     caller,
		Gatekeeper: gatekeeper,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type nonceResponse struct {
	Holder string `json:"holder"`
	Nonce  int64  `json:"nonce"`
}

// GetNonce returns the next expected claim nonce, which a holder needs to
// produce a signature that will verify.
func (h *Handler) GetNonce(w http.ResponseWriter, r *http.Request) {
	holder, ok := parseAddress(w, chi.URLParam(r, "address"))
	if !ok {
		return
	}
	nonce, err := h.redemptions.Nonce(r.Context(), chi.URLParam(r, "eventID"), holder)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonceResponse{Holder: holder, Nonce: nonce})
}

type redeemRequest struct {
	Caller       string `json:"caller"`
	TicketHolder string `json:"ticket_holder"`
	TierID       int64  `json:"tier_id"`
	Deadline     int64  `json:"deadline"`
	Signature    string `json:"signature"`
}

type credentialResponse struct {
	ID           int64     `json:"id"`
	Owner        string    `json:"owner"`
	TierID       int64     `json:"tier_id"`
	MintedAt     time.Time `json:"minted_at"`
	UnlocksAt    time.Time `json:"transfer_unlocks_at"`
	Transferable bool      `json:"transferable"`
}

func (h *Handler) toCredentialResponse(c domain.AccessCredential, now time.Time) credentialResponse {
	return credentialResponse{
		ID:           c.ID,
		Owner:        c.Owner,
		TierID:       c.TierID,
		MintedAt:     c.MintedAt,
		UnlocksAt:    c.TransferUnlockTime(),
		Transferable: c.IsTransferable(now),
	}
}

// Redeem accepts a gatekeeper-submitted signed claim. The signature is
// 0x-hex, 65 bytes, over the claim digest for this event.
func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	caller, ok := parseAddress(w, req.Caller)
	if !ok {
		return
	}
	holder, ok := parseAddress(w, req.TicketHolder)
	if !ok {
		return
	}
	sig, err := hexutil.Decode(req.Signature)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "malformed signature")
		return
	}

	cred, err := h.redemptions.Redeem(r.Context(), app.RedeemInput{
		EventID:      chi.URLParam(r, "eventID"),
		Caller:       caller,
		TicketHolder: holder,
		TierID:       req.TierID,
		Deadline:     time.Unix(req.Deadline, 0),
		Signature:    sig,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.toCredentialResponse(cred, cred.MintedAt))
}
