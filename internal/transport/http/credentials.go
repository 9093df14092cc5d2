package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/openvenue/gatepass/internal/app"
)

func credentialIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "credentialID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid credential id")
		return 0, false
	}
	return id, true
}

func (h *Handler) GetCredential(w http.ResponseWriter, r *http.Request) {
	id, ok := credentialIDParam(w, r)
	if !ok {
		return
	}
	cred, err := h.credentials.Get(r.Context(), chi.URLParam(r, "eventID"), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	transferable, err := h.credentials.IsTransferable(r.Context(), cred.EventID, cred.ID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	resp := h.toCredentialResponse(cred, cred.MintedAt)
	resp.Transferable = transferable
	writeJSON(w, http.StatusOK, resp)
}

type transferCredentialRequest struct {
	Caller string `json:"caller"`
	To     string `json:"to"`
}

func (h *Handler) TransferCredential(w http.ResponseWriter, r *http.Request) {
	var req transferCredentialRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	caller, ok := parseAddress(w, req.Caller)
	if !ok {
		return
	}
	to, ok := parseAddress(w, req.To)
	if !ok {
		return
	}
	id, ok := credentialIDParam(w, r)
	if !ok {
		return
	}

	err := h.credentials.Transfer(r.Context(), app.TransferCredentialInput{
		EventID: chi.URLParam(r, "eventID"),
		ID:      id,
		Caller:  caller,
		To:      to,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type burnCredentialRequest struct {
	Caller string `json:"caller"`
}

func (h *Handler) BurnCredential(w http.ResponseWriter, r *http.Request) {
	var req burnCredentialRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	caller, ok := parseAddress(w, req.Caller)
	if !ok {
		return
	}
	id, ok := credentialIDParam(w, r)
	if !ok {
		return
	}

	err := h.credentials.Burn(r.Context(), app.BurnCredentialInput{
		EventID: chi.URLParam(r, "eventID"),
		ID:      id,
		Caller:  caller,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
