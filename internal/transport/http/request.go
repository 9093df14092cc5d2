package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/openvenue/gatepass/internal/claim"
)

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return false
	}
	return true
}

// parseAddress canonicalizes a 0x-hex address from a request, rejecting
// anything malformed before it reaches the services.
func parseAddress(w http.ResponseWriter, raw string) (string, bool) {
	addr, ok := claim.NormalizeAddress(raw)
	if !ok {
		writeError(w, http.StatusBadRequest, codeInvalidAddress, "invalid address")
		return "", false
	}
	return addr, true
}

func tierIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "tierID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid tier id")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
