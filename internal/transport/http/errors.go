package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/openvenue/gatepass/internal/domain"
)

const (
	codeNotFound           = "not_found"
	codeMethodNotAllowed   = "method_not_allowed"
	codeInvalidRequestBody = "invalid_request_body"
	codeInvalidAddress     = "invalid_address"
	codeInternalError      = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// domainStatus maps each domain error to its HTTP status and stable code.
var domainStatus = map[error]struct {
	status int
	code   string
}{
	domain.ErrEventNotFound:      {http.StatusNotFound, "event_not_found"},
	domain.ErrEventNameRequired:  {http.StatusBadRequest, "event_name_required"},
	domain.ErrInvalidRoyalty:     {http.StatusBadRequest, "invalid_royalty"},
	domain.ErrNotOrganizer:       {http.StatusForbidden, "not_organizer"},
	domain.ErrInvalidID:          {http.StatusBadRequest, "invalid_id"},
	domain.ErrInvalidAddress:     {http.StatusBadRequest, codeInvalidAddress},
	domain.ErrTierAlreadyExists:  {http.StatusConflict, "tier_already_exists"},
	domain.ErrTierNotFound:       {http.StatusNotFound, "tier_does_not_exist"},
	domain.ErrZeroMaxSupply:      {http.StatusBadRequest, "zero_max_supply"},
	domain.ErrTierNotActive:      {http.StatusConflict, "tier_not_active"},
	domain.ErrZeroQuantity:       {http.StatusBadRequest, "zero_quantity"},
	domain.ErrExceedsMaxSupply:   {http.StatusConflict, "exceeds_max_supply"},
	domain.ErrIncorrectPayment:   {http.StatusBadRequest, "incorrect_payment"},
	domain.ErrNotGatekeeper:      {http.StatusForbidden, "not_gatekeeper"},
	domain.ErrSignatureExpired:   {http.StatusUnauthorized, "signature_expired"},
	domain.ErrInvalidSignature:   {http.StatusUnauthorized, "invalid_signature"},
	domain.ErrCredentialNotFound: {http.StatusNotFound, "credential_not_found"},
	domain.ErrNotCredentialOwner: {http.StatusForbidden, "not_credential_owner"},
	domain.ErrTransferLocked:     {http.StatusConflict, "transfer_locked"},
	domain.ErrListingNotFound:    {http.StatusNotFound, "listing_does_not_exist"},
	domain.ErrZeroPrice:          {http.StatusBadRequest, "zero_price"},
	domain.ErrInvalidExpiration:  {http.StatusBadRequest, "invalid_expiration"},
	domain.ErrNotSeller:          {http.StatusForbidden, "not_seller"},
	domain.ErrListingNotActive:   {http.StatusConflict, "listing_not_active"},
	domain.ErrListingExpired:     {http.StatusConflict, "listing_expired"},
	domain.ErrZeroAmount:         {http.StatusBadRequest, "zero_amount"},
	domain.ErrAmountOverflow:     {http.StatusBadRequest, "amount_overflow"},

	domain.ErrCannotReduceBelowSupply: {http.StatusConflict, "cannot_reduce_below_supply"},
	domain.ErrInsufficientTickets:     {http.StatusConflict, "insufficient_tickets"},
	domain.ErrInsufficientQuantity:    {http.StatusConflict, "insufficient_quantity"},
	domain.ErrInsufficientFunds:       {http.StatusConflict, "insufficient_funds"},
}

// writeDomainError maps a service error onto the wire; anything unmapped is
// logged and reported as a 500 without leaking detail.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	for derr, m := range domainStatus {
		if errors.Is(err, derr) {
			writeError(w, m.status, m.code, derr.Error())
			return
		}
	}
	h.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
