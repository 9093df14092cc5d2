package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/openvenue/gatepass/internal/app"
	"github.com/openvenue/gatepass/internal/domain"
)

type createEventRequest struct {
	Name            string `json:"name"`
	Organizer       string `json:"organizer"`
	RoyaltyReceiver string `json:"royalty_receiver"`
	RoyaltyBps      int64  `json:"royalty_bps"`
}

type eventResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Organizer       string    `json:"organizer"`
	RoyaltyReceiver string    `json:"royalty_receiver"`
	RoyaltyBps      int64     `json:"royalty_bps"`
	Treasury        int64     `json:"treasury"`
	CreatedAt       time.Time `json:"created_at"`
}

func toEventResponse(e domain.Event) eventResponse {
	return eventResponse{
		ID:              e.ID,
		Name:            e.Name,
		Organizer:       e.Organizer,
		RoyaltyReceiver: e.RoyaltyReceiver,
		RoyaltyBps:      e.RoyaltyBps,
		Treasury:        e.Treasury,
		CreatedAt:       e.CreatedAt,
	}
}

// CreateEvent is the factory entry point: one call, one independent event
// instance with its own tiers, gatekeepers and credential registry.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	organizer, ok := parseAddress(w, req.Organizer)
	if !ok {
		return
	}
	receiver, ok := parseAddress(w, req.RoyaltyReceiver)
	if !ok {
		return
	}

	event, err := h.events.CreateEvent(r.Context(), app.CreateEventInput{
		Name:            req.Name,
		Organizer:       organizer,
		RoyaltyReceiver: receiver,
		RoyaltyBps:      req.RoyaltyBps,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEventResponse(event))
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.GetEvent(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponse(event))
}

type withdrawRequest struct {
	Caller string `json:"caller"`
	Amount int64  `json:"amount"`
}

func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	caller, ok := parseAddress(w, req.Caller)
	if !ok {
		return
	}

	err := h.events.Withdraw(r.Context(), app.WithdrawInput{
		EventID: chi.URLParam(r, "eventID"),
		Caller:  caller,
		Amount:  req.Amount,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type logEntryResponse struct {
	Seq       int64           `json:"seq"`
	Name      string          `json:"name"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// EventLog serves the append-only log the external indexer consumes.
func (h *Handler) EventLog(w http.ResponseWriter, r *http.Request) {
	afterSeq, _ := strconv.ParseInt(r.URL.Query().Get("after"), 10, 64)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.events.Log(r.Context(), chi.URLParam(r, "eventID"), afterSeq, limit)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	out := make([]logEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, logEntryResponse{
			Seq:       e.Seq,
			Name:      e.Name,
			Payload:   e.Payload,
			CreatedAt: e.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type depositRequest struct {
	Address string `json:"address"`
	Amount  int64  `json:"amount"`
}

type accountResponse struct {
	Address string `json:"address"`
	Funds   int64  `json:"funds"`
}

func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	address, ok := parseAddress(w, req.Address)
	if !ok {
		return
	}

	account, err := h.events.Deposit(r.Context(), address, req.Amount)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accountResponse{Address: account.Address, Funds: account.Funds})
}

func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	address, ok := parseAddress(w, chi.URLParam(r, "address"))
	if !ok {
		return
	}
	account, err := h.events.GetAccount(r.Context(), address)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accountResponse{Address: account.Address, Funds: account.Funds})
}
