package web

import (
	"net/http"

	"github.com/shopspring/decimal"

	"lotledger/internal/core"
)

// listRates serves GET /api/{kind}-rates for one rate table.
func (h *Handler) listRates(kind core.RateKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		locationID, err := requireLocation(r)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		rates, err := h.svc.Rates.List(r.Context(), kind, locationID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, rates)
	}
}

// createRate serves POST /api/{kind}-rates.
func (h *Handler) createRate(kind core.RateKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		locationID, err := requireLocation(r)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		var input core.RateInput
		if !decodeJSON(w, r, &input) {
			return
		}
		input.LocationID = locationID
		rate, err := h.svc.Rates.Create(r.Context(), kind, input)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSONStatus(w, http.StatusCreated, rate)
	}
}

// updateRate serves PUT /api/{kind}-rates/{id}.
func (h *Handler) updateRate(kind core.RateKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		var input core.RateInput
		if !decodeJSON(w, r, &input) {
			return
		}
		rate, err := h.svc.Rates.Update(r.Context(), kind, id, input)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, rate)
	}
}

// deleteRate serves DELETE /api/{kind}-rates/{id}.
func (h *Handler) deleteRate(kind core.RateKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		if err := h.svc.Rates.Delete(r.Context(), kind, id); err != nil {
			writeServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// getInterestRate handles GET /api/interest-rates.
func (h *Handler) getInterestRate(w http.ResponseWriter, r *http.Request) {
	locationID, err := requireLocation(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	rate, err := h.svc.Rates.GetInterestRate(r.Context(), locationID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, rate)
}

// setInterestRate handles POST /api/interest-rates — replaces the location's
// active rate.
func (h *Handler) setInterestRate(w http.ResponseWriter, r *http.Request) {
	locationID, err := requireLocation(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req struct {
		Rate decimal.Decimal `json:"rate"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	rate, err := h.svc.Rates.SetInterestRate(r.Context(), locationID, req.Rate)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, rate)
}
