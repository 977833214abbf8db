package web

import (
	"net/http"

	"lotledger/internal/core"
)

// listLoans handles GET /api/loans?year=.
func (h *Handler) listLoans(w http.ResponseWriter, r *http.Request) {
	locationID, err := requireLocation(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	year, err := requireYear(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	loans, err := h.svc.Loans.GetAll(r.Context(), locationID, year)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, loans)
}

// createLoan handles POST /api/loans.
func (h *Handler) createLoan(w http.ResponseWriter, r *http.Request) {
	var input core.LoanInput
	if !decodeJSON(w, r, &input) {
		return
	}
	loan, err := h.svc.Loans.Create(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, loan)
}

// updateLoan handles PUT /api/loans/{id}. Omitted fields keep their stored
// values; a supplied repayments array replaces the stored set wholesale.
func (h *Handler) updateLoan(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var patch core.LoanPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	loan, err := h.svc.Loans.Update(r.Context(), id, patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, loan)
}

// deleteLoan handles DELETE /api/loans/{id}.
func (h *Handler) deleteLoan(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := h.svc.Loans.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// loansByPurchase handles GET /api/loans/purchase/{purchaseId}.
func (h *Handler) loansByPurchase(w http.ResponseWriter, r *http.Request) {
	purchaseID, err := urlID(r, "purchaseId")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	loans, err := h.svc.Loans.GetByPurchase(r.Context(), purchaseID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, loans)
}
