package web

import (
	"net/http"

	"lotledger/internal/core"
)

// submitProcessing handles POST /api/lot-processings. The first submission
// for a lot creates its record; later ones accumulate into it.
func (h *Handler) submitProcessing(w http.ResponseWriter, r *http.Request) {
	var entry core.ProcessingEntry
	if !decodeJSON(w, r, &entry) {
		return
	}
	lp, err := h.svc.Processing.CreateOrAccumulate(r.Context(), entry)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, lp)
}

// getProcessing handles GET /api/lot-processings/{id}.
func (h *Handler) getProcessing(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	lp, err := h.svc.Processing.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, lp)
}

// updateProcessing handles PUT /api/lot-processings/{id} — a direct
// correction, not an accumulation.
func (h *Handler) updateProcessing(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var patch core.ProcessingPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	lp, err := h.svc.Processing.Update(r.Context(), id, patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, lp)
}

// deleteProcessing handles DELETE /api/lot-processings/{id}.
func (h *Handler) deleteProcessing(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := h.svc.Processing.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// processingsByPurchase handles GET /api/lot-processings/purchase/{purchaseId}.
func (h *Handler) processingsByPurchase(w http.ResponseWriter, r *http.Request) {
	purchaseID, err := urlID(r, "purchaseId")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	records, err := h.svc.Processing.ListByPurchase(r.Context(), purchaseID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if records == nil {
		records = []core.LotProcessing{}
	}
	writeJSON(w, records)
}
