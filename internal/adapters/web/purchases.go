package web

import (
	"net/http"

	"lotledger/internal/core"
)

// listPurchases handles GET /api/purchases?year=.
func (h *Handler) listPurchases(w http.ResponseWriter, r *http.Request) {
	locationID, err := requireLocation(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	year, err := queryInt(r, "year")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	purchases, err := h.svc.Purchases.GetAll(r.Context(), locationID, year)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, purchases)
}

// listPurchasesAdmin handles GET /api/purchases/admin/all?year= across every
// location.
func (h *Handler) listPurchasesAdmin(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r, "year")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	purchases, err := h.svc.Purchases.GetAllAdmin(r.Context(), year)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, purchases)
}

// generateBillNo handles POST /api/purchases/generate-bill-no.
func (h *Handler) generateBillNo(w http.ResponseWriter, r *http.Request) {
	locationID, err := requireLocation(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req struct {
		Year int `json:"year"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Year == 0 {
		writeError(w, r, "year is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	billNo, err := h.svc.Purchases.GenerateBillNo(r.Context(), locationID, req.Year)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	type response struct {
		BillNo string `json:"billNo"`
	}
	writeJSON(w, response{BillNo: billNo})
}

// getPurchase handles GET /api/purchases/{id}.
func (h *Handler) getPurchase(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	scope, err := requestScope(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	purchase, err := h.svc.Purchases.GetByID(r.Context(), id, scope)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, purchase)
}

// createPurchase handles POST /api/purchases.
func (h *Handler) createPurchase(w http.ResponseWriter, r *http.Request) {
	locationID, err := requireLocation(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var input core.PurchaseInput
	if !decodeJSON(w, r, &input) {
		return
	}
	input.LocationID = locationID
	purchase, err := h.svc.Purchases.Create(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, purchase)
}

// updatePurchase handles PUT /api/purchases/{id}.
func (h *Handler) updatePurchase(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	scope, err := requestScope(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var patch core.PurchasePatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	purchase, err := h.svc.Purchases.Update(r.Context(), id, patch, scope)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, purchase)
}

// deletePurchase handles DELETE /api/purchases/{id}.
func (h *Handler) deletePurchase(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	scope, err := requestScope(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := h.svc.Purchases.Delete(r.Context(), id, scope); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// transferLot handles POST /api/purchases/{id}/transfer.
func (h *Handler) transferLot(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var input core.TransferInput
	if !decodeJSON(w, r, &input) {
		return
	}
	purchase, err := h.svc.Transfers.Transfer(r.Context(), id, input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, purchase)
}

// transferHistory handles GET /api/purchases/transfer-history?year=&page=&limit=.
func (h *Handler) transferHistory(w http.ResponseWriter, r *http.Request) {
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
	page, err := queryInt(r, "page")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	pageNo, pageSize := 1, 10
	if page != nil {
		pageNo = *page
	}
	if limit != nil {
		pageSize = *limit
	}
	history, err := h.svc.Transfers.History(r.Context(), locationID, year, pageNo, pageSize)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, history)
}
