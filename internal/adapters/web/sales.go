package web

import (
	"net/http"

	"lotledger/internal/core"
)

// saleContext resolves the location and mandatory year filter shared by the
// sale read endpoints.
func saleContext(r *http.Request) (locationID, year int, err error) {
	locationID, err = requireLocation(r)
	if err != nil {
		return 0, 0, err
	}
	year, err = requireYear(r)
	if err != nil {
		return 0, 0, err
	}
	return locationID, year, nil
}

// listSales handles GET /api/sales?year=.
func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	locationID, year, err := saleContext(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	sales, err := h.svc.Sales.GetAll(r.Context(), locationID, year)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sales)
}

// purchasesWithSales handles GET /api/sales/grouped?year= — the
// reconciliation view of every lot with its sales, loans, processing records
// and aggregate stock figures.
func (h *Handler) purchasesWithSales(w http.ResponseWriter, r *http.Request) {
	locationID, year, err := saleContext(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	rows, err := h.svc.Sales.GetPurchasesWithSales(r.Context(), locationID, year)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, rows)
}

// availablePurchases handles GET /api/sales/available-purchases?year= — the
// sale-entry picker of lots with unsold packets.
func (h *Handler) availablePurchases(w http.ResponseWriter, r *http.Request) {
	locationID, year, err := saleContext(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	rows, err := h.svc.Sales.GetAvailablePurchases(r.Context(), locationID, year)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, rows)
}

// getSale handles GET /api/sales/{id}.
func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	sale, err := h.svc.Sales.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sale)
}

// createSale handles POST /api/sales.
func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	var input core.SaleInput
	if !decodeJSON(w, r, &input) {
		return
	}
	sale, err := h.svc.Sales.Create(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, sale)
}

// updateSale handles PUT /api/sales/{id}.
func (h *Handler) updateSale(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var patch core.SalePatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	sale, err := h.svc.Sales.Update(r.Context(), id, patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sale)
}

// deleteSale handles DELETE /api/sales/{id}.
func (h *Handler) deleteSale(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := h.svc.Sales.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
