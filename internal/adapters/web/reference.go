package web

import (
	"net/http"

	"lotledger/internal/core"
)

// listSuppliers handles GET /api/suppliers.
func (h *Handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	locationID, err := requireLocation(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	suppliers, err := h.svc.Reference.ListSuppliers(r.Context(), locationID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, suppliers)
}

// getSupplier handles GET /api/suppliers/{id}.
func (h *Handler) getSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	supplier, err := h.svc.Reference.GetSupplier(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, supplier)
}

// createSupplier handles POST /api/suppliers.
func (h *Handler) createSupplier(w http.ResponseWriter, r *http.Request) {
	locationID, err := requireLocation(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var input core.SupplierInput
	if !decodeJSON(w, r, &input) {
		return
	}
	input.LocationID = locationID
	supplier, err := h.svc.Reference.CreateSupplier(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, supplier)
}

// updateSupplier handles PUT /api/suppliers/{id}.
func (h *Handler) updateSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var input core.SupplierInput
	if !decodeJSON(w, r, &input) {
		return
	}
	supplier, err := h.svc.Reference.UpdateSupplier(r.Context(), id, input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, supplier)
}

// deleteSupplier handles DELETE /api/suppliers/{id}.
func (h *Handler) deleteSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := h.svc.Reference.DeleteSupplier(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listItems handles GET /api/items.
func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Reference.ListItems(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, items)
}

// createItem handles POST /api/items.
func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	var input core.NamedInput
	if !decodeJSON(w, r, &input) {
		return
	}
	item, err := h.svc.Reference.CreateItem(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, item)
}

// updateItem handles PUT /api/items/{id}.
func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var input core.NamedInput
	if !decodeJSON(w, r, &input) {
		return
	}
	item, err := h.svc.Reference.UpdateItem(r.Context(), id, input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, item)
}

// deleteItem handles DELETE /api/items/{id}.
func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := h.svc.Reference.DeleteItem(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listUnits handles GET /api/units.
func (h *Handler) listUnits(w http.ResponseWriter, r *http.Request) {
	units, err := h.svc.Reference.ListUnits(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, units)
}

// createUnit handles POST /api/units.
func (h *Handler) createUnit(w http.ResponseWriter, r *http.Request) {
	var input core.NamedInput
	if !decodeJSON(w, r, &input) {
		return
	}
	unit, err := h.svc.Reference.CreateUnit(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, unit)
}

// updateUnit handles PUT /api/units/{id}.
func (h *Handler) updateUnit(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var input core.NamedInput
	if !decodeJSON(w, r, &input) {
		return
	}
	unit, err := h.svc.Reference.UpdateUnit(r.Context(), id, input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, unit)
}

// deleteUnit handles DELETE /api/units/{id}.
func (h *Handler) deleteUnit(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := h.svc.Reference.DeleteUnit(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listLocations handles GET /api/locations.
func (h *Handler) listLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.svc.Reference.ListLocations(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, locations)
}

// getLocation handles GET /api/locations/{id}.
func (h *Handler) getLocation(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	location, err := h.svc.Reference.GetLocation(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, location)
}

// createLocation handles POST /api/locations.
func (h *Handler) createLocation(w http.ResponseWriter, r *http.Request) {
	var input core.NamedInput
	if !decodeJSON(w, r, &input) {
		return
	}
	location, err := h.svc.Reference.CreateLocation(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, location)
}

// updateLocation handles PUT /api/locations/{id}.
func (h *Handler) updateLocation(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var input core.NamedInput
	if !decodeJSON(w, r, &input) {
		return
	}
	location, err := h.svc.Reference.UpdateLocation(r.Context(), id, input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, location)
}

// deleteLocation handles DELETE /api/locations/{id}.
func (h *Handler) deleteLocation(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := h.svc.Reference.DeleteLocation(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// availableYears handles GET /api/locations/{id}/years — the fiscal years
// that hold purchase data for the location.
func (h *Handler) availableYears(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	years, err := h.svc.Purchases.GetAvailableYears(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, years)
}

// deleteYear handles DELETE /api/locations/{id}/years/{year} — the hard
// cascade that removes a fiscal year's ledger data.
func (h *Handler) deleteYear(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	year, err := urlID(r, "year")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	deleted, err := h.svc.Purchases.DeleteByYear(r.Context(), id, year)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	type response struct {
		Deleted int `json:"deleted"`
	}
	writeJSON(w, response{Deleted: deleted})
}
