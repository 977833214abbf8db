package web

import (
	"net/http"
)

// dashboardStats handles GET /api/dashboard/stats?year=. Super admins
// without an impersonated location get the all-locations rollup.
func (h *Handler) dashboardStats(w http.ResponseWriter, r *http.Request) {
	locationID, err := effectiveLocation(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	year, err := queryInt(r, "year")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	stats, err := h.svc.Reporting.GetStats(r.Context(), locationID, year)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, stats)
}
