package web

import (
	"net/http"

	"lotledger/internal/core"
)

// listUsers handles GET /api/users. Admins see their own location's users;
// super admins see everyone unless impersonating a location.
func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	locationID, err := effectiveLocation(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	users, err := h.svc.Users.List(r.Context(), locationID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, users)
}

// createUser handles POST /api/users. Only super admins may mint other super
// admins.
func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	var input core.UserInput
	if !decodeJSON(w, r, &input) {
		return
	}
	if input.Role == core.RoleSuperAdmin && claims.Role != core.RoleSuperAdmin {
		writeError(w, r, "insufficient permissions", "FORBIDDEN", http.StatusForbidden)
		return
	}
	if claims.Role != core.RoleSuperAdmin {
		input.LocationID = claims.LocationID
	}
	user, err := h.svc.Users.Create(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, user)
}

// updateUser handles PUT /api/users/{id}.
func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	claims := authFromContext(r.Context())
	var input core.UserInput
	if !decodeJSON(w, r, &input) {
		return
	}
	if input.Role == core.RoleSuperAdmin && claims.Role != core.RoleSuperAdmin {
		writeError(w, r, "insufficient permissions", "FORBIDDEN", http.StatusForbidden)
		return
	}
	user, err := h.svc.Users.Update(r.Context(), id, input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, user)
}

// deleteUser handles DELETE /api/users/{id}.
func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	claims := authFromContext(r.Context())
	if claims.UserID == id {
		writeError(w, r, "cannot delete your own account", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if err := h.svc.Users.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
