package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"lotledger/internal/app"
	"lotledger/internal/core"
)

// Handler holds the service container, the chi router and the JWT secret.
type Handler struct {
	svc       *app.Services
	router    chi.Router
	jwtSecret string
	log       *logrus.Logger
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc *app.Services, allowedOrigins, jwtSecret string, log *logrus.Logger) http.Handler {
	h := &Handler{
		svc:       svc,
		jwtSecret: jwtSecret,
		log:       log,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(log))
	r.Use(Recoverer(log))
	r.Use(CORS(allowedOrigins))

	// Health and auth are public.
	r.Get("/api/health", h.health)
	r.Post("/api/auth/login", h.login)
	r.Post("/api/auth/logout", h.logout)

	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		r.Get("/api/auth/me", h.me)

		r.Route("/api/purchases", func(r chi.Router) {
			r.Get("/", h.listPurchases)
			r.With(h.RequireRole(core.RoleSuperAdmin)).Get("/admin/all", h.listPurchasesAdmin)
			r.Post("/generate-bill-no", h.generateBillNo)
			r.Get("/transfer-history", h.transferHistory)
			r.Post("/", h.createPurchase)
			r.Get("/{id}", h.getPurchase)
			r.Put("/{id}", h.updatePurchase)
			r.Delete("/{id}", h.deletePurchase)
			r.Post("/{id}/transfer", h.transferLot)
		})

		r.Route("/api/sales", func(r chi.Router) {
			r.Get("/", h.listSales)
			r.Get("/grouped", h.purchasesWithSales)
			r.Get("/available-purchases", h.availablePurchases)
			r.Post("/", h.createSale)
			r.Get("/{id}", h.getSale)
			r.Put("/{id}", h.updateSale)
			r.Delete("/{id}", h.deleteSale)
		})

		r.Route("/api/lot-processings", func(r chi.Router) {
			r.Post("/", h.submitProcessing)
			r.Get("/{id}", h.getProcessing)
			r.Put("/{id}", h.updateProcessing)
			r.Delete("/{id}", h.deleteProcessing)
			r.Get("/purchase/{purchaseId}", h.processingsByPurchase)
		})

		r.Route("/api/loans", func(r chi.Router) {
			r.Get("/", h.listLoans)
			r.Post("/", h.createLoan)
			r.Put("/{id}", h.updateLoan)
			r.Delete("/{id}", h.deleteLoan)
			r.Get("/purchase/{purchaseId}", h.loansByPurchase)
		})

		r.Route("/api/suppliers", func(r chi.Router) {
			r.Get("/", h.listSuppliers)
			r.Post("/", h.createSupplier)
			r.Get("/{id}", h.getSupplier)
			r.Put("/{id}", h.updateSupplier)
			r.Delete("/{id}", h.deleteSupplier)
		})

		r.Route("/api/items", func(r chi.Router) {
			r.Get("/", h.listItems)
			r.Post("/", h.createItem)
			r.Put("/{id}", h.updateItem)
			r.Delete("/{id}", h.deleteItem)
		})

		r.Route("/api/units", func(r chi.Router) {
			r.Get("/", h.listUnits)
			r.Post("/", h.createUnit)
			r.Put("/{id}", h.updateUnit)
			r.Delete("/{id}", h.deleteUnit)
		})

		r.Route("/api/locations", func(r chi.Router) {
			r.Get("/", h.listLocations)
			r.Get("/{id}", h.getLocation)
			r.Get("/{id}/years", h.availableYears)
			r.Group(func(r chi.Router) {
				r.Use(h.RequireRole(core.RoleSuperAdmin))
				r.Post("/", h.createLocation)
				r.Put("/{id}", h.updateLocation)
				r.Delete("/{id}", h.deleteLocation)
				r.Delete("/{id}/years/{year}", h.deleteYear)
			})
		})

		for _, kind := range []core.RateKind{core.RateRent, core.RateLoading, core.RateUnloading, core.RateTaiyari} {
			kind := kind
			r.Route("/api/"+string(kind)+"-rates", func(r chi.Router) {
				r.Get("/", h.listRates(kind))
				r.Post("/", h.createRate(kind))
				r.Put("/{id}", h.updateRate(kind))
				r.Delete("/{id}", h.deleteRate(kind))
			})
		}
		r.Route("/api/interest-rates", func(r chi.Router) {
			r.Get("/", h.getInterestRate)
			r.Post("/", h.setInterestRate)
		})

		r.Route("/api/users", func(r chi.Router) {
			r.Use(h.RequireRole(core.RoleSuperAdmin, core.RoleAdmin))
			r.Get("/", h.listUsers)
			r.Post("/", h.createUser)
			r.Put("/{id}", h.updateUser)
			r.Delete("/{id}", h.deleteUser)
		})

		r.Get("/api/dashboard/stats", h.dashboardStats)
	})

	h.router = r
	return r
}

// health returns service and database status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if err := h.svc.Pool.Ping(r.Context()); err != nil {
		status = "degraded"
	}
	type response struct {
		Status string `json:"status"`
	}
	writeJSON(w, response{Status: status})
}

// urlID extracts a positive integer URL parameter.
func urlID(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id < 1 {
		return 0, core.BadRequestf("invalid %s parameter", name)
	}
	return id, nil
}

// queryInt parses an optional positive integer query parameter.
func queryInt(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return nil, core.BadRequestf("invalid %s parameter", name)
	}
	return &n, nil
}

// requireYear parses a mandatory year query parameter.
func requireYear(r *http.Request) (int, error) {
	year, err := queryInt(r, "year")
	if err != nil {
		return 0, err
	}
	if year == nil {
		return 0, core.BadRequestf("year parameter is required")
	}
	return *year, nil
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
