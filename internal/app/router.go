package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/auth"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/customers"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/devices"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/observability"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/reports"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/roles"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/shared"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/transactions"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/users"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	AuthHandler         *auth.Handler
	UsersHandler        *users.Handler
	RolesHandler        *roles.Handler
	CustomersHandler    *customers.Handler
	DevicesHandler      *devices.Handler
	TransactionsHandler *transactions.Handler
	ReportsHandler      *reports.Handler
	JobHandler          *jobs.Handler
	Metrics             *observability.Metrics
}

// NewRouter constructs the chi.Router for the API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	if params.UsersHandler != nil {
		r.Route("/users", params.UsersHandler.MountRoutes)
	}
	if params.RolesHandler != nil {
		r.Route("/roles", params.RolesHandler.MountRoutes)
	}
	r.Route("/customers", params.CustomersHandler.MountRoutes)
	r.Route("/devices", params.DevicesHandler.MountRoutes)
	r.Route("/transactions", params.TransactionsHandler.MountRoutes)
	r.Route("/reports", params.ReportsHandler.MountRoutes)
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
