package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/MelannyAlzate/VinsBakery/internal/access"
	"github.com/MelannyAlzate/VinsBakery/internal/entity"
	"github.com/MelannyAlzate/VinsBakery/internal/metrics"
	"github.com/MelannyAlzate/VinsBakery/internal/service"
)

// Services groups the use cases the API exposes.
type Services struct {
	Auth      *service.AuthService
	Catalog   *service.CatalogService
	Customers *service.CustomerService
	Orders    *service.OrderService
	Alerts    *service.AlertService
	Reports   *service.ReportService
}

// TokenVerifier turns a bearer token into a caller.
type TokenVerifier interface {
	Verify(token string) (*entity.Caller, error)
}

// Options tunes the HTTP layer. TrustProxyHeaders takes the client address
// from X-Forwarded-For / X-Real-IP; enable it only behind a proxy that
// overwrites those headers.
type Options struct {
	CORSOrigin        string
	LoginRateRPS      float64
	LoginRateBurst    int
	TrustProxyHeaders bool
}

// Handler handles HTTP requests for the application.
type Handler struct {
	svc      Services
	gate     *access.Gate
	tokens   TokenVerifier
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	opts     Options
	logins   *ipLimiter
}

func NewHandler(svc Services, gate *access.Gate, tokens TokenVerifier, m *metrics.Metrics, gatherer prometheus.Gatherer, opts Options) *Handler {
	return &Handler{
		svc:      svc,
		gate:     gate,
		tokens:   tokens,
		metrics:  m,
		gatherer: gatherer,
		opts:     opts,
		logins:   newIPLimiter(opts.LoginRateRPS, opts.LoginRateBurst),
	}
}

// Routes builds the router with the full middleware stack.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if h.opts.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(h.observe)
	r.Use(middleware.Recoverer)
	r.Use(h.enableCORS)

	r.Get("/", h.handleBanner)
	r.Get("/health", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler(h.gatherer))

	r.Route("/api", func(r chi.Router) {
		r.Use(limitBody)

		r.With(h.limitLogins).Post("/login", h.handleLogin)
		r.With(h.optionalAuth).Post("/register", h.handleRegister)

		r.Group(func(r chi.Router) {
			r.Use(h.authenticate)

			r.Get("/me", h.handleMe)

			r.With(h.require(access.ModuleProducts, access.ActionView)).Get("/products", h.handleListProducts)
			r.With(h.require(access.ModuleProducts, access.ActionCreate)).Post("/products", h.handleCreateProduct)
			r.With(h.require(access.ModuleProducts, access.ActionView)).Get("/products/{id}", h.handleGetProduct)
			r.With(h.require(access.ModuleProducts, access.ActionEdit)).Put("/products/{id}", h.handleUpdateProduct)
			r.With(h.require(access.ModuleProducts, access.ActionDelete)).Delete("/products/{id}", h.handleDeleteProduct)

			r.With(h.require(access.ModuleCustomers, access.ActionView)).Get("/customers", h.handleListCustomers)
			r.With(h.require(access.ModuleCustomers, access.ActionCreate)).Post("/customers", h.handleCreateCustomer)
			r.With(h.require(access.ModuleCustomers, access.ActionView)).Get("/customers/phone/{phone}", h.handleCustomerByPhone)
			r.With(h.require(access.ModuleCustomers, access.ActionEdit)).Post("/customers/{id}/approve", h.handleApproveCustomer)

			r.With(h.require(access.ModuleOrders, access.ActionView)).Get("/orders", h.handleListOrders)
			r.With(h.require(access.ModuleOrders, access.ActionCreate)).Post("/orders", h.handleCreateOrder)
			r.With(h.require(access.ModuleOrders, access.ActionView)).Get("/orders/{id}", h.handleGetOrder)
			r.With(h.require(access.ModuleOrders, access.ActionEdit)).Patch("/orders/{id}/status", h.handleUpdateOrderStatus)

			r.With(h.require(access.ModuleAlerts, access.ActionView)).Get("/alerts", h.handleListAlerts)
			r.With(h.require(access.ModuleAlerts, access.ActionEdit)).Post("/alerts/scan", h.handleScanAlerts)
			r.With(h.require(access.ModuleAlerts, access.ActionEdit)).Post("/alerts/{id}/resolve", h.handleResolveAlert)

			r.With(h.require(access.ModuleStats, access.ActionView)).Get("/stats", h.handleStats)
			r.With(h.require(access.ModuleActivity, access.ActionView)).Get("/activity", h.handleActivity)
		})
	})
	return r
}

func (h *Handler) handleBanner(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"service": "vins-bakery", "status": "running"})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
