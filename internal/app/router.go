package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/stockyard-erp/stockyard/internal/alerting"
	"github.com/stockyard-erp/stockyard/internal/auth"
	"github.com/stockyard-erp/stockyard/internal/catalog/categories"
	"github.com/stockyard-erp/stockyard/internal/catalog/products"
	"github.com/stockyard-erp/stockyard/internal/catalog/suppliers"
	"github.com/stockyard-erp/stockyard/internal/observability"
	"github.com/stockyard-erp/stockyard/internal/rbac"
	"github.com/stockyard-erp/stockyard/internal/reports"
	"github.com/stockyard-erp/stockyard/internal/sales"
	"github.com/stockyard-erp/stockyard/internal/shared"
	"github.com/stockyard-erp/stockyard/internal/stock"
	"github.com/stockyard-erp/stockyard/internal/users"
	"github.com/stockyard-erp/stockyard/internal/view"
	"github.com/stockyard-erp/stockyard/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Templates      *view.Engine
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	RBACMiddleware rbac.Middleware

	AuthHandler        *auth.Handler
	AlertsHandler      *alerting.Handler
	ProductsHandler    *products.Handler
	CategoriesHandler  *categories.Handler
	SuppliersHandler   *suppliers.Handler
	StockHandler       *stock.Handler
	SalesHandler       *sales.Handler
	ReportsHandler     *reports.Handler
	UsersHandler       *users.Handler
	PermissionsHandler *rbac.PermissionsHandler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with Stockyard defaults.
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

	// Landing page for unauthenticated users
	r.Get("/welcome", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		csrfToken, _ := params.CSRFManager.EnsureToken(r.Context(), sess)
		var flash *shared.FlashMessage
		if sess != nil {
			flash = sess.PopFlash()
		}
		data := view.TemplateData{
			Title:     params.Config.CompanyName,
			CSRFToken: csrfToken,
			Flash:     flash,
		}
		if err := params.Templates.Render(w, "pages/landing.html", data); err != nil {
			params.Logger.Error("render landing", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	})

	dashboard := params.RBACMiddleware.RequireAny(rbac.PermAlertsView)(http.HandlerFunc(params.AlertsHandler.Dashboard))
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || sess.User() == "" {
			http.Redirect(w, r, "/welcome", http.StatusSeeOther)
			return
		}
		dashboard.ServeHTTP(w, r)
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/catalog/products", params.ProductsHandler.MountRoutes)
	r.Route("/catalog/categories", params.CategoriesHandler.MountRoutes)
	r.Route("/catalog/suppliers", params.SuppliersHandler.MountRoutes)
	r.Route("/stock", params.StockHandler.MountRoutes)
	r.Route("/sales", params.SalesHandler.MountRoutes)
	r.Route("/reports", params.ReportsHandler.MountRoutes)
	r.Route("/users", params.UsersHandler.MountRoutes)
	if params.PermissionsHandler != nil {
		r.Route("/permissions", params.PermissionsHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers so
// browsers keep assets for an hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
