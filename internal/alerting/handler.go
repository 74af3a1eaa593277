package alerting

import (
	"log/slog"
	"net/http"

	"github.com/stockyard-erp/stockyard/internal/shared"
	"github.com/stockyard-erp/stockyard/internal/view"
)

// Handler serves the dashboard with the current alert list. The route
// itself is registered by the router so the anonymous redirect and the
// permission check stay in one place.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf}
}

// Dashboard renders the home page with the current alert list.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.service.ComputeAlerts(r.Context())
	if err != nil {
		h.logger.Error("compute alerts", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}

	err = h.templates.Render(w, "pages/home.html", view.TemplateData{
		Title:       "Tableau de bord",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        map[string]any{"Alerts": alerts},
	})
	if err != nil {
		h.logger.Error("render dashboard", slog.Any("error", err))
	}
}
