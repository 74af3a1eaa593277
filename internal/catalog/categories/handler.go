package categories

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/stockyard-erp/stockyard/internal/rbac"
	"github.com/stockyard-erp/stockyard/internal/shared"
	"github.com/stockyard-erp/stockyard/internal/view"
)

// Handler wires HTTP endpoints for category management.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	rbac      rbac.Middleware
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, rbacMW rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf, rbac: rbacMW}
}

// MountRoutes registers category routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequireAny(rbac.PermCatalogView)).Get("/", h.list)
	r.With(h.rbac.RequireAny(rbac.PermCatalogEdit)).Get("/new", h.newForm)
	r.With(h.rbac.RequireAny(rbac.PermCatalogEdit)).Post("/", h.create)
	r.With(h.rbac.RequireAny(rbac.PermCatalogEdit)).Get("/{id}/edit", h.editForm)
	r.With(h.rbac.RequireAny(rbac.PermCatalogEdit)).Post("/{id}", h.update)
	r.With(h.rbac.RequireAny(rbac.PermCatalogEdit)).Post("/{id}/delete", h.delete)
	r.With(h.rbac.RequireAny(rbac.PermCatalogEdit)).Post("/{id}/restore", h.restore)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("q")
	list, err := h.service.List(r.Context(), search)
	if err != nil {
		h.logger.Error("list categories", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/catalog/categories_list.html", "Catégories", map[string]any{
		"Categories": list,
		"Query":      search,
	}, http.StatusOK)
}

func (h *Handler) newForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/catalog/category_form.html", "Nouvelle catégorie", map[string]any{
		"Form":   Category{Color: DefaultColor},
		"Errors": map[string]string{},
		"Action": "/catalog/categories",
	}, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	category := Category{
		Name:        r.PostFormValue("name"),
		Description: r.PostFormValue("description"),
		Color:       r.PostFormValue("color"),
	}

	if _, err := h.service.Create(r.Context(), category); err != nil {
		h.logger.Error("create category", slog.Any("error", err))
		h.render(w, r, "pages/catalog/category_form.html", "Nouvelle catégorie", map[string]any{
			"Form":   category,
			"Errors": map[string]string{"general": shared.UserSafeMessage(err)},
			"Action": "/catalog/categories",
		}, http.StatusBadRequest)
		return
	}

	h.redirectWithFlash(w, r, "/catalog/categories", "success", "Catégorie créée")
}

func (h *Handler) editForm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	category, err := h.service.Get(r.Context(), id)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}
	h.render(w, r, "pages/catalog/category_form.html", "Modifier la catégorie", map[string]any{
		"Form":   category,
		"Errors": map[string]string{},
		"Action": "/catalog/categories/" + strconv.FormatInt(id, 10),
	}, http.StatusOK)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	category := Category{
		Name:        r.PostFormValue("name"),
		Description: r.PostFormValue("description"),
		Color:       r.PostFormValue("color"),
	}

	if err := h.service.Update(r.Context(), id, category); err != nil {
		h.logger.Error("update category", slog.Any("error", err), slog.Int64("id", id))
		h.render(w, r, "pages/catalog/category_form.html", "Modifier la catégorie", map[string]any{
			"Form":   category,
			"Errors": map[string]string{"general": shared.UserSafeMessage(err)},
			"Action": "/catalog/categories/" + strconv.FormatInt(id, 10),
		}, http.StatusBadRequest)
		return
	}

	h.redirectWithFlash(w, r, "/catalog/categories", "success", "Catégorie mise à jour")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.SoftDelete(r.Context(), id); err != nil {
		h.logger.Error("delete category", slog.Any("error", err), slog.Int64("id", id))
		h.redirectWithFlash(w, r, "/catalog/categories", "error", shared.UserSafeMessage(err))
		return
	}

	h.redirectWithFlash(w, r, "/catalog/categories", "success", "Catégorie supprimée")
}

func (h *Handler) restore(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.Restore(r.Context(), id); err != nil {
		h.logger.Error("restore category", slog.Any("error", err), slog.Int64("id", id))
		h.redirectWithFlash(w, r, "/catalog/categories", "error", shared.UserSafeMessage(err))
		return
	}

	h.redirectWithFlash(w, r, "/catalog/categories", "success", "Catégorie restaurée")
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template, title string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err), slog.String("template", template))
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
