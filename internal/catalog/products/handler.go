package products

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/stockyard-erp/stockyard/internal/catalog/categories"
	"github.com/stockyard-erp/stockyard/internal/catalog/suppliers"
	"github.com/stockyard-erp/stockyard/internal/rbac"
	"github.com/stockyard-erp/stockyard/internal/shared"
	"github.com/stockyard-erp/stockyard/internal/stock"
	"github.com/stockyard-erp/stockyard/internal/view"
)

// Handler wires HTTP endpoints for product management.
type Handler struct {
	logger     *slog.Logger
	service    *Service
	categories *categories.Service
	suppliers  *suppliers.Service
	stock      *stock.Service
	templates  *view.Engine
	csrf       *shared.CSRFManager
	rbac       rbac.Middleware
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, categoriesSvc *categories.Service, suppliersSvc *suppliers.Service, stockSvc *stock.Service, templates *view.Engine, csrf *shared.CSRFManager, rbacMW rbac.Middleware) *Handler {
	return &Handler{
		logger:     logger,
		service:    service,
		categories: categoriesSvc,
		suppliers:  suppliersSvc,
		stock:      stockSvc,
		templates:  templates,
		csrf:       csrf,
		rbac:       rbacMW,
	}
}

// MountRoutes registers product routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequireAny(rbac.PermCatalogView)).Get("/", h.list)
	r.With(h.rbac.RequireAny(rbac.PermCatalogEdit)).Get("/new", h.newForm)
	r.With(h.rbac.RequireAny(rbac.PermCatalogEdit)).Post("/", h.create)
	r.With(h.rbac.RequireAny(rbac.PermCatalogView)).Get("/{id}", h.show)
	r.With(h.rbac.RequireAny(rbac.PermCatalogEdit)).Get("/{id}/edit", h.editForm)
	r.With(h.rbac.RequireAny(rbac.PermCatalogEdit)).Post("/{id}", h.update)
	r.With(h.rbac.RequireAny(rbac.PermCatalogEdit)).Post("/{id}/delete", h.softDelete)
	r.With(h.rbac.RequireAny(rbac.PermCatalogEdit)).Post("/{id}/restore", h.restore)
}

type productForm struct {
	Code           string
	Name           string
	Description    string
	CategoryID     int64
	SupplierID     int64
	Unit           Unit
	PurchasePrice  string
	SalePrice      string
	AlertThreshold string
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	pageNum, _ := strconv.Atoi(r.URL.Query().Get("page"))
	search := r.URL.Query().Get("q")
	page := shared.NewPagination(pageNum, 20, 0)

	list, total, err := h.service.List(r.Context(), search, page)
	if err != nil {
		h.logger.Error("list products", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/catalog/products_list.html", "Produits", map[string]any{
		"Products":   list,
		"Query":      search,
		"Pagination": shared.NewPagination(page.Page, page.PerPage, total),
	}, http.StatusOK)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}

	movements, _, err := h.stock.ListMovements(r.Context(), stock.MovementFilter{ProductID: id}, shared.NewPagination(1, 10, 0))
	if err != nil {
		h.logger.Error("list product movements", slog.Any("error", err), slog.Int64("id", id))
		movements = nil
	}

	h.render(w, r, "pages/catalog/product_detail.html", product.Name, map[string]any{
		"Product":      product,
		"CurrentStock": product.CurrentStock,
		"Movements":    movements,
	}, http.StatusOK)
}

func (h *Handler) newForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, "Nouveau produit", productForm{Unit: UnitPiece, AlertThreshold: strconv.Itoa(DefaultAlertThreshold)}, "/catalog/products", map[string]string{}, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	form, product, formErrs := h.parseProduct(r)
	if len(formErrs) > 0 {
		h.renderForm(w, r, "Nouveau produit", form, "/catalog/products", formErrs, http.StatusBadRequest)
		return
	}

	created, err := h.service.Create(r.Context(), product, currentUserID(r))
	if err != nil {
		h.logger.Error("create product", slog.Any("error", err))
		h.renderForm(w, r, "Nouveau produit", form, "/catalog/products", map[string]string{"general": shared.UserSafeMessage(err)}, http.StatusBadRequest)
		return
	}

	h.redirectWithFlash(w, r, "/catalog/products/"+strconv.FormatInt(created.ID, 10), "success", "Produit créé")
}

func (h *Handler) editForm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}

	form := productForm{
		Code:           product.Code,
		Name:           product.Name,
		Description:    product.Description,
		Unit:           product.Unit,
		PurchasePrice:  strconv.FormatFloat(product.PurchasePrice, 'f', 2, 64),
		SalePrice:      strconv.FormatFloat(product.SalePrice, 'f', 2, 64),
		AlertThreshold: strconv.Itoa(product.AlertThreshold),
	}
	if product.CategoryID != nil {
		form.CategoryID = *product.CategoryID
	}
	if product.SupplierID != nil {
		form.SupplierID = *product.SupplierID
	}

	h.renderForm(w, r, "Modifier le produit", form, "/catalog/products/"+strconv.FormatInt(id, 10), map[string]string{}, http.StatusOK)
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

	action := "/catalog/products/" + strconv.FormatInt(id, 10)
	form, product, formErrs := h.parseProduct(r)
	if len(formErrs) > 0 {
		h.renderForm(w, r, "Modifier le produit", form, action, formErrs, http.StatusBadRequest)
		return
	}

	if err := h.service.Update(r.Context(), id, product, currentUserID(r)); err != nil {
		h.logger.Error("update product", slog.Any("error", err), slog.Int64("id", id))
		h.renderForm(w, r, "Modifier le produit", form, action, map[string]string{"general": shared.UserSafeMessage(err)}, http.StatusBadRequest)
		return
	}

	h.redirectWithFlash(w, r, action, "success", "Produit mis à jour")
}

func (h *Handler) softDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.SoftDelete(r.Context(), id, currentUserID(r)); err != nil {
		h.logger.Error("delete product", slog.Any("error", err), slog.Int64("id", id))
		h.redirectWithFlash(w, r, "/catalog/products", "error", shared.UserSafeMessage(err))
		return
	}

	h.redirectWithFlash(w, r, "/catalog/products", "success", "Produit supprimé")
}

func (h *Handler) restore(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.Restore(r.Context(), id, currentUserID(r)); err != nil {
		h.logger.Error("restore product", slog.Any("error", err), slog.Int64("id", id))
		h.redirectWithFlash(w, r, "/catalog/products", "error", shared.UserSafeMessage(err))
		return
	}

	h.redirectWithFlash(w, r, "/catalog/products", "success", "Produit restauré")
}

func (h *Handler) parseProduct(r *http.Request) (productForm, Product, map[string]string) {
	form := productForm{
		Code:           r.PostFormValue("code"),
		Name:           r.PostFormValue("name"),
		Description:    r.PostFormValue("description"),
		Unit:           Unit(r.PostFormValue("unit")),
		PurchasePrice:  r.PostFormValue("purchase_price"),
		SalePrice:      r.PostFormValue("sale_price"),
		AlertThreshold: r.PostFormValue("alert_threshold"),
	}
	errs := make(map[string]string)

	product := Product{
		Code:        form.Code,
		Name:        form.Name,
		Description: form.Description,
		Unit:        form.Unit,
	}

	if raw := r.PostFormValue("category_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			errs["CategoryID"] = "Catégorie invalide"
		} else {
			form.CategoryID = id
			product.CategoryID = &id
		}
	}
	if raw := r.PostFormValue("supplier_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			errs["SupplierID"] = "Fournisseur invalide"
		} else {
			form.SupplierID = id
			product.SupplierID = &id
		}
	}

	if form.PurchasePrice != "" {
		v, err := strconv.ParseFloat(form.PurchasePrice, 64)
		if err != nil {
			errs["PurchasePrice"] = "Prix d'achat invalide"
		} else {
			product.PurchasePrice = v
		}
	}
	if form.SalePrice != "" {
		v, err := strconv.ParseFloat(form.SalePrice, 64)
		if err != nil {
			errs["SalePrice"] = "Prix de vente invalide"
		} else {
			product.SalePrice = v
		}
	}
	if form.AlertThreshold != "" {
		v, err := strconv.Atoi(form.AlertThreshold)
		if err != nil {
			errs["AlertThreshold"] = "Seuil d'alerte invalide"
		} else {
			product.AlertThreshold = v
		}
	}

	return form, product, errs
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, title string, form productForm, action string, errs map[string]string, status int) {
	cats, err := h.categories.List(r.Context(), "")
	if err != nil {
		h.logger.Error("list categories for form", slog.Any("error", err))
	}
	sups, err := h.suppliers.List(r.Context(), "")
	if err != nil {
		h.logger.Error("list suppliers for form", slog.Any("error", err))
	}

	h.render(w, r, "pages/catalog/product_form.html", title, map[string]any{
		"Form":       form,
		"Errors":     errs,
		"Action":     action,
		"Categories": cats,
		"Suppliers":  sups,
		"Units":      AllUnits,
	}, status)
}

func currentUserID(r *http.Request) int64 {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0
	}
	id, _ := strconv.ParseInt(sess.User(), 10, 64)
	return id
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
