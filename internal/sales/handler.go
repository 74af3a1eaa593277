package sales

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/stockyard-erp/stockyard/internal/rbac"
	"github.com/stockyard-erp/stockyard/internal/shared"
	"github.com/stockyard-erp/stockyard/internal/view"
)

// ProductOption is a product reference for the add-line form.
type ProductOption struct {
	ID   int64
	Code string
	Name string
}

// ProductLister supplies active products for the add-line form.
type ProductLister interface {
	ActiveProductOptions(ctx context.Context) ([]ProductOption, error)
}

// Handler wires HTTP endpoints for the sales ledger.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	products  ProductLister
	templates *view.Engine
	csrf      *shared.CSRFManager
	rbac      rbac.Middleware
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, products ProductLister, templates *view.Engine, csrf *shared.CSRFManager, rbacMW rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, products: products, templates: templates, csrf: csrf, rbac: rbacMW}
}

// MountRoutes registers sales routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequireAny(rbac.PermSalesView)).Get("/", h.list)
	r.With(h.rbac.RequireAny(rbac.PermSalesEdit)).Get("/new", h.newForm)
	r.With(h.rbac.RequireAny(rbac.PermSalesEdit)).Post("/", h.create)
	r.With(h.rbac.RequireAny(rbac.PermSalesView)).Get("/{id}", h.show)
	r.With(h.rbac.RequireAny(rbac.PermSalesEdit)).Get("/{id}/edit", h.editForm)
	r.With(h.rbac.RequireAny(rbac.PermSalesEdit)).Post("/{id}", h.update)
	r.With(h.rbac.RequireAny(rbac.PermSalesEdit)).Post("/{id}/lines", h.addLine)
	r.With(h.rbac.RequireAny(rbac.PermSalesEdit)).Post("/{id}/lines/{lineID}/delete", h.removeLine)
	r.With(h.rbac.RequireAny(rbac.PermSalesEdit)).Post("/{id}/finalize", h.finalize)
	r.With(h.rbac.RequireAny(rbac.PermSalesEdit)).Post("/{id}/cancel", h.cancel)
	r.With(h.rbac.RequireAny(rbac.PermSalesEdit)).Post("/{id}/delete", h.softDelete)
}

type saleForm struct {
	ClientName  string
	ClientEmail string
	ClientPhone string
	Discount    string
	PaymentMode PaymentMode
	Comment     string
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	pageNum, _ := strconv.Atoi(r.URL.Query().Get("page"))
	page := shared.NewPagination(pageNum, 20, 0)

	filter := ListFilter{Status: SaleStatus(r.URL.Query().Get("status"))}
	if filter.Status != "" && !ValidStatus(filter.Status) {
		filter.Status = ""
	}

	sales, total, err := h.service.List(r.Context(), filter, page)
	if err != nil {
		h.logger.Error("list sales", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/sales/sales_list.html", "Ventes", map[string]any{
		"Sales":      sales,
		"Pagination": shared.NewPagination(page.Page, page.PerPage, total),
	}, http.StatusOK)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.saleID(w, r)
	if !ok {
		return
	}
	detail, err := h.service.Get(r.Context(), id)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}

	var options []ProductOption
	if detail.Status == StatusInProgress {
		options, err = h.products.ActiveProductOptions(r.Context())
		if err != nil {
			h.logger.Error("list products for sale", slog.Any("error", err))
		}
	}

	h.render(w, r, "pages/sales/sale_detail.html", "Vente "+detail.Number, map[string]any{
		"Sale":     detail.SaleRow,
		"Lines":    detail.Lines,
		"Products": options,
		"Editable": detail.Status == StatusInProgress,
		"Errors":   map[string]string{},
	}, http.StatusOK)
}

func (h *Handler) newForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, "Nouvelle vente", saleForm{PaymentMode: PaymentCash}, "/sales", map[string]string{}, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	form, input, errs := h.parseSale(r)
	if len(errs) > 0 {
		h.renderForm(w, r, "Nouvelle vente", form, "/sales", errs, http.StatusBadRequest)
		return
	}
	input.SellerID = currentUserID(r)

	created, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.logger.Error("create sale", slog.Any("error", err))
		h.renderForm(w, r, "Nouvelle vente", form, "/sales", map[string]string{"general": shared.UserSafeMessage(err)}, http.StatusBadRequest)
		return
	}

	h.redirectWithFlash(w, r, "/sales/"+strconv.FormatInt(created.ID, 10), "success", "Vente "+created.Number+" créée")
}

func (h *Handler) editForm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.saleID(w, r)
	if !ok {
		return
	}
	detail, err := h.service.Get(r.Context(), id)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}

	form := saleForm{
		ClientName:  detail.ClientName,
		ClientEmail: detail.ClientEmail,
		ClientPhone: detail.ClientPhone,
		Discount:    strconv.FormatFloat(detail.Discount, 'f', 2, 64),
		PaymentMode: detail.PaymentMode,
		Comment:     detail.Comment,
	}
	h.renderForm(w, r, "Modifier la vente", form, "/sales/"+strconv.FormatInt(id, 10), map[string]string{}, http.StatusOK)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.saleID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	action := "/sales/" + strconv.FormatInt(id, 10)
	form, input, errs := h.parseSale(r)
	if len(errs) > 0 {
		h.renderForm(w, r, "Modifier la vente", form, action, errs, http.StatusBadRequest)
		return
	}

	err := h.service.Update(r.Context(), id, UpdateInput{
		ClientName:  input.ClientName,
		ClientEmail: input.ClientEmail,
		ClientPhone: input.ClientPhone,
		Discount:    input.Discount,
		PaymentMode: input.PaymentMode,
		Comment:     input.Comment,
	}, currentUserID(r))
	if err != nil {
		h.logger.Error("update sale", slog.Any("error", err), slog.Int64("id", id))
		h.renderForm(w, r, "Modifier la vente", form, action, map[string]string{"general": shared.UserSafeMessage(err)}, http.StatusBadRequest)
		return
	}

	h.redirectWithFlash(w, r, action, "success", "Vente mise à jour")
}

func (h *Handler) addLine(w http.ResponseWriter, r *http.Request) {
	id, ok := h.saleID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	location := "/sales/" + strconv.FormatInt(id, 10)

	productID, err := strconv.ParseInt(r.PostFormValue("product_id"), 10, 64)
	if err != nil {
		h.redirectWithFlash(w, r, location, "error", "Produit invalide")
		return
	}
	quantity, err := strconv.Atoi(r.PostFormValue("quantity"))
	if err != nil {
		h.redirectWithFlash(w, r, location, "error", "Quantité invalide")
		return
	}
	var price float64
	if raw := r.PostFormValue("unit_price"); raw != "" {
		price, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			h.redirectWithFlash(w, r, location, "error", "Prix unitaire invalide")
			return
		}
	}

	if _, err := h.service.AddLine(r.Context(), id, productID, quantity, price, currentUserID(r)); err != nil {
		h.logger.Error("add sale line", slog.Any("error", err), slog.Int64("sale_id", id))
		h.redirectWithFlash(w, r, location, "error", shared.UserSafeMessage(err))
		return
	}

	h.redirectWithFlash(w, r, location, "success", "Ligne ajoutée")
}

func (h *Handler) removeLine(w http.ResponseWriter, r *http.Request) {
	id, ok := h.saleID(w, r)
	if !ok {
		return
	}
	lineID, err := strconv.ParseInt(chi.URLParam(r, "lineID"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	location := "/sales/" + strconv.FormatInt(id, 10)
	if err := h.service.RemoveLine(r.Context(), id, lineID, currentUserID(r)); err != nil {
		h.logger.Error("remove sale line", slog.Any("error", err), slog.Int64("sale_id", id))
		h.redirectWithFlash(w, r, location, "error", shared.UserSafeMessage(err))
		return
	}

	h.redirectWithFlash(w, r, location, "success", "Ligne retirée")
}

func (h *Handler) finalize(w http.ResponseWriter, r *http.Request) {
	id, ok := h.saleID(w, r)
	if !ok {
		return
	}

	location := "/sales/" + strconv.FormatInt(id, 10)
	finalized, err := h.service.Finalize(r.Context(), id, nil, currentUserID(r))
	if err != nil {
		h.logger.Error("finalize sale", slog.Any("error", err), slog.Int64("sale_id", id))
		h.redirectWithFlash(w, r, location, "error", shared.UserSafeMessage(err))
		return
	}

	h.redirectWithFlash(w, r, location, "success", "Vente "+finalized.Number+" finalisée")
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := h.saleID(w, r)
	if !ok {
		return
	}

	location := "/sales/" + strconv.FormatInt(id, 10)
	if err := h.service.Cancel(r.Context(), id, currentUserID(r)); err != nil {
		h.logger.Error("cancel sale", slog.Any("error", err), slog.Int64("sale_id", id))
		h.redirectWithFlash(w, r, location, "error", shared.UserSafeMessage(err))
		return
	}

	h.redirectWithFlash(w, r, location, "success", "Vente annulée")
}

func (h *Handler) softDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.saleID(w, r)
	if !ok {
		return
	}

	if err := h.service.SoftDelete(r.Context(), id, currentUserID(r)); err != nil {
		h.logger.Error("delete sale", slog.Any("error", err), slog.Int64("sale_id", id))
		h.redirectWithFlash(w, r, "/sales", "error", shared.UserSafeMessage(err))
		return
	}

	h.redirectWithFlash(w, r, "/sales", "success", "Vente supprimée")
}

func (h *Handler) saleID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (h *Handler) parseSale(r *http.Request) (saleForm, CreateInput, map[string]string) {
	form := saleForm{
		ClientName:  r.PostFormValue("client_name"),
		ClientEmail: r.PostFormValue("client_email"),
		ClientPhone: r.PostFormValue("client_phone"),
		Discount:    r.PostFormValue("discount"),
		PaymentMode: PaymentMode(r.PostFormValue("payment_mode")),
		Comment:     r.PostFormValue("comment"),
	}
	errs := make(map[string]string)

	input := CreateInput{
		ClientName:  form.ClientName,
		ClientEmail: form.ClientEmail,
		ClientPhone: form.ClientPhone,
		PaymentMode: form.PaymentMode,
		Comment:     form.Comment,
	}

	if form.Discount != "" {
		discount, err := strconv.ParseFloat(form.Discount, 64)
		if err != nil {
			errs["Discount"] = "Remise invalide"
		} else {
			input.Discount = discount
		}
	}

	return form, input, errs
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, title string, form saleForm, action string, errs map[string]string, status int) {
	h.render(w, r, "pages/sales/sale_form.html", title, map[string]any{
		"Form":         form,
		"Errors":       errs,
		"Action":       action,
		"PaymentModes": AllPaymentModes,
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
