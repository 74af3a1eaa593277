package stock

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stockyard-erp/stockyard/internal/rbac"
	"github.com/stockyard-erp/stockyard/internal/shared"
	"github.com/stockyard-erp/stockyard/internal/view"
)

// ProductOption is a product reference for the movement form.
type ProductOption struct {
	ID   int64
	Code string
	Name string
}

// ProductLister supplies active products for the movement form.
type ProductLister interface {
	ActiveProductOptions(ctx context.Context) ([]ProductOption, error)
}

// Handler wires HTTP endpoints for the stock ledger.
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

// MountRoutes registers stock routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequireAny(rbac.PermStockView)).Get("/movements", h.list)
	r.With(h.rbac.RequireAny(rbac.PermStockEdit)).Get("/movements/new", h.newForm)
	r.With(h.rbac.RequireAny(rbac.PermStockEdit)).Post("/movements", h.create)
}

type movementForm struct {
	ProductID int64
	Kind      MovementKind
	Reason    MovementReason
	Quantity  string
	UnitPrice string
	Reference string
	Notes     string
	Token     string
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	pageNum, _ := strconv.Atoi(r.URL.Query().Get("page"))
	page := shared.NewPagination(pageNum, 20, 0)

	filter := MovementFilter{Kind: MovementKind(r.URL.Query().Get("kind"))}
	if filter.Kind != "" && !ValidKind(filter.Kind) {
		filter.Kind = ""
	}

	movements, total, err := h.service.ListMovements(r.Context(), filter, page)
	if err != nil {
		h.logger.Error("list movements", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/stock/movements_list.html", "Mouvements de stock", map[string]any{
		"Movements":  movements,
		"Kinds":      AllKinds,
		"KindFilter": filter.Kind,
		"Pagination": shared.NewPagination(page.Page, page.PerPage, total),
	}, http.StatusOK)
}

func (h *Handler) newForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, movementForm{Kind: KindIn, Reason: ReasonPurchase, Quantity: "1", Token: uuid.NewString()}, map[string]string{}, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	form := movementForm{
		Kind:      MovementKind(r.PostFormValue("kind")),
		Reason:    MovementReason(r.PostFormValue("reason")),
		Quantity:  r.PostFormValue("quantity"),
		UnitPrice: r.PostFormValue("unit_price"),
		Reference: r.PostFormValue("reference"),
		Notes:     r.PostFormValue("notes"),
		Token:     r.PostFormValue("idempotency_key"),
	}
	errs := make(map[string]string)

	input := MovementInput{
		Kind:           form.Kind,
		Reason:         form.Reason,
		Reference:      form.Reference,
		Comment:        form.Notes,
		ActorID:        currentUserID(r),
		IdempotencyKey: form.Token,
	}

	if raw := r.PostFormValue("product_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			errs["ProductID"] = "Produit invalide"
		} else {
			form.ProductID = id
			input.ProductID = id
		}
	} else {
		errs["ProductID"] = "Produit obligatoire"
	}
	if form.Quantity != "" {
		qty, err := strconv.Atoi(form.Quantity)
		if err != nil {
			errs["Quantity"] = "Quantité invalide"
		} else {
			input.Quantity = qty
		}
	}
	if form.UnitPrice != "" {
		price, err := strconv.ParseFloat(form.UnitPrice, 64)
		if err != nil {
			errs["UnitPrice"] = "Prix unitaire invalide"
		} else {
			input.UnitPrice = price
		}
	}

	if len(errs) > 0 {
		h.renderForm(w, r, form, errs, http.StatusBadRequest)
		return
	}

	if _, err := h.service.RecordMovement(r.Context(), input); err != nil {
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			h.redirectWithFlash(w, r, "/stock/movements", "info", "Mouvement déjà enregistré")
			return
		}
		h.logger.Error("record movement", slog.Any("error", err))
		h.renderForm(w, r, form, map[string]string{"general": shared.UserSafeMessage(err)}, http.StatusBadRequest)
		return
	}

	h.redirectWithFlash(w, r, "/stock/movements", "success", "Mouvement enregistré")
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, form movementForm, errs map[string]string, status int) {
	options, err := h.products.ActiveProductOptions(r.Context())
	if err != nil {
		h.logger.Error("list products for movement form", slog.Any("error", err))
	}

	h.render(w, r, "pages/stock/movement_form.html", "Nouveau mouvement", map[string]any{
		"Form":     form,
		"Errors":   errs,
		"Products": options,
		"Kinds":    AllKinds,
		"Reasons":  AllReasons,
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
