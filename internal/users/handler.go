package users

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stockyard-erp/stockyard/internal/rbac"
	"github.com/stockyard-erp/stockyard/internal/shared"
	"github.com/stockyard-erp/stockyard/internal/view"
)

// Handler wires HTTP endpoints for user management.
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

// MountRoutes registers user management routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.rbac.RequireAll(rbac.PermUsersManage))
	r.Get("/", h.list)
	r.Get("/new", h.newForm)
	r.Post("/", h.create)
	r.Get("/{id}/edit", h.editForm)
	r.Post("/{id}", h.update)
	r.Post("/{id}/delete", h.delete)
}

type userForm struct {
	Email    string
	FullName string
	Role     string
	Phone    string
	HiredAt  string
	Active   bool
}

// parseHiredAt accepts the date input format, empty means unset.
func parseHiredAt(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	day, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, shared.ValidationError("date d'embauche invalide")
	}
	return &day, nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("q")
	list, err := h.service.List(r.Context(), search)
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/users_list.html", "Utilisateurs", map[string]any{"Users": list, "Query": search}, http.StatusOK)
}

func (h *Handler) newForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/user_form.html", "Nouvel utilisateur", map[string]any{
		"Form":   userForm{Role: string(rbac.RoleSeller)},
		"Errors": map[string]string{},
		"Roles":  roleNames(),
		"Action": "/users",
		"IsEdit": false,
	}, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	form := userForm{
		Email:    r.PostFormValue("email"),
		FullName: r.PostFormValue("full_name"),
		Role:     r.PostFormValue("role"),
		Phone:    r.PostFormValue("phone"),
		HiredAt:  r.PostFormValue("hired_at"),
	}

	input := CreateInput{
		Email:    form.Email,
		FullName: form.FullName,
		Password: r.PostFormValue("password"),
		Role:     form.Role,
		Phone:    form.Phone,
	}
	hiredAt, err := parseHiredAt(form.HiredAt)
	if err == nil {
		input.HiredAt = hiredAt
		_, err = h.service.Create(r.Context(), input)
	}

	if err != nil {
		h.logger.Error("create user", slog.Any("error", err))
		h.render(w, r, "pages/user_form.html", "Nouvel utilisateur", map[string]any{
			"Form":   form,
			"Errors": map[string]string{"general": shared.UserSafeMessage(err)},
			"Roles":  roleNames(),
			"Action": "/users",
			"IsEdit": false,
		}, http.StatusBadRequest)
		return
	}

	h.redirectWithFlash(w, r, "/users", "success", "Utilisateur créé")
}

func (h *Handler) editForm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}
	form := userForm{Email: user.Email, FullName: user.FullName, Role: string(user.Role), Phone: user.Phone, Active: user.Active}
	if user.HiredAt != nil {
		form.HiredAt = user.HiredAt.Format("2006-01-02")
	}
	h.render(w, r, "pages/user_form.html", "Modifier l'utilisateur", map[string]any{
		"Form":   form,
		"Errors": map[string]string{},
		"Roles":  roleNames(),
		"Action": "/users/" + strconv.FormatInt(id, 10),
		"IsEdit": true,
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

	form := userForm{
		Email:    r.PostFormValue("email"),
		FullName: r.PostFormValue("full_name"),
		Role:     r.PostFormValue("role"),
		Phone:    r.PostFormValue("phone"),
		HiredAt:  r.PostFormValue("hired_at"),
		Active:   r.PostFormValue("active") == "true",
	}

	input := UpdateInput{
		Email:    form.Email,
		FullName: form.FullName,
		Password: r.PostFormValue("password"),
		Role:     form.Role,
		Phone:    form.Phone,
		Active:   form.Active,
	}
	hiredAt, err := parseHiredAt(form.HiredAt)
	if err == nil {
		input.HiredAt = hiredAt
		err = h.service.Update(r.Context(), id, input)
	}

	if err != nil {
		h.logger.Error("update user", slog.Any("error", err), slog.Int64("id", id))
		h.render(w, r, "pages/user_form.html", "Modifier l'utilisateur", map[string]any{
			"Form":   form,
			"Errors": map[string]string{"general": shared.UserSafeMessage(err)},
			"Roles":  roleNames(),
			"Action": "/users/" + strconv.FormatInt(id, 10),
			"IsEdit": true,
		}, http.StatusBadRequest)
		return
	}

	h.redirectWithFlash(w, r, "/users", "success", "Utilisateur mis à jour")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if actor := currentUserID(r); actor == id {
		h.redirectWithFlash(w, r, "/users", "error", "Impossible de supprimer son propre compte")
		return
	}

	if err := h.service.SoftDelete(r.Context(), id); err != nil {
		h.logger.Error("delete user", slog.Any("error", err), slog.Int64("id", id))
		h.redirectWithFlash(w, r, "/users", "error", shared.UserSafeMessage(err))
		return
	}

	h.redirectWithFlash(w, r, "/users", "success", "Utilisateur supprimé")
}

func currentUserID(r *http.Request) int64 {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0
	}
	id, _ := strconv.ParseInt(sess.User(), 10, 64)
	return id
}

func roleNames() []string {
	names := make([]string, 0, len(rbac.AllRoles))
	for _, role := range rbac.AllRoles {
		names = append(names, string(role))
	}
	return names
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
