package rbac

import (
	"encoding/json"
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"
)

// PermissionsHandler exposes the current user's effective permissions as JSON.
type PermissionsHandler struct {
	Service *Service
	Logger  *slog.Logger
}

// MountRoutes attaches permission routes.
func (h PermissionsHandler) MountRoutes(r chi.Router) {
	r.Get("/", h.Permissions)
}

// Permissions handles GET /permissions.
func (h PermissionsHandler) Permissions(w http.ResponseWriter, r *http.Request) {
	m := Middleware{Service: h.Service, Logger: h.Logger}
	userID, ok := m.currentUserID(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	perms, err := h.Service.EffectivePermissions(r.Context(), userID)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("list permissions", slog.Any("error", err))
		}
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"permissions": perms})
}
