// internal/app/features/organizations/routes.go
package organizations

import (
	"github.com/dalemusser/volunteerhub/internal/app/system/auth"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts all Organization routes under the base path
// (typically "/super-admin/organizations" from bootstrap).
func Routes(h *Handler, tm *auth.Manager) chi.Router {
	r := chi.NewRouter()
	r.Use(tm.RequireRole(models.RoleSuperAdmin))

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Get("/{id}", h.ServeView)
	r.Put("/{id}", h.HandleEdit)
	r.Put("/{id}/status", h.HandleStatus)

	return r
}
