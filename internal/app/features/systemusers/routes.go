// internal/app/features/systemusers/routes.go
package systemusers

import (
	"github.com/dalemusser/volunteerhub/internal/app/system/auth"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the global user whitelist under the path where this
// router is mounted (typically "/super-admin/users" from bootstrap).
func Routes(h *Handler, tm *auth.Manager) chi.Router {
	r := chi.NewRouter()
	r.Use(tm.RequireRole(models.RoleSuperAdmin))

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Put("/{email}", h.HandleEdit)
	r.Put("/{email}/role", h.HandleRole)
	r.Delete("/{email}", h.HandleDelete)

	return r
}
