// internal/app/features/tasks/routes.go
package tasks

import (
	"github.com/dalemusser/volunteerhub/internal/app/system/auth"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the task endpoints, typically under "/tasks".
func Routes(h *Handler, tm *auth.Manager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(tm.RequireSignedIn)
		pr.Get("/", h.ServeList)
		pr.Get("/my", h.ServeMine)
		pr.Put("/{id}/status", h.HandleStatus)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(tm.RequireRole(models.RoleNonprofitAdmin, models.RoleSuperAdmin))
		pr.Post("/", h.HandleCreate)
		pr.Put("/{id}", h.HandleUpdate)
		pr.Delete("/{id}", h.HandleDelete)
		pr.Post("/{id}/complete", h.HandleComplete)
	})

	return r
}

// AdminRoutes mounts the admin task view, typically under "/admin/tasks".
func AdminRoutes(h *Handler, tm *auth.Manager) chi.Router {
	r := chi.NewRouter()
	r.Use(tm.RequireRole(models.RoleNonprofitAdmin, models.RoleSuperAdmin))
	r.Get("/", h.ServeAdminList)
	return r
}
