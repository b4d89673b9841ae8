// internal/app/features/dashboard/routes.go
package dashboard

import (
	"github.com/dalemusser/volunteerhub/internal/app/system/auth"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes wires the organization dashboards under whatever mount point
// the top-level router chooses (e.g., "/dashboard").
func Routes(h *Handler, tm *auth.Manager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(tm.RequireSignedIn)
		pr.Get("/", h.ServeDashboard)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(tm.RequireRole(models.RoleVolunteer))
		pr.Get("/volunteer", h.ServeVolunteer)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(tm.RequireRole(models.RoleNonprofitAdmin, models.RoleSuperAdmin))
		pr.Get("/admin", h.ServeAdmin)
		pr.Get("/volunteers", h.ServeVolunteers)
	})

	return r
}

// SuperAdminRoutes serves the global dashboard, mounted at
// "/super-admin/dashboard".
func SuperAdminRoutes(h *Handler, tm *auth.Manager) chi.Router {
	r := chi.NewRouter()
	r.Use(tm.RequireRole(models.RoleSuperAdmin))
	r.Get("/", h.ServeSuperAdmin)
	return r
}
