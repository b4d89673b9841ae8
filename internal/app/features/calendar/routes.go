// internal/app/features/calendar/routes.go
package calendar

import (
	"github.com/dalemusser/volunteerhub/internal/app/system/auth"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the calendar under "/calendar/events".
func Routes(h *Handler, tm *auth.Manager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(tm.RequireSignedIn)
		pr.Get("/", h.ServeList)
		pr.Get("/{id}", h.ServeDetail)
		pr.Get("/{id}/export", h.ServeExport)
		pr.Post("/{id}/rsvp", h.HandleRSVP)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(tm.RequireRole(models.RoleNonprofitAdmin, models.RoleSuperAdmin))
		pr.Post("/", h.HandleCreate)
		pr.Put("/{id}", h.HandleUpdate)
		pr.Delete("/{id}", h.HandleDelete)
	})

	return r
}
