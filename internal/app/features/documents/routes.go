// internal/app/features/documents/routes.go
package documents

import (
	"github.com/dalemusser/volunteerhub/internal/app/system/auth"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the document endpoints under "/documents".
func Routes(h *Handler, tm *auth.Manager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(tm.RequireSignedIn)
		pr.Get("/", h.ServeList)
		pr.Get("/{id}/download", h.ServeDownload)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(tm.RequireRole(models.RoleNonprofitAdmin, models.RoleSuperAdmin))
		pr.Post("/", h.HandleUpload)
		pr.Put("/{id}", h.HandleUpdate)
		pr.Delete("/{id}", h.HandleDelete)
	})

	return r
}
