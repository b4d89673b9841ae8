// internal/app/features/authn/routes.go
package authn

import (
	"github.com/dalemusser/volunteerhub/internal/app/system/auth"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the auth endpoints, typically under "/auth". The caller
// must run tm.LoadUser ahead of this router.
func Routes(h *Handler, tm *auth.Manager) chi.Router {
	r := chi.NewRouter()

	r.Post("/login", h.HandleLogin)
	r.Post("/logout", h.HandleLogout)
	r.Post("/refresh", h.HandleRefresh)
	r.Get("/check-email/{email}", h.ServeCheckEmail)

	r.Group(func(pr chi.Router) {
		pr.Use(tm.RequireSignedIn)
		pr.Get("/me", h.ServeMe)
		pr.Put("/profile", h.HandleUpdateProfile)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(tm.RequireRole(models.RoleNonprofitAdmin))
		pr.Post("/change-org-password", h.HandleChangeOrgPassword)
	})

	return r
}
