package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"storefront/internal/middleware"
	"storefront/internal/session"
)

func (h *Handler) SetupRoutes() http.Handler {
	r := chi.NewRouter()

	r.Get("/", h.LoginPage)
	r.Post("/", h.Login)
	r.Get("/logout", h.Logout)

	// Each protected operation re-checks the admin session.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(h.sessions, session.ClassAdmin, "/admin"))

		r.Get("/dashboard", h.Dashboard)
		r.Get("/{model}", h.List)
		r.Post("/{model}", h.Create)
		r.Get("/{model}/{id}", h.GetOne)
		r.Post("/{model}/{id}", h.Update)
		r.Post("/{model}/{id}/delete", h.Delete)
	})

	return r
}
