package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)
	router.Use(withGZip)

	router.Route("/api", func(r chi.Router) {
		// routes without authorization
		r.Post("/auth/login", h.login)

		r.Group(func(r chi.Router) {
			r.Use(h.auth)

			// box access control is assignment-based and enforced in the
			// service layer, so no admin gate here
			r.Route("/boxes", func(r chi.Router) {
				r.Post("/", h.createBox)
				r.Get("/", h.listBoxes)
				r.Get("/{id}", h.getBox)
				r.Put("/{id}", h.updateBox)
				r.Delete("/{id}", h.deleteBox)
				r.Post("/{id}/assign", h.assignBox)
				r.Post("/{id}/inventory", h.inventoryCheck)
			})

			r.Route("/users", func(r chi.Router) {
				r.Use(h.requireAdmin)
				r.Post("/", h.createUser)
				r.Get("/", h.listUsers)
				r.Get("/{id}", h.getUser)
				r.Put("/{id}/role", h.updateRole)
				r.Put("/{id}/reset-pin", h.resetPIN)
				r.Delete("/{id}", h.deactivateUser)
			})

			// non-admin callers see only their own audit entries
			r.Get("/audit-logs", h.listAudit)
		})
	})

	return router
}
