package handlers

import (
	"github.com/go-chi/chi"
)

func (h *Handler) SetRoutes(r chi.Router) {
	r.Get("/", h.IndexHandler)
	r.Post("/", h.SubmitHandler)

	r.Route("/card/{code}", func(r chi.Router) {
		r.Get("/", h.CardHandler)
		r.Get("/qr.png", h.QRHandler)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", h.HealthHandler)
		r.Post("/cards", h.CreateCardHandler)
		r.Get("/cards/{code}", h.GetCardHandler)
	})
}
