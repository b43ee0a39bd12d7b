package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nile-pay/nile_pay/internal/card"
)

// RegisterVisaRoutes wires card registry endpoints for the authenticated
// account's own card.
func RegisterVisaRoutes(r fiber.Router, h *card.Handler) {
	r.Post("/visaG", h.Issue)
	r.Get("/visa", h.Get)
	r.Delete("/visa/delete", h.Delete)
	r.Get("/visa/check", h.Check)
	r.Get("/visa/checkActive", h.CheckActive)
	r.Get("/visa/transactions", h.Transactions)
	r.Post("/visa/toggleStatus", h.ToggleStatus)
}
