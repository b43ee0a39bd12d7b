package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nile-pay/nile_pay/internal/ledger"
)

// RegisterTransferRoutes wires peer transfer endpoints.
func RegisterTransferRoutes(r fiber.Router, h *ledger.Handler) {
	r.Post("/transfer", h.Transfer)
	r.Get("/transfer", h.History)
	r.Get("/transfer/:id", h.Find)
}
