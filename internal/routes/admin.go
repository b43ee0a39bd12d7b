package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nile-pay/nile_pay/internal/ledger"
	"github.com/nile-pay/nile_pay/internal/middleware"
)

// RegisterAdminRoutes wires administrative balance adjustments behind the
// admin gate.
func RegisterAdminRoutes(r fiber.Router, h *ledger.Handler) {
	admin := r.Group("/admin", middleware.AdminOnly())
	admin.Post("/deposit", h.Deposit)
	admin.Post("/deduct", h.Deduct)
	admin.Get("/transactions", h.AdminTransactions)
}
