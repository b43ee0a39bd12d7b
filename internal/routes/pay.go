package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nile-pay/nile_pay/internal/payment"
)

// RegisterPayRoutes wires the two-step card payment flow. send-otp is rate
// limited per card number.
func RegisterPayRoutes(r fiber.Router, h *payment.Handler, rateLimit fiber.Handler) {
	pay := r.Group("/pay")
	pay.Post("/send-otp", rateLimit, h.SendOTP)
	pay.Post("/pay", h.Pay)
}
