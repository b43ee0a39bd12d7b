package payment

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the two-step card payment endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a payment handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type sendOTPRequest struct {
	CardNumber string `json:"cardNumber"`
}

type payRequest struct {
	Amount     int64  `json:"amount"`
	CardNumber string `json:"cardNumber"`
	CVV        string `json:"cvv"`
	Expiry     string `json:"expiryDate"`
	OTP        string `json:"otp"`
	Username   string `json:"username"`
}

// SendOTP issues and delivers a one-time payment code for a card.
func (h *Handler) SendOTP(c *fiber.Ctx) error {
	var req sendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.CardNumber == "" {
		return fiber.NewError(http.StatusBadRequest, "cardNumber is required")
	}

	if err := h.service.SendOTP(c.UserContext(), req.CardNumber); err != nil {
		switch {
		case errors.Is(err, ErrCardNotFound):
			return fiber.NewError(http.StatusNotFound, "card not found")
		case errors.Is(err, ErrAccountNotFound):
			return fiber.NewError(http.StatusNotFound, "user not found")
		default:
			return fiber.NewError(http.StatusInternalServerError, "failed to send OTP")
		}
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": "OTP sent successfully",
	})
}

// Pay settles a card payment after the full validation chain passes.
func (h *Handler) Pay(c *fiber.Ctx) error {
	var req payRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.CardNumber == "" || req.CVV == "" || req.Expiry == "" || req.OTP == "" || req.Username == "" {
		return fiber.NewError(http.StatusBadRequest, "invalid input data")
	}

	result, err := h.service.Pay(c.UserContext(), Input{
		CardNumber:    req.CardNumber,
		CVV:           req.CVV,
		Expiry:        req.Expiry,
		OTP:           req.OTP,
		Amount:        req.Amount,
		PayeeUsername: req.Username,
	})
	if err != nil {
		return mapPayError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message":      "Payment successful",
		"transactions": result,
	})
}

func mapPayError(err error) error {
	switch {
	case errors.Is(err, ErrCardNotFound):
		return fiber.NewError(http.StatusNotFound, "card not found")
	case errors.Is(err, ErrAccountNotFound):
		return fiber.NewError(http.StatusNotFound, "user not found")
	case errors.Is(err, ErrCardExpired),
		errors.Is(err, ErrInvalidCardDetails),
		errors.Is(err, ErrCardInactive),
		errors.Is(err, ErrInvalidOTP),
		errors.Is(err, ErrOTPExpired),
		errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrInvalidAmount):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, "internal server error")
	}
}
