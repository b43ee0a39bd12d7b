package card

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/nile-pay/nile_pay/internal/account"
)

// Handler exposes the card management endpoints.
type Handler struct {
	registry *Registry
}

// NewHandler constructs a card handler.
func NewHandler(registry *Registry) *Handler {
	return &Handler{registry: registry}
}

// Issue creates a card for the authenticated account.
func (h *Handler) Issue(c *fiber.Ctx) error {
	ownerID, _ := c.Locals("account_id").(string)

	issued, err := h.registry.Issue(c.UserContext(), ownerID)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrNotFound):
			return fiber.NewError(http.StatusNotFound, "user not found")
		case errors.Is(err, ErrExists):
			return fiber.NewError(http.StatusBadRequest, "user already has a card")
		default:
			return fiber.NewError(http.StatusInternalServerError, "internal server error")
		}
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": "Card added successfully",
		"card":    issued,
	})
}

// Get returns the authenticated account's card.
func (h *Handler) Get(c *fiber.Ctx) error {
	ownerID, _ := c.Locals("account_id").(string)

	owned, err := h.registry.Get(c.UserContext(), ownerID)
	if err != nil {
		return mapCardError(err)
	}
	return c.Status(http.StatusOK).JSON(owned)
}

// Delete removes the card and its transaction history.
func (h *Handler) Delete(c *fiber.Ctx) error {
	ownerID, _ := c.Locals("account_id").(string)

	if err := h.registry.Delete(c.UserContext(), ownerID); err != nil {
		return mapCardError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "Card deleted successfully"})
}

// Check reports whether the account owns a card.
func (h *Handler) Check(c *fiber.Ctx) error {
	ownerID, _ := c.Locals("account_id").(string)

	has, err := h.registry.Has(c.UserContext(), ownerID)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, "internal server error")
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"hasCard": has})
}

// CheckActive returns the card's current status.
func (h *Handler) CheckActive(c *fiber.Ctx) error {
	ownerID, _ := c.Locals("account_id").(string)

	owned, err := h.registry.Get(c.UserContext(), ownerID)
	if err != nil {
		return mapCardError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": owned.Status})
}

// Transactions returns the card's history, newest first.
func (h *Handler) Transactions(c *fiber.Ctx) error {
	ownerID, _ := c.Locals("account_id").(string)

	history, err := h.registry.Transactions(c.UserContext(), ownerID)
	if err != nil {
		return mapCardError(err)
	}
	if history == nil {
		history = []Transaction{}
	}
	return c.Status(http.StatusOK).JSON(history)
}

// ToggleStatus flips the card between active and inactive.
func (h *Handler) ToggleStatus(c *fiber.Ctx) error {
	ownerID, _ := c.Locals("account_id").(string)

	status, err := h.registry.ToggleStatus(c.UserContext(), ownerID)
	if err != nil {
		return mapCardError(err)
	}

	message := "Card activated successfully"
	if status == StatusInactive {
		message = "Card deactivated successfully"
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": message, "status": status})
}

func mapCardError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return fiber.NewError(http.StatusNotFound, "card not found")
	}
	return fiber.NewError(http.StatusInternalServerError, "internal server error")
}
