package ledger

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes transfer and administrative adjustment endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a ledger handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type transferRequest struct {
	ReceiverUsername string `json:"receiverUsername"`
	Amount           int64  `json:"amount"`
}

type depositRequest struct {
	Username string `json:"username"`
	Amount   int64  `json:"amount"`
}

type deductRequest struct {
	Username string `json:"username"`
	Deduct   int64  `json:"deduct"`
}

// Transfer processes a peer-to-peer transfer from the authenticated account.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	senderID, _ := c.Locals("account_id").(string)

	record, err := h.service.Transfer(c.UserContext(), senderID, req.ReceiverUsername, req.Amount)
	if err != nil {
		return mapTransferError(err)
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message":     "Transfer successful",
		"transaction": record,
	})
}

// History returns the authenticated account's transactions, newest first.
func (h *Handler) History(c *fiber.Ctx) error {
	accountID, _ := c.Locals("account_id").(string)

	records, err := h.service.History(c.UserContext(), accountID)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, "internal server error")
	}
	if records == nil {
		records = []Transaction{}
	}
	return c.Status(http.StatusOK).JSON(records)
}

// Find returns a single transaction visible only to its participants.
func (h *Handler) Find(c *fiber.Ctx) error {
	accountID, _ := c.Locals("account_id").(string)

	record, err := h.service.Find(c.UserContext(), accountID, c.Params("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return fiber.NewError(http.StatusNotFound, "transaction not found")
		case errors.Is(err, ErrNotParticipant):
			return fiber.NewError(http.StatusForbidden, "access denied")
		default:
			return fiber.NewError(http.StatusInternalServerError, "internal server error")
		}
	}
	return c.Status(http.StatusOK).JSON(record)
}

// Deposit credits the target account on behalf of an admin actor.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	var req depositRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return h.adjust(c, req.Username, req.Amount, KindDeposit, "Deposit successful")
}

// Deduct debits the target account on behalf of an admin actor.
func (h *Handler) Deduct(c *fiber.Ctx) error {
	var req deductRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return h.adjust(c, req.Username, req.Deduct, KindDeduct, "Deduct successful")
}

// AdminTransactions returns the full transaction journal.
func (h *Handler) AdminTransactions(c *fiber.Ctx) error {
	records, err := h.service.All(c.UserContext(), actorFromCtx(c))
	if err != nil {
		if errors.Is(err, ErrAdminOnly) {
			return fiber.NewError(http.StatusForbidden, "access denied, admins only")
		}
		return fiber.NewError(http.StatusInternalServerError, "internal server error")
	}
	if records == nil {
		records = []Transaction{}
	}
	return c.Status(http.StatusOK).JSON(records)
}

func (h *Handler) adjust(c *fiber.Ctx, username string, amount int64, kind, successMsg string) error {
	result, err := h.service.Adjust(c.UserContext(), actorFromCtx(c), username, amount, kind)
	if err != nil {
		switch {
		case errors.Is(err, ErrAdminOnly):
			return fiber.NewError(http.StatusForbidden, "access denied, admins only")
		case errors.Is(err, ErrInvalidAmount):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrReceiverNotFound):
			return fiber.NewError(http.StatusNotFound, "user not found")
		case errors.Is(err, ErrInsufficientFunds):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, "internal server error")
		}
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": successMsg,
		"user": fiber.Map{
			"id":         result.TargetID,
			"username":   result.TargetUsername,
			"newBalance": result.NewBalance,
		},
		"transaction": result.Transaction,
	})
}

func actorFromCtx(c *fiber.Ctx) Actor {
	id, _ := c.Locals("account_id").(string)
	username, _ := c.Locals("username").(string)
	admin, _ := c.Locals("is_admin").(bool)
	return Actor{ID: id, Username: username, Admin: admin}
}

func mapTransferError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidAmount):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrSelfTransfer):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInsufficientFunds):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrSenderNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrReceiverNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, "internal server error")
	}
}
