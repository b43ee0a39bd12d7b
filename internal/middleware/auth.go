package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/nile-pay/nile_pay/internal/account"
	"github.com/nile-pay/nile_pay/internal/auth"
	"github.com/nile-pay/nile_pay/internal/config"
)

// JWTAuth validates bearer tokens and resolves the account they name.
// Locals are populated from the stored account, not the token, so a renamed
// or promoted account takes effect on the next request.
func JWTAuth(cfg config.Config, repo account.Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])
		claims, err := auth.Parse(tokenStr, []byte(cfg.JWTSecret))
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}

		acc, err := repo.FindByID(c.UserContext(), claims.AccountID)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "token invalidated")
		}

		c.Locals("account_id", acc.ID)
		c.Locals("username", acc.Username)
		c.Locals("is_admin", acc.IsAdmin)
		return c.Next()
	}
}

// AdminOnly rejects requests whose authenticated account is not an admin.
// It must run after JWTAuth.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		admin, _ := c.Locals("is_admin").(bool)
		if !admin {
			return fiber.NewError(http.StatusForbidden, "access denied, admins only")
		}
		return c.Next()
	}
}
