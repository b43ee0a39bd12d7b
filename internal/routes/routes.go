package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/nile-pay/nile_pay/internal/account"
	"github.com/nile-pay/nile_pay/internal/card"
	"github.com/nile-pay/nile_pay/internal/config"
	"github.com/nile-pay/nile_pay/internal/ledger"
	"github.com/nile-pay/nile_pay/internal/middleware"
	"github.com/nile-pay/nile_pay/internal/notification"
	"github.com/nile-pay/nile_pay/internal/otp"
	"github.com/nile-pay/nile_pay/internal/payment"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes. Without a
// database the wallet and card stores fall back to in-memory variants, which
// is only permitted in dev.
func Setup(app *fiber.App, d Deps) error {
	if !isDev(d.Cfg.AppEnv) {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterHealthRoutes(app, d)

	// Stores, with in-memory dev fallbacks sharing one account repository so
	// ledger and card payments serialize on the same critical section.
	var (
		accounts account.Repository
		ledgers  ledger.Store
		cards    card.Repository
		payments payment.Store
		notifier notification.Notifier
	)
	if d.DB != nil {
		accounts = account.NewPostgresRepository(d.DB)
		ledgers = ledger.NewPostgresStore(d.DB)
		cards = card.NewPostgresRepository(d.DB)
		payments = payment.NewPostgresStore(d.DB)
		notifier = notification.NewOutbox(d.DB)
	} else {
		memAccounts := account.NewMemoryRepository()
		memCards := card.NewMemoryRepository()
		accounts = memAccounts
		ledgers = ledger.NewMemoryStore(memAccounts)
		cards = memCards
		payments = payment.NewMemoryStore(memAccounts, memCards)
		notifier = notification.NewLoggerNotifier(d.Logger)
	}

	ledgerSvc := ledger.NewService(ledgers, notifier, d.Logger, d.Cfg.AllowOverdraftOnAdminDeduct)
	registry := card.NewRegistry(cards, accounts)
	codes := otp.NewIssuer(d.Cache, d.Cfg.OTPTTL)
	paymentSvc := payment.NewService(registry, accounts, codes, payments, notifier, d.Logger)

	ledgerHandler := ledger.NewHandler(ledgerSvc)
	cardHandler := card.NewHandler(registry)
	paymentHandler := payment.NewHandler(paymentSvc)

	api := app.Group("/api")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Card payments authenticate with card credentials plus the one-time
	// code, not a bearer token.
	RegisterPayRoutes(api, paymentHandler, middleware.OTPRateLimit(d.Cache, 5))

	jwtmw := middleware.JWTAuth(d.Cfg, accounts)
	protected := api.Group("", jwtmw)

	RegisterTransferRoutes(protected, ledgerHandler)
	RegisterAdminRoutes(protected, ledgerHandler)
	RegisterVisaRoutes(protected, cardHandler)

	return nil
}

func isDev(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}
