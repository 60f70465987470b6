package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/loan-lens/loanlens/internal/config"
	"github.com/loan-lens/loanlens/internal/sim/identity"
	"github.com/loan-lens/loanlens/internal/sim/loanbook"
	"github.com/loan-lens/loanlens/internal/sim/middleware"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all API routes. Without a database the
// stores fall back to memory; without Redis, idempotency replay is skipped.
func Setup(app *fiber.App, d Deps) error {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Get("/api/health", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	var userRepo identity.Repository
	if d.DB != nil {
		userRepo = identity.NewPostgresRepository(d.DB)
	} else {
		userRepo = identity.NewMemoryRepository()
	}
	var appRepo loanbook.Repository
	if d.DB != nil {
		appRepo = loanbook.NewPostgresRepository(d.DB)
	} else {
		appRepo = loanbook.NewMemoryRepository()
	}

	secret := []byte(d.Cfg.JWTSecret)
	authHandler := identity.NewHandler(identity.NewService(userRepo), secret, d.Cfg.TokenTTL)
	bookHandler := loanbook.NewHandler(loanbook.NewService(appRepo))

	api := app.Group("/api")

	// Public routes
	api.Post("/signup", authHandler.Signup)
	api.Post("/login", middleware.LoginRateLimit(d.Cache, 5), authHandler.Login)

	// The mutating routes get retry protection when Redis is around; without
	// it the simulator still runs, just without replay.
	idem := func(c *fiber.Ctx) error { return c.Next() }
	if d.Cache != nil {
		idem = middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger)
	}

	// Protected routes
	protected := api.Group("", middleware.JWTAuth(secret, userRepo))
	protected.Get("/me", authHandler.Me)
	protected.Get("/applications", bookHandler.List)
	protected.Get("/my-applications", bookHandler.ListMine)
	protected.Post("/predict", idem, bookHandler.Predict)
	protected.Put("/applications/:id/status", idem, bookHandler.UpdateStatus)
	protected.Post("/applications/:id/payment", idem, bookHandler.RecordPayment)

	return nil
}
