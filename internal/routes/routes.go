// Package routes wires HTTP endpoints to their handlers.
package routes

import (
	"time"

	"vwallet/internal/handlers"
	"vwallet/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// SetupRoutes registers all application routes. Every /api route sits
// behind the static API-key guard; health stays open.
func SetupRoutes(app *fiber.App, clientHandler *handlers.ClientHandler, walletHandler *handlers.WalletHandler, apiKey string) {
	app.Get("/health", handlers.Health)

	api := app.Group("/api", middleware.APIKey(apiKey))

	newLimiter := func(max int) fiber.Handler {
		return limiter.New(limiter.Config{
			Max:        max,
			Expiration: 1 * time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"error": "Too many requests. Please try again later.",
				})
			},
		})
	}

	clients := api.Group("/clients")
	clients.Post("/register", newLimiter(5), clientHandler.Register)
	clients.Get("/", clientHandler.List)

	wallet := api.Group("/wallet")
	wallet.Post("/recharge", newLimiter(30), walletHandler.Recharge)
	wallet.Post("/pay", walletHandler.InitiatePayment)
	wallet.Post("/confirm-payment", walletHandler.ConfirmPayment)
	wallet.Post("/balance", walletHandler.QueryBalance)
}
