// Package main is the entry point for the virtual wallet service. It wires
// configuration, storage, the ledger core and the HTTP boundary together.
package main

import (
	"context"
	"log"
	"time"

	"vwallet/internal/config"
	"vwallet/internal/handlers"
	"vwallet/internal/repositories"
	"vwallet/internal/routes"
	clientsvc "vwallet/internal/services/client"
	"vwallet/internal/services/ledger"
	"vwallet/internal/services/notification"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadEnv()

	db, err := repositories.InitDB(repositories.DBConfigFromEnv())
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			log.Printf("Failed to close database connection: %v", err)
		}
	}()
	log.Println("Connected to database")

	stores := repositories.NewStores(db)
	uow := repositories.NewUnitOfWork(db)

	var clientCache ledger.ClientCache = &ledger.NoopClientCache{}
	redisClient, err := repositories.NewRedisClient(repositories.RedisConfigFromEnv())
	if err != nil {
		log.Printf("Redis unavailable, running without client cache: %v", err)
	} else {
		defer redisClient.Close()
		clientCache = repositories.NewClientCache(redisClient, 5*time.Minute)
		log.Println("Connected to redis")
	}

	sender := notification.NewService(notification.ConfigFromEnv())

	ledgerService := ledger.NewService(uow, stores, clientCache, sender, ledger.Config{
		TokenTTL:    time.Duration(config.GetIntEnv("TOKEN_EXPIRATION_MINUTES", 15)) * time.Minute,
		TokenLength: config.GetIntEnv("TOKEN_LENGTH", 6),
	}, nil)
	clientService := clientsvc.NewService(stores.Clients)

	// Housekeeping: expired and old used sessions are swept periodically.
	// Expiry is still enforced lazily at confirmation; this is storage
	// hygiene only.
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go sweepSessions(sweepCtx, stores.Sessions)

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: config.GetEnv("CORS_ORIGINS", "http://localhost:5173"),
		AllowHeaders: "Origin, Content-Type, Accept, X-Api-Key",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
	}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	routes.SetupRoutes(app,
		handlers.NewClientHandler(clientService),
		handlers.NewWalletHandler(ledgerService),
		config.GetEnv("API_KEY", "dev-api-key"),
	)

	log.Fatal(app.Listen(":" + config.GetEnv("PORT", "3000")))
}

func sweepSessions(ctx context.Context, sessions repositories.SessionRepository) {
	interval := config.GetDurationEnv("SESSION_SWEEP_INTERVAL", 10*time.Minute)
	retention := config.GetDurationEnv("SESSION_RETENTION", 24*time.Hour)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			if n, err := sessions.DeleteExpired(ctx, now); err != nil {
				log.Printf("sweep: failed to delete expired sessions: %v", err)
			} else if n > 0 {
				log.Printf("sweep: deleted %d expired sessions", n)
			}
			if n, err := sessions.DeleteUsedBefore(ctx, now.Add(-retention)); err != nil {
				log.Printf("sweep: failed to delete used sessions: %v", err)
			} else if n > 0 {
				log.Printf("sweep: deleted %d used sessions", n)
			}
		}
	}
}
