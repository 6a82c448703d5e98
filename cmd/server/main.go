// Command server runs the peerpay exchange coordinator API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"peerpay/internal/config"
	"peerpay/internal/logger"
	"peerpay/internal/repositories"
	"peerpay/internal/routes"
	"peerpay/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	config.LoadEnv()
	logger.Init(config.IsProduction())
	defer logger.Log.Sync()

	database, err := repositories.Open()
	if err != nil {
		logger.Log.Fatal("database init failed", zap.Error(err))
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Log.Error("database close failed", zap.Error(err))
		}
	}()

	if err := database.Cache.FlushAll(context.Background()); err != nil {
		logger.Log.Warn("cache flush failed", zap.Error(err))
	}

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins:     config.GetEnv("CORS_ORIGINS", "http://localhost:5173"),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowCredentials: true,
	}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	for _, path := range []string{"/api/auth/register", "/api/auth/login"} {
		app.Use(path, limiter.New(limiter.Config{
			Max:        5,
			Expiration: 1 * time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return utils.TooManyRequests(c, "too many requests, please try again later")
			},
		}))
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()

	exchangeService := routes.Setup(app, database)

	sweepInterval := config.GetSecondsEnv("EXPIRY_SWEEP_SECONDS", time.Minute)
	exchangeService.StartExpirySweep(sweepCtx, sweepInterval)

	addr := ":" + config.GetEnv("PORT", "3000")
	go func() {
		logger.Log.Info("server listening", zap.String("addr", addr))
		if err := app.Listen(addr); err != nil {
			logger.Log.Fatal("server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Log.Info("shutting down")
	stopSweep()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Log.Error("graceful shutdown failed", zap.Error(err))
	}
}
