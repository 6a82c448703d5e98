// Package routes wires repositories, services and handlers onto the
// Fiber app.
package routes

import (
	"peerpay/internal/handlers"
	"peerpay/internal/middleware"
	"peerpay/internal/repositories"
	"peerpay/internal/services/admin"
	"peerpay/internal/services/allocator"
	"peerpay/internal/services/auth"
	"peerpay/internal/services/dashboard"
	"peerpay/internal/services/exchange"
	"peerpay/internal/services/settlement"
	"peerpay/internal/services/trader"

	"github.com/gofiber/fiber/v2"
)

// Setup builds the dependency graph and registers all routes. It returns
// the exchange service so main can start the expiry sweep.
func Setup(app *fiber.App, database *repositories.Database) exchange.Service {
	// Repositories
	userRepo := repositories.NewUserRepository(database)
	traderRepo := repositories.NewTraderRepository(database)
	cardRepo := repositories.NewCardRepository(database)
	txnRepo := repositories.NewTransactionRepository(database)
	settingsRepo := repositories.NewSettingsRepository(database)

	// Services, leaves first
	allocatorService := allocator.New(cardRepo)
	settlementService := settlement.New(traderRepo, settingsRepo)
	exchangeService := exchange.New(txnRepo, cardRepo, allocatorService, settlementService)
	authService := auth.New(userRepo, traderRepo)
	traderService := trader.New(userRepo, traderRepo, cardRepo)
	adminService := admin.New(userRepo, traderRepo, txnRepo, settingsRepo)
	dashboardService := dashboard.New(userRepo, traderRepo, cardRepo, txnRepo)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(exchangeService)
	traderHandler := handlers.NewTraderHandler(traderService, exchangeService)
	adminHandler := handlers.NewAdminHandler(adminService)
	statsHandler := handlers.NewStatsHandler(dashboardService, traderService)
	healthHandler := handlers.NewHealthHandler(database.Cache)

	app.Get("/health", healthHandler.Health)

	api := app.Group("/api")

	// Public
	api.Post("/auth/register", authHandler.Register)
	api.Post("/auth/login", authHandler.Login)

	// Authenticated
	authenticated := api.Group("", middleware.Auth)
	authenticated.Get("/auth/me", authHandler.Me)
	authenticated.Get("/stats", statsHandler.Stats)

	// User side of an exchange
	authenticated.Post("/user/request-card", userHandler.RequestCard)
	authenticated.Post("/user/confirm-payment/:id", userHandler.ConfirmPayment)
	authenticated.Get("/user/transactions", userHandler.Transactions)

	// Trader onboarding is open to any authenticated user; everything
	// else under /trader requires the role.
	authenticated.Post("/trader/register", traderHandler.Register)

	traderGroup := authenticated.Group("/trader", middleware.RequireTrader)
	traderGroup.Get("/profile", traderHandler.Profile)
	traderGroup.Post("/cards", traderHandler.AddCard)
	traderGroup.Get("/cards", traderHandler.ListCards)
	traderGroup.Put("/cards/:id", traderHandler.UpdateCard)
	traderGroup.Delete("/cards/:id", traderHandler.DeleteCard)
	traderGroup.Get("/transactions", traderHandler.Transactions)
	traderGroup.Post("/confirm-payment/:id", traderHandler.ConfirmPayment)

	adminGroup := authenticated.Group("/admin", middleware.RequireAdmin)
	adminGroup.Get("/traders", adminHandler.Traders)
	adminGroup.Get("/users", adminHandler.Users)
	adminGroup.Post("/traders/:id/add-balance", adminHandler.AddBalance)
	adminGroup.Put("/traders/:id/block", adminHandler.ToggleBlock)
	adminGroup.Get("/transactions", adminHandler.Transactions)
	adminGroup.Get("/settings", adminHandler.Settings)
	adminGroup.Put("/settings", adminHandler.UpdateSettings)

	return exchangeService
}
