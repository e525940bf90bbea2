// Package routes defines the API routing configuration.
// It sets up all HTTP routes and their corresponding handlers,
// including middleware and authentication requirements.
package routes

import (
	"swapledger/internal/handlers"
	"swapledger/internal/middleware"
	"swapledger/internal/models"
	"swapledger/internal/repositories"
	"swapledger/internal/services/auth"
	"swapledger/internal/services/ledger"
	"swapledger/internal/services/settlement"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Dependencies are the services the routes are built from.
type Dependencies struct {
	Auth        auth.Service
	Ledger      ledger.Service
	Settlements settlement.Service
	Settings    repositories.SettingRepository
	Audits      repositories.AuditRepository
	Auditor     ledger.Auditor
	DefaultFee  string
	Health      map[string]handlers.Pinger
	Logger      *zap.Logger
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, deps Dependencies) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("http")

	authHandler := handlers.NewAuthHandler(deps.Auth, logger)
	walletHandler := handlers.NewWalletHandler(deps.Ledger, logger)
	transferHandler := handlers.NewTransferHandler(deps.Ledger, logger)
	settlementHandler := handlers.NewSettlementHandler(deps.Settlements, logger)
	adminHandler := handlers.NewAdminHandler(deps.Settings, deps.Audits, deps.Auditor, deps.DefaultFee, logger)
	healthHandler := handlers.NewHealthHandler(deps.Health, logger)

	app.Get("/health", healthHandler.Check)

	api := app.Group("/api")
	api.Post("/auth/login", authHandler.Login)

	authMiddleware := middleware.NewAuthMiddleware(deps.Auth, logger)
	admin := api.Group("/admin", authMiddleware.Handler)

	read := middleware.HasPermission(models.PermissionReadAdmin)
	write := middleware.HasPermission(models.PermissionWriteAdmin)

	// Wallets and ledger
	wallets := admin.Group("/wallets")
	wallets.Get("/:userId", read, walletHandler.GetWallet)
	wallets.Get("/:userId/entries", read, walletHandler.ListEntries)
	wallets.Get("/:userId/reconcile", read, walletHandler.Reconcile)
	wallets.Post("/:userId/deposit", write, walletHandler.Deposit)
	wallets.Post("/:userId/spend", write, walletHandler.Spend)
	wallets.Post("/:userId/refund", write, walletHandler.Refund)
	wallets.Post("/:userId/adjust", write, walletHandler.Adjust)

	admin.Post("/transfers", write, transferHandler.Transfer)
	admin.Post("/jobs/expire", write, transferHandler.Expire)

	// Settlements
	settle := middleware.HasPermission(models.PermissionSettlementWrite)
	settlements := admin.Group("/settlements")
	settlements.Post("/", settle, settlementHandler.Create)
	settlements.Get("/:id", read, settlementHandler.Get)
	settlements.Post("/:id/match", settle, settlementHandler.Match)
	settlements.Post("/:id/complete", settle, settlementHandler.Complete)
	settlements.Post("/:id/cancel", settle, settlementHandler.Cancel)

	// Settings and audit
	admin.Get("/settings/swap-fee", read, adminHandler.GetSwapFee)
	admin.Put("/settings/swap-fee", middleware.HasPermission(models.PermissionSettingsWrite), adminHandler.UpdateSwapFee)
	admin.Get("/audit-logs", read, adminHandler.ListAuditLogs)
}
