// Package routes wires the HTTP surface
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tmb8080/nova-sub001/internal/api/handlers"
	"github.com/tmb8080/nova-sub001/internal/api/middleware"
	"github.com/tmb8080/nova-sub001/pkg/logger"
)

// Handlers collects every handler group the router needs
type Handlers struct {
	Health       *handlers.HealthHandlers
	Wallet       *handlers.WalletHandlers
	Earning      *handlers.EarningHandlers
	Deposit      *handlers.DepositHandlers
	Withdrawal   *handlers.WithdrawalHandlers
	Fee          *handlers.FeeHandlers
	Vip          *handlers.VipHandlers
	Verification *handlers.VerificationHandlers
	Settings     *handlers.SettingsHandlers
}

// Setup builds the gin engine with the full route table
func Setup(h Handlers, jwtSecret string, log *logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.Recovery(log),
		middleware.RequestID(),
		middleware.RequestLogger(log),
		middleware.Metrics(),
	)

	router.GET("/health", h.Health.Health)
	router.GET("/ready", h.Health.Ready)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	api.Use(middleware.Auth(jwtSecret))
	{
		api.GET("/wallet", h.Wallet.GetWallet)
		api.POST("/wallet/reconcile", h.Wallet.Reconcile)
		api.GET("/wallet/history", h.Wallet.GetHistory)

		api.POST("/earning/start", h.Earning.StartEarning)
		api.GET("/earning/status", h.Earning.GetStatus)

		api.POST("/deposits", h.Deposit.SubmitDeposit)
		api.GET("/deposits", h.Deposit.ListDeposits)

		api.POST("/withdrawals", h.Withdrawal.RequestWithdrawal)
		api.GET("/withdrawals", h.Withdrawal.ListWithdrawals)

		api.GET("/fees/resolve", h.Fee.ResolveFee)

		api.GET("/vip/levels", h.Vip.ListLevels)
		api.GET("/vip/level", h.Vip.GetActiveLevel)
		api.POST("/vip/purchase", h.Vip.PurchaseVip)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AdminOnly())
	{
		admin.GET("/deposits/pending", h.Deposit.ListPending)
		admin.POST("/deposits/:id/approve", h.Deposit.ApproveDeposit)
		admin.POST("/deposits/:id/reject", h.Deposit.RejectDeposit)

		admin.GET("/withdrawals/pending", h.Withdrawal.ListPending)
		admin.POST("/withdrawals/:id/approve", h.Withdrawal.ApproveWithdrawal)
		admin.POST("/withdrawals/:id/reject", h.Withdrawal.RejectWithdrawal)

		admin.GET("/fees/validate", h.Fee.ValidateTiers)
		admin.POST("/fees/tiers", h.Fee.CreateTier)
		admin.DELETE("/fees/tiers/:id", h.Fee.DeleteTier)

		admin.GET("/verify/:hash", h.Verification.CheckHash)

		admin.GET("/settings", h.Settings.GetSettings)
		admin.PUT("/settings", h.Settings.UpdateSetting)
	}

	return router
}
