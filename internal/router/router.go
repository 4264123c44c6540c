package router

import (
	"time"

	"poolvault/config"
	"poolvault/internal/domain"
	"poolvault/internal/handler"
	"poolvault/internal/middleware"
	"poolvault/internal/repository"
	"poolvault/internal/scheduler"
	"poolvault/internal/service"
	"poolvault/internal/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps carries the long-lived components main constructs before the HTTP
// layer: the scheduler owns the background jobs, the scanner serves manual
// rescans, the hub streams events to connected operators.
type Deps struct {
	Scheduler *scheduler.Scheduler
	Scanner   *service.DepositScanner
	Ledger    *service.LedgerService
	Hub       *ws.Hub
}

func Setup(cfg *config.Config, db *gorm.DB, deps Deps) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	// Skip gin.Logger() to reduce log noise; use gin.Default() if you need request logging
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	userRepo := repository.NewUserRepository(db)
	vaultRepo := repository.NewVaultRepository(db)
	positionRepo := repository.NewPositionRepository(db)
	withdrawalRepo := repository.NewWithdrawalRepository(db)
	walletRepo := repository.NewWalletRepository(db)

	ledgerHandler := handler.NewLedgerHandler(deps.Ledger, vaultRepo)
	withdrawalHandler := handler.NewWithdrawalHandler(withdrawalRepo, userRepo, cfg.Chain)
	sweepHandler := handler.NewSweepHandler(positionRepo)
	walletHandler := handler.NewWalletHandler(walletRepo)
	opsHandler := handler.NewOpsHandler(deps.Scheduler, deps.Scanner, deps.Hub)

	operatorMw := middleware.OperatorRequired(&cfg.JWT)
	adminMw := middleware.RequireRole(domain.RoleAdmin)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	api.Use(operatorMw)
	{
		api.GET("/vaults", ledgerHandler.ListVaults)
		api.GET("/users/:id/balance", ledgerHandler.GetBalance)
		api.GET("/users/:id/entries", ledgerHandler.ListEntries)
		api.POST("/entries", ledgerHandler.InsertEntry)
		api.POST("/entries/:id/activate", adminMw, ledgerHandler.ActivateEntry)

		transfers := api.Group("/vault-transfers")
		{
			transfers.POST("", ledgerHandler.RequestVaultTransfer)
			transfers.POST("/:id/finalize", adminMw, ledgerHandler.FinalizeVaultTransfer)
			transfers.POST("/:id/reject", adminMw, ledgerHandler.RejectVaultTransfer)
		}

		api.POST("/withdrawals", withdrawalHandler.Enqueue)

		api.GET("/sweeps/pending", sweepHandler.ListPending)
		api.GET("/sweeps/failed", sweepHandler.ListFailed)

		api.GET("/wallets/:address", walletHandler.Get)

		jobs := api.Group("/jobs")
		{
			jobs.GET("", opsHandler.ListJobs)
			jobs.POST("/:name/trigger", adminMw, opsHandler.TriggerJob)
		}
		api.POST("/deposits/rescan", adminMw, opsHandler.RescanDeposits)
	}

	r.GET("/ws/events", ws.UpgradeEventsWS(&cfg.JWT, deps.Hub))

	return r
}
