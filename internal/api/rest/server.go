// Package rest provides functionality for initializing a server.
package rest

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi"
	"github.com/rs/zerolog"

	"github.com/nexaplatform/nexa-rewards/internal/api/rest/v1/handlers"
	"github.com/nexaplatform/nexa-rewards/internal/api/rest/v1/middleware"
	"github.com/nexaplatform/nexa-rewards/internal/config"
	"github.com/nexaplatform/nexa-rewards/internal/service/accounts/v1/accounts"
	"github.com/nexaplatform/nexa-rewards/internal/service/cashout/v1/cashout"
	"github.com/nexaplatform/nexa-rewards/internal/service/catalog/v1/catalog"
	"github.com/nexaplatform/nexa-rewards/internal/service/idgen/v1/idgen"
	"github.com/nexaplatform/nexa-rewards/internal/service/notifier/v1/mailer"
	"github.com/nexaplatform/nexa-rewards/internal/service/registry/v1/registry"
	"github.com/nexaplatform/nexa-rewards/internal/service/rewards/v1/rewards"
	"github.com/nexaplatform/nexa-rewards/internal/service/secretary/v1/secretary"
	"github.com/nexaplatform/nexa-rewards/internal/service/sweeper/v1/sweeper"
	"github.com/nexaplatform/nexa-rewards/internal/storage/v1/inpsql"
)

// InitServer returns a http.Server object ready to be listening and serving.
func InitServer(ctx context.Context, cfg *config.Config, log *zerolog.Logger, wg *sync.WaitGroup) (server *http.Server, err error) {
	// initialize secretary
	secretaryService, err := secretary.NewSecretaryService(cfg.SecretConfig)
	if err != nil {
		return nil, err
	}

	// initialize token and admin middleware
	tokenHandler, err := middleware.NewTokenHandler(secretaryService, cfg.SecretConfig)
	if err != nil {
		return nil, err
	}
	adminHandler, err := middleware.NewAdminHandler(cfg.AdminConfig)
	if err != nil {
		return nil, err
	}

	// initialize storage
	storage, err := inpsql.InitStorage(ctx, cfg.StorageConfig, log)
	if err != nil {
		return nil, err
	}

	// initialize notifier and identifier generator
	mailerService := mailer.InitMailer(cfg.MailConfig, log)
	generator := idgen.InitGenerator()

	// initialize domain services
	registryService, err := registry.InitService(storage, generator, cfg.RewardConfig)
	if err != nil {
		return nil, err
	}
	rewardsService, err := rewards.InitService(storage, mailerService, cfg.RewardConfig, log)
	if err != nil {
		return nil, err
	}
	catalogService, err := catalog.InitService(storage, generator, cfg.RewardConfig)
	if err != nil {
		return nil, err
	}
	cashoutService, err := cashout.InitService(storage, storage, generator, mailerService, cfg.RewardConfig, log)
	if err != nil {
		return nil, err
	}
	accountsService, err := accounts.InitService(storage, storage, secretaryService, rewardsService, cfg.RewardConfig, log)
	if err != nil {
		return nil, err
	}

	// initialize background sweeper
	sweeperService := sweeper.InitSweeper(ctx, registryService, catalogService, cfg.SweepConfig, log, wg)
	sweeperService.ListenAndSweep()

	// initialize handlers
	urlHandler, err := handlers.InitHandlers(accountsService, registryService, rewardsService, cashoutService, catalogService, secretaryService, cfg.ServerConfig, log)
	if err != nil {
		return nil, err
	}

	// initialize server and set routing
	r := chi.NewRouter()
	publicGroup := r.Group(nil)
	publicGroup.Post("/api/user/register", urlHandler.HandleRegister())
	publicGroup.Post("/api/user/login", urlHandler.HandleLogin())
	publicGroup.Get("/api/videos", urlHandler.HandleGetVideos())
	publicGroup.Get("/api/tasks", urlHandler.HandleGetTasks())
	publicGroup.Post("/api/codes/verify", urlHandler.HandleVerifyCode())
	mainGroup := r.Group(nil)
	mainGroup.Use(tokenHandler.TokenHandle)
	mainGroup.Get("/api/user/wallet", urlHandler.HandleGetWallet())
	mainGroup.Get("/api/user/profile", urlHandler.HandleGetProfile())
	mainGroup.Post("/api/user/profile", urlHandler.HandleUpdateProfile())
	mainGroup.Get("/api/user/transactions", urlHandler.HandleGetTransactions())
	mainGroup.Get("/api/user/wallet/logs", urlHandler.HandleGetWalletLogs())
	mainGroup.Post("/api/user/withdraw", urlHandler.HandleNewWithdrawal())
	mainGroup.Get("/api/user/withdrawals", urlHandler.HandleGetWithdrawals())
	mainGroup.Post("/api/videos/claim", urlHandler.HandleClaimWatchReward())
	mainGroup.Post("/api/tasks/complete", urlHandler.HandleCompleteTask())
	adminGroup := r.Group(nil)
	adminGroup.Use(adminHandler.AdminHandle)
	adminGroup.Post("/api/admin/codes", urlHandler.HandleIssueCode())
	adminGroup.Get("/api/admin/codes", urlHandler.HandleListCodes())
	adminGroup.Delete("/api/admin/codes", urlHandler.HandleSweepCodes())
	adminGroup.Post("/api/admin/videos", urlHandler.HandleAddVideo())
	adminGroup.Delete("/api/admin/videos/{id}", urlHandler.HandleDeleteVideo())
	adminGroup.Post("/api/admin/tasks", urlHandler.HandleAddTask())
	adminGroup.Delete("/api/admin/tasks/{id}", urlHandler.HandleDeleteTask())
	adminGroup.Get("/api/admin/withdrawals", urlHandler.HandleAdminWithdrawals())
	adminGroup.Post("/api/admin/withdrawals/update", urlHandler.HandleReviewWithdrawal())

	srv := &http.Server{
		Addr:         cfg.ServerConfig.ServerAddress,
		Handler:      r,
		IdleTimeout:  60 * time.Second,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	return srv, nil
}
