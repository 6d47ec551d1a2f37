package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ArowuTest/crowdfund-backend/api/routes"
	"github.com/ArowuTest/crowdfund-backend/internal/config"
	"github.com/ArowuTest/crowdfund-backend/internal/handlers"
	"github.com/ArowuTest/crowdfund-backend/internal/logger"
	"github.com/ArowuTest/crowdfund-backend/internal/repositories"
	"github.com/ArowuTest/crowdfund-backend/internal/repositories/memory"
	mongorepo "github.com/ArowuTest/crowdfund-backend/internal/repositories/mongodb"
	"github.com/ArowuTest/crowdfund-backend/internal/scheduler"
	"github.com/ArowuTest/crowdfund-backend/internal/services"
	"github.com/ArowuTest/crowdfund-backend/internal/txn"
	"github.com/ArowuTest/crowdfund-backend/pkg/invitation"
	"github.com/ArowuTest/crowdfund-backend/pkg/jwt"
	"github.com/ArowuTest/crowdfund-backend/pkg/mongodb"
	"github.com/ArowuTest/crowdfund-backend/pkg/notifier"
)

func main() {
	// A missing .env is fine; the environment and config.yaml still apply
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(logger.Config{
		Level:      cfg.Log.Level,
		Output:     cfg.Log.Output,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	logger.SetDefault(zlog)
	defer logger.Sync()

	ctx := context.Background()
	store, closeStore, err := openStore(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatalw("failed to open ledger store", "driver", cfg.Storage.Driver, "error", err)
	}
	defer closeStore()

	dispatcher, err := notifier.New(notifier.Config{
		Mode:          cfg.Notifier.Mode,
		WebhookURL:    cfg.Notifier.WebhookURL,
		SigningSecret: cfg.Notifier.SigningSecret,
		Timeout:       cfg.Notifier.Timeout,
		Inbox:         cfg.Notifier.Inbox,
	}, zlog, store.Notifications)
	if err != nil {
		zlog.Fatalw("failed to build notifier", "error", err)
	}

	tokens, err := jwt.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.ExpiresIn)
	if err != nil {
		zlog.Fatalw("failed to build token service", "error", err)
	}

	coordinator := txn.NewCoordinator(store.Tx, txn.Policy{
		MaxAttempts: cfg.Transaction.MaxAttempts,
		BaseBackoff: cfg.Transaction.BaseBackoff,
		Multiplier:  cfg.Transaction.Multiplier,
		MaxBackoff:  cfg.Transaction.MaxBackoff,
	}, txn.WithLogger(zlog.Named("txn")))

	issuer := invitation.NewIssuer(store.Invitations, dispatcher)
	deps := services.Dependencies{
		Store:       store,
		Coordinator: coordinator,
		Policy: services.Policy{
			VoteThreshold:        cfg.Policy.VoteThreshold,
			VotingPeriod:         cfg.Policy.VotingPeriod(),
			FundingPeriod:        cfg.Policy.FundingPeriod(),
			Currency:             cfg.Policy.Currency,
			RejectDuplicateTxRef: cfg.Policy.RejectDuplicateTxRef,
		},
		Notifier:    dispatcher,
		Invitations: issuer,
		Logger:      zlog,
	}
	projectService := services.NewProjectManager(deps)
	fundingService := services.NewFundingProcessor(deps)
	votingService := services.NewVotingEngine(deps)
	reviewService := services.NewReviewGate(deps)
	promotionService := services.NewPromoter(deps)

	if cfg.Scheduler.Enabled {
		manager, err := scheduler.NewManager(zlog)
		if err != nil {
			zlog.Fatalw("failed to create scheduler", "error", err)
		}
		if err := manager.Register(scheduler.NewPromotionJob(promotionService, cfg.Scheduler.PromotionInterval, zlog)); err != nil {
			zlog.Fatalw("failed to register promotion job", "error", err)
		}
		manager.Start()
		defer manager.Stop()
	}

	gin.SetMode(cfg.Server.Mode)
	router := routes.SetupRouter(routes.HandlerDependencies{
		ProjectHandler:      handlers.NewProjectHandler(projectService, fundingService, votingService),
		AdminHandler:        handlers.NewAdminHandler(reviewService, promotionService),
		NotificationHandler: handlers.NewNotificationHandler(services.NewInbox(store.Notifications)),
		InvitationHandler:   handlers.NewInvitationHandler(issuer),
		Tokens:              tokens,
		AllowedHosts:        cfg.Server.AllowedHosts,
		Logger:              zlog,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlog.Infow("server starting", "port", cfg.Server.Port, "storage", cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatalw("listen failed", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Infow("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Errorw("server forced to shutdown", "error", err)
	}
	zlog.Infow("server exiting")
}

// openStore connects the configured ledger store and returns a function that releases it
func openStore(ctx context.Context, cfg *config.Config, zlog *zap.SugaredLogger) (*repositories.Store, func(), error) {
	if cfg.Storage.Driver == config.StorageMemory {
		zlog.Warnw("using in-memory ledger store; data is lost on restart")
		return memory.New().Repositories(), func() {}, nil
	}

	client, err := mongodb.NewClient(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
	if err != nil {
		return nil, nil, err
	}
	db := client.Database(cfg.MongoDB.Database)

	indexCtx, cancel := context.WithTimeout(ctx, cfg.MongoDB.Timeout)
	defer cancel()
	if err := mongorepo.EnsureIndexes(indexCtx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}

	closeFn := func() {
		if err := client.Disconnect(context.Background()); err != nil {
			zlog.Errorw("error disconnecting from MongoDB", "error", err)
		}
	}
	return mongorepo.NewStore(db, client), closeFn, nil
}
