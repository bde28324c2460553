package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/manoj99-eng/krisco-backend/internal/api"
	"github.com/manoj99-eng/krisco-backend/internal/cache"
	"github.com/manoj99-eng/krisco-backend/internal/config"
	"github.com/manoj99-eng/krisco-backend/internal/mailer"
	"github.com/manoj99-eng/krisco-backend/internal/offers"
	"github.com/manoj99-eng/krisco-backend/internal/pipeline/slowmovers"
	"github.com/manoj99-eng/krisco-backend/internal/repository"
	"github.com/manoj99-eng/krisco-backend/internal/repository/postgres"
	"github.com/manoj99-eng/krisco-backend/internal/service"
	"github.com/manoj99-eng/krisco-backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Initialize repositories
	stockRepo := repository.NewStockRepository(db)
	movementRepo := repository.NewMovementRepository(db)
	itemRepo := repository.NewItemRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)
	artifactRepo := repository.NewArtifactRepository(db)
	emailLogRepo := repository.NewEmailLogRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	staffRepo := repository.NewStaffRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	// Initialize the working-set session store
	workingSetStore, err := cache.NewWorkingSetStore(cfg.Session)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize working set store")
	}

	// Initialize artifact object storage
	objectStorage, err := newObjectStorage(cfg)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize object storage")
	}

	// Initialize services
	classifier := slowmovers.NewClassifier(slowmovers.Config{})
	classificationService := service.NewClassificationService(stockRepo, movementRepo, itemRepo, snapshotRepo, classifier)

	workingSets := offers.NewService(workingSetStore, snapshotRepo)
	dispatcher := mailer.NewDispatcher(staffRepo, emailLogRepo, mailer.NewSMTPSender())
	offerService := service.NewOfferService(workingSets, artifactRepo, emailLogRepo, customerRepo, objectStorage, db, dispatcher)
	orderService := service.NewOrderService(workingSets, orderRepo, snapshotRepo, customerRepo, db, dispatcher)

	importService := service.NewImportService(stockRepo, movementRepo, itemRepo, customerRepo, staffRepo)

	// Initialize HTTP server
	router := api.NewRouter(&api.Services{
		Classification: classificationService,
		Offers:         offerService,
		Orders:         orderService,
		Imports:        importService,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
