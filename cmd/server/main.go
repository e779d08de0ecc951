package main

import (
	"context"
	"os"

	"github.com/ncastellan/pricewatch-backend-go/internal/api"
	"github.com/ncastellan/pricewatch-backend-go/internal/config"
	"github.com/ncastellan/pricewatch-backend-go/internal/database"
	"github.com/ncastellan/pricewatch-backend-go/internal/handler"
	"github.com/ncastellan/pricewatch-backend-go/internal/repository"
	"github.com/ncastellan/pricewatch-backend-go/internal/service"
	"github.com/ncastellan/pricewatch-backend-go/pkg/logger"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		os.Stderr.WriteString("failed to build logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	if err := database.Init(database.Config{Path: cfg.DBPath}); err != nil {
		log.Errorf(ctx, "failed to initialize database: %v", err)
		os.Exit(1)
	}
	defer database.Close()

	db := database.GetDB()
	if err := database.Migrate(db); err != nil {
		log.Errorf(ctx, "failed to run migrations: %v", err)
		os.Exit(1)
	}

	settingsRepo := repository.NewSettingsRepository(db, log)
	productRepo := repository.NewProductRepository(db)
	jobRepo := repository.NewJobRepository(db)

	watchlistSvc := service.NewWatchlistService(productRepo, jobRepo, settingsRepo, log)
	simulationSvc := service.NewSimulationService(productRepo, settingsRepo, log)

	router := api.SetupRouter(cfg,
		handler.NewWatchlistJobHandler(watchlistSvc),
		handler.NewSimulationHandler(simulationSvc),
		log,
	)

	log.Infof(ctx, "server starting on %s", cfg.Port)
	if err := router.Run(cfg.Port); err != nil {
		log.Errorf(ctx, "server stopped: %v", err)
		os.Exit(1)
	}
}
