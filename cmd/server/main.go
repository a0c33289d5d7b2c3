package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/secondhand/api"
	"github.com/example/secondhand/pkg/config"
	"github.com/example/secondhand/pkg/repository"
	"github.com/example/secondhand/pkg/service"
	"go.uber.org/zap"
)

func main() {
	// Load config
	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Setup logger
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting marketplace service",
		zap.String("name", cfg.Server.Name),
		zap.Int("port", cfg.Server.Port))

	// MongoDB
	mongoRepo, err := repository.NewMongoRepository(&cfg.MongoDB)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}

	ctx := context.Background()
	if err := mongoRepo.Ping(ctx); err != nil {
		logger.Fatal("MongoDB ping failed", zap.Error(err))
	}
	if err := mongoRepo.EnsureIndexes(ctx); err != nil {
		logger.Fatal("Failed to ensure indexes", zap.Error(err))
	}

	// Redis
	redisRepo := repository.NewRedisRepository(&cfg.Redis)
	if err := redisRepo.Ping(ctx); err != nil {
		logger.Warn("Redis connection failed", zap.Error(err))
	} else {
		logger.Info("Redis connected successfully")
	}

	// Repositories
	products := repository.NewProductRepository(mongoRepo)
	carts := repository.NewCartRepository(mongoRepo)
	orders := repository.NewOrderRepository(mongoRepo)
	transactions := repository.NewTransactionRepository(mongoRepo)
	reviews := repository.NewReviewRepository(mongoRepo)
	users := repository.NewUserRepository(mongoRepo, redisRepo)
	stores := repository.NewStoreRepository(mongoRepo)

	// Services
	cartService := service.NewCartService(products, carts, logger)
	orderService := service.NewOrderService(products, carts, orders, transactions, users, redisRepo, logger)
	transactionService := service.NewTransactionService(transactions, orders, logger)
	reviewService := service.NewReviewService(reviews, orders, products, stores, logger)

	// HTTP server
	server := api.NewServer(cfg, logger, cartService, orderService, transactionService, reviewService)
	server.SetupRoutes()

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("Received shutdown signal")
	case err := <-serverErr:
		logger.Fatal("Server error", zap.Error(err))
	}

	redisRepo.Close()
	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mongoRepo.Close(closeCtx); err != nil {
		logger.Error("Failed to close MongoDB connection", zap.Error(err))
	}

	logger.Info("Service stopped")
}
