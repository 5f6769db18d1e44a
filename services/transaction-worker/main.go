package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/udofia2/migrating-to-microservice/pkg/rabbitmq"
	logpkg "github.com/udofia2/migrating-to-microservice/services/common/logger"
	"github.com/udofia2/migrating-to-microservice/services/transaction-worker/consumer"
	"github.com/udofia2/migrating-to-microservice/services/transaction-worker/database"
	"github.com/udofia2/migrating-to-microservice/services/transaction-worker/models"
	"github.com/udofia2/migrating-to-microservice/services/transaction-worker/repository"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logpkg.Initialize(cfg.Env)
	defer logger.Sync() //nolint:errcheck

	if err := database.Connect(logger, &models.Transaction{}); err != nil {
		logger.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	defer database.Close() //nolint:errcheck

	queueClient := rabbitmq.NewClient(cfg.RabbitMQURL, logger)
	if err := queueClient.Connect(); err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer queueClient.Close()

	deliveries, err := queueClient.Consume()
	if err != nil {
		logger.Fatal("Failed to start consuming", zap.Error(err))
	}

	repo := repository.NewGormTransactionRepository(database.DB)
	worker := consumer.New(repo, queueClient, logger)
	go worker.Start(deliveries)

	logger.Info("Transaction worker started",
		zap.String("queue", rabbitmq.QueueName),
		zap.String("exchange", rabbitmq.ExchangeName),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down transaction worker...")
}
