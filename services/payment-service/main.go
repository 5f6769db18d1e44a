package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/udofia2/migrating-to-microservice/pkg/rabbitmq"
	logpkg "github.com/udofia2/migrating-to-microservice/services/common/logger"
	"github.com/udofia2/migrating-to-microservice/services/common/middleware"
	"github.com/udofia2/migrating-to-microservice/services/payment-service/controllers"
	"github.com/udofia2/migrating-to-microservice/services/payment-service/kafka"
	"github.com/udofia2/migrating-to-microservice/services/payment-service/routes"
	"github.com/udofia2/migrating-to-microservice/services/payment-service/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := LoadConfig()

	logger := logpkg.Initialize(cfg.Env)
	defer logger.Sync() //nolint:errcheck

	// The queue is this service's only durable dependency; failing to reach
	// it after the transport's bounded retries is fatal.
	queueClient := rabbitmq.NewClient(cfg.RabbitMQURL, logger)
	if err := queueClient.Connect(); err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer queueClient.Close()

	// Optional best-effort Kafka mirror for analytics
	var mirror controllers.EventMirror
	if cfg.KafkaBrokers != "" {
		eventMirror := kafka.NewEventMirror(strings.Split(cfg.KafkaBrokers, ","), cfg.KafkaTopic)
		defer eventMirror.Close() //nolint:errcheck
		mirror = eventMirror
	}

	pc := &controllers.PaymentController{
		Processor: services.NewProcessor(),
		Publisher: queueClient,
		Mirror:    mirror,
		Logger:    logger,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "service": "payment-service", "status": "healthy"})
	})
	routes.RegisterPaymentRoutes(r, pc)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	logger.Info("Payment service started", zap.String("port", cfg.Port))
	<-quit
	logger.Info("Shutting down payment service...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited cleanly")
}
