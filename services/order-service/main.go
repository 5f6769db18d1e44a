package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	logpkg "github.com/udofia2/migrating-to-microservice/services/common/logger"
	"github.com/udofia2/migrating-to-microservice/services/common/middleware"
	"github.com/udofia2/migrating-to-microservice/services/order-service/cache"
	"github.com/udofia2/migrating-to-microservice/services/order-service/controllers"
	"github.com/udofia2/migrating-to-microservice/services/order-service/database"
	"github.com/udofia2/migrating-to-microservice/services/order-service/models"
	"github.com/udofia2/migrating-to-microservice/services/order-service/repository"
	"github.com/udofia2/migrating-to-microservice/services/order-service/routes"
	servicepkg "github.com/udofia2/migrating-to-microservice/services/order-service/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("[OrderService] Failed to load config: %v", err)
	}

	logger := logpkg.Initialize(cfg.Env)
	defer logger.Sync() //nolint:errcheck

	if err := database.Connect(logger, &models.Order{}); err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close() //nolint:errcheck

	// Optional Redis-backed order cache
	var orderCache *cache.OrderCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Warn("Redis unavailable, order cache disabled", zap.Error(err))
		} else {
			orderCache = cache.NewOrderCache(rdb, logger)
		}
	}

	// DI chain
	paymentClient := servicepkg.NewPaymentClient(cfg.PaymentServiceURL, logger)
	if !paymentClient.HealthCheck(context.Background()) {
		logger.Warn("Payment service health check failed", zap.String("url", cfg.PaymentServiceURL))
	}
	orderRepo := repository.NewGormOrderRepository(database.DB)
	orderService := servicepkg.NewOrderService(orderRepo, paymentClient, orderCache, logger)
	orderController := controllers.NewOrderController(orderService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "service": "order-service", "status": "healthy"})
	})
	routes.RegisterOrderRoutes(r, orderController)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	logger.Info("Order service started", zap.String("port", cfg.Port))
	<-quit
	logger.Info("Shutting down order service...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited cleanly")
}
