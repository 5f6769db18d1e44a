package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/udofia2/migrating-to-microservice/services/order-service/cache"
	"github.com/udofia2/migrating-to-microservice/services/order-service/models"
	"github.com/udofia2/migrating-to-microservice/services/order-service/repository"
)

type CreateOrderRequest struct {
	CustomerID string  `json:"customerId"`
	ProductID  string  `json:"productId"`
	Amount     float64 `json:"amount"`
}

type OrderListResponse struct {
	Orders []models.Order
	Meta   MetaData
}

type MetaData struct {
	Count      int   `json:"count"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	TotalPages int64 `json:"totalPages"`
}

type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// PaymentProcessor is the outbound payment call used by the asynchronous
// continuation. Satisfied by *PaymentClient.
type PaymentProcessor interface {
	ProcessPayment(ctx context.Context, req models.PaymentRequest) (*models.PaymentResult, error)
}

type OrderService struct {
	orderRepo  repository.OrderRepository
	payments   PaymentProcessor
	orderCache *cache.OrderCache
	logger     *zap.Logger
}

func NewOrderService(orderRepo repository.OrderRepository, payments PaymentProcessor, orderCache *cache.OrderCache, logger *zap.Logger) *OrderService {
	return &OrderService{
		orderRepo:  orderRepo,
		payments:   payments,
		orderCache: orderCache,
		logger:     logger,
	}
}

// CreateOrder persists a pending order and fires the payment call in the
// background. It returns as soon as the order row exists; the caller never
// waits on the payment outcome.
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*models.Order, *ServiceError) {
	order := &models.Order{
		OrderID:    models.GenerateOrderID(),
		CustomerID: req.CustomerID,
		ProductID:  req.ProductID,
		Amount:     req.Amount,
		Status:     models.OrderStatusPending,
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &ServiceError{
				StatusCode: 409,
				Message:    "Order ID conflict. Please try again.",
			}
		}
		s.logger.Error("Failed to create order", zap.String("order_id", order.OrderID), zap.Error(err))
		return nil, &ServiceError{
			StatusCode: 500,
			Message:    "Failed to create order",
		}
	}

	s.logger.Info("Order created",
		zap.String("order_id", order.OrderID),
		zap.String("customer_id", order.CustomerID),
	)

	go s.settlePayment(order)

	return order, nil
}

// settlePayment is the fire-and-forget continuation. It runs to completion
// regardless of the original request's lifecycle; storage failures here are
// logged and dropped since no caller is listening anymore.
func (s *OrderService) settlePayment(order *models.Order) {
	ctx := context.Background()

	result, err := s.payments.ProcessPayment(ctx, models.PaymentRequest{
		CustomerID: order.CustomerID,
		OrderID:    order.OrderID,
		ProductID:  order.ProductID,
		Amount:     order.Amount,
	})
	if err != nil {
		s.logger.Warn("Payment initiation failed",
			zap.String("order_id", order.OrderID),
			zap.Error(err),
		)
		if updErr := s.orderRepo.UpdateFields(ctx, order.OrderID, map[string]interface{}{
			"status": models.OrderStatusFailed,
		}); updErr != nil {
			s.logger.Error("Failed to mark order as failed", zap.String("order_id", order.OrderID), zap.Error(updErr))
		}
		s.invalidateCache(order.OrderID)
		return
	}

	s.logger.Info("Payment initiated",
		zap.String("order_id", order.OrderID),
		zap.String("payment_id", result.PaymentID),
	)
	if updErr := s.orderRepo.UpdateFields(ctx, order.OrderID, map[string]interface{}{
		"payment_id": result.PaymentID,
	}); updErr != nil {
		s.logger.Error("Failed to attach payment id to order", zap.String("order_id", order.OrderID), zap.Error(updErr))
	}
	s.invalidateCache(order.OrderID)
}

// GetOrder looks an order up by its human-readable id first (case
// normalized), then falls back to the internal storage id.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, *ServiceError) {
	normalized := strings.ToUpper(strings.TrimSpace(id))

	if s.orderCache != nil {
		if order, ok := s.orderCache.Get(ctx, normalized); ok {
			return order, nil
		}
	}

	order, err := s.orderRepo.FindByOrderID(ctx, normalized)
	if err == nil {
		if s.orderCache != nil {
			s.orderCache.SetAsync(normalized, order)
		}
		return order, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("Failed to fetch order", zap.String("order_id", normalized), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch order"}
	}

	internalID, parseErr := uuid.Parse(id)
	if parseErr != nil {
		return nil, &ServiceError{StatusCode: 400, Message: "Invalid order ID format"}
	}

	order, err = s.orderRepo.FindByID(ctx, internalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ServiceError{StatusCode: 404, Message: "Order not found"}
		}
		s.logger.Error("Failed to fetch order", zap.String("id", id), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch order"}
	}

	return order, nil
}

// ListOrders returns orders filtered by customer and/or status, newest
// first.
func (s *OrderService) ListOrders(ctx context.Context, filter repository.OrderFilter, page, limit int) (*OrderListResponse, *ServiceError) {
	orders, total, err := s.orderRepo.Find(ctx, filter, page, limit)
	if err != nil {
		s.logger.Error("Failed to fetch orders", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch orders"}
	}

	return &OrderListResponse{
		Orders: orders,
		Meta: MetaData{
			Count:      len(orders),
			Total:      total,
			Page:       page,
			TotalPages: calculateTotalPages(total, limit),
		},
	}, nil
}

func (s *OrderService) invalidateCache(orderID string) {
	if s.orderCache != nil {
		s.orderCache.Invalidate(orderID)
	}
}

func calculateTotalPages(total int64, limit int) int64 {
	if limit == 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}
