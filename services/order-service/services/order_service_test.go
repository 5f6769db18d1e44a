package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/udofia2/migrating-to-microservice/services/order-service/models"
	"github.com/udofia2/migrating-to-microservice/services/order-service/repository"
)

type fieldUpdate struct {
	orderID string
	updates map[string]interface{}
}

// mockOrderRepository is a hand-rolled in-memory repository double. Updates
// are pushed onto a channel so tests can wait for the asynchronous payment
// continuation to land.
type mockOrderRepository struct {
	mu         sync.Mutex
	createErr  error
	created    []*models.Order
	byOrderID  map[string]*models.Order
	byID       map[uuid.UUID]*models.Order
	findOrders []models.Order
	findTotal  int64
	findErr    error
	updateErr  error
	updatesCh  chan fieldUpdate
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{
		byOrderID: map[string]*models.Order{},
		byID:      map[uuid.UUID]*models.Order{},
		updatesCh: make(chan fieldUpdate, 10),
	}
}

func (m *mockOrderRepository) Create(ctx context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, order)
	m.byOrderID[order.OrderID] = order
	return nil
}

func (m *mockOrderRepository) FindByOrderID(ctx context.Context, orderID string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if order, ok := m.byOrderID[orderID]; ok {
		return order, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if order, ok := m.byID[id]; ok {
		return order, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockOrderRepository) Find(ctx context.Context, filter repository.OrderFilter, page, limit int) ([]models.Order, int64, error) {
	if m.findErr != nil {
		return nil, 0, m.findErr
	}
	return m.findOrders, m.findTotal, nil
}

func (m *mockOrderRepository) UpdateFields(ctx context.Context, orderID string, updates map[string]interface{}) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updatesCh <- fieldUpdate{orderID: orderID, updates: updates}
	return nil
}

// stubPaymentProcessor returns a canned result after an optional delay.
type stubPaymentProcessor struct {
	delay  time.Duration
	result *models.PaymentResult
	err    error
}

func (s *stubPaymentProcessor) ProcessPayment(ctx context.Context, req models.PaymentRequest) (*models.PaymentResult, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func waitForUpdate(t *testing.T, ch chan fieldUpdate) fieldUpdate {
	t.Helper()
	select {
	case upd := <-ch:
		return upd
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for repository update")
		return fieldUpdate{}
	}
}

func TestCreateOrderReturnsBeforePaymentSettles(t *testing.T) {
	repo := newMockOrderRepository()
	payments := &stubPaymentProcessor{
		delay:  200 * time.Millisecond,
		result: &models.PaymentResult{Success: true, PaymentID: "PAY-1756380000000-ABCDEF01", Status: "success"},
	}
	svc := NewOrderService(repo, payments, nil, zap.NewNop())

	start := time.Now()
	order, serviceErr := svc.CreateOrder(context.Background(), &CreateOrderRequest{
		CustomerID: "CUST-1",
		ProductID:  "PROD-1",
		Amount:     99.99,
	})
	elapsed := time.Since(start)

	require.Nil(t, serviceErr)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Nil(t, order.PaymentID)
	assert.Less(t, elapsed, 100*time.Millisecond, "creation must not wait for the payment call")

	upd := waitForUpdate(t, repo.updatesCh)
	assert.Equal(t, order.OrderID, upd.orderID)
	assert.Equal(t, "PAY-1756380000000-ABCDEF01", upd.updates["payment_id"])
}

func TestCreateOrderMarksFailedWhenPaymentErrors(t *testing.T) {
	repo := newMockOrderRepository()
	payments := &stubPaymentProcessor{err: ErrPaymentServiceUnavailable}
	svc := NewOrderService(repo, payments, nil, zap.NewNop())

	order, serviceErr := svc.CreateOrder(context.Background(), &CreateOrderRequest{
		CustomerID: "CUST-1",
		ProductID:  "PROD-1",
		Amount:     10,
	})
	require.Nil(t, serviceErr)

	upd := waitForUpdate(t, repo.updatesCh)
	assert.Equal(t, order.OrderID, upd.orderID)
	assert.Equal(t, models.OrderStatusFailed, upd.updates["status"])
}

func TestCreateOrderDeclineStillAttachesNothing(t *testing.T) {
	// A 402 decline surfaces as a *PaymentServiceError, which the
	// continuation treats like any other initiation failure.
	repo := newMockOrderRepository()
	payments := &stubPaymentProcessor{err: &PaymentServiceError{StatusCode: 402, Message: "Payment processing failed"}}
	svc := NewOrderService(repo, payments, nil, zap.NewNop())

	_, serviceErr := svc.CreateOrder(context.Background(), &CreateOrderRequest{
		CustomerID: "CUST-1",
		ProductID:  "PROD-1",
		Amount:     10,
	})
	require.Nil(t, serviceErr)

	upd := waitForUpdate(t, repo.updatesCh)
	assert.Equal(t, models.OrderStatusFailed, upd.updates["status"])
	assert.NotContains(t, upd.updates, "payment_id")
}

func TestCreateOrderIDConflict(t *testing.T) {
	repo := newMockOrderRepository()
	repo.createErr = gorm.ErrDuplicatedKey
	svc := NewOrderService(repo, &stubPaymentProcessor{}, nil, zap.NewNop())

	_, serviceErr := svc.CreateOrder(context.Background(), &CreateOrderRequest{
		CustomerID: "CUST-1",
		ProductID:  "PROD-1",
		Amount:     10,
	})

	require.NotNil(t, serviceErr)
	assert.Equal(t, 409, serviceErr.StatusCode)
	assert.Equal(t, "Order ID conflict. Please try again.", serviceErr.Message)
}

func TestCreateOrderStorageFailure(t *testing.T) {
	repo := newMockOrderRepository()
	repo.createErr = errors.New("connection reset")
	svc := NewOrderService(repo, &stubPaymentProcessor{}, nil, zap.NewNop())

	_, serviceErr := svc.CreateOrder(context.Background(), &CreateOrderRequest{
		CustomerID: "CUST-1",
		ProductID:  "PROD-1",
		Amount:     10,
	})

	require.NotNil(t, serviceErr)
	assert.Equal(t, 500, serviceErr.StatusCode)
}

func TestGetOrderByOrderID(t *testing.T) {
	repo := newMockOrderRepository()
	order := &models.Order{OrderID: "ORD-20260828-ABC123", CustomerID: "CUST-1"}
	repo.byOrderID[order.OrderID] = order
	svc := NewOrderService(repo, &stubPaymentProcessor{}, nil, zap.NewNop())

	// Lookup is case-insensitive on the human-readable id.
	got, serviceErr := svc.GetOrder(context.Background(), "ord-20260828-abc123")
	require.Nil(t, serviceErr)
	assert.Equal(t, order, got)
}

func TestGetOrderFallsBackToInternalID(t *testing.T) {
	repo := newMockOrderRepository()
	id := uuid.New()
	order := &models.Order{ID: id, OrderID: "ORD-20260828-ABC123"}
	repo.byID[id] = order
	svc := NewOrderService(repo, &stubPaymentProcessor{}, nil, zap.NewNop())

	got, serviceErr := svc.GetOrder(context.Background(), id.String())
	require.Nil(t, serviceErr)
	assert.Equal(t, order, got)
}

func TestGetOrderInvalidIDFormat(t *testing.T) {
	repo := newMockOrderRepository()
	svc := NewOrderService(repo, &stubPaymentProcessor{}, nil, zap.NewNop())

	_, serviceErr := svc.GetOrder(context.Background(), "not-an-order-id")
	require.NotNil(t, serviceErr)
	assert.Equal(t, 400, serviceErr.StatusCode)
	assert.Equal(t, "Invalid order ID format", serviceErr.Message)
}

func TestGetOrderNotFound(t *testing.T) {
	repo := newMockOrderRepository()
	svc := NewOrderService(repo, &stubPaymentProcessor{}, nil, zap.NewNop())

	_, serviceErr := svc.GetOrder(context.Background(), uuid.New().String())
	require.NotNil(t, serviceErr)
	assert.Equal(t, 404, serviceErr.StatusCode)
	assert.Equal(t, "Order not found", serviceErr.Message)
}

func TestListOrdersPaginationMeta(t *testing.T) {
	repo := newMockOrderRepository()
	repo.findOrders = []models.Order{{OrderID: "ORD-20260828-AAAAAA"}, {OrderID: "ORD-20260828-BBBBBB"}}
	repo.findTotal = 101
	svc := NewOrderService(repo, &stubPaymentProcessor{}, nil, zap.NewNop())

	result, serviceErr := svc.ListOrders(context.Background(), repository.OrderFilter{}, 2, 50)
	require.Nil(t, serviceErr)
	assert.Equal(t, 2, result.Meta.Count)
	assert.Equal(t, int64(101), result.Meta.Total)
	assert.Equal(t, 2, result.Meta.Page)
	assert.Equal(t, int64(3), result.Meta.TotalPages)
}

func TestListOrdersStorageFailure(t *testing.T) {
	repo := newMockOrderRepository()
	repo.findErr = errors.New("connection reset")
	svc := NewOrderService(repo, &stubPaymentProcessor{}, nil, zap.NewNop())

	_, serviceErr := svc.ListOrders(context.Background(), repository.OrderFilter{}, 1, 50)
	require.NotNil(t, serviceErr)
	assert.Equal(t, 500, serviceErr.StatusCode)
}
