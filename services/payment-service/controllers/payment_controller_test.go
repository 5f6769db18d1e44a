package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/udofia2/migrating-to-microservice/services/payment-service/controllers"
	"github.com/udofia2/migrating-to-microservice/services/payment-service/models"
	"github.com/udofia2/migrating-to-microservice/services/payment-service/routes"
	"github.com/udofia2/migrating-to-microservice/services/payment-service/services"
)

type fakePublisher struct {
	published [][]byte
	err       error
}

func (f *fakePublisher) Publish(ctx context.Context, body []byte, headers amqp.Table) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, body)
	return nil
}

type fakeMirror struct {
	keys []string
	err  error
}

func (f *fakeMirror) Mirror(key string, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, key)
	return nil
}

func setupRouter(rng func() float64, pub *fakePublisher, mirror controllers.EventMirror) *gin.Engine {
	gin.SetMode(gin.TestMode)
	pc := &controllers.PaymentController{
		Processor: services.NewProcessorWithRNG(rng),
		Publisher: pub,
		Mirror:    mirror,
		Logger:    zap.NewNop(),
	}
	r := gin.New()
	routes.RegisterPaymentRoutes(r, pc)
	return r
}

func postPayment(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/payments", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestProcessPaymentSuccess(t *testing.T) {
	pub := &fakePublisher{}
	r := setupRouter(func() float64 { return 0.99 }, pub, nil)

	w := postPayment(r, `{"customerId":"CUST-1","orderId":"ORD-20260828-ABC123","productId":"PROD-1","amount":49.99}`)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success       bool   `json:"success"`
		PaymentID     string `json:"paymentId"`
		TransactionID string `json:"transactionId"`
		Status        string `json:"status"`
		Message       string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "Payment processed successfully", resp.Message)
	assert.Regexp(t, `^PAY-\d+-[A-F0-9]{8}$`, resp.PaymentID)
	assert.Regexp(t, `^TXN-\d+-[A-F0-9]{8}$`, resp.TransactionID)

	// The transaction event must carry the same identifiers the caller saw.
	require.Len(t, pub.published, 1)
	var event models.TransactionEvent
	require.NoError(t, json.Unmarshal(pub.published[0], &event))
	assert.Equal(t, resp.TransactionID, event.TransactionID)
	assert.Equal(t, resp.PaymentID, event.PaymentID)
	assert.Equal(t, "ORD-20260828-ABC123", event.OrderID)
	assert.Equal(t, "success", event.Status)
}

func TestProcessPaymentDecline(t *testing.T) {
	pub := &fakePublisher{}
	r := setupRouter(func() float64 { return 0.05 }, pub, nil)

	w := postPayment(r, `{"customerId":"CUST-1","orderId":"ORD-20260828-ABC123","amount":10}`)

	require.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
	assert.Contains(t, w.Body.String(), "Payment processing failed")

	// Declined payments are published to the ledger too.
	require.Len(t, pub.published, 1)
	var event models.TransactionEvent
	require.NoError(t, json.Unmarshal(pub.published[0], &event))
	assert.Equal(t, "failed", event.Status)
}

func TestProcessPaymentPublishFailureDoesNotChangeOutcome(t *testing.T) {
	pub := &fakePublisher{err: errors.New("channel closed")}
	r := setupRouter(func() float64 { return 0.99 }, pub, nil)

	w := postPayment(r, `{"customerId":"CUST-1","orderId":"ORD-20260828-ABC123","amount":10}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)
}

func TestProcessPaymentMirrorFailureIsIgnored(t *testing.T) {
	pub := &fakePublisher{}
	mirror := &fakeMirror{err: errors.New("broker unreachable")}
	r := setupRouter(func() float64 { return 0.99 }, pub, mirror)

	w := postPayment(r, `{"customerId":"CUST-1","orderId":"ORD-20260828-ABC123","amount":10}`)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, pub.published, 1)
}

func TestProcessPaymentMirrorsEvent(t *testing.T) {
	pub := &fakePublisher{}
	mirror := &fakeMirror{}
	r := setupRouter(func() float64 { return 0.99 }, pub, mirror)

	w := postPayment(r, `{"customerId":"CUST-1","orderId":"ORD-20260828-ABC123","amount":10}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"ORD-20260828-ABC123"}, mirror.keys)
}

func TestProcessPaymentValidation(t *testing.T) {
	pub := &fakePublisher{}
	r := setupRouter(func() float64 { return 0.99 }, pub, nil)

	w := postPayment(r, `{"amount":0}`)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Errors  []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "Validation failed", resp.Message)

	fields := make([]string, 0, len(resp.Errors))
	for _, e := range resp.Errors {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{"customerId", "orderId", "amount"}, fields)

	// Nothing is published when validation fails.
	assert.Empty(t, pub.published)
}

func TestProcessPaymentRejectsFractionalCents(t *testing.T) {
	r := setupRouter(func() float64 { return 0.99 }, &fakePublisher{}, nil)

	w := postPayment(r, `{"customerId":"CUST-1","orderId":"ORD-20260828-ABC123","amount":10.999}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "at most 2 decimal places")
}

func TestProcessPaymentInvalidBody(t *testing.T) {
	r := setupRouter(func() float64 { return 0.99 }, &fakePublisher{}, nil)

	w := postPayment(r, `{"amount":`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid request body")
}

func TestGetPaymentMockLookup(t *testing.T) {
	r := setupRouter(func() float64 { return 0.99 }, &fakePublisher{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/payments/PAY-1756380000000-ABCDEF01", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"paymentId":"PAY-1756380000000-ABCDEF01"`)
	assert.Contains(t, w.Body.String(), "mock payment lookup")
}
