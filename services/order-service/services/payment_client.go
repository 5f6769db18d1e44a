package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/udofia2/migrating-to-microservice/services/order-service/models"
)

const (
	paymentRequestTimeout = 10 * time.Second
	healthCheckTimeout    = 5 * time.Second
)

// Classified payment gateway failures. Callers get one of these (or a
// *PaymentServiceError) instead of the raw transport error.
var (
	ErrPaymentServiceUnavailable = errors.New("payment service is unavailable, please try again later")
	ErrPaymentRequestTimeout     = errors.New("payment request timed out, please try again")
)

// PaymentServiceError is a non-2xx response from the payment service,
// carrying the remote error message. A 402 (simulated decline) surfaces here
// as well.
type PaymentServiceError struct {
	StatusCode int
	Message    string
}

func (e *PaymentServiceError) Error() string {
	return e.Message
}

// PaymentClient wraps the HTTP call to the payment service as a single
// bounded operation. It never persists anything.
type PaymentClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewPaymentClient(baseURL string, logger *zap.Logger) *PaymentClient {
	return &PaymentClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: paymentRequestTimeout},
		logger:  logger,
	}
}

// ProcessPayment submits a payment request and returns the synchronous
// result. Transport failures are classified into distinguishable causes.
func (pc *PaymentClient) ProcessPayment(ctx context.Context, req models.PaymentRequest) (*models.PaymentResult, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payment request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, pc.baseURL+"/payments", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build payment request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	pc.logger.Info("Sending payment request",
		zap.String("order_id", req.OrderID),
		zap.Float64("amount", req.Amount),
	)

	resp, err := pc.client.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var remote struct {
			Message string `json:"message"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&remote); decodeErr != nil || remote.Message == "" {
			remote.Message = "Payment processing failed"
		}
		return nil, &PaymentServiceError{StatusCode: resp.StatusCode, Message: remote.Message}
	}

	var result models.PaymentResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode payment response: %w", err)
	}

	pc.logger.Info("Payment response received",
		zap.String("order_id", req.OrderID),
		zap.String("status", result.Status),
	)
	return &result, nil
}

// HealthCheck probes the payment service liveness endpoint with a short
// bound.
func (pc *PaymentClient) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pc.baseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := pc.client.Do(req)
	if err != nil {
		pc.logger.Warn("Payment service health check failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

func classifyTransportError(err error) error {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return ErrPaymentServiceUnavailable
	}

	var netErr net.Error
	if (errors.As(err, &netErr) && netErr.Timeout()) || errors.Is(err, context.DeadlineExceeded) {
		return ErrPaymentRequestTimeout
	}

	return fmt.Errorf("failed to process payment: %w", err)
}
