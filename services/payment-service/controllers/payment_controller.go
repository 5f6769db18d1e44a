package controllers

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/udofia2/migrating-to-microservice/services/common/responses"
	"github.com/udofia2/migrating-to-microservice/services/payment-service/models"
	"github.com/udofia2/migrating-to-microservice/services/payment-service/services"
)

// TransactionPublisher is the queue transport used for transaction events.
// Satisfied by *rabbitmq.Client.
type TransactionPublisher interface {
	Publish(ctx context.Context, body []byte, headers amqp.Table) error
}

// EventMirror is the optional best-effort Kafka side-publisher.
type EventMirror interface {
	Mirror(key string, payload []byte) error
}

type PaymentController struct {
	Processor *services.Processor
	Publisher TransactionPublisher
	Mirror    EventMirror
	Logger    *zap.Logger
}

// ProcessPayment simulates an authorization and publishes the resulting
// transaction event. The event is published on success and failure alike;
// a publish failure is logged and never changes the HTTP outcome.
func (pc *PaymentController) ProcessPayment(c *gin.Context) {
	var req models.ProcessPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if errs := validateProcessPayment(&req); len(errs) > 0 {
		responses.ValidationFailed(c, errs)
		return
	}

	pc.Logger.Info("Processing payment",
		zap.String("order_id", req.OrderID),
		zap.String("customer_id", req.CustomerID),
		zap.Float64("amount", req.Amount),
	)

	outcome := pc.Processor.Process(req)

	pc.Logger.Info("Payment outcome decided",
		zap.String("order_id", req.OrderID),
		zap.String("payment_id", outcome.PaymentID),
		zap.String("status", outcome.Status),
	)

	pc.publishTransactionEvent(c.Request.Context(), &req, &outcome)

	status := http.StatusOK
	message := "Payment processed successfully"
	if !outcome.Success {
		status = http.StatusPaymentRequired
		message = "Payment processing failed"
	}

	c.JSON(status, gin.H{
		"success":       outcome.Success,
		"paymentId":     outcome.PaymentID,
		"transactionId": outcome.TransactionID,
		"status":        outcome.Status,
		"message":       message,
		"data": gin.H{
			"orderId":   req.OrderID,
			"amount":    req.Amount,
			"timestamp": outcome.Timestamp.Format(time.RFC3339),
		},
	})
}

// GetPayment is a mock lookup endpoint; payments are never persisted here.
func (pc *PaymentController) GetPayment(c *gin.Context) {
	responses.OK(c, http.StatusOK, "", gin.H{
		"paymentId": c.Param("paymentId"),
		"status":    models.PaymentStatusSuccess,
		"message":   "This is a mock payment lookup endpoint",
	})
}

func (pc *PaymentController) publishTransactionEvent(ctx context.Context, req *models.ProcessPaymentRequest, outcome *models.PaymentOutcome) {
	event := models.TransactionEvent{
		TransactionID: outcome.TransactionID,
		PaymentID:     outcome.PaymentID,
		CustomerID:    req.CustomerID,
		OrderID:       req.OrderID,
		ProductID:     req.ProductID,
		Amount:        req.Amount,
		Status:        outcome.Status,
		Timestamp:     outcome.Timestamp,
		Metadata:      outcome.Metadata,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		pc.Logger.Error("Failed to marshal transaction event",
			zap.String("transaction_id", event.TransactionID),
			zap.Error(err),
		)
		return
	}

	if err := pc.Publisher.Publish(ctx, payload, nil); err != nil {
		pc.Logger.Error("Failed to publish transaction event",
			zap.String("transaction_id", event.TransactionID),
			zap.Error(err),
		)
		return
	}

	pc.Logger.Info("Transaction event published",
		zap.String("transaction_id", event.TransactionID),
		zap.String("order_id", event.OrderID),
	)

	if pc.Mirror != nil {
		if err := pc.Mirror.Mirror(event.OrderID, payload); err != nil {
			pc.Logger.Warn("Kafka mirror publish failed",
				zap.String("transaction_id", event.TransactionID),
				zap.Error(err),
			)
		}
	}
}

func validateProcessPayment(req *models.ProcessPaymentRequest) []responses.FieldError {
	var errs []responses.FieldError

	if req.CustomerID == "" {
		errs = append(errs, responses.FieldError{Field: "customerId", Message: "Customer ID is required"})
	}
	if req.OrderID == "" {
		errs = append(errs, responses.FieldError{Field: "orderId", Message: "Order ID is required"})
	}
	if req.Amount <= 0 {
		errs = append(errs, responses.FieldError{Field: "amount", Message: "Amount must be greater than 0"})
	} else if hasMoreThanTwoDecimals(req.Amount) {
		errs = append(errs, responses.FieldError{Field: "amount", Message: "Amount must have at most 2 decimal places"})
	}

	return errs
}

func hasMoreThanTwoDecimals(amount float64) bool {
	scaled := amount * 100
	return math.Abs(scaled-math.Round(scaled)) > 1e-9
}
