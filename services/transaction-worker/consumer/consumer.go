package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/udofia2/migrating-to-microservice/services/transaction-worker/models"
	"github.com/udofia2/migrating-to-microservice/services/transaction-worker/repository"
)

const (
	retryCountHeader = "x-retry-count"
	maxRetries       = 3
)

// TransactionRequeuer republishes a failed delivery back onto the exchange
// so it lands at the tail of the queue instead of blocking the head.
type TransactionRequeuer interface {
	Publish(ctx context.Context, body []byte, headers amqp.Table) error
}

type Consumer struct {
	repo    repository.TransactionRepository
	requeue TransactionRequeuer
	logger  *zap.Logger
}

func New(repo repository.TransactionRepository, requeue TransactionRequeuer, logger *zap.Logger) *Consumer {
	return &Consumer{repo: repo, requeue: requeue, logger: logger}
}

// Start drains the delivery channel until it is closed. With prefetch=1 the
// broker hands over one message at a time, so processing is strictly serial.
func (c *Consumer) Start(deliveries <-chan amqp.Delivery) {
	c.logger.Info("Transaction worker waiting for messages")
	for d := range deliveries {
		c.HandleDelivery(d)
	}
	c.logger.Warn("Delivery channel closed")
}

func (c *Consumer) HandleDelivery(d amqp.Delivery) {
	if err := c.processMessage(context.Background(), d.Body); err != nil {
		c.logger.Error("Error processing transaction message", zap.Error(err))
		c.retryOrReject(d)
		return
	}
	if err := d.Ack(false); err != nil {
		c.logger.Error("Failed to ack message", zap.Error(err))
	}
}

func (c *Consumer) processMessage(ctx context.Context, body []byte) error {
	var msg models.TransactionMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("invalid transaction payload: %w", err)
	}
	if msg.TransactionID == "" || msg.PaymentID == "" || msg.OrderID == "" {
		return errors.New("transaction message missing required fields")
	}

	existing, err := c.repo.FindByTransactionID(ctx, msg.TransactionID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up transaction %s: %w", msg.TransactionID, err)
	}
	if existing != nil {
		c.logger.Info("Transaction already recorded, skipping",
			zap.String("transactionId", msg.TransactionID),
		)
		return nil
	}

	metadata := msg.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	txn := &models.Transaction{
		TransactionID: msg.TransactionID,
		PaymentID:     msg.PaymentID,
		CustomerID:    msg.CustomerID,
		OrderID:       msg.OrderID,
		ProductID:     msg.ProductID,
		Amount:        msg.Amount,
		Status:        normalizeStatus(msg.Status),
		Timestamp:     msg.Timestamp,
		Metadata:      metadata,
		ProcessedAt:   time.Now(),
	}
	if err := c.repo.Create(ctx, txn); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Redelivery raced a concurrent insert; the row exists, so the
			// outcome is the same as the skip above.
			c.logger.Info("Transaction already recorded, skipping",
				zap.String("transactionId", msg.TransactionID),
			)
			return nil
		}
		return fmt.Errorf("failed to save transaction %s: %w", msg.TransactionID, err)
	}

	c.logger.Info("Transaction saved",
		zap.String("transactionId", txn.TransactionID),
		zap.String("orderId", txn.OrderID),
		zap.String("status", txn.Status),
	)
	return nil
}

// retryOrReject sends the message back through the exchange with a bumped
// retry header and acks the original, so the retry joins the queue tail.
// Once the header hits the limit the message is rejected without requeue.
func (c *Consumer) retryOrReject(d amqp.Delivery) {
	count := retryCount(d.Headers)
	if count >= maxRetries {
		c.logger.Error("Max retries reached, rejecting message",
			zap.Int("retryCount", count),
		)
		if err := d.Nack(false, false); err != nil {
			c.logger.Error("Failed to reject message", zap.Error(err))
		}
		return
	}

	headers := amqp.Table{retryCountHeader: int32(count + 1)}
	if err := c.requeue.Publish(context.Background(), d.Body, headers); err != nil {
		c.logger.Error("Failed to republish message, requeueing in place", zap.Error(err))
		if nackErr := d.Nack(false, true); nackErr != nil {
			c.logger.Error("Failed to nack message", zap.Error(nackErr))
		}
		return
	}

	c.logger.Warn("Message requeued for retry",
		zap.Int("retryCount", count+1),
		zap.Int("maxRetries", maxRetries),
	)
	if err := d.Ack(false); err != nil {
		c.logger.Error("Failed to ack original message after requeue", zap.Error(err))
	}
}

// retryCount reads the retry header, tolerating the integer widths different
// AMQP clients write. Anything unreadable counts as a first attempt.
func retryCount(headers amqp.Table) int {
	v, ok := headers[retryCountHeader]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int:
		return n
	case int8:
		return int(n)
	case int16:
		return int(n)
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func normalizeStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case models.TransactionStatusSuccess:
		return models.TransactionStatusSuccess
	case models.TransactionStatusFailed:
		return models.TransactionStatusFailed
	case models.TransactionStatusProcessing:
		return models.TransactionStatusProcessing
	default:
		return models.TransactionStatusPending
	}
}
