package models

import (
	"time"

	"github.com/google/uuid"
)

// Ledger entry statuses.
const (
	TransactionStatusPending    = "pending"
	TransactionStatusProcessing = "processing"
	TransactionStatusSuccess    = "success"
	TransactionStatusFailed     = "failed"
)

// Transaction is the durable, insert-only ledger entry materialized from a
// queue event. transaction_id is the idempotency key: at most one row per
// id ever exists, and rows are never updated after creation.
type Transaction struct {
	ID            uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TransactionID string                 `gorm:"uniqueIndex;not null" json:"transactionId"`
	PaymentID     string                 `gorm:"not null;index" json:"paymentId"`
	CustomerID    string                 `gorm:"not null;index" json:"customerId"`
	OrderID       string                 `gorm:"not null;index" json:"orderId"`
	ProductID     string                 `json:"productId"`
	Amount        float64                `gorm:"not null" json:"amount"`
	Status        string                 `gorm:"type:varchar(20);not null;index" json:"status"`
	Timestamp     time.Time              `gorm:"not null" json:"timestamp"`
	Metadata      map[string]interface{} `gorm:"serializer:json" json:"metadata"`
	ProcessedAt   time.Time              `json:"processedAt"`
	CreatedAt     time.Time              `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time              `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TransactionMessage is the queue payload produced by the payment service.
type TransactionMessage struct {
	TransactionID string                 `json:"transactionId"`
	PaymentID     string                 `json:"paymentId"`
	CustomerID    string                 `json:"customerId"`
	OrderID       string                 `json:"orderId"`
	ProductID     string                 `json:"productId"`
	Amount        float64                `json:"amount"`
	Status        string                 `json:"status"`
	Timestamp     time.Time              `json:"timestamp"`
	Metadata      map[string]interface{} `json:"metadata"`
}
