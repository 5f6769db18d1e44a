package models

import "time"

// Simulated payment outcomes.
const (
	PaymentStatusSuccess = "success"
	PaymentStatusFailed  = "failed"
)

// ProcessPaymentRequest is the inbound payment call from the order service.
type ProcessPaymentRequest struct {
	CustomerID string  `json:"customerId"`
	OrderID    string  `json:"orderId"`
	ProductID  string  `json:"productId"`
	Amount     float64 `json:"amount"`
}

// PaymentOutcome is the decided result of a simulated authorization. It is
// ephemeral; its only durable trace is the transaction event published to
// the queue.
type PaymentOutcome struct {
	PaymentID     string
	TransactionID string
	Status        string
	Success       bool
	Timestamp     time.Time
	Metadata      map[string]interface{}
}

// TransactionEvent is the queue message produced for every processed
// payment, success or failure alike.
type TransactionEvent struct {
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
