package models

// PaymentRequest is the outbound call payload sent to the payment service.
type PaymentRequest struct {
	CustomerID string  `json:"customerId"`
	OrderID    string  `json:"orderId"`
	ProductID  string  `json:"productId"`
	Amount     float64 `json:"amount"`
}

// PaymentResult is the synchronous outcome returned by the payment service.
// It is never persisted here; only the payment id is attached to the order.
type PaymentResult struct {
	Success       bool   `json:"success"`
	PaymentID     string `json:"paymentId"`
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
	Message       string `json:"message"`
}
