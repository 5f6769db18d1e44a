package models

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Order lifecycle statuses. An order starts pending and moves toward a
// terminal state; completed/cancelled are set by administrative action only.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusCompleted  = "completed"
	OrderStatusFailed     = "failed"
	OrderStatusCancelled  = "cancelled"
)

type Order struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID    string    `gorm:"uniqueIndex;not null" json:"orderId"`
	CustomerID string    `gorm:"not null;index" json:"customerId"`
	ProductID  string    `gorm:"not null" json:"productId"`
	Amount     float64   `gorm:"not null" json:"amount"`
	Status     string    `gorm:"type:varchar(20);not null;default:'pending';index" json:"orderStatus"`
	PaymentID  *string   `json:"paymentId,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index:idx_orders_created_at,sort:desc" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

const orderIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateOrderID returns a human-readable order identifier of the form
// ORD-YYYYMMDD-XXXXXX. The random suffix makes collisions astronomically
// unlikely; the unique index on order_id catches the rest.
func GenerateOrderID() string {
	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = orderIDAlphabet[rand.Intn(len(orderIDAlphabet))]
	}
	return fmt.Sprintf("ORD-%s-%s", time.Now().Format("20060102"), suffix)
}
