package services

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/udofia2/migrating-to-microservice/services/payment-service/models"
)

// failureRate is the simulated decline probability. This is a design
// parameter, not real authorization logic.
const failureRate = 0.1

// Processor simulates payment authorization: it generates identifiers,
// decides an outcome and synthesizes processing metadata.
type Processor struct {
	rng func() float64
}

func NewProcessor() *Processor {
	return &Processor{rng: rand.Float64}
}

// NewProcessorWithRNG lets tests force deterministic outcomes.
func NewProcessorWithRNG(rng func() float64) *Processor {
	return &Processor{rng: rng}
}

// Process decides a simulated outcome for the request. Both identifiers
// encode the creation time plus a random component.
func (p *Processor) Process(req models.ProcessPaymentRequest) models.PaymentOutcome {
	success := p.rng() > failureRate

	status := models.PaymentStatusFailed
	if success {
		status = models.PaymentStatusSuccess
	}

	return models.PaymentOutcome{
		PaymentID:     GeneratePaymentID(),
		TransactionID: GenerateTransactionID(),
		Status:        status,
		Success:       success,
		Timestamp:     time.Now().UTC(),
		Metadata: map[string]interface{}{
			"processingTime": rand.Intn(500) + 100,
			"paymentMethod":  "card",
		},
	}
}

// GeneratePaymentID returns an identifier of the form
// PAY-<epoch-millis>-<8 uppercase hex chars>.
func GeneratePaymentID() string {
	return fmt.Sprintf("PAY-%d-%s", time.Now().UnixMilli(), randomSuffix())
}

// GenerateTransactionID returns an identifier of the form
// TXN-<epoch-millis>-<8 uppercase hex chars>. It is the idempotency key for
// the transaction ledger.
func GenerateTransactionID() string {
	return fmt.Sprintf("TXN-%d-%s", time.Now().UnixMilli(), randomSuffix())
}

func randomSuffix() string {
	return strings.ToUpper(uuid.New().String()[:8])
}
