package output

import (
	"context"

	"github.com/payflow/payment-service/internal/core"
)

// PaymentEvents is an output port (secondary port) for payment lifecycle
// notifications. Emissions are best-effort: implementations log failures
// and never surface them to the caller.
type PaymentEvents interface {
	// PaymentCreated announces a newly created payment
	PaymentCreated(ctx context.Context, payment *core.Payment)
	// PaymentCompleted announces a payment that reached COMPLETED
	PaymentCompleted(ctx context.Context, payment *core.Payment)
	// PaymentFailed announces a payment that reached FAILED
	PaymentFailed(ctx context.Context, payment *core.Payment)
	// Close drains outstanding deliveries and releases resources
	Close() error
}
