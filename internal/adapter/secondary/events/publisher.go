package events

import (
	"context"
	"log"
	"time"

	"github.com/zoobzio/hookz"

	"github.com/payflow/payment-service/internal/core"
	"github.com/payflow/payment-service/internal/port/output"
)

// Event keys emitted over the lifecycle of a payment.
const (
	PaymentCreated   hookz.Key = "payment.created"
	PaymentCompleted hookz.Key = "payment.completed"
	PaymentFailed    hookz.Key = "payment.failed"
)

// Publisher is a secondary adapter that implements the PaymentEvents
// output port on top of an in-process hook bus. Delivery is asynchronous
// and best-effort: a full queue or failing subscriber is logged, never
// surfaced to the emitting caller.
type Publisher struct {
	hooks *hookz.Hooks[core.Payment]
}

// NewPublisher creates an event publisher with a small async worker pool.
func NewPublisher() *Publisher {
	return &Publisher{
		hooks: hookz.New[core.Payment](hookz.WithWorkers(4), hookz.WithTimeout(5*time.Second)),
	}
}

// Subscribe registers a callback for one event key. The returned hook
// handle can be used to unregister.
func (p *Publisher) Subscribe(key hookz.Key, fn func(context.Context, core.Payment) error) (hookz.Hook, error) {
	return p.hooks.Hook(key, fn)
}

func (p *Publisher) emit(ctx context.Context, key hookz.Key, payment *core.Payment) {
	if err := p.hooks.Emit(ctx, key, *payment.Clone()); err != nil {
		log.Printf("failed to emit %s for payment %s: %v", key, payment.ID, err)
	}
}

// PaymentCreated announces a newly created payment
func (p *Publisher) PaymentCreated(ctx context.Context, payment *core.Payment) {
	p.emit(ctx, PaymentCreated, payment)
}

// PaymentCompleted announces a payment that reached COMPLETED
func (p *Publisher) PaymentCompleted(ctx context.Context, payment *core.Payment) {
	p.emit(ctx, PaymentCompleted, payment)
}

// PaymentFailed announces a payment that reached FAILED
func (p *Publisher) PaymentFailed(ctx context.Context, payment *core.Payment) {
	p.emit(ctx, PaymentFailed, payment)
}

// Close drains outstanding deliveries and shuts the worker pool down.
func (p *Publisher) Close() error {
	return p.hooks.Close()
}

var _ output.PaymentEvents = (*Publisher)(nil)
