package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zoobzio/clockz"

	"github.com/payflow/payment-service/internal/core"
	"github.com/payflow/payment-service/internal/port/output"
)

const (
	baseFailureRate       = 0.10
	highAmountSurcharge   = 0.10
	creditCardSurcharge   = 0.05
	maxFailureRate        = 0.50
	highAmountThreshold   = 10000 // minor units
	internalFailureReason = "internal processing error"
)

// failureReasons is the pool of human-readable causes a simulated
// decline is drawn from.
var failureReasons = []string{
	"insufficient funds",
	"card declined",
	"invalid card number",
	"expired card",
	"network timeout",
	"fraud detection",
}

// PaymentProcessor simulates an external gateway: after a payment is
// created it asynchronously drives it PENDING → PROCESSING → COMPLETED
// or FAILED. One unit of work is scheduled per created payment; nothing
// awaits it and its errors never reach a caller.
type PaymentProcessor struct {
	paymentRepo output.PaymentRepository
	events      output.PaymentEvents

	// MinDelay and MaxDelay bound the two randomized waits of the
	// pipeline. Tests shrink these to keep runs fast.
	MinDelay time.Duration
	MaxDelay time.Duration

	clock clockz.Clock

	// draw returns a uniform number in [0,1) deciding the outcome.
	// Injectable so tests can force success or failure.
	draw func() float64

	rngMu sync.Mutex
	rng   *rand.Rand

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	pending map[uuid.UUID]context.CancelFunc
}

// NewPaymentProcessor creates a payment processor with production delay
// bounds (1s-5s per wait).
func NewPaymentProcessor(paymentRepo output.PaymentRepository, events output.PaymentEvents) *PaymentProcessor {
	ctx, cancel := context.WithCancel(context.Background())
	p := &PaymentProcessor{
		paymentRepo: paymentRepo,
		events:      events,
		MinDelay:    1 * time.Second,
		MaxDelay:    5 * time.Second,
		clock:       clockz.RealClock,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		ctx:         ctx,
		cancel:      cancel,
		pending:     make(map[uuid.UUID]context.CancelFunc),
	}
	p.draw = p.uniform
	return p
}

func (p *PaymentProcessor) uniform() float64 {
	p.rngMu.Lock()
	defer p.rngMu.Unlock()
	return p.rng.Float64()
}

func (p *PaymentProcessor) delay() time.Duration {
	if p.MaxDelay <= p.MinDelay {
		return p.MinDelay
	}
	p.rngMu.Lock()
	defer p.rngMu.Unlock()
	return p.MinDelay + time.Duration(p.rng.Int63n(int64(p.MaxDelay-p.MinDelay)))
}

// Schedule fires one background processing run for the payment id. It
// returns immediately; the run is tracked so Close can cancel it.
func (p *PaymentProcessor) Schedule(id uuid.UUID) {
	runCtx, cancel := context.WithCancel(p.ctx)

	p.mu.Lock()
	p.pending[id] = cancel
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() {
			p.mu.Lock()
			delete(p.pending, id)
			p.mu.Unlock()
			cancel()
		}()
		p.run(runCtx, id)
	}()
}

// run is the full simulation pipeline for one payment.
func (p *PaymentProcessor) run(ctx context.Context, id uuid.UUID) {
	if err := p.process(ctx, id); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Printf("payment %s: processing pipeline failed: %v", id, err)
		p.failHard(id)
	}
}

func (p *PaymentProcessor) process(ctx context.Context, id uuid.UUID) error {
	if err := p.wait(ctx); err != nil {
		return err
	}

	// Re-fetch after waking; the id is all the state the pipeline keeps.
	if _, err := p.paymentRepo.GetByID(id); err != nil {
		if errors.Is(err, core.ErrPaymentNotFound) {
			log.Printf("payment %s disappeared before processing, skipping", id)
			return nil
		}
		return err
	}

	if _, err := p.transition(id, core.PaymentStatusProcessing, ""); err != nil {
		return fmt.Errorf("failed to start processing: %w", err)
	}

	if err := p.wait(ctx); err != nil {
		return err
	}

	if p.draw() < p.failureRateFor(id) {
		reason := failureReasons[p.intn(len(failureReasons))]
		payment, err := p.transition(id, core.PaymentStatusFailed, reason)
		if err != nil {
			return fmt.Errorf("failed to record decline: %w", err)
		}
		p.events.PaymentFailed(context.Background(), payment)
		return nil
	}

	payment, err := p.paymentRepo.Transition(id, func(pay *core.Payment) error {
		now := p.clock.Now()
		if err := pay.TransitionTo(core.PaymentStatusCompleted, now); err != nil {
			return err
		}
		pay.MergeMetadata(map[string]any{
			"transaction_id":   fmt.Sprintf("txn_%s", uuid.New()),
			"gateway_response": "approved",
		}, now)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record approval: %w", err)
	}
	p.events.PaymentCompleted(context.Background(), payment)
	return nil
}

// failureRateFor computes the simulated decline probability: a base rate,
// plus surcharges for large amounts and credit cards, capped.
func (p *PaymentProcessor) failureRateFor(id uuid.UUID) float64 {
	rate := baseFailureRate
	payment, err := p.paymentRepo.GetByID(id)
	if err != nil {
		return rate
	}
	if payment.Amount > highAmountThreshold {
		rate += highAmountSurcharge
	}
	if payment.PaymentMethod == core.MethodCreditCard {
		rate += creditCardSurcharge
	}
	if rate > maxFailureRate {
		rate = maxFailureRate
	}
	return rate
}

func (p *PaymentProcessor) transition(id uuid.UUID, target core.PaymentStatus, failureReason string) (*core.Payment, error) {
	return p.paymentRepo.Transition(id, func(pay *core.Payment) error {
		if err := pay.TransitionTo(target, p.clock.Now()); err != nil {
			return err
		}
		if failureReason != "" {
			pay.FailureReason = failureReason
		}
		return nil
	})
}

// failHard is the last-resort recovery path: if the payment still exists
// it is forced to FAILED with a generic reason, bypassing the edge check.
// A secondary failure is only logged.
func (p *PaymentProcessor) failHard(id uuid.UUID) {
	payment, err := p.paymentRepo.Transition(id, func(pay *core.Payment) error {
		now := p.clock.Now()
		pay.Status = core.PaymentStatusFailed
		pay.FailureReason = internalFailureReason
		pay.UpdatedAt = now
		if pay.ProcessedAt == nil {
			t := now
			pay.ProcessedAt = &t
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, core.ErrPaymentNotFound) {
			log.Printf("payment %s: failed to mark as FAILED after pipeline error: %v", id, err)
		}
		return
	}
	p.events.PaymentFailed(context.Background(), payment)
}

func (p *PaymentProcessor) wait(ctx context.Context) error {
	select {
	case <-p.clock.After(p.delay()):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *PaymentProcessor) intn(n int) int {
	p.rngMu.Lock()
	defer p.rngMu.Unlock()
	return p.rng.Intn(n)
}

// Close cancels every scheduled-but-unfinished run and waits for in-flight
// goroutines to return. Already-applied status changes are not rolled back.
func (p *PaymentProcessor) Close() {
	p.cancel()
	p.wg.Wait()
}
