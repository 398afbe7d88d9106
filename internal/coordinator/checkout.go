package coordinator

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/coordinator/journal"
	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/pkg/metrics"
	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/pricing"
)

// Outcome is the result of one checkout attempt. It is not persisted.
type Outcome struct {
	ID          string
	Success     bool
	FailedStage Stage
	// FinalTotal is the amount the payment policy was asked to charge. It is
	// zero when the checkout stopped at CHECK_STOCK.
	FinalTotal decimal.Decimal
}

// Checkout is the single entry point for completing a purchase. It holds
// only collaborator references and can be shared between goroutines; each
// Run works on its own Attempt.
type Checkout struct {
	inventory Inventory
	invoicer  Invoicer
	notifier  Notifier

	journal journal.Repository
	metrics *metrics.CheckoutMetrics
	tracer  trace.Tracer
	newID   func() string
}

type Option func(*Checkout)

// WithJournal records every stage transition in repo.
func WithJournal(repo journal.Repository) Option {
	return func(c *Checkout) { c.journal = repo }
}

func WithMetrics(m *metrics.CheckoutMetrics) Option {
	return func(c *Checkout) { c.metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Checkout) { c.tracer = t }
}

// WithIDGenerator replaces the default random UUIDs.
func WithIDGenerator(fn func() string) Option {
	return func(c *Checkout) { c.newID = fn }
}

func NewCheckout(inventory Inventory, invoicer Invoicer, notifier Notifier, opts ...Option) *Checkout {
	c := &Checkout{
		inventory: inventory,
		invoicer:  invoicer,
		notifier:  notifier,
		tracer:    otel.Tracer(tracerName),
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run checks stock, charges p.TotalValue() through the order's payment
// policy, commits stock, emits the invoice and notifies the customer, in
// that order.
//
// A business failure (out of stock, payment declined) comes back as an
// Outcome with Success false and a nil error. A collaborator fault comes
// back as a *StageError matching ErrCollaborator; the Outcome still names
// the stage. Either way no later stage runs.
func (c *Checkout) Run(ctx context.Context, p pricing.Pricer) (Outcome, error) {
	if p == nil || p.Order() == nil {
		return Outcome{}, ErrNoOrder
	}

	attempt := NewAttempt(c.newID(), p)
	steps := []Step{
		NewCheckStockStep(c.inventory, attempt),
		NewChargePaymentStep(attempt),
		NewCommitStockStep(c.inventory, attempt),
		NewEmitInvoiceStep(c.invoicer, attempt),
		NewNotifyStep(c.notifier),
	}

	adjustments := pricing.Describe(p)
	ctx = WithAdjustments(ctx, adjustments)
	slog.InfoContext(ctx, "starting checkout", "checkout_id", attempt.ID, "items", len(attempt.Items))

	saga := NewOrchestrator(attempt.ID, steps, c.journal,
		WithPayload(summarize(attempt, adjustments)),
		WithFinalTotalSource(attempt.finalTotalString),
		WithStepTracer(c.tracer),
		WithStepMetrics(c.metrics),
	)
	failed, err := saga.Start(ctx)

	return Outcome{
		ID:          attempt.ID,
		Success:     failed == StageNone && err == nil,
		FailedStage: failed,
		FinalTotal:  attempt.FinalTotal,
	}, err
}

type payloadItem struct {
	SKU       string `json:"sku,omitempty"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	Weight    string `json:"weight"`
}

type payload struct {
	Items       []payloadItem `json:"items"`
	Adjustments []string      `json:"adjustments,omitempty"`
}

// summarize describes the attempt for the journal without evaluating any
// total, so the chain is walked only by the charge.
func summarize(a *Attempt, adjustments []string) string {
	p := payload{Items: make([]payloadItem, len(a.Items)), Adjustments: adjustments}
	for i, item := range a.Items {
		p.Items[i] = payloadItem{
			SKU:       item.SKU(),
			UnitPrice: item.UnitPrice().String(),
			Quantity:  item.Quantity(),
			Weight:    item.Weight().String(),
		}
	}
	b, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	return string(b)
}
