package coordinator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/pricing"
)

// Attempt is the state one checkout shares between its steps.
type Attempt struct {
	ID     string
	Pricer pricing.Pricer
	Items  []pricing.ItemLine

	// FinalTotal is set by ChargePaymentStep. It stays zero if the
	// checkout stopped before the charge.
	FinalTotal decimal.Decimal
	charged    bool
}

// NewAttempt snapshots the items of the order under p.
func NewAttempt(id string, p pricing.Pricer) *Attempt {
	return &Attempt{ID: id, Pricer: p, Items: p.Order().Items()}
}

func (a *Attempt) finalTotalString() string {
	if !a.charged {
		return ""
	}
	return a.FinalTotal.StringFixed(4)
}

// --- CheckStockStep ---

type CheckStockStep struct {
	inventory Inventory
	attempt   *Attempt
}

func NewCheckStockStep(inventory Inventory, attempt *Attempt) *CheckStockStep {
	return &CheckStockStep{inventory: inventory, attempt: attempt}
}

func (s *CheckStockStep) Stage() Stage { return StageCheckStock }

func (s *CheckStockStep) Execute(ctx context.Context) (bool, error) {
	ok, err := s.inventory.IsAvailable(ctx, s.attempt.Items)
	if err != nil {
		return false, fmt.Errorf("inventory availability: %w", err)
	}
	if !ok {
		slog.InfoContext(ctx, "items out of stock", "checkout_id", s.attempt.ID)
	}
	return ok, nil
}

// --- ChargePaymentStep ---

// ChargePaymentStep evaluates the pricing chain once and charges that amount
// through the order's payment policy once.
type ChargePaymentStep struct {
	attempt *Attempt
}

func NewChargePaymentStep(attempt *Attempt) *ChargePaymentStep {
	return &ChargePaymentStep{attempt: attempt}
}

func (s *ChargePaymentStep) Stage() Stage { return StageChargePayment }

func (s *ChargePaymentStep) Execute(ctx context.Context) (bool, error) {
	total := s.attempt.Pricer.TotalValue()
	s.attempt.FinalTotal = total
	s.attempt.charged = true

	order := s.attempt.Pricer.Order()
	slog.DebugContext(ctx, "order priced",
		"checkout_id", s.attempt.ID,
		"items_total", order.ItemsTotal().StringFixed(2),
		"weight_kg", order.WeightTotal().String(),
		"shipping", order.ShippingCost().StringFixed(2),
		"final_total", total.StringFixed(2),
	)

	ok, err := order.Charge(ctx, total)
	if err != nil {
		return false, fmt.Errorf("payment of %s: %w", total.StringFixed(2), err)
	}
	if !ok {
		slog.InfoContext(ctx, "payment declined", "checkout_id", s.attempt.ID, "amount", total.StringFixed(2))
	}
	return ok, nil
}

// --- CommitStockStep ---

type CommitStockStep struct {
	inventory Inventory
	attempt   *Attempt
}

func NewCommitStockStep(inventory Inventory, attempt *Attempt) *CommitStockStep {
	return &CommitStockStep{inventory: inventory, attempt: attempt}
}

func (s *CommitStockStep) Stage() Stage { return StageCommitStock }

func (s *CommitStockStep) Execute(ctx context.Context) (bool, error) {
	if err := s.inventory.Reserve(ctx, s.attempt.Items); err != nil {
		return false, fmt.Errorf("inventory reservation: %w", err)
	}
	return true, nil
}

// --- EmitInvoiceStep ---

type EmitInvoiceStep struct {
	invoicer Invoicer
	attempt  *Attempt
}

func NewEmitInvoiceStep(invoicer Invoicer, attempt *Attempt) *EmitInvoiceStep {
	return &EmitInvoiceStep{invoicer: invoicer, attempt: attempt}
}

func (s *EmitInvoiceStep) Stage() Stage { return StageEmitInvoice }

func (s *EmitInvoiceStep) Execute(ctx context.Context) (bool, error) {
	if err := s.invoicer.Generate(ctx, s.attempt.FinalTotal); err != nil {
		return false, fmt.Errorf("invoice generation: %w", err)
	}
	return true, nil
}

// --- NotifyStep ---

type NotifyStep struct {
	notifier Notifier
}

func NewNotifyStep(notifier Notifier) *NotifyStep {
	return &NotifyStep{notifier: notifier}
}

func (s *NotifyStep) Stage() Stage { return StageNotify }

func (s *NotifyStep) Execute(ctx context.Context) (bool, error) {
	if err := s.notifier.SendConfirmation(ctx); err != nil {
		return false, fmt.Errorf("customer notification: %w", err)
	}
	return true, nil
}
