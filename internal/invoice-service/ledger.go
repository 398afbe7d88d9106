// Package invoiceservice issues invoices for completed charges.
package invoiceservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/coordinator"
)

var ErrNegativeTotal = errors.New("invoice: negative total")

// Invoice is one issued fiscal document.
type Invoice struct {
	Number     string
	CheckoutID string
	Total      decimal.Decimal
	Breakdown  []string
	IssuedAt   time.Time
}

// Ledger keeps issued invoices in memory, in issue order.
type Ledger struct {
	mu        sync.RWMutex
	invoices  []Invoice
	breakdown func(ctx context.Context) []string
	now       func() time.Time
}

var _ coordinator.Invoicer = (*Ledger)(nil)

type LedgerOption func(*Ledger)

// WithBreakdown sets the source of the adjustment lines printed on each
// invoice.
func WithBreakdown(fn func(ctx context.Context) []string) LedgerOption {
	return func(l *Ledger) { l.breakdown = fn }
}

func WithClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) { l.now = now }
}

func NewLedger(opts ...LedgerOption) *Ledger {
	l := &Ledger{now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) Generate(ctx context.Context, finalTotal decimal.Decimal) error {
	if finalTotal.IsNegative() {
		return fmt.Errorf("%w: %s", ErrNegativeTotal, finalTotal.StringFixed(2))
	}

	inv := Invoice{
		Number:     uuid.NewString(),
		CheckoutID: coordinator.CheckoutIDFromContext(ctx),
		Total:      finalTotal,
		IssuedAt:   l.now().UTC(),
	}
	if l.breakdown != nil {
		inv.Breakdown = l.breakdown(ctx)
	}

	l.mu.Lock()
	l.invoices = append(l.invoices, inv)
	l.mu.Unlock()

	slog.InfoContext(ctx, "invoice issued",
		"invoice", inv.Number,
		"checkout_id", inv.CheckoutID,
		"total", finalTotal.StringFixed(2),
	)
	return nil
}

// Invoices returns a copy of every invoice issued so far.
func (l *Ledger) Invoices() []Invoice {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Invoice, len(l.invoices))
	copy(out, l.invoices)
	return out
}

// ForCheckout returns the invoice issued for a checkout, if any.
func (l *Ledger) ForCheckout(checkoutID string) (Invoice, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, inv := range l.invoices {
		if inv.CheckoutID == checkoutID {
			return inv, true
		}
	}
	return Invoice{}, false
}
