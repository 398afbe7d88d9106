package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Describer is implemented by adjustments so invoices and logs can list what
// was applied.
type Describer interface {
	Describe() string
}

type wrapper interface {
	Inner() Pricer
}

// PercentageDiscount takes a fraction off whatever total it wraps,
// surcharges included.
type PercentageDiscount struct {
	inner Pricer
	rate  decimal.Decimal
}

var _ Pricer = (*PercentageDiscount)(nil)

// NewPercentageDiscount rejects rates outside [0, 1].
func NewPercentageDiscount(inner Pricer, rate decimal.Decimal) (*PercentageDiscount, error) {
	if inner == nil {
		return nil, invalid("inner", "discount must wrap a pricer")
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, invalid("rate", "must be within [0, 1], got %s", rate)
	}
	return &PercentageDiscount{inner: inner, rate: rate}, nil
}

// TotalValue is the inner total reduced by the rate, evaluated on every call.
func (d *PercentageDiscount) TotalValue() decimal.Decimal {
	return d.inner.TotalValue().Mul(decimal.NewFromInt(1).Sub(d.rate))
}

// Order returns the order at the bottom of the chain.
func (d *PercentageDiscount) Order() *Order { return d.inner.Order() }

func (d *PercentageDiscount) Inner() Pricer { return d.inner }

func (d *PercentageDiscount) Rate() decimal.Decimal { return d.rate }

func (d *PercentageDiscount) Describe() string {
	return fmt.Sprintf("discount %s%%", d.rate.Shift(2).String())
}

// FixedSurcharge adds a flat fee, e.g. gift wrapping.
type FixedSurcharge struct {
	inner Pricer
	fee   decimal.Decimal
}

var _ Pricer = (*FixedSurcharge)(nil)

// NewFixedSurcharge rejects negative fees.
func NewFixedSurcharge(inner Pricer, fee decimal.Decimal) (*FixedSurcharge, error) {
	if inner == nil {
		return nil, invalid("inner", "surcharge must wrap a pricer")
	}
	if fee.IsNegative() {
		return nil, invalid("fee", "must not be negative, got %s", fee)
	}
	return &FixedSurcharge{inner: inner, fee: fee}, nil
}

// TotalValue is the inner total plus the fee, evaluated on every call.
func (s *FixedSurcharge) TotalValue() decimal.Decimal {
	return s.inner.TotalValue().Add(s.fee)
}

// Order returns the order at the bottom of the chain.
func (s *FixedSurcharge) Order() *Order { return s.inner.Order() }

func (s *FixedSurcharge) Inner() Pricer { return s.inner }

func (s *FixedSurcharge) Fee() decimal.Decimal { return s.fee }

func (s *FixedSurcharge) Describe() string {
	return "surcharge " + s.fee.StringFixed(2)
}

// Adjustment wraps a pricer in one more node.
type Adjustment func(inner Pricer) (Pricer, error)

// Discount returns an Adjustment that wraps its inner pricer in a
// PercentageDiscount of rate.
func Discount(rate decimal.Decimal) Adjustment {
	return func(inner Pricer) (Pricer, error) {
		return NewPercentageDiscount(inner, rate)
	}
}

// Surcharge returns an Adjustment that adds fee on top of its inner pricer.
func Surcharge(fee decimal.Decimal) Adjustment {
	return func(inner Pricer) (Pricer, error) {
		return NewFixedSurcharge(inner, fee)
	}
}

// Apply wraps p with adjs in argument order: adjs[0] ends up innermost and
// the last adjustment is the one whose TotalValue the caller sees.
func Apply(p Pricer, adjs ...Adjustment) (Pricer, error) {
	if p == nil {
		return nil, invalid("pricer", "is required")
	}
	current := p
	for i, adj := range adjs {
		next, err := adj(current)
		if err != nil {
			return nil, fmt.Errorf("adjustment %d: %w", i, err)
		}
		current = next
	}
	return current, nil
}

// Describe lists the adjustments of a chain from outermost to innermost.
func Describe(p Pricer) []string {
	var out []string
	for p != nil {
		if d, ok := p.(Describer); ok {
			out = append(out, d.Describe())
		}
		w, ok := p.(wrapper)
		if !ok {
			break
		}
		p = w.Inner()
	}
	return out
}
