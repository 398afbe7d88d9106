package pricing

import (
	"github.com/shopspring/decimal"
)

// ShippingPolicy prices delivery for a total weight. Implementations must be
// pure functions of weight.
type ShippingPolicy interface {
	ComputeCost(weight decimal.Decimal) decimal.Decimal
}

// Rates is a flat fee plus a per-kilogram charge.
type Rates struct {
	Base  decimal.Decimal
	PerKg decimal.Decimal
}

func (r Rates) cost(weight decimal.Decimal) decimal.Decimal {
	return r.Base.Add(weight.Mul(r.PerKg))
}

func (r Rates) validate(prefix string) error {
	if r.Base.IsNegative() {
		return invalid(prefix+".base", "must not be negative, got %s", r.Base)
	}
	if r.PerKg.IsNegative() {
		return invalid(prefix+".per_kg", "must not be negative, got %s", r.PerKg)
	}
	return nil
}

var (
	DefaultStandardRates = Rates{Base: decimal.RequireFromString("15.00"), PerKg: decimal.RequireFromString("0.5")}
	DefaultExpressRates  = Rates{Base: decimal.RequireFromString("45.00"), PerKg: decimal.RequireFromString("2.0")}
)

// StandardShipping is the regular ground service.
type StandardShipping struct {
	rates Rates
}

func NewStandardShipping() *StandardShipping {
	return &StandardShipping{rates: DefaultStandardRates}
}

// NewStandardShippingWithRates overrides the default tariff.
func NewStandardShippingWithRates(r Rates) (*StandardShipping, error) {
	if err := r.validate("standard"); err != nil {
		return nil, err
	}
	return &StandardShipping{rates: r}, nil
}

// ComputeCost is the base fee plus weight times the per-kilogram rate.
func (s *StandardShipping) ComputeCost(weight decimal.Decimal) decimal.Decimal {
	return s.rates.cost(weight)
}

// ExpressShipping is the premium next-day service.
type ExpressShipping struct {
	rates Rates
}

func NewExpressShipping() *ExpressShipping {
	return &ExpressShipping{rates: DefaultExpressRates}
}

func NewExpressShippingWithRates(r Rates) (*ExpressShipping, error) {
	if err := r.validate("express"); err != nil {
		return nil, err
	}
	return &ExpressShipping{rates: r}, nil
}

func (s *ExpressShipping) ComputeCost(weight decimal.Decimal) decimal.Decimal {
	return s.rates.cost(weight)
}
