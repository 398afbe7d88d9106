package pricing

import (
	"context"

	"github.com/shopspring/decimal"
)

// Pricer is anything that reports a total: an Order, or an adjustment
// wrapped around one. Order returns the order at the bottom of the chain so
// the checkout can reach its items and payment policy.
type Pricer interface {
	TotalValue() decimal.Decimal
	Order() *Order
}

// Order holds the item lines and the two policies chosen for them. Every
// figure is derived on demand; nothing is cached.
type Order struct {
	items    []ItemLine
	shipping ShippingPolicy
	payment  PaymentPolicy
}

var _ Pricer = (*Order)(nil)

// NewOrder copies items so later changes to the caller's slice cannot leak
// into the order. An empty slice is allowed.
func NewOrder(items []ItemLine, shipping ShippingPolicy, payment PaymentPolicy) (*Order, error) {
	if shipping == nil {
		return nil, invalid("shipping_policy", "is required")
	}
	if payment == nil {
		return nil, invalid("payment_policy", "is required")
	}
	owned := make([]ItemLine, len(items))
	copy(owned, items)
	return &Order{items: owned, shipping: shipping, payment: payment}, nil
}

// Items returns a copy of the item lines.
func (o *Order) Items() []ItemLine {
	out := make([]ItemLine, len(o.items))
	copy(out, o.items)
	return out
}

// ItemsTotal sums unit price times quantity over every line.
func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// WeightTotal is the shipped weight: each line's unit weight times its
// quantity.
func (o *Order) WeightTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.items {
		total = total.Add(item.ShippedWeight())
	}
	return total
}

// ShippingCost quotes the shipping policy for WeightTotal.
func (o *Order) ShippingCost() decimal.Decimal {
	return o.shipping.ComputeCost(o.WeightTotal())
}

// BaseTotal is items plus shipping, before any adjustment.
func (o *Order) BaseTotal() decimal.Decimal {
	return o.ItemsTotal().Add(o.ShippingCost())
}

// TotalValue makes an Order the innermost Pricer of a chain. It equals
// BaseTotal.
func (o *Order) TotalValue() decimal.Decimal { return o.BaseTotal() }

// Order returns o itself.
func (o *Order) Order() *Order { return o }

// Charge hands amount to the payment policy once. amount is whatever the
// outermost node of the pricing chain reported.
func (o *Order) Charge(ctx context.Context, amount decimal.Decimal) (bool, error) {
	return o.payment.Charge(ctx, amount)
}
