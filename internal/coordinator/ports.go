package coordinator

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/pricing"
)

// Inventory answers whether items are in stock and reserves them.
// A false from IsAvailable is a business outcome; errors mean the store
// could not be reached.
type Inventory interface {
	IsAvailable(ctx context.Context, items []pricing.ItemLine) (bool, error)
	Reserve(ctx context.Context, items []pricing.ItemLine) error
}

// Invoicer records an invoice for the charged total. The checkout ID is
// available through CheckoutIDFromContext.
type Invoicer interface {
	Generate(ctx context.Context, finalTotal decimal.Decimal) error
}

// Notifier tells the customer the order went through.
type Notifier interface {
	SendConfirmation(ctx context.Context) error
}
