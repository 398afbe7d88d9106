package pricing

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"
)

// PaymentPolicy captures an amount. A false result is a business decline
// (insufficient funds and the like); a non-nil error means the payment rail
// itself could not be reached.
type PaymentPolicy interface {
	Charge(ctx context.Context, amount decimal.Decimal) (bool, error)
}

// InstantTransfer models an instant payment rail. Transfers settle
// immediately and are never declined.
type InstantTransfer struct{}

func NewInstantTransfer() *InstantTransfer { return &InstantTransfer{} }

func (p *InstantTransfer) Charge(ctx context.Context, amount decimal.Decimal) (bool, error) {
	if amount.IsNegative() {
		return false, invalid("amount", "must not be negative, got %s", amount)
	}
	slog.InfoContext(ctx, "instant transfer settled", "amount", amount.StringFixed(2))
	return true, nil
}

// Card models an authorised card capture.
type Card struct{}

func NewCard() *Card { return &Card{} }

func (p *Card) Charge(ctx context.Context, amount decimal.Decimal) (bool, error) {
	if amount.IsNegative() {
		return false, invalid("amount", "must not be negative, got %s", amount)
	}
	slog.InfoContext(ctx, "card capture authorised", "amount", amount.StringFixed(2))
	return true, nil
}
